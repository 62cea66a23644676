package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EmailError represents a CC email validation error
type EmailError struct {
	Code    string
	Message string
}

func (e *EmailError) Error() string {
	return e.Message
}

// validate applies the same "email" rule gin uses on request bodies, so an
// address accepted at order intake is also accepted on a CC update.
var validate = validator.New()

// NormalizeCCEmails validates and normalizes a CC recipient list. Addresses
// are lowercased and trimmed; duplicates after case-folding and any entry
// matching the primary contact email are rejected. The returned slice keeps
// the caller's ordering.
func NormalizeCCEmails(emails []string, primaryEmail string) ([]string, error) {
	primary := strings.ToLower(strings.TrimSpace(primaryEmail))

	normalized := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))

	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			return nil, &EmailError{
				Code:    "EMPTY_EMAIL",
				Message: "CC list contains an empty address",
			}
		}
		if err := validate.Var(email, "email"); err != nil {
			return nil, &EmailError{
				Code:    "INVALID_EMAIL",
				Message: fmt.Sprintf("Invalid email address: %s", raw),
			}
		}
		if seen[email] {
			return nil, &EmailError{
				Code:    "DUPLICATE_EMAIL",
				Message: fmt.Sprintf("Duplicate email address: %s", email),
			}
		}
		if email == primary {
			return nil, &EmailError{
				Code:    "PRIMARY_EMAIL_IN_CC",
				Message: fmt.Sprintf("CC list may not contain the primary contact email: %s", email),
			}
		}
		seen[email] = true
		normalized = append(normalized, email)
	}

	return normalized, nil
}
