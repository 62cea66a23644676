// Package audit renders heterogeneous audit-event payloads into human-readable
// summaries and computes the field-level diffs those payloads carry. It has no
// dependency on storage or transport.
package audit

import (
	"fmt"
	"reflect"
)

// Empty is how absent values render in diffs and formatted lines.
const Empty = "(empty)"

// Change is one tracked field whose value differs between two records.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Diff compares two records field by field and returns a Change for every
// tracked field whose value actually changed. Comparison is by value, not
// reference; fields absent from both records are skipped.
func Diff(oldRecord, newRecord map[string]interface{}, trackedFields []string) []Change {
	var changes []Change
	for _, field := range trackedFields {
		oldVal, oldOK := oldRecord[field]
		newVal, newOK := newRecord[field]
		if !oldOK && !newOK {
			continue
		}
		if reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		changes = append(changes, Change{
			Field: field,
			From:  renderValue(oldVal),
			To:    renderValue(newVal),
		})
	}
	return changes
}

// renderValue formats a diff endpoint for display. Nil and empty strings
// render as Empty so "cleared" edits stay visible in the trail.
func renderValue(v interface{}) string {
	if v == nil {
		return Empty
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return Empty
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}
