package audit

import (
	"fmt"
	"sort"
)

// Formatted is the human-readable rendering of one audit event: a one-line
// summary plus zero or more detail lines.
type Formatted struct {
	Summary string   `json:"summary"`
	Lines   []string `json:"lines"`
}

// Renderer turns one action's detail payload into a Formatted. Renderers must
// tolerate missing fields: absent details degrade to omitted lines, never a
// panic.
type Renderer func(details map[string]interface{}) Formatted

// renderers is the registry of per-action renderers. Actions not present here
// fall back to renderFallback, so Format is total over well-formed input.
var renderers = map[string]Renderer{
	"order.create":                   renderOrderCreate,
	"order.status_change":            renderStatusChange,
	"order.assign":                   renderAssign,
	"order.shipping_update":          renderShippingUpdate,
	"order.items_update":             renderItemsUpdate,
	"order.note_add":                 renderNoteAdd,
	"order.note_delete":              renderNoteDelete,
	"order.emails_update":            renderEmailsUpdate,
	"order.email_send":               renderEmailSend,
	"order.link_user":                renderLinkUser,
	"order.archive":                  renderOrderArchive,
	"proof.upload":                   renderProofUpload,
	"proof.delete":                   renderProofDelete,
	"proof.annotate":                 renderProofAnnotate,
	"proof.annotation_resolve":       renderAnnotationResolve,
	"proof.approve":                  renderProofApprove,
	"communication.inbound_received": renderInboundReceived,
	"user.create":                    renderUserCreate,
	"user.update":                    renderUserUpdate,
	"user.delete":                    renderUserDelete,
	"auth.login":                     renderAuthLogin,
	"auth.logout":                    renderAuthLogout,
	"auth.login_failed":              renderAuthLoginFailed,
	"product.create":                 renderProductCreate,
	"product.update":                 renderProductUpdate,
	"product.delete":                 renderProductDelete,
}

// KnownActions returns the sorted list of actions with a registered renderer.
func KnownActions() []string {
	actions := make([]string, 0, len(renderers))
	for a := range renderers {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Register adds or replaces the renderer for an action. New event kinds plug in
// here without touching any caller.
func Register(action string, r Renderer) {
	renderers[action] = r
}

// Format renders an audit event. Unrecognized actions get the scalar fallback,
// so callers never see an error for a well-formed event.
func Format(action string, details map[string]interface{}) Formatted {
	if r, ok := renderers[action]; ok {
		return r(details)
	}
	return renderFallback(details)
}

// renderFallback renders unknown payloads: the first non-empty scalar field
// becomes the summary, the rest become lines. Arrays, maps and nulls are
// skipped. Keys are walked in sorted order so output is stable.
func renderFallback(details map[string]interface{}) Formatted {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rendered []string
	for _, k := range keys {
		v := details[k]
		if v == nil {
			continue
		}
		switch v.(type) {
		case string, bool, int, int64, float64, uint:
			s := fmt.Sprintf("%v", v)
			if s == "" {
				continue
			}
			rendered = append(rendered, fmt.Sprintf("%s: %s", k, s))
		}
	}

	if len(rendered) == 0 {
		return Formatted{Lines: []string{}}
	}
	return Formatted{Summary: rendered[0], Lines: rendered[1:]}
}

// str reads a scalar detail as a string, "" when absent or non-scalar.
func str(details map[string]interface{}, key string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case string, bool, int, int64, float64, uint:
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// strs reads a string-array detail, tolerating []interface{} from JSON decode.
func strs(details map[string]interface{}, key string) []string {
	v, ok := details[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	}
	return nil
}

// changeLines renders a diff payload ([]Change or its JSON-decoded shape).
func changeLines(details map[string]interface{}, key string) []string {
	v, ok := details[key]
	if !ok || v == nil {
		return nil
	}
	var lines []string
	switch vv := v.(type) {
	case []Change:
		for _, c := range vv {
			lines = append(lines, fmt.Sprintf("%s: %s to %s", c.Field, c.From, c.To))
		}
	case []interface{}:
		for _, item := range vv {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s to %s",
				str(m, "field"), str(m, "from"), str(m, "to")))
		}
	}
	return lines
}

// orderRef renders "order #N" when the order number is known.
func orderRef(details map[string]interface{}) string {
	if n := str(details, "orderNumber"); n != "" {
		return "order #" + n
	}
	return "order"
}

func line(lines []string, label, value string) []string {
	if value == "" {
		return lines
	}
	return append(lines, label+": "+value)
}

func renderOrderCreate(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "Contact", str(d, "contactName"))
	lines = line(lines, "School", str(d, "schoolName"))
	lines = line(lines, "Items", str(d, "itemCount"))
	return Formatted{Summary: "Created " + orderRef(d), Lines: lines}
}

func renderStatusChange(d map[string]interface{}) Formatted {
	prev, next := str(d, "previousStatus"), str(d, "status")
	summary := "Changed status of " + orderRef(d)
	if prev != "" && next != "" {
		summary = fmt.Sprintf("Changed status of %s from %s to %s", orderRef(d), prev, next)
	}
	var lines []string
	lines = line(lines, "Contact", str(d, "contactName"))
	return Formatted{Summary: summary, Lines: lines}
}

func renderAssign(d map[string]interface{}) Formatted {
	if str(d, "adminId") == "unassigned" {
		return Formatted{Summary: "Unassigned " + orderRef(d)}
	}
	summary := "Assigned " + orderRef(d)
	if name := str(d, "adminName"); name != "" {
		summary += " to " + name
	}
	return Formatted{Summary: summary}
}

func renderShippingUpdate(d map[string]interface{}) Formatted {
	return Formatted{
		Summary: "Updated shipping info on " + orderRef(d),
		Lines:   changeLines(d, "changes"),
	}
}

func renderItemsUpdate(d map[string]interface{}) Formatted {
	summary := "Updated items on " + orderRef(d)
	prev, next := str(d, "previousCount"), str(d, "newCount")
	if prev != "" && next != "" {
		summary = fmt.Sprintf("Updated items on %s (%s to %s)", orderRef(d), prev, next)
	}
	var lines []string
	for _, name := range strs(d, "items") {
		lines = append(lines, "Item: "+name)
	}
	return Formatted{Summary: summary, Lines: lines}
}

func renderNoteAdd(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "Note", str(d, "note"))
	return Formatted{Summary: "Added a note to " + orderRef(d), Lines: lines}
}

func renderNoteDelete(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "Note", str(d, "note"))
	return Formatted{Summary: "Deleted a note from " + orderRef(d), Lines: lines}
}

func renderEmailsUpdate(d map[string]interface{}) Formatted {
	var lines []string
	for _, e := range strs(d, "emails") {
		lines = append(lines, "CC: "+e)
	}
	return Formatted{Summary: "Updated CC recipients on " + orderRef(d), Lines: lines}
}

func renderEmailSend(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "Subject", str(d, "subject"))
	lines = line(lines, "To", str(d, "recipient"))
	lines = line(lines, "Attachments", str(d, "attachmentCount"))
	return Formatted{Summary: "Sent an email for " + orderRef(d), Lines: lines}
}

func renderLinkUser(d map[string]interface{}) Formatted {
	summary := "Linked " + orderRef(d) + " to a customer account"
	var lines []string
	lines = line(lines, "Email", str(d, "email"))
	return Formatted{Summary: summary, Lines: lines}
}

func renderOrderArchive(d map[string]interface{}) Formatted {
	return Formatted{Summary: "Archived " + orderRef(d)}
}

func proofRef(d map[string]interface{}) string {
	ref := "proof"
	if v := str(d, "version"); v != "" {
		ref = "proof v" + v
	}
	if t := str(d, "title"); t != "" {
		ref += " \"" + t + "\""
	}
	return ref
}

func renderProofUpload(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "File type", str(d, "fileType"))
	return Formatted{Summary: "Uploaded " + proofRef(d) + " for " + orderRef(d), Lines: lines}
}

func renderProofDelete(d map[string]interface{}) Formatted {
	return Formatted{Summary: "Deleted " + proofRef(d) + " from " + orderRef(d)}
}

func renderProofAnnotate(d map[string]interface{}) Formatted {
	summary := "Feedback left on " + proofRef(d)
	if a := str(d, "author"); a != "" {
		summary = a + " left feedback on " + proofRef(d)
	}
	var lines []string
	lines = line(lines, "Type", str(d, "type"))
	lines = line(lines, "Comment", str(d, "comment"))
	return Formatted{Summary: summary, Lines: lines}
}

func renderAnnotationResolve(d map[string]interface{}) Formatted {
	summary := "Resolved feedback on " + proofRef(d)
	if by := str(d, "resolvedBy"); by != "" {
		summary += " (" + by + ")"
	}
	var lines []string
	lines = line(lines, "Comment", str(d, "comment"))
	return Formatted{Summary: summary, Lines: lines}
}

func renderProofApprove(d map[string]interface{}) Formatted {
	summary := "Approved " + proofRef(d)
	if by := str(d, "signedOffBy"); by != "" {
		summary = by + " approved " + proofRef(d)
	}
	return Formatted{Summary: summary}
}

func renderInboundReceived(d map[string]interface{}) Formatted {
	var lines []string
	lines = line(lines, "Subject", str(d, "subject"))
	lines = line(lines, "From", str(d, "sender"))
	return Formatted{Summary: "Received an email for " + orderRef(d), Lines: lines}
}

func renderUserCreate(d map[string]interface{}) Formatted {
	summary := "Created user"
	if e := str(d, "email"); e != "" {
		summary += " " + e
	}
	var lines []string
	lines = line(lines, "Name", str(d, "name"))
	lines = line(lines, "Role", str(d, "role"))
	return Formatted{Summary: summary, Lines: lines}
}

func renderUserUpdate(d map[string]interface{}) Formatted {
	summary := "Updated user"
	if e := str(d, "email"); e != "" {
		summary += " " + e
	}
	return Formatted{Summary: summary, Lines: changeLines(d, "changes")}
}

func renderUserDelete(d map[string]interface{}) Formatted {
	summary := "Deleted user"
	if e := str(d, "email"); e != "" {
		summary += " " + e
	}
	return Formatted{Summary: summary}
}

func renderAuthLogin(d map[string]interface{}) Formatted {
	summary := "Signed in"
	if e := str(d, "email"); e != "" {
		summary = e + " signed in"
	}
	return Formatted{Summary: summary}
}

func renderAuthLogout(d map[string]interface{}) Formatted {
	summary := "Signed out"
	if e := str(d, "email"); e != "" {
		summary = e + " signed out"
	}
	return Formatted{Summary: summary}
}

func renderAuthLoginFailed(d map[string]interface{}) Formatted {
	summary := "Failed sign-in attempt"
	if e := str(d, "email"); e != "" {
		summary = "Failed sign-in attempt for " + e
	}
	var lines []string
	lines = line(lines, "Reason", str(d, "reason"))
	return Formatted{Summary: summary, Lines: lines}
}

func productRef(d map[string]interface{}) string {
	ref := "product"
	if n := str(d, "name"); n != "" {
		ref += " \"" + n + "\""
	}
	if s := str(d, "sku"); s != "" {
		ref += " (" + s + ")"
	}
	return ref
}

func renderProductCreate(d map[string]interface{}) Formatted {
	return Formatted{Summary: "Created " + productRef(d)}
}

func renderProductUpdate(d map[string]interface{}) Formatted {
	return Formatted{Summary: "Updated " + productRef(d), Lines: changeLines(d, "changes")}
}

func renderProductDelete(d map[string]interface{}) Formatted {
	return Formatted{Summary: "Deleted " + productRef(d)}
}
