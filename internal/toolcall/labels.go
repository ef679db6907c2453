package toolcall

import "strings"

// Display labeling is presentation metadata only: a tool name prefix maps
// to the verb shown next to the spinner. New prefixes are added here, not
// in the state machine.
var labelRules = []struct {
	label    string
	prefixes []string
}{
	{"reading", []string{"get_", "list_", "search_", "find_", "read_", "fetch_"}},
	{"updating", []string{"update_", "set_", "edit_", "write_", "apply_", "rewrite_"}},
	{"creating", []string{"create_", "add_", "draft_", "generate_"}},
	{"removing", []string{"delete_", "remove_", "archive_"}},
}

const genericLabel = "running"

// Label classifies a tool name into a display verb. Unknown names fall
// back to a generic label.
func Label(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range labelRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(lower, prefix) {
				return rule.label
			}
		}
	}
	return genericLabel
}

// documentMutatingPrefixes marks tools whose success means the working
// document changed; the reconciler uses this for the change side-signal.
var documentMutatingPrefixes = []string{
	"update_", "edit_", "write_", "apply_", "rewrite_", "draft_", "generate_",
}

func IsDocumentMutating(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range documentMutatingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
