package proposal

import (
	"sort"
	"strings"
)

// ValidationError lists the fields that block a proposal.
type ValidationError struct {
	Missing []string          `json:"missing_fields"`
	Invalid map[string]string `json:"invalid_fields,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := []string{}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		keys := make([]string, 0, len(e.Invalid))
		for k := range e.Invalid {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+e.Invalid[k])
		}
	}
	return "proposal is incomplete (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) missing(field string) {
	e.Missing = append(e.Missing, field)
}

func (e *ValidationError) invalid(field, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[field] = reason
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
