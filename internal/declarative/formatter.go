package declarative

import (
	"encoding/json"
	"fmt"
	"io"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// FormatText writes a human-readable apply result to w. Skipped resources
// are listed only when verbose is set.
func FormatText(w io.Writer, res *Result, noColor, verbose bool) {
	c := func(code string) string {
		if noColor {
			return ""
		}
		return code
	}

	for _, a := range res.Actions {
		detail := ""
		if a.Detail != "" {
			detail = " (" + a.Detail + ")"
		}
		switch a.Operation {
		case OpCreate:
			fmt.Fprintf(w, "  %s+%s %s %q created%s\n", c(colorGreen), c(colorReset), a.ResourceKind, a.ResourceName, detail)
		case OpUpdate:
			fmt.Fprintf(w, "  %s~%s %s %q updated%s\n", c(colorYellow), c(colorReset), a.ResourceKind, a.ResourceName, detail)
		default:
			if verbose {
				fmt.Fprintf(w, "  %s=%s %s %q unchanged\n", c(colorDim), c(colorReset), a.ResourceKind, a.ResourceName)
			}
		}
	}

	s := res.Summary()
	if !res.HasChanges() {
		fmt.Fprintf(w, "No changes. %d resource(s) already present.\n", s.Skips)
		return
	}
	fmt.Fprintf(w, "\n%sApplied:%s %d created, %d updated, %d unchanged.\n",
		c(colorDim), c(colorReset), s.Creates, s.Updates, s.Skips)
}

// FormatJSON writes the apply result as JSON to w.
func FormatJSON(w io.Writer, res *Result) error {
	type jsonAction struct {
		Operation    string `json:"operation"`
		ResourceType string `json:"resource_type"`
		ResourceName string `json:"resource_name"`
		Detail       string `json:"detail,omitempty"`
	}
	type jsonResult struct {
		Actions []jsonAction `json:"actions"`
		Summary Summary      `json:"summary"`
	}

	jr := jsonResult{
		Actions: make([]jsonAction, 0, len(res.Actions)),
		Summary: res.Summary(),
	}
	for _, a := range res.Actions {
		jr.Actions = append(jr.Actions, jsonAction{
			Operation:    a.Operation.String(),
			ResourceType: a.ResourceKind.String(),
			ResourceName: a.ResourceName,
			Detail:       a.Detail,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
