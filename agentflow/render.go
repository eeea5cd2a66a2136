package agentflow

import (
	"fmt"
	"sort"
	"strings"
)

// RenderHistory produces the textual summary of prior actions that is fed
// back to the model on every decision round and in the terminal summary
// prompt. Each tool gets its own rendering of the result: full content for
// reads, per-match detail for searches, the tree text for listings,
// operation counts and reasoning for edits.
func RenderHistory(history []Action) string {
	if len(history) == 0 {
		return "No previous actions."
	}

	var sb strings.Builder
	sb.WriteString("\n")
	for i, act := range history {
		fmt.Fprintf(&sb, "Action %d:\n", i+1)
		fmt.Fprintf(&sb, "- Tool: %s\n", act.Tool)
		fmt.Fprintf(&sb, "- Reason: %s\n", act.Reason)
		if len(act.Params) > 0 {
			sb.WriteString("- Parameters:\n")
			for _, k := range sortedKeys(act.Params) {
				fmt.Fprintf(&sb, "  - %s: %v\n", k, act.Params[k])
			}
		}
		renderResult(&sb, act)
		if i < len(history)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderResult(sb *strings.Builder, act Action) {
	res := act.Result
	if res == nil {
		return
	}

	if res.Success {
		sb.WriteString("- Result: Success\n")
	} else {
		sb.WriteString("- Result: Failed\n")
	}

	switch {
	case act.Tool == ToolReadFile && res.Success:
		fmt.Fprintf(sb, "- Content: %s\n", res.Content)
	case act.Tool == ToolGrepSearch && res.Success:
		fmt.Fprintf(sb, "- Matches: %d\n", len(res.Matches))
		for j, m := range res.Matches {
			fmt.Fprintf(sb, "  %d. %s:%d: %s\n", j+1, m.File, m.Line, m.Content)
		}
	case act.Tool == ToolEditFile && res.Success:
		fmt.Fprintf(sb, "- Operations: %d\n", res.Operations)
		if res.Reasoning != "" {
			fmt.Fprintf(sb, "- Reasoning: %s\n", res.Reasoning)
		}
	case act.Tool == ToolListDir && res.Success:
		sb.WriteString("- Directory structure:\n")
		tree := strings.TrimSpace(strings.ReplaceAll(res.Tree, "\r\n", "\n"))
		if tree == "" {
			sb.WriteString("  (Empty or inaccessible directory)\n")
			return
		}
		for _, line := range strings.Split(tree, "\n") {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(sb, "  %s\n", line)
			}
		}
	default:
		if res.Message != "" {
			fmt.Fprintf(sb, "- Message: %s\n", res.Message)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
