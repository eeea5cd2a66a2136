package agentflow

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EditOperation is one validated line-range replacement. Line numbers are
// 1-indexed and inclusive; StartLine = EndLine = totalLines+1 appends.
type EditOperation struct {
	StartLine   int
	EndLine     int
	Replacement string
	TargetFile  string
}

// EditPlan is the validated output of one planning round: the model's
// explanation plus the operations to apply.
type EditPlan struct {
	Reasoning  string
	Operations []EditOperation
}

// ParsePlan extracts and validates an edit plan from raw generation output
// against a file of total lines. Every violation names the offending
// operation by its 1-based position in the plan.
func ParsePlan(response string, total int) (EditPlan, error) {
	block := ExtractBlock(response)
	if block == "" {
		return EditPlan{}, fmt.Errorf("empty planning response")
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return EditPlan{}, fmt.Errorf("invalid YAML in edit plan: %w", err)
	}
	if raw == nil {
		return EditPlan{}, fmt.Errorf("edit plan is not a mapping")
	}

	reasoning, _ := raw["reasoning"].(string)
	if strings.TrimSpace(reasoning) == "" {
		return EditPlan{}, fmt.Errorf("edit plan missing reasoning")
	}

	rawOps, ok := raw["operations"].([]any)
	if !ok || len(rawOps) == 0 {
		return EditPlan{}, fmt.Errorf("edit plan missing operations")
	}

	ops := make([]EditOperation, 0, len(rawOps))
	for i, ro := range rawOps {
		m, ok := ro.(map[string]any)
		if !ok {
			return EditPlan{}, fmt.Errorf("operation %d is not a mapping", i+1)
		}
		start, ok := asInt(m["start_line"])
		if !ok {
			return EditPlan{}, fmt.Errorf("operation %d: start_line must be an integer", i+1)
		}
		end, ok := asInt(m["end_line"])
		if !ok {
			return EditPlan{}, fmt.Errorf("operation %d: end_line must be an integer", i+1)
		}
		replacement, ok := m["replacement"].(string)
		if !ok {
			return EditPlan{}, fmt.Errorf("operation %d: replacement must be a string", i+1)
		}

		if start < 1 || start > total+1 {
			return EditPlan{}, fmt.Errorf("operation %d: start_line %d out of range [1, %d]", i+1, start, total+1)
		}
		if end < 1 || end > total+1 {
			return EditPlan{}, fmt.Errorf("operation %d: end_line %d out of range [1, %d]", i+1, end, total+1)
		}
		if start > end {
			return EditPlan{}, fmt.Errorf("operation %d: start_line %d > end_line %d", i+1, start, end)
		}

		ops = append(ops, EditOperation{StartLine: start, EndLine: end, Replacement: replacement})
	}

	// Overlapping ranges would make the outcome depend on application
	// order, so they are rejected up front.
	for i := range ops {
		for j := i + 1; j < len(ops); j++ {
			if ops[i].StartLine <= ops[j].EndLine && ops[j].StartLine <= ops[i].EndLine {
				return EditPlan{}, fmt.Errorf("operations %d and %d overlap", i+1, j+1)
			}
		}
	}

	return EditPlan{Reasoning: reasoning, Operations: ops}, nil
}

// ApplyEdits applies the operations to their target file from the bottom of
// the file upward, so earlier line numbers stay valid as later ranges
// change length. Failures are recorded per operation; application continues
// past them.
func ApplyEdits(ws Workspace, ops []EditOperation) []OpOutcome {
	ordered := make([]EditOperation, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartLine > ordered[j].StartLine
	})

	outcomes := make([]OpOutcome, 0, len(ordered))
	for _, op := range ordered {
		if err := ws.ReplaceRange(op.TargetFile, op.StartLine, op.EndLine, op.Replacement); err != nil {
			outcomes = append(outcomes, OpOutcome{Success: false, Message: err.Error()})
			continue
		}
		outcomes = append(outcomes, OpOutcome{
			Success: true,
			Message: fmt.Sprintf("Replaced lines %d-%d", op.StartLine, op.EndLine),
		})
	}
	return outcomes
}

// asInt accepts the integer shapes the YAML decoder can produce. Booleans
// and floats are not line numbers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}
