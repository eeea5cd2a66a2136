package agentflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/codeagent/llm"
)

// scriptGen routes prompts to canned responses by prompt shape: decision
// prompts carry the tool catalog, planning prompts the editing preamble,
// and anything else is treated as the summary round.
type scriptGen struct {
	decisions []string
	plans     []string
	summary   string

	decisionCalls int
	planCalls     int
	summaryCalls  int
}

func (g *scriptGen) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "Available tools"):
		if g.decisionCalls >= len(g.decisions) {
			return "", fmt.Errorf("unexpected decision round %d", g.decisionCalls+1)
		}
		g.decisionCalls++
		return g.decisions[g.decisionCalls-1], nil
	case strings.Contains(prompt, "code editing assistant"):
		if g.planCalls >= len(g.plans) {
			return "", fmt.Errorf("unexpected planning round %d", g.planCalls+1)
		}
		g.planCalls++
		return g.plans[g.planCalls-1], nil
	default:
		g.summaryCalls++
		return g.summary, nil
	}
}

func decisionYAML(tool, reason string, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString("```yaml\n")
	fmt.Fprintf(&sb, "tool: %s\nreason: %s\n", tool, reason)
	if len(params) > 0 {
		sb.WriteString("params:\n")
		for k, v := range params {
			// Double-quoted so multi-line values survive as YAML scalars.
			fmt.Fprintf(&sb, "  %s: %s\n", k, strconv.Quote(v))
		}
	}
	sb.WriteString("```")
	return sb.String()
}

func TestRunFinishOnly(t *testing.T) {
	gen := &scriptGen{
		decisions: []string{decisionYAML("finish", "nothing to do", nil)},
		summary:   "All done.",
	}
	s := NewSession("say hi", newTestWorkspace(t), gen, nil)
	defer s.Close()

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "All done.", summary)
	assert.Equal(t, "All done.", s.FinalResponse())

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, ToolFinish, history[0].Tool)
	assert.Equal(t, 1, gen.summaryCalls)
}

func TestRunReadThenFinish(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "main.go", "package main")

	gen := &scriptGen{
		decisions: []string{
			decisionYAML("read_file", "inspect main", map[string]string{"target_file": "main.go"}),
			decisionYAML("finish", "saw enough", nil),
		},
		summary: "Read main.go.",
	}
	s := NewSession("what is in main.go", ws, gen, nil)
	defer s.Close()

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Read main.go.", summary)

	history := s.History()
	require.Len(t, history, 2)
	require.NotNil(t, history[0].Result)
	assert.True(t, history[0].Result.Success)
	assert.Equal(t, "package main", history[0].Result.Content)
	assert.Nil(t, history[1].Result)
}

func TestRunFailedReadIsObservedNotFatal(t *testing.T) {
	gen := &scriptGen{
		decisions: []string{
			decisionYAML("read_file", "inspect missing file", map[string]string{"target_file": "nope.go"}),
			decisionYAML("finish", "file does not exist", nil),
		},
		summary: "The file does not exist.",
	}
	s := NewSession("read nope.go", newTestWorkspace(t), gen, nil)
	defer s.Close()

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 2)
	require.NotNil(t, history[0].Result)
	assert.False(t, history[0].Result.Success)
	assert.NotEmpty(t, history[0].Result.Message)
}

func TestRunMalformedDecisionFinishesWithoutSideEffects(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "precious.txt", "keep me")

	gen := &scriptGen{
		decisions: []string{"I think we should probably delete everything?"},
		summary:   "Could not determine an action.",
	}
	s := NewSession("do something", ws, gen, nil)
	defer s.Close()

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Could not determine an action.", summary)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, ToolFinish, history[0].Tool)
	assert.Contains(t, history[0].Reason, "error parsing tool decision")

	content, err := ws.Read("precious.txt")
	require.NoError(t, err)
	assert.Equal(t, "keep me", content)
}

func TestRunIterationCapForcesFinish(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "main.go", "package main")

	read := decisionYAML("read_file", "looking again", map[string]string{"target_file": "main.go"})
	gen := &scriptGen{
		decisions: []string{read, read, read},
		summary:   "Ran out of iterations.",
	}
	cfg := DefaultConfig()
	cfg.MaxIterations = 3
	s := NewSession("keep reading", ws, gen, &cfg)
	defer s.Close()

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ran out of iterations.", summary)

	history := s.History()
	require.Len(t, history, 4)
	last := history[len(history)-1]
	assert.Equal(t, ToolFinish, last.Tool)
	assert.Contains(t, last.Reason, "Maximum number of iterations")

	// The forced finish must not consult the model for a decision.
	assert.Equal(t, 3, gen.decisionCalls)
	assert.Equal(t, 1, gen.summaryCalls)
}

func TestRunMissingParamIsFatal(t *testing.T) {
	gen := &scriptGen{
		decisions: []string{decisionYAML("read_file", "forgot the file", nil)},
	}
	s := NewSession("read something", newTestWorkspace(t), gen, nil)
	defer s.Close()

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingParam)

	// The faulty action stays in history for postmortem inspection.
	assert.Len(t, s.History(), 1)
	assert.Empty(t, s.FinalResponse())
}

func TestRunTransportErrorIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", boom
	})
	s := NewSession("do something", newTestWorkspace(t), gen, nil)
	defer s.Close()

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.History())
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scriptGen{summary: "never reached"}
	s := NewSession("do something", newTestWorkspace(t), gen, nil)
	defer s.Close()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEditFlow(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "greet.go", "package main\n\nfunc greet() string {\n\treturn \"hi\"\n}")

	gen := &scriptGen{
		decisions: []string{
			decisionYAML("edit_file", "change the greeting", map[string]string{
				"target_file":  "greet.go",
				"instructions": "Return a longer greeting",
				"code_edit":    "// ... existing code ...\n\treturn \"hello there\"\n// ... existing code ...",
			}),
			decisionYAML("finish", "edit applied", nil),
		},
		plans: []string{"```yaml\n" + `reasoning: |
  The return statement is on line 4.
operations:
  - start_line: 4
    end_line: 4
    replacement: "\treturn \"hello there\""` + "\n```"},
		summary: "Updated the greeting.",
	}
	s := NewSession("make the greeting friendlier", ws, gen, nil)
	defer s.Close()

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Updated the greeting.", summary)

	content, err := ws.Read("greet.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc greet() string {\n\treturn \"hello there\"\n}", content)

	history := s.History()
	require.Len(t, history, 2)
	res := history[0].Result
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Operations)
	require.Len(t, res.Details, 1)
	assert.True(t, res.Details[0].Success)
	assert.Contains(t, res.Reasoning, "line 4")
}

func TestRunEditInvalidPlanIsObservedNotFatal(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "f.txt", "a\nb\nc")

	gen := &scriptGen{
		decisions: []string{
			decisionYAML("edit_file", "try an edit", map[string]string{
				"target_file":  "f.txt",
				"instructions": "change something",
				"code_edit":    "x",
			}),
			decisionYAML("finish", "plan failed", nil),
		},
		plans:   []string{"no yaml here at all"},
		summary: "The edit could not be planned.",
	}
	s := NewSession("edit f.txt", ws, gen, nil)
	defer s.Close()

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 2)
	require.NotNil(t, history[0].Result)
	assert.False(t, history[0].Result.Success)

	// Nothing was applied.
	content, err := ws.Read("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", content)
}

func TestRunEmitsEvents(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "main.go", "package main")

	gen := &scriptGen{
		decisions: []string{
			decisionYAML("read_file", "inspect", map[string]string{"target_file": "main.go"}),
			decisionYAML("finish", "done", nil),
		},
		summary: "Done.",
	}
	s := NewSession("read main.go", ws, gen, nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	s.Close()

	var kinds []EventKind
	for ev := range s.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, EventRunStart)
	assert.Contains(t, kinds, EventDecision)
	assert.Contains(t, kinds, EventActionStart)
	assert.Contains(t, kinds, EventActionEnd)
	assert.Contains(t, kinds, EventRunEnd)
}

func TestRunRepetitionWarning(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "main.go", "package main")

	read := decisionYAML("read_file", "again", map[string]string{"target_file": "main.go"})
	gen := &scriptGen{
		decisions: []string{read, read, read, decisionYAML("finish", "done", nil)},
		summary:   "Done.",
	}
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 3
	s := NewSession("read main.go forever", ws, gen, &cfg)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	s.Close()

	found := false
	for ev := range s.Events() {
		if ev.Kind == EventRepetition {
			found = true
		}
	}
	assert.True(t, found, "expected a repetition event after identical actions")
}
