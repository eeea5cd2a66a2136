package agentflow

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/codeagent/llm"
)

// DecisionParser turns a request plus history into exactly one Decision per
// loop iteration by consulting the generation client.
type DecisionParser struct {
	gen llm.Generator
}

// NewDecisionParser creates a parser backed by the given generator.
func NewDecisionParser(gen llm.Generator) *DecisionParser {
	return &DecisionParser{gen: gen}
}

// Next produces the next decision. A transport failure from the generator
// is returned as an error and is fatal to the run. Any failure to extract
// or parse a decision from the generated text is recovered locally: the
// returned decision is a synthetic finish carrying the parse error as its
// reason, so the loop always makes forward progress toward termination.
// fallback reports whether that recovery happened.
func (p *DecisionParser) Next(ctx context.Context, request string, history []Action) (dec Decision, fallback bool, err error) {
	prompt := buildDecisionPrompt(request, history)
	response, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return Decision{}, false, fmt.Errorf("decision generation: %w", err)
	}

	dec, perr := ParseDecision(response)
	if perr != nil {
		return Decision{
			Tool:   ToolFinish,
			Reason: fmt.Sprintf("error parsing tool decision: %v", perr),
			Params: map[string]any{},
		}, true, nil
	}
	return dec, false, nil
}

// ParseDecision extracts and validates a Decision from raw generation
// output. Unknown extra keys are ignored; a missing, empty, or unrecognized
// tool name is an error.
func ParseDecision(response string) (Decision, error) {
	block := ExtractBlock(response)
	if block == "" {
		return Decision{}, fmt.Errorf("empty response")
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return Decision{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		return Decision{}, fmt.Errorf("invalid tool decision format")
	}

	name, _ := raw["tool"].(string)
	if strings.TrimSpace(name) == "" {
		return Decision{}, fmt.Errorf("invalid tool decision format: missing tool")
	}
	tool, ok := ParseToolKind(name)
	if !ok {
		return Decision{}, fmt.Errorf("unrecognized tool %q", name)
	}

	reason, _ := raw["reason"].(string)

	params := map[string]any{}
	if rp, ok := raw["params"].(map[string]any); ok {
		params = rp
	}

	return Decision{Tool: tool, Reason: reason, Params: params}, nil
}
