package agentflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/martinemde/codeagent/internal/logging"
	"github.com/martinemde/codeagent/llm"
)

// Config holds configuration for a session.
type Config struct {
	// MaxIterations caps the number of decision rounds. When the cap is
	// reached a finish is forced without consulting the model for a
	// decision.
	MaxIterations int

	// RepetitionWindow is the number of trailing actions inspected for a
	// repeating pattern. 0 disables the check.
	RepetitionWindow int

	// EventBuffer sizes the event channel. 0 uses the default.
	EventBuffer int

	Logger *slog.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    10,
		RepetitionWindow: 3,
	}
}

// Session drives one request through the decide, act, observe loop until a
// finish decision or the iteration cap produces a final response.
type Session struct {
	id       string
	request  string
	ws       Workspace
	gen      llm.Generator
	registry *Registry
	parser   *DecisionParser
	emitter  *EventEmitter
	logger   *slog.Logger
	config   Config

	history       []Action
	iteration     int
	finalResponse string
	mu            sync.Mutex
}

// NewSession creates a session for one request against the given workspace
// and generator. A nil config uses defaults.
func NewSession(request string, ws Workspace, gen llm.Generator, config *Config) *Session {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	sessionID := uuid.New().String()
	return &Session{
		id:       sessionID,
		request:  request,
		ws:       ws,
		gen:      gen,
		registry: CoreRegistry(),
		parser:   NewDecisionParser(gen),
		emitter:  NewEventEmitter(sessionID, cfg.EventBuffer),
		logger:   logger.With("session_id", sessionID),
		config:   cfg,
		history:  make([]Action, 0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the action history.
func (s *Session) History() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := make([]Action, len(s.history))
	copy(h, s.history)
	return h
}

// FinalResponse returns the summary produced by the finish action. Empty
// until Run completes successfully.
func (s *Session) FinalResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalResponse
}

// Events returns the event channel for the host application.
func (s *Session) Events() <-chan SessionEvent {
	return s.emitter.Events()
}

// Close closes the event channel. Safe to call multiple times.
func (s *Session) Close() {
	s.emitter.Close()
}

// Run executes the loop to completion. It returns the final response, or an
// error on generation transport failure, handler precondition fault, or
// context cancellation. History accumulated before the failure is
// preserved and observable through History.
func (s *Session) Run(ctx context.Context) (string, error) {
	s.emitter.Emit(EventRunStart, map[string]any{"request": s.request})
	s.logger.Info("run started", "request", s.request)

	for {
		select {
		case <-ctx.Done():
			s.emitter.Emit(EventError, map[string]any{"error": ctx.Err().Error()})
			return "", ctx.Err()
		default:
		}

		dec, fallback, forced, err := s.nextDecision(ctx)
		if err != nil {
			s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			return "", err
		}

		s.mu.Lock()
		s.iteration++
		s.history = append(s.history, Action{
			Tool:   dec.Tool,
			Reason: dec.Reason,
			Params: dec.Params,
		})
		idx := len(s.history) - 1
		s.mu.Unlock()

		switch {
		case fallback:
			s.emitter.Emit(EventDecisionFallback, map[string]any{"reason": dec.Reason})
			s.logger.Warn("decision parse failed, finishing", "reason", dec.Reason)
		case !forced:
			s.emitter.Emit(EventDecision, map[string]any{
				"tool":   string(dec.Tool),
				"reason": dec.Reason,
			})
		}
		s.logger.Info("action decided", "tool", dec.Tool, "reason", dec.Reason)

		if dec.Tool == ToolFinish {
			summary, err := s.summarize(ctx)
			if err != nil {
				s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
				return "", err
			}
			s.mu.Lock()
			s.finalResponse = summary
			s.mu.Unlock()
			s.emitter.Emit(EventRunEnd, map[string]any{"iterations": s.iteration})
			s.logger.Info("run finished", "iterations", s.iteration)
			return summary, nil
		}

		s.emitter.Emit(EventActionStart, map[string]any{"tool": string(dec.Tool)})
		if err := s.dispatch(ctx, idx); err != nil {
			s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			return "", err
		}

		s.mu.Lock()
		res := s.history[idx].Result
		s.mu.Unlock()
		data := map[string]any{"tool": string(dec.Tool)}
		if res != nil {
			data["success"] = res.Success
		}
		s.emitter.Emit(EventActionEnd, data)

		s.checkRepetition()
	}
}

// nextDecision consults the parser for the next decision, or forces a
// finish when the iteration cap has been reached. forced reports whether
// the decision was synthesized without a model round; fallback reports a
// parse-failure recovery inside the parser.
func (s *Session) nextDecision(ctx context.Context) (dec Decision, fallback, forced bool, err error) {
	s.mu.Lock()
	capped := s.iteration >= s.config.MaxIterations
	history := make([]Action, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	if capped {
		s.emitter.Emit(EventIterationCap, map[string]any{"iterations": s.config.MaxIterations})
		s.logger.Warn("iteration cap reached", "max_iterations", s.config.MaxIterations)
		return Decision{
			Tool:   ToolFinish,
			Reason: fmt.Sprintf("Maximum number of iterations (%d) reached", s.config.MaxIterations),
			Params: map[string]any{},
		}, false, true, nil
	}

	dec, fallback, err = s.parser.Next(ctx, s.request, history)
	if err != nil {
		return Decision{}, false, false, err
	}
	return dec, fallback, false, nil
}

// dispatch routes the newest action to its handler. Edits run the planning
// sub-flow; everything else goes through the registry.
func (s *Session) dispatch(ctx context.Context, idx int) error {
	s.mu.Lock()
	act := &s.history[idx]
	s.mu.Unlock()

	if act.Tool == ToolEditFile {
		return s.runEdit(ctx, act)
	}

	h, ok := s.registry.Get(act.Tool)
	if !ok {
		return fmt.Errorf("no handler for tool %s", act.Tool)
	}
	return h(s.ws, act)
}

// runEdit performs the three-stage edit sub-flow: snapshot the target file,
// plan exact line operations, apply them bottom-up. Planning and read
// failures are recorded as failed results; the loop continues so the model
// can observe the failure and react.
func (s *Session) runEdit(ctx context.Context, act *Action) error {
	var p editFileParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("edit_file: %w", err)
	}
	if p.TargetFile == "" {
		return fmt.Errorf("edit_file: %w: target_file", ErrMissingParam)
	}
	if p.Instructions == "" {
		return fmt.Errorf("edit_file: %w: instructions", ErrMissingParam)
	}
	if p.CodeEdit == "" {
		return fmt.Errorf("edit_file: %w: code_edit", ErrMissingParam)
	}

	content, err := s.ws.Read(p.TargetFile)
	if err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.fileContent = content

	total := len(strings.Split(content, "\n"))
	response, err := s.gen.Generate(ctx, buildPlanPrompt(content, p.Instructions, p.CodeEdit, total))
	if err != nil {
		return fmt.Errorf("edit planning: %w", err)
	}

	plan, err := ParsePlan(response, total)
	if err != nil {
		act.fileContent = ""
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}

	ops := make([]EditOperation, len(plan.Operations))
	copy(ops, plan.Operations)
	for i := range ops {
		ops[i].TargetFile = p.TargetFile
	}

	outcomes := ApplyEdits(s.ws, ops)
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}

	act.fileContent = ""
	act.Result = &Result{
		Success:    succeeded == len(outcomes),
		Operations: succeeded,
		Details:    outcomes,
		Reasoning:  plan.Reasoning,
	}
	s.logger.Info("edit applied", "file", p.TargetFile, "succeeded", succeeded, "total", len(outcomes))
	return nil
}

// summarize asks the generator for the final user-facing response.
func (s *Session) summarize(ctx context.Context) (string, error) {
	s.mu.Lock()
	history := make([]Action, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	prompt := buildSummaryPrompt(history)
	summary, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summary generation: %w", err)
	}
	return summary, nil
}

// checkRepetition emits a warning event when recent actions repeat.
func (s *Session) checkRepetition() {
	s.mu.Lock()
	window := s.config.RepetitionWindow
	history := make([]Action, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	if window <= 0 {
		return
	}
	if DetectRepetition(history, window) {
		msg := fmt.Sprintf("The last %d actions follow a repeating pattern.", window)
		s.emitter.Emit(EventRepetition, map[string]any{"message": msg})
		s.logger.Warn("repetition detected", "window", window)
	}
}
