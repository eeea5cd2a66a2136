package agentflow

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Handler executes one tool against the workspace. It receives the newest
// history entry, reads its parameters, and must write its Result before
// returning. A returned error is a precondition fault and aborts the run.
type Handler func(ws Workspace, act *Action) error

// Registry maps tool kinds to handlers. The edit and finish tools are
// dispatched by the session itself and never appear here.
type Registry struct {
	handlers map[ToolKind]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[ToolKind]Handler)}
}

// Register adds or replaces the handler for a tool kind.
func (r *Registry) Register(kind ToolKind, h Handler) {
	r.handlers[kind] = h
}

// Get returns the handler for a tool kind.
func (r *Registry) Get(kind ToolKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// CoreRegistry returns a registry with all the built-in file and directory
// handlers registered.
func CoreRegistry() *Registry {
	r := NewRegistry()
	r.Register(ToolReadFile, handleReadFile)
	r.Register(ToolGrepSearch, handleGrepSearch)
	r.Register(ToolListDir, handleListDir)
	r.Register(ToolDeleteFile, handleDeleteFile)
	r.Register(ToolInsertFile, handleInsertFile)
	r.Register(ToolCreateDirectory, handleCreateDirectory)
	r.Register(ToolDeleteDirectory, handleDeleteDirectory)
	return r
}

// decodeParams maps the loosely-typed decision params onto a typed
// per-tool parameter struct.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
