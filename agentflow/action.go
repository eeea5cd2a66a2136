package agentflow

import "errors"

// ToolKind identifies one of the closed set of actions the agent can take.
type ToolKind string

const (
	ToolReadFile        ToolKind = "read_file"
	ToolGrepSearch      ToolKind = "grep_search"
	ToolListDir         ToolKind = "list_dir"
	ToolDeleteFile      ToolKind = "delete_file"
	ToolInsertFile      ToolKind = "insert_file"
	ToolEditFile        ToolKind = "edit_file"
	ToolCreateDirectory ToolKind = "create_directory"
	ToolDeleteDirectory ToolKind = "delete_directory"
	ToolFinish          ToolKind = "finish"
)

// toolKinds is the closed set of recognized tools.
var toolKinds = []ToolKind{
	ToolReadFile,
	ToolEditFile,
	ToolDeleteFile,
	ToolInsertFile,
	ToolGrepSearch,
	ToolListDir,
	ToolCreateDirectory,
	ToolDeleteDirectory,
	ToolFinish,
}

// ParseToolKind maps a tool name from a decision onto the closed enum.
func ParseToolKind(name string) (ToolKind, bool) {
	for _, k := range toolKinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// ErrMissingParam indicates a decision arrived at a handler without a
// parameter the handler requires. This is a contract violation between the
// decision parser and the handler, and it aborts the run.
var ErrMissingParam = errors.New("missing required parameter")

// Decision is the structured tool choice extracted from one generation
// round. It becomes the newest Action in the session history.
type Decision struct {
	Tool   ToolKind
	Reason string
	Params map[string]any
}

// Action is one decision-and-result pair in the run history. Result is nil
// until the dispatched handler completes, is written exactly once, and is
// never mutated afterward.
type Action struct {
	Tool   ToolKind
	Reason string
	Params map[string]any
	Result *Result

	// fileContent holds the pre-edit snapshot while an edit action is being
	// planned. Cleared as soon as the edit result is recorded.
	fileContent string
}

// SearchMatch is a single grep hit.
type SearchMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// OpOutcome records the result of applying one edit operation.
type OpOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Result holds a handler's observed outcome. Which fields are populated
// depends on the tool: Content for reads, Matches for searches, Tree for
// listings, Operations/Details/Reasoning for edits, Message for the rest.
type Result struct {
	Success    bool
	Content    string
	Matches    []SearchMatch
	Tree       string
	Message    string
	Operations int
	Details    []OpOutcome
	Reasoning  string
}
