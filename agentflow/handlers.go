package agentflow

import "fmt"

// Per-tool parameter shapes, decoded from the decision's params mapping.
// Field names follow the wire format the model is prompted with.

type readFileParams struct {
	TargetFile string `mapstructure:"target_file"`
}

type grepSearchParams struct {
	Query          string `mapstructure:"query"`
	CaseSensitive  bool   `mapstructure:"case_sensitive"`
	IncludePattern string `mapstructure:"include_pattern"`
	ExcludePattern string `mapstructure:"exclude_pattern"`
}

type listDirParams struct {
	RelativeWorkspacePath string `mapstructure:"relative_workspace_path"`
}

type insertFileParams struct {
	TargetFile string `mapstructure:"target_file"`
	Content    string `mapstructure:"content"`
}

type editFileParams struct {
	TargetFile   string `mapstructure:"target_file"`
	Instructions string `mapstructure:"instructions"`
	CodeEdit     string `mapstructure:"code_edit"`
}

type dirParams struct {
	TargetDir string `mapstructure:"target_dir"`
}

func handleReadFile(ws Workspace, act *Action) error {
	var p readFileParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("read_file: %w", err)
	}
	if p.TargetFile == "" {
		return fmt.Errorf("read_file: %w: target_file", ErrMissingParam)
	}

	content, err := ws.Read(p.TargetFile)
	if err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Content: content}
	return nil
}

func handleGrepSearch(ws Workspace, act *Action) error {
	var p grepSearchParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("grep_search: %w", err)
	}
	if p.Query == "" {
		return fmt.Errorf("grep_search: %w: query", ErrMissingParam)
	}

	matches, err := ws.Search(SearchQuery{
		Query:         p.Query,
		CaseSensitive: p.CaseSensitive,
		IncludeGlob:   p.IncludePattern,
		ExcludeGlob:   p.ExcludePattern,
	})
	if err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Matches: matches}
	return nil
}

func handleListDir(ws Workspace, act *Action) error {
	var p listDirParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("list_dir: %w", err)
	}
	path := p.RelativeWorkspacePath
	if path == "" {
		path = "."
	}

	tree, err := ws.Tree(path)
	if err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Tree: tree}
	return nil
}

func handleDeleteFile(ws Workspace, act *Action) error {
	var p readFileParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("delete_file: %w", err)
	}
	if p.TargetFile == "" {
		return fmt.Errorf("delete_file: %w: target_file", ErrMissingParam)
	}

	if err := ws.Delete(p.TargetFile); err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Message: fmt.Sprintf("Successfully deleted file: %s", p.TargetFile)}
	return nil
}

func handleInsertFile(ws Workspace, act *Action) error {
	var p insertFileParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("insert_file: %w", err)
	}
	if p.TargetFile == "" {
		return fmt.Errorf("insert_file: %w: target_file", ErrMissingParam)
	}
	if p.Content == "" {
		return fmt.Errorf("insert_file: %w: content", ErrMissingParam)
	}

	if err := ws.WriteNew(p.TargetFile, p.Content); err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Message: fmt.Sprintf("Successfully created file: %s", p.TargetFile)}
	return nil
}

func handleCreateDirectory(ws Workspace, act *Action) error {
	var p dirParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("create_directory: %w", err)
	}
	if p.TargetDir == "" {
		return fmt.Errorf("create_directory: %w: target_dir", ErrMissingParam)
	}

	if err := ws.MakeDir(p.TargetDir); err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Message: fmt.Sprintf("Successfully created directory: %s", p.TargetDir)}
	return nil
}

func handleDeleteDirectory(ws Workspace, act *Action) error {
	var p dirParams
	if err := decodeParams(act.Params, &p); err != nil {
		return fmt.Errorf("delete_directory: %w", err)
	}
	if p.TargetDir == "" {
		return fmt.Errorf("delete_directory: %w: target_dir", ErrMissingParam)
	}

	if err := ws.RemoveDir(p.TargetDir); err != nil {
		act.Result = &Result{Success: false, Message: err.Error()}
		return nil
	}
	act.Result = &Result{Success: true, Message: fmt.Sprintf("Successfully deleted directory and its contents: %s", p.TargetDir)}
	return nil
}
