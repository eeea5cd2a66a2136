package agentflow

import (
	"fmt"
	"strings"
)

// buildDecisionPrompt enumerates the available tools with their parameter
// shapes and renders the actions performed so far, then asks for a single
// YAML decision block.
func buildDecisionPrompt(request string, history []Action) string {
	var sb strings.Builder
	sb.WriteString("You are a coding assistant that helps modify and navigate code. ")
	sb.WriteString("You have full access to the codebase. Given the following request, ")
	sb.WriteString("decide which tool to use from the available options.\n\n")
	fmt.Fprintf(&sb, "User request: %s\n\n", request)
	sb.WriteString("Here are the actions you performed:\n")
	sb.WriteString(RenderHistory(history))
	sb.WriteString("\n\n")
	sb.WriteString(toolCatalog)
	sb.WriteString(`
Return a YAML object with the following structure:
` + "```yaml" + `
tool: <tool_name>
reason: <explanation of why this tool was chosen>
params:
  <tool specific parameters>
` + "```" + `

Choose the most appropriate tool based on the user's request and previous actions.
`)
	return sb.String()
}

const toolCatalog = `Available tools:
1. read_file: Read content from a file
   - Parameters: target_file (path)

2. edit_file: Make changes to a file
   - Parameters: target_file (path), instructions, code_edit
   - The code_edit pattern shows the changes with context, following these rules:
     - Use "// ... existing code ..." to represent unchanged code between edits
     - Include sufficient context around the changes to resolve ambiguity
     - Minimize repeating unchanged code
     - Never omit code without using the "// ... existing code ..." marker
     - No need to specify line numbers; the context locates the changes

3. delete_file: Remove a file
   - Parameters: target_file (path)

4. insert_file: Create a new file
   - Parameters: target_file (path), content (string, required)

5. grep_search: Search for patterns in files
   - Parameters: query, case_sensitive (optional), include_pattern (optional), exclude_pattern (optional)

6. list_dir: List contents of a directory as a tree
   - Parameters: relative_workspace_path

7. create_directory: Create a new directory
   - Parameters: target_dir (path)

8. delete_directory: Remove a directory and all its contents
   - Parameters: target_dir (path)

9. finish: End the process and provide the final response
   - No parameters required`

// buildPlanPrompt asks the model to convert an edit pattern into exact
// line-range operations over the current file content.
func buildPlanPrompt(fileContent, instructions, codeEdit string, totalLines int) string {
	var sb strings.Builder
	sb.WriteString(`You are a code editing assistant. Your task is to analyze code changes and convert them into specific edit operations.

IMPORTANT: You MUST return a YAML object with EXACTLY this structure:
` + "```yaml" + `
reasoning: |
  Your explanation of how you interpreted the edit pattern
  and why you chose specific line numbers for the changes.

operations:
  - start_line: <number>  # REQUIRED: 1-indexed line number where the edit starts
    end_line: <number>    # REQUIRED: 1-indexed line number where the edit ends
    replacement: |        # REQUIRED: the new code to insert
      <new code here>
` + "```" + `

RULES:
1. The YAML object MUST include both "reasoning" and "operations" fields
2. Each operation MUST have start_line, end_line, and replacement
3. Line numbers are 1-indexed and inclusive
`)
	fmt.Fprintf(&sb, "4. Valid line numbers are 1 to %d; for appending content, use %d as both start_line and end_line\n", totalLines, totalLines+1)
	sb.WriteString(`5. Do not include "// ... existing code ..." in replacements
6. Operations must not overlap each other

FILE CONTENT:
`)
	sb.WriteString(fileContent)
	sb.WriteString("\n\nEDIT INSTRUCTIONS:\n")
	sb.WriteString(instructions)
	sb.WriteString("\n\nCODE EDIT PATTERN:\n")
	sb.WriteString(codeEdit)
	sb.WriteString("\n\nNow, analyze the file content and edit pattern to determine the exact line numbers and replacement text.\nReturn ONLY the YAML object with your analysis and operations.\n")
	return sb.String()
}

// buildSummaryPrompt asks the model for the final user-facing response.
func buildSummaryPrompt(history []Action) string {
	var sb strings.Builder
	sb.WriteString(`You are a coding assistant. You have just performed a series of actions based on the user's request. Summarize what you did in a clear, helpful response.

Here are the actions you performed:
`)
	sb.WriteString(RenderHistory(history))
	sb.WriteString(`

Generate a comprehensive yet concise response that explains:
1. What actions were taken
2. What was found or modified
3. Any next steps the user might want to take

IMPORTANT:
- Focus on the outcomes and results, not the specific tools used
- Write as if you are directly speaking to the user
`)
	return sb.String()
}
