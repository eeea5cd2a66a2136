package agentflow

import "strings"

// ExtractBlock pulls the structured YAML block out of a free-form model
// response. The strategy is layered: prefer a fence tagged ```yaml or
// ```yml, then any generic ``` fence, and finally fall back to the whole
// response when no fencing exists. The fallback means callers only see an
// empty result for an empty response; whether the extracted text is valid
// YAML is the caller's problem.
func ExtractBlock(response string) string {
	for _, tag := range []string{"```yaml", "```yml"} {
		if body, ok := fencedBody(response, tag); ok {
			return body
		}
	}
	if body, ok := fencedBody(response, "```"); ok {
		return body
	}
	return strings.TrimSpace(response)
}

// fencedBody returns the text between the first occurrence of open and the
// next closing fence. An unterminated fence runs to the end of the response.
func fencedBody(response, open string) (string, bool) {
	start := strings.Index(response, open)
	if start < 0 {
		return "", false
	}
	rest := response[start+len(open):]
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
