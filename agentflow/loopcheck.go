package agentflow

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// actionSignature computes a deterministic signature for an action
// (tool name + hash of parameters).
func actionSignature(act Action) string {
	data, err := json.Marshal(act.Params)
	if err != nil {
		data = []byte(fmt.Sprint(act.Params))
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", act.Tool, h[:8])
}

// DetectRepetition checks if the last windowSize actions follow a repeating
// pattern of length 1, 2, or 3. A repeating pattern suggests the agent is
// stuck re-running the same tool calls without making progress.
func DetectRepetition(history []Action, windowSize int) bool {
	if len(history) < windowSize || windowSize < 1 {
		return false
	}

	sigs := make([]string, 0, windowSize)
	for _, act := range history[len(history)-windowSize:] {
		sigs = append(sigs, actionSignature(act))
	}

	// A pattern as long as the window would match trivially.
	for patternLen := 1; patternLen <= 3 && patternLen < windowSize; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			return true
		}
	}

	return false
}
