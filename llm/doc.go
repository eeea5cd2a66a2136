// Package llm provides the text-generation client the agent loop talks to:
// a prompt-in, text-out Generator interface, a gollm-backed implementation,
// an error taxonomy with retryability classification, and composable
// middleware for logging and retry.
package llm
