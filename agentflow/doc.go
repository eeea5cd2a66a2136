// Package agentflow implements an autonomous coding agent loop: given a
// natural-language request, it repeatedly asks a text-generation model
// which file-system action to take next, executes that action against a
// workspace, feeds the observed result back into the next decision, and
// terminates with a model-written summary of everything it did.
//
// The loop is bounded by an iteration cap, and every decision is parsed
// from a fenced YAML block in the model's output. A decision that cannot
// be parsed never crashes the loop; it degrades into a finish so the run
// always ends with a response.
//
// File edits go through a planning sub-flow: the model converts a
// contextual edit pattern into exact 1-indexed line-range operations,
// which are validated strictly and applied from the bottom of the file
// upward so line numbers stay stable during application.
package agentflow
