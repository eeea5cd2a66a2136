package agentflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBlockPrefersYAMLFence(t *testing.T) {
	response := "Here is my decision:\n```yaml\ntool: read_file\n```\nand some trailing prose"
	assert.Equal(t, "tool: read_file", ExtractBlock(response))
}

func TestExtractBlockFallsBackToYmlFence(t *testing.T) {
	response := "```yml\ntool: finish\n```"
	assert.Equal(t, "tool: finish", ExtractBlock(response))
}

func TestExtractBlockFallsBackToGenericFence(t *testing.T) {
	response := "```\ntool: list_dir\n```"
	assert.Equal(t, "tool: list_dir", ExtractBlock(response))
}

func TestExtractBlockWholeResponseWhenNoFence(t *testing.T) {
	response := "  tool: read_file\n  reason: direct yaml  "
	assert.Equal(t, "tool: read_file\n  reason: direct yaml", ExtractBlock(response))
}

func TestExtractBlockUnterminatedFenceRunsToEnd(t *testing.T) {
	response := "```yaml\ntool: finish\nreason: no closing fence"
	assert.Equal(t, "tool: finish\nreason: no closing fence", ExtractBlock(response))
}

func TestExtractBlockYAMLFenceWinsOverGeneric(t *testing.T) {
	response := "```\nnot this\n```\n```yaml\ntool: finish\n```"
	assert.Equal(t, "tool: finish", ExtractBlock(response))
}

func TestExtractBlockIdempotentUnderRewrapping(t *testing.T) {
	block := "tool: read_file\nreason: inspect"
	once := ExtractBlock("Some preamble.\n```yaml\n" + block + "\n```\nTrailing notes.")
	twice := ExtractBlock("Different prose.\n```yaml\n" + once + "\n```")
	assert.Equal(t, block, once)
	assert.Equal(t, once, twice)
}

func TestExtractBlockEmptyResponse(t *testing.T) {
	assert.Equal(t, "", ExtractBlock(""))
	assert.Equal(t, "", ExtractBlock("   \n  "))
}
