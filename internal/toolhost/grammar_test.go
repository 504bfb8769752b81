package toolhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAll_SingleBlockWithWrappedAndBareValues(t *testing.T) {
	input := "prefix\n<<<[TOOL_REQUEST]>>>\n" +
		"tool_name:「始」xnote.vault.read_note「末」,\n" +
		"note_path:『始』notes/Plan.md『末』\n" +
		"<<<[END_TOOL_REQUEST]>>>\nsuffix"

	reqs, err := ParseAll(input)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "xnote.vault.read_note", reqs[0].ToolName)
	assert.Equal(t, "notes/Plan.md", reqs[0].Args["note_path"])
}

func TestParseAll_MissingEndMarkerErrors(t *testing.T) {
	_, err := ParseAll("<<<[TOOL_REQUEST]>>>\ntool_name:demo")
	assert.Error(t, err)
}

func TestParseAll_SpecialKeysSetFlags(t *testing.T) {
	input := "<<<[TOOL_REQUEST]>>>\n" +
		"tool_name:demo,\n" +
		"archery:no_reply,\n" +
		"ink:mark_history\n" +
		"<<<[END_TOOL_REQUEST]>>>"

	reqs, err := ParseAll(input)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].NoReply)
	assert.True(t, reqs[0].MarkHistory)
}

func TestParseAll_MultipleBlocksInOrder(t *testing.T) {
	input := "<<<[TOOL_REQUEST]>>>\ntool_name:one\n<<<[END_TOOL_REQUEST]>>>" +
		"middle" +
		"<<<[TOOL_REQUEST]>>>\ntool_name:two\n<<<[END_TOOL_REQUEST]>>>"

	reqs, err := ParseAll(input)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "one", reqs[0].ToolName)
	assert.Equal(t, "two", reqs[1].ToolName)
}

func TestParseFirst_NoBlockReturnsNil(t *testing.T) {
	req, err := ParseFirst("nothing here")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestParseAll_MissingToolNameErrors(t *testing.T) {
	_, err := ParseAll("<<<[TOOL_REQUEST]>>>\nnote_path:foo\n<<<[END_TOOL_REQUEST]>>>")
	assert.Error(t, err)
}
