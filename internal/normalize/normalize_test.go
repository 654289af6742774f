package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ChatGPTExport(t *testing.T) {
	got := Normalize("You said:\nHello\nChatGPT said:\nHi there")
	assert.Equal(t, "<user>\nHello\n</user>\n<dungeon_master>\nHi there\n</dungeon_master>", got)
}

func TestNormalize_MarkerOnlyAtLineStart(t *testing.T) {
	got := Normalize("You said: I heard ChatGPT said: hello\nChatGPT said: ok")
	assert.Equal(t, "<user> I heard ChatGPT said: hello\n</user>\n<dungeon_master> ok\n</dungeon_master>", got)
}

func TestNormalize_WrapsPlainText(t *testing.T) {
	got := Normalize("just some text")
	assert.Equal(t, "<user>\njust some text\n</dungeon_master>", got)
}

func TestNormalize_AlreadyCanonical(t *testing.T) {
	canonical := "<user>\nHi\n</user>\n<dungeon_master>\nHello\n</dungeon_master>"
	assert.Equal(t, canonical, Normalize(canonical))
}

func TestNormalize_CollapsesBlankRuns(t *testing.T) {
	got := Normalize("You said:\n\n\n\nHello\n\n\nChatGPT said:\nHi")
	assert.NotContains(t, got, "\n\n\n")
	assert.Equal(t, "<user>\n\nHello\n\n</user>\n<dungeon_master>\nHi\n</dungeon_master>", got)
}

func TestNormalize_EmptyInput(t *testing.T) {
	got := Normalize("")
	assert.Equal(t, "<user>\n\n</dungeon_master>", got)
}

func TestNormalize_TrimsOuterWhitespace(t *testing.T) {
	got := Normalize("  \n  You said: hi\nChatGPT said: yo\n\n")
	assert.Equal(t, "<user> hi\n</user>\n<dungeon_master> yo\n</dungeon_master>", got)
}

func TestNormalize_Properties(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"\n\n\n\n",
		"hello",
		"You said:",
		"ChatGPT said:",
		"You said:\nYou said:\nChatGPT said:\n",
		"  You said: leading spaces",
		"text\n\n\n\n\nmore text\n\n\n",
		"<user>\nhalf open",
		"tail only\n</dungeon_master>",
		"\r\nYou said:\r\nwindows\r\nChatGPT said:\r\nline endings\r\n",
		"ChatGPT said: first\nYou said: second\nChatGPT said: third",
		"# Round 1: heading\nQ: question\nA: answer",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)

		assert.Equal(t, once, twice, "not idempotent for %q", in)
		assert.True(t, strings.HasPrefix(once, UserOpen), "missing opening tag for %q: %q", in, once)
		assert.True(t, strings.HasSuffix(once, AssistantClose), "missing closing tag for %q: %q", in, once)
		assert.NotContains(t, once, "\n\n\n", "blank run left for %q", in)
	}
}

func TestRules_CustomMarkers(t *testing.T) {
	r := Rules{UserMarker: "Human:", AssistantMarker: "Assistant:"}
	got := r.Apply("Human: hi\nAssistant: hello")
	assert.Equal(t, "<user> hi\n</user>\n<dungeon_master> hello\n</dungeon_master>", got)
}

func TestRules_MarkersAreLiteral(t *testing.T) {
	r := Rules{UserMarker: "[me]", AssistantMarker: "(bot)"}
	got := r.Apply("[me] a\nm] not a marker\n(bot) b")
	assert.Equal(t, "<user> a\nm] not a marker\n</user>\n<dungeon_master> b\n</dungeon_master>", got)
}

func TestRules_EmptyMarkersOnlyWrap(t *testing.T) {
	got := Rules{}.Apply("You said: untouched")
	assert.Equal(t, "<user>\nYou said: untouched\n</dungeon_master>", got)
}

func TestStripFrontMatter(t *testing.T) {
	body, meta := StripFrontMatter([]byte("---\ntitle: Export\nsource: chatgpt\n---\n\nYou said:\nhi\n"))
	require.NotNil(t, meta)
	assert.Equal(t, "Export", meta["title"])
	assert.Equal(t, "You said:\nhi\n", body)
}

func TestStripFrontMatter_NoBlock(t *testing.T) {
	in := "You said:\nhi\n"
	body, meta := StripFrontMatter([]byte(in))
	assert.Nil(t, meta)
	assert.Equal(t, in, body)
}

func TestStripFrontMatter_InvalidYAML(t *testing.T) {
	in := "---\n: invalid: yaml: {{{\n---\nbody\n"
	body, meta := StripFrontMatter([]byte(in))
	assert.Nil(t, meta)
	assert.Equal(t, in, body)
}

func TestStripFrontMatter_Unclosed(t *testing.T) {
	in := "---\ntitle: x\nno closing delimiter"
	body, meta := StripFrontMatter([]byte(in))
	assert.Nil(t, meta)
	assert.Equal(t, in, body)
}

func TestRules_CloseTurns(t *testing.T) {
	r := DefaultRules()
	r.CloseTurns = true
	got := r.Apply("You said:\nq1\nChatGPT said:\na1\nYou said:\nq2\nChatGPT said:\na2")
	want := "<user>\nq1\n</user>\n<dungeon_master>\na1\n</dungeon_master>\n<user>\nq2\n</user>\n<dungeon_master>\na2\n</dungeon_master>"
	assert.Equal(t, want, got)
	assert.Equal(t, got, r.Apply(got))
}

func TestRules_CloseTurnsWithPreamble(t *testing.T) {
	r := DefaultRules()
	r.CloseTurns = true
	got := r.Apply("exported 2025-03-01\nYou said:\nq\nChatGPT said:\na")
	assert.Equal(t, "<user>\nexported 2025-03-01\n</dungeon_master>\n<user>\nq\n</user>\n<dungeon_master>\na\n</dungeon_master>", got)
	assert.Equal(t, got, r.Apply(got))
}
