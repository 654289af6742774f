package rounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(t *testing.T, text string) []string {
	t.Helper()
	var out []string
	for i, r := range Legacy(text) {
		require.Equal(t, i+1, r.RoundNumber)
		require.Equal(t, r.EndLine-r.StartLine+1, r.LineCount)
		out = append(out, r.Content)
	}
	return out
}

func TestLegacy_RoundHeaders(t *testing.T) {
	got := contents(t, "Round 1: open the door\nit creaks\nRound 2: step inside")
	assert.Equal(t, []string{"Round 1: open the door\nit creaks", "Round 2: step inside"}, got)
}

func TestLegacy_RoundWithoutColon(t *testing.T) {
	got := contents(t, "Round 1 intro\nRound 2 middle\nRound 3: not counted here\nRound 4 end")
	assert.Equal(t, []string{"Round 1 intro", "Round 2 middle\nRound 3: not counted here", "Round 4 end"}, got)
}

func TestLegacy_HashHeaders(t *testing.T) {
	got := contents(t, "# 1\nalpha\n#2\nbeta")
	assert.Equal(t, []string{"# 1\nalpha", "#2\nbeta"}, got)
}

func TestLegacy_QuestionAnswer(t *testing.T) {
	got := contents(t, "Q: one?\nA: yes\nQ: two?\nA: no")
	assert.Equal(t, []string{"Q: one?\nA: yes", "Q: two?\nA: no"}, got)
}

func TestLegacy_HumanAssistant(t *testing.T) {
	got := contents(t, "Human: hi\nAssistant: hello\nHuman: bye")
	assert.Equal(t, []string{"Human: hi", "Assistant: hello", "Human: bye"}, got)
}

func TestLegacy_MostFragmentsWins(t *testing.T) {
	// One Round header but three Q: prefixes.
	got := contents(t, "Round 1: quiz\nQ: a\nQ: b\nQ: c")
	assert.Len(t, got, 4)
	assert.Equal(t, "Round 1: quiz", got[0])
}

func TestLegacy_ParagraphFallback(t *testing.T) {
	got := contents(t, "first paragraph\nstill first\n\n\nsecond paragraph")
	assert.Equal(t, []string{"first paragraph\nstill first", "second paragraph"}, got)
}

func TestLegacy_SingleRound(t *testing.T) {
	got := contents(t, "  one block of text  ")
	assert.Equal(t, []string{"one block of text"}, got)
}

func TestLegacy_EmptyText(t *testing.T) {
	assert.Empty(t, Legacy(""))
	assert.Empty(t, Legacy(" \n\n "))
	assert.Empty(t, Legacy("<user>\n\n</dungeon_master>"))
}

func TestLegacy_WrapperTagsStripped(t *testing.T) {
	got := Legacy("<user>\nRound 1: a\nRound 2: b\n</dungeon_master>")
	require.Len(t, got, 2)
	assert.Equal(t, "Round 1: a", got[0].Content)
	assert.Equal(t, 1, got[0].StartLine)
	assert.Equal(t, 1, got[0].EndLine)
	assert.Equal(t, "Round 2: b", got[1].Content)
	assert.Equal(t, 2, got[1].StartLine)
	assert.Equal(t, 10, got[1].CharacterCount)
}
