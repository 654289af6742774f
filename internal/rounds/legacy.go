package rounds

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/normalize"
)

// splitPattern marks fragment starts. When notFollowedBy is set, a match
// directly followed by that byte is ignored.
type splitPattern struct {
	re            *regexp.Regexp
	notFollowedBy byte
}

// Tried in order; on a tie the earlier pattern wins.
var legacyPatterns = []splitPattern{
	{re: regexp.MustCompile(`(?i)Round \d+:`)},
	{re: regexp.MustCompile(`(?i)Round \d+\b`), notFollowedBy: ':'},
	{re: regexp.MustCompile(`#\s*\d+\b`)},
	{re: regexp.MustCompile(`(?i)Q:`)},
	{re: regexp.MustCompile(`(?i)Human:|Assistant:`)},
}

var paragraphRe = regexp.MustCompile(`\n\n+`)

type span struct{ start, end int }

// Legacy is the best-effort heuristic splitter used for transcripts that carry
// no turn tags. It splits before numbered headers, Q/A or Human/Assistant
// prefixes, keeping whichever pattern yields the most fragments, then falls
// back to paragraphs and finally to a single round. Numbering is sequential.
func Legacy(text string) []models.Round {
	out := make([]models.Round, 0)

	var best []span
	for _, p := range legacyPatterns {
		if frags := splitBefore(text, p); len(frags) > len(best) {
			best = frags
		}
	}

	if len(best) <= 1 {
		best = paragraphs(text)
	}
	if len(best) <= 1 {
		best = nil
		if sp, ok := tighten(text, span{0, len(text)}); ok {
			best = []span{sp}
		}
	}

	physical := strings.Split(text, "\n")
	for i, sp := range best {
		start := strings.Count(text[:sp.start], "\n")
		end := strings.Count(text[:sp.end], "\n")
		chars := 0
		for _, l := range physical[start : end+1] {
			chars += utf8.RuneCountInString(l)
		}
		out = append(out, models.Round{
			RoundNumber:    i + 1,
			StartLine:      start,
			EndLine:        end,
			LineCount:      end - start + 1,
			CharacterCount: chars,
			Content:        text[sp.start:sp.end],
		})
	}
	return out
}

func splitBefore(text string, p splitPattern) []span {
	cuts := []int{0}
	for _, m := range p.re.FindAllStringIndex(text, -1) {
		if p.notFollowedBy != 0 && m[1] < len(text) && text[m[1]] == p.notFollowedBy {
			continue
		}
		cuts = append(cuts, m[0])
	}
	sort.Ints(cuts)
	cuts = append(cuts, len(text))

	var out []span
	for i := 0; i+1 < len(cuts); i++ {
		if sp, ok := tighten(text, span{cuts[i], cuts[i+1]}); ok {
			out = append(out, sp)
		}
	}
	return out
}

func paragraphs(text string) []span {
	var out []span
	prev := 0
	for _, m := range paragraphRe.FindAllStringIndex(text, -1) {
		if sp, ok := tighten(text, span{prev, m[0]}); ok {
			out = append(out, sp)
		}
		prev = m[1]
	}
	if sp, ok := tighten(text, span{prev, len(text)}); ok {
		out = append(out, sp)
	}
	return out
}

// tighten shrinks sp past surrounding whitespace and the canonical wrapper
// tags. It reports false when nothing is left.
func tighten(text string, sp span) (span, bool) {
	for {
		before := sp
		for sp.start < sp.end {
			r, size := utf8.DecodeRuneInString(text[sp.start:sp.end])
			if !unicode.IsSpace(r) {
				break
			}
			sp.start += size
		}
		for sp.end > sp.start {
			r, size := utf8.DecodeLastRuneInString(text[sp.start:sp.end])
			if !unicode.IsSpace(r) {
				break
			}
			sp.end -= size
		}
		if strings.HasPrefix(text[sp.start:sp.end], normalize.UserOpen) {
			sp.start += len(normalize.UserOpen)
		}
		if strings.HasSuffix(text[sp.start:sp.end], normalize.AssistantClose) {
			sp.end -= len(normalize.AssistantClose)
		}
		if sp == before {
			break
		}
	}
	return sp, sp.start < sp.end
}
