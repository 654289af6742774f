// Package rounds segments canonical transcripts into user/assistant rounds.
//
// The primary strategy is a tag-paired line scanner. It never fails: text
// without recognisable structure simply yields fewer (possibly zero) rounds.
package rounds

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/roundup/internal/models"
	"github.com/starford/roundup/internal/normalize"
)

type state int

const (
	stateIdle state = iota
	stateInUser
	stateInAssistant
)

// line is one logical scanner line. A turn boundary split across two
// physical lines ("</user>" then "<dungeon_master>") is folded into a single
// logical line, so first and last may differ.
type line struct {
	text        string
	first, last int
}

// Parse scans canonical text and returns its complete rounds in order.
// Line numbers in the result refer to logical lines.
func Parse(canonical string) []models.Round {
	out, _ := scan(canonical)
	return out
}

// scan runs the tag-paired state machine. The boolean reports whether at
// least one turn boundary line was seen, which is what decides whether the
// legacy strategy may take over.
func scan(canonical string) ([]models.Round, bool) {
	out := make([]models.Round, 0)
	if canonical == "" {
		return out, false
	}

	physical := strings.Split(canonical, "\n")
	lines := logicalLines(physical)

	var (
		st          = stateIdle
		start       = -1
		number      = 0
		sawBoundary = false
	)

	for i, ln := range lines {
		switch {
		case strings.Contains(ln.text, normalize.UserOpen):
			// A new opening tag while a round is open means the previous
			// turn was never closed; its start is discarded.
			st = stateInUser
			start = i

		case isBoundary(ln.text):
			sawBoundary = true
			if st == stateInUser {
				st = stateInAssistant
			}

		case strings.Contains(ln.text, normalize.AssistantClose):
			if st != stateInAssistant {
				continue
			}
			number++
			out = append(out, buildRound(number, start, i, lines, physical))
			st = stateIdle
			start = -1
		}
	}

	return out, sawBoundary
}

func isBoundary(s string) bool {
	return strings.Contains(s, normalize.UserClose) && strings.Contains(s, normalize.AssistantOpen)
}

// logicalLines folds a closing user tag line immediately followed by an
// opening assistant tag line into one boundary line.
func logicalLines(physical []string) []line {
	out := make([]line, 0, len(physical))
	for i := 0; i < len(physical); i++ {
		cur := physical[i]
		if i+1 < len(physical) &&
			strings.Contains(cur, normalize.UserClose) &&
			!strings.Contains(cur, normalize.AssistantOpen) &&
			!strings.Contains(cur, normalize.UserOpen) &&
			strings.HasPrefix(strings.TrimSpace(physical[i+1]), normalize.AssistantOpen) {
			out = append(out, line{text: cur + physical[i+1], first: i, last: i + 1})
			i++
			continue
		}
		out = append(out, line{text: cur, first: i, last: i})
	}
	return out
}

func buildRound(number, start, end int, lines []line, physical []string) models.Round {
	chars := 0
	for _, ln := range lines[start : end+1] {
		chars += utf8.RuneCountInString(ln.text)
	}
	return models.Round{
		RoundNumber:    number,
		StartLine:      start,
		EndLine:        end,
		LineCount:      end - start + 1,
		CharacterCount: chars,
		Content:        strings.Join(physical[lines[start].first:lines[end].last+1], "\n"),
	}
}
