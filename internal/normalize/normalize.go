// Package normalize converts exported chat-log text into the canonical tagged
// transcript that the round parser consumes.
package normalize

import (
	"regexp"
	"strings"
)

// Canonical transcript tags.
const (
	UserOpen       = "<user>"
	UserClose      = "</user>"
	AssistantOpen  = "<dungeon_master>"
	AssistantClose = "</dungeon_master>"
)

// Default turn markers, as written by the ChatGPT conversation export.
const (
	DefaultUserMarker      = "You said:"
	DefaultAssistantMarker = "ChatGPT said:"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Rules holds the turn markers recognised at the start of a line.
//
// Exports only mark where turns begin. With CloseTurns set, every user turn
// after the first also closes the preceding assistant turn, so multi-turn
// exports parse into one round per exchange.
type Rules struct {
	UserMarker      string `yaml:"user_marker"`
	AssistantMarker string `yaml:"assistant_marker"`
	CloseTurns      bool   `yaml:"close_turns"`
}

// DefaultRules returns the ChatGPT export markers.
func DefaultRules() Rules {
	return Rules{
		UserMarker:      DefaultUserMarker,
		AssistantMarker: DefaultAssistantMarker,
	}
}

// Normalize applies the default rules to raw.
func Normalize(raw string) string {
	return DefaultRules().Apply(raw)
}

// Apply rewrites raw into canonical form:
//
//  1. lines starting with the user marker become <user>
//  2. lines starting with the assistant marker become </user>\n<dungeon_master>
//  3. the text is wrapped in <user> ... </dungeon_master> if not already
//  4. runs of 3+ newlines collapse to a single blank line
//
// Apply is pure and idempotent. Any input is accepted.
func (r Rules) Apply(raw string) string {
	// Outer whitespace is dropped first so the tags end up at the very edges
	// and no marker is exposed at a line start by a later trim.
	out := strings.TrimSpace(raw)
	if r.UserMarker != "" {
		repl := UserOpen
		if r.CloseTurns {
			repl = AssistantClose + "\n" + UserOpen
		}
		leading := strings.HasPrefix(out, r.UserMarker)
		out = lineStartRe(r.UserMarker).ReplaceAllLiteralString(out, repl)
		if r.CloseTurns && leading {
			out = strings.TrimPrefix(out, AssistantClose+"\n")
		}
	}
	if r.AssistantMarker != "" {
		out = lineStartRe(r.AssistantMarker).ReplaceAllLiteralString(out, UserClose+"\n"+AssistantOpen)
	}

	if !strings.HasPrefix(out, UserOpen) {
		out = UserOpen + "\n" + out
	}
	if !strings.HasSuffix(out, AssistantClose) {
		out = out + "\n" + AssistantClose
	}

	return blankRunRe.ReplaceAllLiteralString(out, "\n\n")
}

func lineStartRe(marker string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(marker))
}
