package rounds

import "github.com/starford/roundup/internal/models"

// Strategy names the segmentation method that produced a result.
type Strategy string

// Strategies.
const (
	StrategyTagPaired Strategy = "tag-paired"
	StrategyLegacy    Strategy = "legacy"
)

// Result is the output of Parser.Parse.
type Result struct {
	Rounds   []models.Round
	Strategy Strategy
}

// Option configures a Parser.
type Option func(*Parser)

// WithLegacyFallback enables the heuristic splitter for transcripts in which
// the tag scan finds no turn boundary at all.
func WithLegacyFallback(enabled bool) Option {
	return func(p *Parser) {
		p.legacyFallback = enabled
	}
}

// Parser selects between the tag-paired scan and the legacy splitter.
// The zero value only uses the tag-paired scan.
type Parser struct {
	legacyFallback bool
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse segments canonical text. The legacy splitter is consulted only when
// enabled and the text has no user/assistant boundary line.
func (p *Parser) Parse(canonical string) Result {
	out, sawBoundary := scan(canonical)
	if len(out) > 0 || sawBoundary || !p.legacyFallback {
		return Result{Rounds: out, Strategy: StrategyTagPaired}
	}
	return Result{Rounds: Legacy(canonical), Strategy: StrategyLegacy}
}
