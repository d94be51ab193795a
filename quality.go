package distill

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinQualityLength is the number of characters below which text from
// a page fetch is considered too weak to stop escalating.
const DefaultMinQualityLength = 400

// ReaderMinQualityLength is the acceptance threshold for the reader proxy,
// which must return more than 200 characters.
const ReaderMinQualityLength = 201

// QualityGate decides whether extracted text is good enough to stop
// escalating to a more expensive provider.
//
// It is a heuristic. Marking good content as weak only costs another
// provider call; accepting bad content is worse, so any tuning should bias
// MinLength upward.
type QualityGate struct {
	MinLength int
}

// IsAcceptable reports whether the trimmed text reaches the threshold.
// A zero MinLength falls back to DefaultMinQualityLength.
func (g QualityGate) IsAcceptable(text string) bool {
	min := g.MinLength
	if min <= 0 {
		min = DefaultMinQualityLength
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= min
}
