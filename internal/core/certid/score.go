package certid

import (
	"strings"
	"unicode"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const (
	BaseScore        = 60.0
	KeywordBonus     = 30.0
	MixedCharsBonus  = 5.0
	SeparatorBonus   = 3.0
	MaxScore         = 100.0
	EnrichmentScore  = 85.0
	FoundThreshold   = 80.0
	ReviewThreshold  = 60.0
	UniversalIDScore = 100.0
)

var identifierKeywords = []string{
	"certificate no",
	"certificate number",
	"cert no",
	"cert no.",
	"cert.",
	"certificate id",
	"credential id",
	"registration no",
	"regn no",
	"ref no",
	"serial no",
	"certificate #",
	"cert #:",
}

// Score rates a candidate in [0, 100] from its evidence and shape.
func Score(c domain.Candidate) float64 {
	score := BaseScore
	if hasIdentifierKeyword(c.Evidence) {
		score += KeywordBonus
	}
	if hasLetterAndDigit(c.Value) {
		score += MixedCharsBonus
	}
	if strings.ContainsAny(c.Value, "-/") {
		score += SeparatorBonus
	}
	return min(score, MaxScore)
}

// ScoreAll scores candidates in place and returns them.
func ScoreAll(cands []domain.Candidate) []domain.Candidate {
	for i := range cands {
		cands[i].Score = Score(cands[i])
	}
	return cands
}

func hasIdentifierKeyword(evidence string) bool {
	lower := strings.ToLower(evidence)
	for _, kw := range identifierKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasLetterAndDigit(value string) bool {
	var letter, digit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}
