// Package certid finds certificate identifiers in OCR text.
//
// Extraction is a fixed pipeline: every pattern is run over the text and each
// match becomes a candidate, candidates are scored from their shape and the
// keywords around them, duplicates collapse onto their best score and the top
// survivor is classified against two thresholds.
package certid

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/micromerit/ai-service/internal/core/domain"
)

// EvidenceRadius is the number of characters kept on each side of a match.
const EvidenceRadius = 80

// candidatePatterns are scanned in order; earlier patterns win score ties.
var candidatePatterns = []*regexp.Regexp{
	// uuid
	regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
	// letter prefix + digits: ABC-12345, ACTNAADO2008500
	regexp.MustCompile(`(?i)[A-Z]{2,8}-?[0-9]{3,12}`),
	// generic alnum block
	regexp.MustCompile(`(?i)[A-Z0-9-]{6,40}`),
	// year/code: 2023/00451
	regexp.MustCompile(`[0-9]{4}/[0-9]{2,8}`),
	// bare digit run
	regexp.MustCompile(`[0-9]{6,12}`),
}

// GenerateCandidates returns one unscored candidate per pattern match.
func GenerateCandidates(text string) []domain.Candidate {
	var out []domain.Candidate
	for _, re := range candidatePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, newCandidate(text, loc[0], loc[1], domain.SourcePattern))
		}
	}
	return out
}

func newCandidate(text string, start, end int, source domain.CandidateSource) domain.Candidate {
	value := text[start:end]
	s, e := start, end
	return domain.Candidate{
		Value:      value,
		Normalized: Normalize(value),
		Evidence:   evidenceWindow(text, start, end),
		Start:      &s,
		End:        &e,
		Score:      BaseScore,
		Source:     source,
	}
}

// Normalize keeps ASCII letters, digits, '-' and '/'.
func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '/':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// evidenceWindow returns up to EvidenceRadius characters on each side of
// [start, end). Offsets are byte offsets; the radius counts runes.
func evidenceWindow(text string, start, end int) string {
	lo := start
	for n := 0; n < EvidenceRadius && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for n := 0; n < EvidenceRadius && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}
