package certid

import (
	"regexp"
	"sort"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
)

// Universal identifier shapes accepted when the regular pipeline is not confident.
var universalPatterns = []*regexp.Regexp{
	// IPFS CIDv0
	regexp.MustCompile(`\bQm[A-Za-z0-9]{44}\b`),
	// blockchain transaction / contract hash
	regexp.MustCompile(`\b0x[0-9a-fA-F]{40,}\b`),
}

// Classify maps a score onto a status. Boundaries are inclusive.
func Classify(score float64) domain.ExtractionStatus {
	switch {
	case score >= FoundThreshold:
		return domain.StatusFound
	case score >= ReviewThreshold:
		return domain.StatusNeedsReview
	default:
		return domain.StatusNotFound
	}
}

// Deduplicate keeps the best scored candidate per case-insensitive normalized
// value and returns survivors ordered by score. On equal scores the earlier
// candidate is kept, both within a group and in the final order.
func Deduplicate(cands []domain.Candidate) []domain.Candidate {
	index := make(map[string]int, len(cands))
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		key := strings.ToLower(c.Normalized)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.Score > out[i].Score {
			out[i] = c
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// LLMCandidate wraps an enrichment value as a candidate with a fixed score.
// It returns nil when the value normalizes to nothing.
func LLMCandidate(value string) *domain.Candidate {
	value = strings.TrimSpace(value)
	normalized := Normalize(value)
	if normalized == "" {
		return nil
	}
	return &domain.Candidate{
		Value:      value,
		Normalized: normalized,
		Score:      EnrichmentScore,
		Source:     domain.SourceLLM,
	}
}

// Select picks the winning candidate. extra, when non-nil, joins the pool
// only if no pattern candidate already normalizes to the same value.
func Select(cands []domain.Candidate, extra *domain.Candidate) domain.ExtractionResult {
	ranked := Deduplicate(cands)
	if extra != nil && !containsKey(ranked, extra.Normalized) {
		ranked = append(ranked, *extra)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})
	}
	if len(ranked) == 0 {
		return domain.NotFoundResult()
	}
	return resultFor(ranked[0])
}

func containsKey(cands []domain.Candidate, normalized string) bool {
	key := strings.ToLower(normalized)
	if key == "" {
		return true
	}
	for _, c := range cands {
		if strings.ToLower(c.Normalized) == key {
			return true
		}
	}
	return false
}

// SelectFromText runs Select and, when that does not yield a confident match,
// falls back to universal identifier shapes found anywhere in text.
func SelectFromText(text string, cands []domain.Candidate, extra *domain.Candidate) domain.ExtractionResult {
	result := Select(cands, extra)
	if result.Status == domain.StatusFound {
		return result
	}
	if c, ok := universalCandidate(text); ok {
		return resultFor(c)
	}
	return result
}

// Extract is the pure pipeline over already extracted text.
func Extract(text string, extra *domain.Candidate) domain.ExtractionResult {
	cands := ScoreAll(GenerateCandidates(text))
	return SelectFromText(text, cands, extra)
}

func universalCandidate(text string) (domain.Candidate, bool) {
	for _, re := range universalPatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		c := newCandidate(text, loc[0], loc[1], domain.SourceFallback)
		c.Score = UniversalIDScore
		return c, true
	}
	return domain.Candidate{}, false
}

// resultFor classifies the top candidate. A not_found result still carries
// the candidate and its score for review.
func resultFor(c domain.Candidate) domain.ExtractionResult {
	result := domain.ExtractionResult{
		Confidence: c.Score,
		Status:     Classify(c.Score),
		Candidate:  &c,
	}
	if result.Status != domain.StatusNotFound {
		number := c.Value
		result.CertificateNumber = &number
	}
	return result
}
