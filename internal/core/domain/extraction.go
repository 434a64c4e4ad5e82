package domain

type ExtractionStatus string

const (
	StatusFound       ExtractionStatus = "found"
	StatusNeedsReview ExtractionStatus = "needs_review"
	StatusNotFound    ExtractionStatus = "not_found"
)

type CandidateSource string

const (
	SourcePattern  CandidateSource = "pattern"
	SourceLLM      CandidateSource = "llm"
	SourceFallback CandidateSource = "fallback"
)

// Candidate is one possible certificate identifier found in extracted text.
// Start and End are nil for candidates that did not come from a text match.
type Candidate struct {
	Value      string          `json:"value"`
	Normalized string          `json:"normalized"`
	Evidence   string          `json:"evidence"`
	Start      *int            `json:"start"`
	End        *int            `json:"end"`
	Score      float64         `json:"score"`
	Source     CandidateSource `json:"source"`
}

type ExtractionResult struct {
	CertificateNumber *string          `json:"certificate_number"`
	Confidence        float64          `json:"confidence"`
	Status            ExtractionStatus `json:"status"`
	Candidate         *Candidate       `json:"candidate"`
}

func NotFoundResult() ExtractionResult {
	return ExtractionResult{Status: StatusNotFound}
}

// Enrichment is the outcome of asking the LLM for a certificate identifier.
type Enrichment struct {
	Value string
	Err   error
}

func (e Enrichment) OK() bool {
	return e.Err == nil && e.Value != ""
}
