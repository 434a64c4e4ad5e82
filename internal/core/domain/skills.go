package domain

type Skill struct {
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	ProficiencyLevel *string `json:"proficiency_level"`
	Confidence       float64 `json:"confidence"`
}

type NSQFLevel struct {
	Level      int     `json:"level"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type NSQFAlignment struct {
	Aligned    bool    `json:"aligned"`
	JobRole    *string `json:"job_role"`
	QPCode     *string `json:"qp_code"`
	NOSCode    *string `json:"nos_code"`
	NSQFLevel  *int    `json:"nsqf_level"`
	Confidence float64 `json:"confidence"`
	Reasoning  *string `json:"reasoning"`
}

type CertificateMetadata struct {
	CourseName        string `json:"course_name,omitempty"`
	Duration          string `json:"duration,omitempty"`
	CompletionDate    string `json:"completion_date,omitempty"`
	GradeOrScore      string `json:"grade_or_score,omitempty"`
	CertificateNumber string `json:"certificate_number,omitempty"`
}

// SkillExtraction is the normalized LLM view of one certificate.
type SkillExtraction struct {
	Skills              []Skill             `json:"skills"`
	NSQF                NSQFLevel           `json:"nsqf"`
	NSQFAlignment       *NSQFAlignment      `json:"nsqf_alignment"`
	Keywords            []string            `json:"keywords"`
	CertificateMetadata CertificateMetadata `json:"certificate_metadata"`
	Description         string              `json:"description"`
}

func EmptySkillExtraction() SkillExtraction {
	return SkillExtraction{
		Skills: []Skill{},
		NSQF: NSQFLevel{
			Level:     1,
			Reasoning: "Could not assess NSQF level",
		},
		Keywords: []string{},
	}
}

type OCRRequest struct {
	Document         Document
	LearnerEmail     string
	CertificateTitle string
	IssuerName       string
	NSQFContext      []map[string]any
}

type OCRResult struct {
	ExtractedText string `json:"extracted_text"`
	SkillExtraction
	CertificateID ExtractionResult `json:"certificate_id"`
	CredentialID  string           `json:"credential_id,omitempty"`
}
