package domain

type CertificateInput struct {
	CertificateTitle string `json:"certificate_title"`
	Metadata         struct {
		Skills []string `json:"skills"`
	} `json:"metadata"`
}

type RecommendationRequest struct {
	LearnerEmail string             `json:"learner_email"`
	Certificates []CertificateInput `json:"certificates"`
}

type RecommendedSkill struct {
	Skill               string `json:"skill"`
	Description         string `json:"description"`
	MarketDemandPercent int    `json:"market_demand_percent"`
	CareerOutcome       string `json:"career_outcome"`
}

type RoleSuggestion struct {
	Role            string   `json:"role"`
	RequiredSkills  []string `json:"required_skills"`
	MatchedSkills   []string `json:"matched_skills"`
	PercentComplete int      `json:"percent_complete"`
}

type LearningStage struct {
	Stage        string   `json:"stage"`
	Skills       []string `json:"skills"`
	EstTimeWeeks int      `json:"est_time_weeks"`
}

type CourseRecommendation struct {
	Title    string `json:"title"`
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

type Recommendations struct {
	Skills                []string               `json:"skills"`
	RecommendedNextSkills []RecommendedSkill     `json:"recommended_next_skills"`
	RoleSuggestions       []RoleSuggestion       `json:"role_suggestions"`
	LearningPath          []LearningStage        `json:"learning_path"`
	RecommendedCourses    []CourseRecommendation `json:"recommended_courses"`
	NSQFLevel             int                    `json:"nsqf_level"`
	NSQFConfidence        float64                `json:"nsqf_confidence"`
	Confidence            float64                `json:"confidence"`
	Source                string                 `json:"source"`
}

func EmptyRecommendations() Recommendations {
	return Recommendations{
		Skills:                []string{},
		RecommendedNextSkills: []RecommendedSkill{},
		RoleSuggestions:       []RoleSuggestion{},
		LearningPath:          []LearningStage{},
		RecommendedCourses:    []CourseRecommendation{},
		NSQFLevel:             1,
		Source:                "none",
	}
}

type StackabilityRequest struct {
	Code                  *string  `json:"code"`
	Level                 *float64 `json:"level"`
	ProgressionPathway    *string  `json:"progression_pathway"`
	QualificationType     *string  `json:"qualification_type"`
	SectorName            *string  `json:"sector_name"`
	TrainingDeliveryHours *string  `json:"training_delivery_hours"`
	MinNotationalHours    *float64 `json:"min_notational_hours"`
	MaxNotationalHours    *float64 `json:"max_notational_hours"`
	ProposedOccupation    *string  `json:"proposed_occupation"`
	Skills                []string `json:"skills"`
}

type PathwaySkillStatus string

const (
	PathwaySkillCompleted  PathwaySkillStatus = "completed"
	PathwaySkillInProgress PathwaySkillStatus = "in_progress"
	PathwaySkillMissing    PathwaySkillStatus = "missing"
)

type PathwaySkill struct {
	Name          string             `json:"name"`
	CreditsEarned int                `json:"credits_earned"`
	CreditsTotal  int                `json:"credits_total"`
	Status        PathwaySkillStatus `json:"status"`
}

type StackablePathway struct {
	PathwayTitle       string         `json:"pathway_title"`
	Description        string         `json:"description,omitempty"`
	NextCredential     string         `json:"next_credential,omitempty"`
	EstimatedDuration  string         `json:"estimated_duration,omitempty"`
	ProgressPercentage int            `json:"progress_percentage"`
	Skills             []PathwaySkill `json:"skills"`
}

type StackabilityReport struct {
	Pathways []StackablePathway `json:"pathways"`
}

type EmployerChatRequest struct {
	LearnerEmail string `json:"learner_email"`
	Question     string `json:"question"`
}

type EmployerChatAnswer struct {
	Answer                 string   `json:"answer"`
	RelevantSkills         []Skill  `json:"relevant_skills"`
	CertificatesReferenced []string `json:"certificates_referenced"`
	Confidence             float64  `json:"confidence"`
}
