package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const (
	maxSkillPromptChars      = 3000
	maxIdentifierPromptChars = 4000
)

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func buildIdentifierPrompt(text, issuerHint string) string {
	issuer := strings.TrimSpace(issuerHint)
	if issuer == "" {
		issuer = "unknown"
	}
	return fmt.Sprintf(`You read OCR text of an educational certificate.
Return strict JSON with key certificate_number (string or null): the certificate,
credential, registration or reference number printed on the certificate.
Copy it exactly as printed. Do not invent one. No markdown, no extra keys.

Issuer: %s
Text:
%s`, issuer, truncateRunes(text, maxIdentifierPromptChars))
}

func buildSkillExtractionPrompt(text, title, issuer string, nsqfContext []map[string]any) string {
	var contextBlock string
	if len(nsqfContext) > 0 {
		if b, err := json.MarshalIndent(nsqfContext, "", "  "); err == nil {
			contextBlock = "\nCandidate NSQF qualifications (use for nsqf_alignment):\n" + string(b) + "\n"
		}
	}

	return fmt.Sprintf(`Extract skills, NSQF level and keywords from this certificate. Return ONLY valid JSON.

Certificate:
Title: %s
Issuer: %s
Text: %s
%s
Return JSON in this format:
{
  "skills": [{"name": "Python", "category": "Programming Languages", "proficiency_level": "Intermediate", "confidence": 0.95}],
  "nsqf": {"level": 5, "confidence": 0.85, "reasoning": "short reason"},
  "nsqf_alignment": {"aligned": true, "job_role": "string or null", "qp_code": "string or null", "nos_code": "string or null", "nsqf_level": 5, "confidence": 0.8, "reasoning": "string or null"},
  "keywords": ["python", "programming"],
  "certificate_metadata": {"course_name": "", "duration": "", "completion_date": "", "grade_or_score": "", "certificate_number": ""},
  "description": "1-2 sentence summary"
}

Rules:
1. skills: name, category, proficiency_level (Beginner, Intermediate, Advanced, Expert), confidence 0.0-1.0
2. nsqf: level 1-10 (1-2 basic, 3-4 certificate, 5-6 diploma, 7-8 bachelor, 9-10 master/research)
3. keywords: lowercase search terms
4. certificate_metadata: only what the text shows
5. No markdown, no explanations.`, title, issuer, truncateRunes(text, maxSkillPromptChars), contextBlock)
}

func buildRecommendationPrompt(skills []string, titles []string) string {
	return fmt.Sprintf(`You are a career advisor for the Indian job market.
Verified skills from certificates: %s
Certificate titles: %s

Return JSON:
{
  "skills": ["current skills"],
  "recommended_next_skills": [{"skill": "", "description": "why learn this", "market_demand_percent": 85, "career_outcome": ""}],
  "role_suggestions": [{"role": "", "required_skills": [], "matched_skills": [], "percent_complete": 70}],
  "learning_path": [{"stage": "Foundation|Intermediate|Advanced", "skills": [], "est_time_weeks": 12}],
  "recommended_courses": [{"title": "", "provider": "", "url": "https://..."}],
  "nsqf_level": 5,
  "nsqf_confidence": 0.85
}
Focus on the NSQF framework. Return ONLY JSON.`, strings.Join(skills, ", "), strings.Join(titles, ", "))
}

func buildStackabilityPrompt(req domain.StackabilityRequest) string {
	notational := fmt.Sprintf("%s-%s", formatOptionalNumber(req.MinNotationalHours), formatOptionalNumber(req.MaxNotationalHours))
	ctx := map[string]any{
		"qualification_code":  req.Code,
		"nsqf_level":          req.Level,
		"progression_pathway": req.ProgressionPathway,
		"qualification_type":  req.QualificationType,
		"sector":              req.SectorName,
		"training_hours":      req.TrainingDeliveryHours,
		"notational_hours":    notational,
		"proposed_occupation": req.ProposedOccupation,
		"learner_skills":      req.Skills,
	}
	b, _ := json.MarshalIndent(ctx, "", "  ")

	return fmt.Sprintf(`You are an expert in the National Skills Qualification Framework (NSQF).
Analyze the learner's skills against relevant NSQF pathways for this qualification.

Qualification context:
%s

Tasks:
1. Identify 1-3 stackable pathways.
2. Break each pathway into required skills with credits (1-5) by complexity.
3. Mark each skill "completed" (learner has it), "in_progress" or "missing".

Return JSON:
{
  "pathways": [
    {
      "pathway_title": "Full Stack Developer - NSQF Level 5",
      "description": "",
      "next_credential": "",
      "estimated_duration": "3-6 months",
      "progress_percentage": 50,
      "skills": [{"name": "", "credits_earned": 2, "credits_total": 2, "status": "completed"}]
    }
  ]
}
Focus on the Indian job market. Return ONLY JSON.`, string(b))
}

func formatOptionalNumber(v *float64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%g", *v)
}

func buildEmployerPrompt(email, question, skillsContext string) string {
	return fmt.Sprintf(`You help employers evaluate candidates from their verified certificates.
Candidate: %s
Question: %s

Verified certificates and skills:
%s

Return JSON:
{
  "answer": "clear answer naming the certificates that prove it, or stating there is no evidence",
  "relevant_skills": [{"name": "Docker", "category": "DevOps", "proficiency_level": "Intermediate", "confidence": 0.95}],
  "certificates_referenced": ["Certificate Title"],
  "confidence": 0.9
}
List only skills relevant to the question. Return ONLY JSON.`, email, question, skillsContext)
}
