// Package mock is a deterministic TextGenerator used when MOCK_MODE is on.
package mock

import "context"

// Response is what every JSON prompt gets back.
const Response = `{"skills": ["Python", "Data Analysis"], "next_skills": [], "roles": [], "path": [], "courses": [], "nsqf": 4}`

type Generator struct{}

func New() *Generator { return &Generator{} }

func (Generator) Model() string { return "mock" }

func (Generator) GenerateFromPrompt(context.Context, string) (string, error) {
	return Response, nil
}

func (Generator) GenerateJSONFromPrompt(context.Context, string) (string, error) {
	return Response, nil
}
