package service

import (
	"context"
	"sync"
	"testing"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
)

// stubEmbedder maps known texts to fixed vectors; anything else gets fixed,
// or fallbackVector when fixed is unset.
type stubEmbedder struct {
	mu      sync.Mutex
	model   string
	vectors map[string][]float32
	fixed   []float32
	err     error
	calls   int
	texts   int
}

var fallbackVector = []float32{0.3, 0.3, 0.9}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.texts += len(texts)
	if e.err != nil {
		return nil, e.err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		if e.fixed != nil {
			out[i] = e.fixed
			continue
		}
		out[i] = fallbackVector
	}
	return out, nil
}

func (e *stubEmbedder) EmbeddingModel() string {
	return e.model
}

func (e *stubEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func testDataset() *models.Dataset {
	return &models.Dataset{
		Company: models.Company{
			Name:     "CodeIT",
			Tagline:  "Learn to code",
			About:    "An IT training institute.",
			Location: "Putalisadak, Kathmandu",
			Contact: models.Contact{
				Email:        "info@codeit.test",
				Phones:       []string{"9800000000", "01-4444444"},
				WorkingHours: "7 AM - 7 PM",
			},
			Mentors: []models.Mentor{
				{Name: "Sita", Role: "Senior Developer", Experience: "6 years"},
				{Name: "Ram", Role: "Co-Founder & CEO", Experience: "10 years"},
			},
		},
		Courses: models.Catalog{
			{Name: "web_development", Courses: []models.Course{
				{Title: "MERN Stack", Price: "25000", URL: "https://codeit.test/mern", Instructor: "Hari"},
			}},
			{Name: "data_science", Courses: []models.Course{
				{Title: "Python Masterclass", Price: "15000", URL: "https://codeit.test/python", Description: "Python from scratch."},
			}},
		},
		CourseStructure: models.CourseStructure{
			SessionLength: "3 months",
			DailyDuration: "1.5 hours",
			Benefits:      []string{"Internship", "Certificate"},
		},
		Projects: []models.Project{
			{Title: "E-Commerce Platform", Course: "MERN Stack", Description: "A full shop."},
			{Title: "Library System", Course: "Python Masterclass", Description: "Books and members."},
		},
	}
}

// newTestResolver wires a resolver over testDataset and a fixed two-row
// index: "refund" and "internship".
func newTestResolver(t *testing.T, embedder *stubEmbedder, generator Generator) *AnswerResolver {
	t.Helper()

	index := &IndexSnapshot{
		Texts:   []string{"refund", "internship"},
		Answers: []string{"Refunds depend on policy.", "Internships are offered."},
		Matrix:  [][]float32{{1, 0, 0}, {0, 1, 0}},
	}

	logger := zap.NewNop()
	return NewAnswerResolver(
		testDataset(),
		index,
		NewSemanticSearcher(embedder, logger),
		NewGenerativeFallback(generator, 0, logger),
		ResolverConfig{TopK: 3, SimilarityThreshold: 0.56},
		logger,
	)
}
