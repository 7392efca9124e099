package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
)

var ErrIndexNotReady = errors.New("embedding index is not built")

// IndexSource hands out the embedding snapshot to search against.
type IndexSource interface {
	Snapshot() *IndexSnapshot
}

// Query is what every cascade stage sees.
type Query struct {
	Raw        string
	Normalized string
	History    []models.Turn
}

// Stage is one step of the answer cascade. A stage that does not apply
// returns ok=false and the next stage is tried.
type Stage struct {
	Name    string
	Resolve func(ctx context.Context, q *Query) (reply string, ok bool, err error)
}

type ResolverConfig struct {
	TopK                int
	SimilarityThreshold float64
}

// AnswerResolver turns a question into a reply by running its stages in
// order; the first stage that answers wins.
type AnswerResolver struct {
	dataset  *models.Dataset
	index    IndexSource
	searcher *SemanticSearcher
	fallback *GenerativeFallback
	config   ResolverConfig
	logger   *zap.Logger

	// memory is shared by every session, so a value written while answering
	// one user is visible while answering another.
	memoryMu sync.Mutex
	memory   models.Memory

	stages []Stage
}

func NewAnswerResolver(
	dataset *models.Dataset,
	index IndexSource,
	searcher *SemanticSearcher,
	fallback *GenerativeFallback,
	cfg ResolverConfig,
	logger *zap.Logger,
) *AnswerResolver {
	if dataset == nil {
		dataset = &models.Dataset{}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}

	r := &AnswerResolver{
		dataset:  dataset,
		index:    index,
		searcher: searcher,
		fallback: fallback,
		config:   cfg,
		logger:   logger,
	}
	r.stages = r.defaultStages()
	return r
}

// Resolve always produces a reply unless a capability the cascade depends on
// (query embedding) fails.
func (r *AnswerResolver) Resolve(ctx context.Context, question string, history []models.Turn) (string, error) {
	q := &Query{
		Raw:        question,
		Normalized: normalizeQuery(question),
		History:    history,
	}

	for _, stage := range r.stages {
		reply, ok, err := stage.Resolve(ctx, q)
		if err != nil {
			return "", fmt.Errorf("%s stage: %w", stage.Name, err)
		}
		if ok {
			r.logger.Debug("Question resolved", zap.String("stage", stage.Name))
			return reply, nil
		}
	}

	// The terminal stage always answers; this is only reached with a
	// truncated stage list.
	return replyStillLearning, nil
}

// StageNames lists the cascade in evaluation order.
func (r *AnswerResolver) StageNames() []string {
	names := make([]string, len(r.stages))
	for i, stage := range r.stages {
		names[i] = stage.Name
	}
	return names
}

// Memory returns a copy of the short-term memory.
func (r *AnswerResolver) Memory() models.Memory {
	r.memoryMu.Lock()
	defer r.memoryMu.Unlock()
	return r.memory
}

func (r *AnswerResolver) rememberPerson(m models.Mentor) {
	r.memoryMu.Lock()
	defer r.memoryMu.Unlock()
	r.memory.LastPerson = &m
}

func (r *AnswerResolver) rememberTopic(topic string) {
	r.memoryMu.Lock()
	defer r.memoryMu.Unlock()
	r.memory.LastTopic = topic
}

func (r *AnswerResolver) defaultStages() []Stage {
	return []Stage{
		{"guard", r.guard},
		{"greeting", r.greeting},
		{"identity", r.identity},
		{"self_intro", r.selfIntro},
		{"gratitude", r.gratitude},
		{"wellbeing", r.wellbeing},
		{"contact", r.contact},
		{"location", r.location},
		{"ownership", r.ownership},
		{"mentors", r.mentors},
		{"demo", keywordReply(replyDemo, "demo")},
		{"certificate", keywordReply(replyCertificate, "certificate", "certification")},
		{"beginner", keywordReply(replyBeginner, "beginner")},
		{"payment", keywordReply(replyPayment, "payment")},
		{"projects", r.projects},
		{"course_title", r.courseTitle},
		{"semantic", r.semantic},
		{"course_listing", r.courseListing},
		{"instructor", r.instructor},
		{"structure", r.structure},
		{"terminal", terminal},
	}
}

func (r *AnswerResolver) guard(_ context.Context, q *Query) (string, bool, error) {
	if q.Raw == "" || utf8.RuneCountInString(q.Normalized) < 2 {
		return ReplyRephrase, true, nil
	}
	return "", false, nil
}

func (r *AnswerResolver) semantic(ctx context.Context, q *Query) (string, bool, error) {
	snapshot := r.index.Snapshot()
	if snapshot == nil {
		return "", false, ErrIndexNotReady
	}

	results, err := r.searcher.Search(ctx, q.Raw, snapshot.Matrix, snapshot.Texts, r.config.TopK)
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}

	top := results[0]
	if top.Score >= r.config.SimilarityThreshold {
		r.logger.Debug("Semantic match",
			zap.String("text", top.Text),
			zap.Float64("score", top.Score),
		)
		return snapshot.Answers[top.Index], true, nil
	}

	retrieved := make([]string, len(results))
	for i, result := range results {
		retrieved[i] = result.Text
	}
	if answer := r.fallback.Generate(ctx, q.Raw, joinLines(retrieved), q.History); answer != "" {
		return answer, true, nil
	}
	return "", false, nil
}

func terminal(context.Context, *Query) (string, bool, error) {
	return replyStillLearning, true, nil
}
