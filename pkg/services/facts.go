package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/ai"
	"github.com/recallhq/recall-engine/pkg/apperrors"
	"github.com/recallhq/recall-engine/pkg/auth"
	"github.com/recallhq/recall-engine/pkg/logging"
	"github.com/recallhq/recall-engine/pkg/models"
	"github.com/recallhq/recall-engine/pkg/repositories"
	"github.com/recallhq/recall-engine/pkg/srs"
)

// UpdateFactInput carries the parameters of a fact revision.
type UpdateFactInput struct {
	// UserContent, when non-nil, replaces the fact's source material and
	// triggers regeneration of the question/answer pair.
	UserContent *string
	// KeepSchedule decides whether the revision preserves the review
	// schedule (true) or resets it to level 0 (false).
	KeepSchedule bool
}

// ReviewResult is the outcome of grading a review answer.
type ReviewResult struct {
	Grade *ai.GradeResult            `json:"grade"`
	Fact  *models.FactWithLatestItem `json:"fact"`
}

// FactService orchestrates the fact lifecycle: creation, content revision,
// deletion, and review grading. It owns the invariants over the
// Fact/FactItem pair and is the only caller of the scheduling policy.
type FactService interface {
	// List returns all facts owned by the caller, newest first, each
	// joined with its latest question/answer item.
	List(ctx context.Context) ([]*models.FactWithLatestItem, error)

	// Create generates a question/answer pair for the content and persists
	// the fact with its first item atomically. On generation failure
	// nothing is persisted.
	Create(ctx context.Context, userContent string) (*models.FactWithLatestItem, error)

	// Update revises a fact. New content appends a new item (history is
	// append-only); KeepSchedule=false resets the review schedule.
	Update(ctx context.Context, id uuid.UUID, input UpdateFactInput) (*models.FactWithLatestItem, error)

	// Delete removes a fact and all its items. Deleting an absent or
	// non-owned fact succeeds without effect.
	Delete(ctx context.Context, id uuid.UUID) error

	// Review grades a free-text answer against the fact's latest canonical
	// answer and applies the resulting scheduling directive.
	Review(ctx context.Context, id uuid.UUID, userAnswer string) (*ReviewResult, error)
}

type factService struct {
	repo      repositories.FactRepository
	generator ai.Generator
	grader    ai.Grader
	policy    srs.Policy
	logger    *zap.Logger
}

// NewFactService creates a new fact service.
func NewFactService(
	repo repositories.FactRepository,
	generator ai.Generator,
	grader ai.Grader,
	policy srs.Policy,
	logger *zap.Logger,
) FactService {
	return &factService{
		repo:      repo,
		generator: generator,
		grader:    grader,
		policy:    policy,
		logger:    logger.Named("facts"),
	}
}

var _ FactService = (*factService)(nil)

func (s *factService) List(ctx context.Context) ([]*models.FactWithLatestItem, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	facts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list facts",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}
	if len(facts) == 0 {
		return []*models.FactWithLatestItem{}, nil
	}

	factIDs := make([]uuid.UUID, len(facts))
	for i, f := range facts {
		factIDs[i] = f.ID
	}

	items, err := s.repo.ListItemsByFactIDs(ctx, factIDs)
	if err != nil {
		s.logger.Error("Failed to list fact items",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	// Items arrive newest first, so the first one seen per fact is its
	// latest.
	latestByFactID := make(map[uuid.UUID]*models.FactItem, len(facts))
	for _, item := range items {
		if _, seen := latestByFactID[item.FactID]; !seen {
			latestByFactID[item.FactID] = item
		}
	}

	result := make([]*models.FactWithLatestItem, len(facts))
	for i, f := range facts {
		result[i] = f.WithLatestItem(latestByFactID[f.ID])
	}
	return result, nil
}

func (s *factService) Create(ctx context.Context, userContent string) (*models.FactWithLatestItem, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if strings.TrimSpace(userContent) == "" {
		return nil, fmt.Errorf("user content is empty")
	}

	qa, err := s.generator.GenerateQuestionAnswer(ctx, userContent)
	if err != nil {
		s.logger.Error("Question generation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	now := time.Now()
	schedule := initialSchedule(s.policy, now)

	fact := &models.Fact{
		ID:              uuid.New(),
		UserID:          userID,
		UserContent:     userContent,
		Type:            models.FactTypeGeneric,
		SRSLevel:        schedule.Level,
		NextScheduledAt: schedule.NextReviewAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item := &models.FactItem{
		ID:              uuid.New(),
		FactID:          fact.ID,
		Question:        qa.Question,
		CanonicalAnswer: qa.Answer,
		CreatedAt:       now,
	}

	if err := s.repo.CreateWithItem(ctx, fact, item); err != nil {
		s.logger.Error("Failed to persist fact",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Fact created",
		zap.String("fact_id", fact.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("content_preview", logging.TruncateString(userContent, 50)))

	return fact.WithLatestItem(item), nil
}

func (s *factService) Update(ctx context.Context, id uuid.UUID, input UpdateFactInput) (*models.FactWithLatestItem, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	fact, err := s.repo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var item *models.FactItem
	now := time.Now()

	if input.UserContent != nil {
		content := *input.UserContent
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("user content is empty")
		}
		qa, err := s.generator.GenerateQuestionAnswer(ctx, content)
		if err != nil {
			s.logger.Error("Question generation failed",
				zap.String("fact_id", id.String()),
				zap.Error(err))
			return nil, err
		}
		fact.UserContent = content
		item = &models.FactItem{
			ID:              uuid.New(),
			FactID:          fact.ID,
			Question:        qa.Question,
			CanonicalAnswer: qa.Answer,
			CreatedAt:       now,
		}
	}

	directive := srs.DirectiveReset
	if input.KeepSchedule {
		directive = srs.DirectiveKeep
	}
	schedule := s.policy.Apply(srs.Schedule{
		Level:        fact.SRSLevel,
		NextReviewAt: fact.NextScheduledAt,
	}, directive, now)

	fact.SRSLevel = schedule.Level
	fact.NextScheduledAt = schedule.NextReviewAt
	fact.UpdatedAt = now

	if err := s.repo.UpdateWithItem(ctx, fact, item); err != nil {
		s.logger.Error("Failed to update fact",
			zap.String("fact_id", id.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	if item == nil {
		item, err = s.latestItemOrNil(ctx, fact.ID)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("Fact updated",
		zap.String("fact_id", fact.ID.String()),
		zap.Bool("new_content", input.UserContent != nil),
		zap.Bool("keep_schedule", input.KeepSchedule))

	return fact.WithLatestItem(item), nil
}

func (s *factService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	if err := s.repo.DeleteByIDAndUser(ctx, id, userID); err != nil {
		s.logger.Error("Failed to delete fact",
			zap.String("fact_id", id.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Fact deleted",
		zap.String("fact_id", id.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *factService) Review(ctx context.Context, id uuid.UUID, userAnswer string) (*ReviewResult, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	fact, err := s.repo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.GetLatestItem(ctx, fact.ID)
	if err != nil {
		s.logger.Error("Fact has no item to review against",
			zap.String("fact_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	grade, err := s.grader.GradeAnswer(ctx, userAnswer, latest.CanonicalAnswer)
	if err != nil {
		s.logger.Error("Answer grading failed",
			zap.String("fact_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	now := time.Now()
	directive := srs.DirectiveForGrade(srs.Grade(grade.Grade))
	if directive != srs.DirectiveKeep {
		schedule := s.policy.Apply(srs.Schedule{
			Level:        fact.SRSLevel,
			NextReviewAt: fact.NextScheduledAt,
		}, directive, now)

		fact.SRSLevel = schedule.Level
		fact.NextScheduledAt = schedule.NextReviewAt
		fact.UpdatedAt = now

		if err := s.repo.UpdateSchedule(ctx, fact); err != nil {
			s.logger.Error("Failed to persist review schedule",
				zap.String("fact_id", id.String()),
				zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("Fact reviewed",
		zap.String("fact_id", fact.ID.String()),
		zap.String("grade", grade.Grade))

	return &ReviewResult{
		Grade: grade,
		Fact:  fact.WithLatestItem(latest),
	}, nil
}

// latestItemOrNil tolerates a fact with no items. That state should not
// occur post-creation but the response shape is nullable for safety.
func (s *factService) latestItemOrNil(ctx context.Context, factID uuid.UUID) (*models.FactItem, error) {
	item, err := s.repo.GetLatestItem(ctx, factID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingItem) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// initialSchedule derives a new fact's schedule from the policy: level 0
// with the first review one reset interval out.
func initialSchedule(policy srs.Policy, now time.Time) srs.Schedule {
	return policy.Apply(srs.Schedule{}, srs.DirectiveReset, now)
}
