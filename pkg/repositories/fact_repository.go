package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/recallhq/recall-engine/pkg/apperrors"
	"github.com/recallhq/recall-engine/pkg/database"
	"github.com/recallhq/recall-engine/pkg/models"
)

// FactRepository provides data access for facts and their question/answer
// items. All reads and writes are scoped by the owning user.
type FactRepository interface {
	// ListByUser returns all facts for a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Fact, error)
	// ListItemsByFactIDs returns the items for the given facts, newest
	// first, in one bulk query.
	ListItemsByFactIDs(ctx context.Context, factIDs []uuid.UUID) ([]*models.FactItem, error)
	// GetByIDAndUser returns a fact owned by the user, or
	// apperrors.ErrNotFound.
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Fact, error)
	// GetLatestItem returns the most recent item for a fact, or
	// apperrors.ErrMissingItem if none exists.
	GetLatestItem(ctx context.Context, factID uuid.UUID) (*models.FactItem, error)
	// CreateWithItem inserts a fact and its first item as one transaction.
	CreateWithItem(ctx context.Context, fact *models.Fact, item *models.FactItem) error
	// UpdateWithItem updates a fact row and, when item is non-nil, appends
	// a new fact_items row, as one transaction. Existing items are never
	// touched. Returns apperrors.ErrNotFound when the fact isn't owned by
	// fact.UserID.
	UpdateWithItem(ctx context.Context, fact *models.Fact, item *models.FactItem) error
	// UpdateSchedule persists policy-owned schedule fields for an owned fact.
	UpdateSchedule(ctx context.Context, fact *models.Fact) error
	// DeleteByIDAndUser removes a fact and cascades to its items.
	// Deleting an absent or non-owned fact is not an error.
	DeleteByIDAndUser(ctx context.Context, id, userID uuid.UUID) error
}

// factRepository implements FactRepository using PostgreSQL.
type factRepository struct {
	db *database.DB
}

// NewFactRepository creates a new fact repository over the given pool.
func NewFactRepository(db *database.DB) FactRepository {
	return &factRepository{db: db}
}

var _ FactRepository = (*factRepository)(nil)

const factColumns = `id, user_id, user_content, type, srs_level, next_scheduled_at, created_at, updated_at`

func (r *factRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Fact, error) {
	query := `
		SELECT ` + factColumns + `
		FROM facts
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	facts := make([]*models.Fact, 0)
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facts: %w", err)
	}

	return facts, nil
}

func (r *factRepository) ListItemsByFactIDs(ctx context.Context, factIDs []uuid.UUID) ([]*models.FactItem, error) {
	if len(factIDs) == 0 {
		return []*models.FactItem{}, nil
	}

	// Newest first so the first item seen per fact is its latest.
	// ctid breaks created_at ties in favor of the most recent insert.
	query := `
		SELECT id, fact_id, question, canonical_answer, created_at
		FROM fact_items
		WHERE fact_id = ANY($1)
		ORDER BY created_at DESC, ctid DESC`

	rows, err := r.db.Query(ctx, query, factIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list fact items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.FactItem, 0)
	for rows.Next() {
		item, err := scanFactItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fact items: %w", err)
	}

	return items, nil
}

func (r *factRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Fact, error) {
	query := `
		SELECT ` + factColumns + `
		FROM facts
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRow(ctx, query, id, userID)
	fact, err := scanFactRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return fact, nil
}

func (r *factRepository) GetLatestItem(ctx context.Context, factID uuid.UUID) (*models.FactItem, error) {
	query := `
		SELECT id, fact_id, question, canonical_answer, created_at
		FROM fact_items
		WHERE fact_id = $1
		ORDER BY created_at DESC, ctid DESC
		LIMIT 1`

	var item models.FactItem
	err := r.db.QueryRow(ctx, query, factID).Scan(
		&item.ID, &item.FactID, &item.Question, &item.CanonicalAnswer, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMissingItem
		}
		return nil, fmt.Errorf("failed to get latest fact item: %w", err)
	}
	return &item, nil
}

func (r *factRepository) CreateWithItem(ctx context.Context, fact *models.Fact, item *models.FactItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	insertFact := `
		INSERT INTO facts (` + factColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, insertFact,
		fact.ID, fact.UserID, fact.UserContent, fact.Type,
		fact.SRSLevel, fact.NextScheduledAt, fact.CreatedAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}

	if err = insertItem(ctx, tx, item); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit fact creation: %w", err)
	}
	return nil
}

func (r *factRepository) UpdateWithItem(ctx context.Context, fact *models.Fact, item *models.FactItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	updateFact := `
		UPDATE facts
		SET user_content = $3, srs_level = $4, next_scheduled_at = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2`

	result, err := tx.Exec(ctx, updateFact,
		fact.ID, fact.UserID, fact.UserContent,
		fact.SRSLevel, fact.NextScheduledAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update fact: %w", err)
	}
	if result.RowsAffected() == 0 {
		err = apperrors.ErrNotFound
		return err
	}

	if item != nil {
		if err = insertItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit fact update: %w", err)
	}
	return nil
}

func (r *factRepository) UpdateSchedule(ctx context.Context, fact *models.Fact) error {
	query := `
		UPDATE facts
		SET srs_level = $3, next_scheduled_at = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query,
		fact.ID, fact.UserID, fact.SRSLevel, fact.NextScheduledAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *factRepository) DeleteByIDAndUser(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM facts WHERE id = $1 AND user_id = $2`

	if _, err := r.db.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}
	// Zero rows affected is success: delete is idempotent on absence.
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, item *models.FactItem) error {
	query := `
		INSERT INTO fact_items (id, fact_id, question, canonical_answer, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, query,
		item.ID, item.FactID, item.Question, item.CanonicalAnswer, item.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert fact item: %w", err)
	}
	return nil
}

// ============================================================================
// Helper Functions - Scan
// ============================================================================

func scanFactRow(row pgx.Row) (*models.Fact, error) {
	var f models.Fact
	err := row.Scan(
		&f.ID, &f.UserID, &f.UserContent, &f.Type,
		&f.SRSLevel, &f.NextScheduledAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fact: %w", err)
	}
	return &f, nil
}

func scanFact(rows pgx.Rows) (*models.Fact, error) {
	var f models.Fact
	err := rows.Scan(
		&f.ID, &f.UserID, &f.UserContent, &f.Type,
		&f.SRSLevel, &f.NextScheduledAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan fact: %w", err)
	}
	return &f, nil
}

func scanFactItem(rows pgx.Rows) (*models.FactItem, error) {
	var item models.FactItem
	err := rows.Scan(
		&item.ID, &item.FactID, &item.Question, &item.CanonicalAnswer, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan fact item: %w", err)
	}
	return &item, nil
}
