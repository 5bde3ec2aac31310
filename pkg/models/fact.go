package models

import (
	"time"

	"github.com/google/uuid"
)

// FactType classifies a fact. Only one value exists today; the column is
// set once at creation and never changes.
const FactTypeGeneric = "generic"

// Fact is a piece of user-submitted source material under spaced repetition.
// Stored in the facts table.
//
// SRSLevel and NextScheduledAt are owned by the scheduling policy: nothing
// outside srs.Policy application (and creation initialization) writes them.
// They are never exposed to clients.
type Fact struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"-"`
	UserContent     string    `json:"user_content"`
	Type            string    `json:"type"`
	SRSLevel        int       `json:"-"`
	NextScheduledAt time.Time `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FactItem is one AI-generated question/answer pair for a fact.
// Stored in the fact_items table. Rows are append-only: revising a fact
// inserts a new item and never mutates or deletes prior ones.
type FactItem struct {
	ID              uuid.UUID `json:"id"`
	FactID          uuid.UUID `json:"-"`
	Question        string    `json:"question"`
	CanonicalAnswer string    `json:"canonical_answer"`
	CreatedAt       time.Time `json:"created_at"`
}

// FactWithLatestItem is the shape returned by list/create/update: a fact
// joined with its most recent fact_items row. LatestFactItem is nullable
// for safety, though a fact always has at least one item after creation.
type FactWithLatestItem struct {
	ID             uuid.UUID `json:"id"`
	UserContent    string    `json:"user_content"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LatestFactItem *FactItem `json:"latest_fact_item"`
}

// WithLatestItem projects a fact and its latest item into the client shape.
func (f *Fact) WithLatestItem(item *FactItem) *FactWithLatestItem {
	return &FactWithLatestItem{
		ID:             f.ID,
		UserContent:    f.UserContent,
		Type:           f.Type,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		LatestFactItem: item,
	}
}
