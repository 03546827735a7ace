// Package session persists parsed reports and the operator's decisions on
// them between requests.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/codeOCE/MBSync/internal/sqlite"
)

// ErrNotFound is returned for an unknown session identifier.
var ErrNotFound = errors.New("session not found")

// Session is one imported report and its current item state.
type Session struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	ContentHash string           `json:"content_hash"`
	Items       []inventory.Item `json:"items"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Summary is a session without its items.
type Summary struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	Counts    inventory.Counts `json:"counts"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:report_sessions,alias:rs"`

	ID          string    `bun:"id,pk"`
	Filename    string    `bun:"filename,notnull"`
	ContentHash string    `bun:"content_hash,notnull"`
	Items       string    `bun:"items,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (r sessionRow) session() (*Session, error) {
	var items []inventory.Item
	if err := json.Unmarshal([]byte(r.Items), &items); err != nil {
		return nil, fmt.Errorf("decode items for session %s: %w", r.ID, err)
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return &Session{
		ID:          r.ID,
		Filename:    r.Filename,
		ContentHash: r.ContentHash,
		Items:       items,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func encodeItems(items []inventory.Item) (string, error) {
	if items == nil {
		items = []inventory.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	return string(b), nil
}

// Store reads and writes sessions in sqlite.
type Store struct {
	db *sqlite.DB
}

func NewStore(db *sqlite.DB) *Store {
	return &Store{db: db}
}

// Create inserts s. Timestamps are set by the store.
func (st *Store) Create(ctx context.Context, s *Session) error {
	items, err := encodeItems(s.Items)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := sessionRow{
		ID:          s.ID,
		Filename:    s.Filename,
		ContentHash: s.ContentHash,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = st.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&row).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// Get loads one session.
func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	err := st.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return row.session()
}

// SaveItems overwrites the item state of an existing session.
func (st *Store) SaveItems(ctx context.Context, id string, items []inventory.Item) error {
	encoded, err := encodeItems(items)
	if err != nil {
		return err
	}
	return st.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("items = ?", encoded)
	})
}

// Replace swaps in a freshly parsed report. Decisions recorded against the
// previous report are discarded with its items.
func (st *Store) Replace(ctx context.Context, id, filename, contentHash string, items []inventory.Item) error {
	encoded, err := encodeItems(items)
	if err != nil {
		return err
	}
	return st.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("filename = ?", filename).
			Set("content_hash = ?", contentHash).
			Set("items = ?", encoded)
	})
}

func (st *Store) update(ctx context.Context, id string, set func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	return st.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().Model((*sessionRow)(nil)).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id)
		res, err := set(q).Exec(ctx)
		if err != nil {
			return fmt.Errorf("update session %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// List returns every session, most recently updated first.
func (st *Store) List(ctx context.Context) ([]Summary, error) {
	var rows []sessionRow
	err := st.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&rows).OrderExpr("updated_at DESC, id DESC").Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		s, err := r.session()
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:        s.ID,
			Filename:  s.Filename,
			Counts:    inventory.NewBatch(s.Items).Counts(),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes a session.
func (st *Store) Delete(ctx context.Context, id string) error {
	return st.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*sessionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}
