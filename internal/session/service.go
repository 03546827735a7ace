package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/codeOCE/MBSync/internal/ulid"
)

// Service is the only writer of session state in a process. Every mutation
// is a load, apply, save cycle under one mutex, so concurrent edits to a
// session never interleave.
type Service struct {
	mu    sync.Mutex
	store *Store
	log   *slog.Logger
}

func NewService(store *Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Import stores a parsed report. An empty id creates a new session;
// otherwise the named session's items are replaced.
func (s *Service) Import(ctx context.Context, id, filename, contentHash string, items []inventory.Item) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items = inventory.NewBatch(items).Items()

	if id == "" {
		sess := &Session{
			ID:          ulid.New(),
			Filename:    filename,
			ContentHash: contentHash,
			Items:       items,
		}
		if err := s.store.Create(ctx, sess); err != nil {
			return nil, err
		}
		s.log.Info("session created", "session_id", sess.ID, "filename", filename, "items", len(items))
		return sess, nil
	}

	if err := s.store.Replace(ctx, id, filename, contentHash, items); err != nil {
		return nil, err
	}
	s.log.Info("session replaced", "session_id", id, "filename", filename, "items", len(items))
	return s.store.Get(ctx, id)
}

// Get returns the stored session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Batch loads a session's items for read-only queries.
func (s *Service) Batch(ctx context.Context, id string) (*inventory.Batch, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return inventory.NewBatch(sess.Items), nil
}

// List returns session summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.store.List(ctx)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// Apply records one operator decision and returns the updated item.
func (s *Service) Apply(ctx context.Context, id string, u inventory.Update) (inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return inventory.Item{}, err
	}
	batch := inventory.NewBatch(sess.Items)
	item, err := batch.Update(u)
	if err != nil {
		return inventory.Item{}, err
	}
	if err := s.store.SaveItems(ctx, id, batch.Items()); err != nil {
		return inventory.Item{}, fmt.Errorf("save decision: %w", err)
	}
	s.log.Debug("decision recorded", "session_id", id, "item_id", item.ID, "status", item.Status)
	return item, nil
}
