package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrItemNotFound is returned when an update names an unknown identifier.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidUpdate is returned for an update the model rejects.
	ErrInvalidUpdate = errors.New("invalid update")
)

// ValidationError lists changed items that cannot be exported yet.
type ValidationError struct {
	MissingActual []ItemID
	MissingReason []ItemID
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingActual) > 0 {
		parts = append(parts, "missing actual stock: "+joinIDs(e.MissingActual))
	}
	if len(e.MissingReason) > 0 {
		parts = append(parts, "missing reason: "+joinIDs(e.MissingReason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IDs returns every offending identifier once, in item order.
func (e *ValidationError) IDs() []ItemID {
	seen := make(map[ItemID]bool)
	var out []ItemID
	for _, id := range append(append([]ItemID{}, e.MissingActual...), e.MissingReason...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []ItemID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}

// Update is one operator decision. Nil pointers leave the stored value
// untouched; Clear wipes actual stock and reason before the rest applies.
type Update struct {
	ID          ItemID           `json:"id"`
	Status      Status           `json:"status"`
	ActualStock *decimal.Decimal `json:"actual_stock,omitempty"`
	Reason      *string          `json:"reason,omitempty"`
	Clear       bool             `json:"clear,omitempty"`
}

// Counts is the number of items per status.
type Counts struct {
	Total    int `json:"total"`
	Neutral  int `json:"neutral"`
	Accept   int `json:"accept"`
	Increase int `json:"increase"`
	Decrease int `json:"decrease"`
}

// Batch owns the item list of one parsed report. It is not safe for
// concurrent use; the session layer serializes access.
type Batch struct {
	items []Item
	index map[ItemID]int
}

// NewBatch copies items into a batch. A repeated identifier replaces the
// earlier item in place, so the last row seen wins.
func NewBatch(items []Item) *Batch {
	b := &Batch{
		items: make([]Item, 0, len(items)),
		index: make(map[ItemID]int, len(items)),
	}
	for _, it := range items {
		if i, ok := b.index[it.ID]; ok {
			b.items[i] = it.clone()
			continue
		}
		b.index[it.ID] = len(b.items)
		b.items = append(b.items, it.clone())
	}
	return b
}

// Len returns the number of items.
func (b *Batch) Len() int {
	return len(b.items)
}

// Items returns a copy of the stored items.
func (b *Batch) Items() []Item {
	out := make([]Item, len(b.items))
	for i, it := range b.items {
		out[i] = it.clone()
	}
	return out
}

// Get returns the item matching id.
func (b *Batch) Get(id ItemID) (Item, bool) {
	i, ok := b.find(id)
	if !ok {
		return Item{}, false
	}
	return b.items[i].clone(), true
}

func (b *Batch) find(id ItemID) (int, bool) {
	if i, ok := b.index[id]; ok {
		return i, true
	}
	// Loose match; the last matching item wins like an exact re-insert would.
	found := -1
	for i := range b.items {
		if b.items[i].ID.Matches(id) {
			found = i
		}
	}
	return found, found >= 0
}

// Update applies one operator decision and recomputes the adjusted quantity.
// Neutral is the parse-time state only and cannot be chosen.
func (b *Batch) Update(u Update) (Item, error) {
	switch u.Status {
	case StatusAccept, StatusIncrease, StatusDecrease:
	case StatusNeutral:
		return Item{}, fmt.Errorf("%w: status %q is not an operator decision", ErrInvalidUpdate, u.Status)
	default:
		return Item{}, fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, u.Status)
	}
	if u.ActualStock != nil && u.ActualStock.IsNegative() {
		return Item{}, fmt.Errorf("%w: actual stock must not be negative", ErrInvalidUpdate)
	}

	i, ok := b.find(u.ID)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, u.ID)
	}
	it := &b.items[i]

	if u.Clear {
		it.ActualStock = nil
		it.Reason = ""
	}
	if u.ActualStock != nil {
		a := *u.ActualStock
		it.ActualStock = &a
	}
	if u.Reason != nil {
		it.Reason = strings.TrimSpace(*u.Reason)
	}
	it.Status = u.Status
	it.AdjustedQty = AdjustedQty(it.Status, it.ProposedQty, it.Stock, it.ActualStock)

	return it.clone(), nil
}

// ExportView returns the items as they are exported: neutral items are
// presented as accepted. Stored state is not modified.
func (b *Batch) ExportView() []Item {
	out := b.Items()
	for i := range out {
		if out[i].Status == StatusNeutral {
			out[i].Status = StatusAccept
			out[i].AdjustedQty = out[i].ProposedQty
		}
	}
	return out
}

// Changed returns the items marked increase or decrease.
func (b *Batch) Changed() []Item {
	var out []Item
	for _, it := range b.items {
		if it.Status.IsChange() {
			out = append(out, it.clone())
		}
	}
	return out
}

// Counts aggregates items by status.
func (b *Batch) Counts() Counts {
	c := Counts{Total: len(b.items)}
	for _, it := range b.items {
		switch it.Status {
		case StatusAccept:
			c.Accept++
		case StatusIncrease:
			c.Increase++
		case StatusDecrease:
			c.Decrease++
		default:
			c.Neutral++
		}
	}
	return c
}

// Validate checks that every changed item carries an actual stock and a
// reason. It returns a *ValidationError naming the offending items.
func (b *Batch) Validate() error {
	var verr ValidationError
	for _, it := range b.items {
		if !it.Status.IsChange() {
			continue
		}
		if it.ActualStock == nil {
			verr.MissingActual = append(verr.MissingActual, it.ID)
		}
		if strings.TrimSpace(it.Reason) == "" {
			verr.MissingReason = append(verr.MissingReason, it.ID)
		}
	}
	if len(verr.MissingActual) > 0 || len(verr.MissingReason) > 0 {
		return &verr
	}
	return nil
}
