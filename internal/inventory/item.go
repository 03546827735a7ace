package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID is the WRIN identifier of a report row. It is kept as the digit
// string found in the report, leading zeros included.
type ItemID string

// Matches compares identifiers loosely: exact text first, then numeric
// value, so "014836" matches 14836 coming from a UI that dropped the zero.
func (id ItemID) Matches(other ItemID) bool {
	a, b := strings.TrimSpace(string(id)), strings.TrimSpace(string(other))
	if a == b {
		return true
	}
	na, okA := new(big.Int).SetString(a, 10)
	nb, okB := new(big.Int).SetString(b, 10)
	return okA && okB && na.Cmp(nb) == 0
}

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Item is one parsed report line plus the operator's adjustment.
// ProposedQty, Stock and Transit come from the report and never change.
type Item struct {
	ID              ItemID           `json:"id"`
	Name            string           `json:"name"`
	ProposedQty     decimal.Decimal  `json:"proposed_qty"`
	Stock           decimal.Decimal  `json:"stock"`
	Transit         decimal.Decimal  `json:"transit"`
	StorageCategory StorageCategory  `json:"storage_category"`
	Status          Status           `json:"status"`
	ActualStock     *decimal.Decimal `json:"actual_stock"`
	AdjustedQty     decimal.Decimal  `json:"adjusted_qty"`
	Reason          string           `json:"reason"`
}

// NewItem returns an item in its initial, neutral state.
func NewItem(id ItemID, name string, proposed, stock, transit decimal.Decimal, cat StorageCategory) Item {
	return Item{
		ID:              id,
		Name:            name,
		ProposedQty:     proposed,
		Stock:           stock,
		Transit:         transit,
		StorageCategory: cat,
		Status:          StatusNeutral,
		AdjustedQty:     proposed,
	}
}

// AdjustedQty computes the final order quantity. It is the only place the
// adjustment arithmetic lives.
func AdjustedQty(status Status, proposed, stock decimal.Decimal, actual *decimal.Decimal) decimal.Decimal {
	if actual == nil {
		return proposed
	}
	var q decimal.Decimal
	switch status {
	case StatusIncrease:
		q = proposed.Add(stock.Sub(*actual))
	case StatusDecrease:
		q = proposed.Sub(actual.Sub(stock))
	default:
		return proposed
	}
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

func (it Item) clone() Item {
	if it.ActualStock != nil {
		a := *it.ActualStock
		it.ActualStock = &a
	}
	return it
}
