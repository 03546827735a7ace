package inventory

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func strp(s string) *string { return &s }

func sampleBatch() *Batch {
	return NewBatch([]Item{
		NewItem("14836000", "Sour Cream Sauce", d("5"), d("0.94"), d("3"), CategoryRefrigerated),
		NewItem("20001", "Widget X", d("10"), d("0.50"), d("0"), CategoryUnknown),
		NewItem("0042", "Fries", d("2"), d("7"), d("1"), CategoryFrozen),
	})
}

func TestAdjustedQty(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		proposed string
		stock    string
		actual   *decimal.Decimal
		want     string
	}{
		{"accept keeps proposed", StatusAccept, "5", "0.94", dp("3"), "5"},
		{"neutral keeps proposed", StatusNeutral, "5", "0.94", nil, "5"},
		{"increase", StatusIncrease, "5", "0.94", dp("3"), "2.94"},
		{"increase clamps at zero", StatusIncrease, "1", "0", dp("10"), "0"},
		{"decrease", StatusDecrease, "10", "2", dp("5"), "7"},
		{"decrease clamps at zero", StatusDecrease, "1", "0", dp("4"), "0"},
		{"decrease with actual below stock raises", StatusDecrease, "4", "6", dp("1"), "9"},
		{"increase without actual keeps proposed", StatusIncrease, "4", "6", nil, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustedQty(tt.status, d(tt.proposed), d(tt.stock), tt.actual)
			if !got.Equal(d(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBatch_UpdateIncrease(t *testing.T) {
	b := sampleBatch()
	it, err := b.Update(Update{ID: "14836000", Status: StatusIncrease, ActualStock: dp("3"), Reason: strp("damaged")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.AdjustedQty.Equal(d("2.94")) {
		t.Errorf("expected adjusted 2.94, got %s", it.AdjustedQty)
	}
	if !it.ProposedQty.Equal(d("5")) || !it.Stock.Equal(d("0.94")) {
		t.Errorf("proposed/stock must not change, got %s/%s", it.ProposedQty, it.Stock)
	}
	stored, _ := b.Get("14836000")
	if stored.Status != StatusIncrease || stored.Reason != "damaged" {
		t.Errorf("update not stored: %+v", stored)
	}
}

func TestBatch_UpdateSwitchesStatusAndRecomputes(t *testing.T) {
	b := sampleBatch()
	if _, err := b.Update(Update{ID: "20001", Status: StatusDecrease, ActualStock: dp("4.5")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	it, err := b.Update(Update{ID: "20001", Status: StatusAccept})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.AdjustedQty.Equal(d("10")) {
		t.Errorf("expected accept to restore proposed 10, got %s", it.AdjustedQty)
	}
	if it.ActualStock == nil || !it.ActualStock.Equal(d("4.5")) {
		t.Errorf("expected actual stock left untouched, got %v", it.ActualStock)
	}

	it, err = b.Update(Update{ID: "20001", Status: StatusAccept, Clear: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ActualStock != nil || it.Reason != "" {
		t.Errorf("expected clear to wipe actual and reason, got %+v", it)
	}
}

func TestBatch_UpdateLooseID(t *testing.T) {
	b := sampleBatch()
	it, err := b.Update(Update{ID: "42", Status: StatusAccept})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.ID != "0042" {
		t.Errorf("expected loose match on 0042, got %q", it.ID)
	}
}

func TestBatch_UpdateErrors(t *testing.T) {
	b := sampleBatch()
	_, err := b.Update(Update{ID: "99999", Status: StatusAccept})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := b.Update(Update{ID: "20001", Status: "bogus"}); !errors.Is(err, ErrInvalidUpdate) {
		t.Error("expected error for unknown status")
	}
	if _, err := b.Update(Update{ID: "20001", Status: StatusNeutral}); !errors.Is(err, ErrInvalidUpdate) {
		t.Error("expected error for neutral status")
	}
	if st, _ := b.Get("20001"); st.Status != StatusNeutral {
		t.Errorf("rejected update changed status to %q", st.Status)
	}
	if _, err := b.Update(Update{ID: "20001", Status: StatusIncrease, ActualStock: dp("-1")}); !errors.Is(err, ErrInvalidUpdate) {
		t.Error("expected error for negative actual stock")
	}
}

func TestNewBatch_LastSeenWins(t *testing.T) {
	b := NewBatch([]Item{
		NewItem("1111", "First", d("1"), d("0"), d("0"), CategoryDry),
		NewItem("2222", "Other", d("2"), d("0"), d("0"), CategoryDry),
		NewItem("1111", "Second", d("9"), d("0"), d("0"), CategoryDry),
	})
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
	items := b.Items()
	if items[0].Name != "Second" || !items[0].ProposedQty.Equal(d("9")) {
		t.Errorf("expected later row to replace earlier in place, got %+v", items[0])
	}
}

func TestBatch_ExportViewIsPure(t *testing.T) {
	b := sampleBatch()
	if _, err := b.Update(Update{ID: "0042", Status: StatusDecrease, ActualStock: dp("8"), Reason: strp("count")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := b.ExportView()
	if view[0].Status != StatusAccept || view[1].Status != StatusAccept {
		t.Errorf("expected neutral items projected to accept, got %q and %q", view[0].Status, view[1].Status)
	}
	if view[2].Status != StatusDecrease {
		t.Errorf("expected decrease kept, got %q", view[2].Status)
	}

	for _, it := range b.Items()[:2] {
		if it.Status != StatusNeutral {
			t.Errorf("export view mutated stored status of %s to %q", it.ID, it.Status)
		}
	}
}

func TestBatch_ItemsAreCopies(t *testing.T) {
	b := sampleBatch()
	if _, err := b.Update(Update{ID: "20001", Status: StatusIncrease, ActualStock: dp("1")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := b.Items()
	*items[1].ActualStock = d("100")
	items[1].Status = StatusDecrease

	stored, _ := b.Get("20001")
	if !stored.ActualStock.Equal(d("1")) || stored.Status != StatusIncrease {
		t.Errorf("caller mutation leaked into batch: %+v", stored)
	}
}

func TestBatch_ChangedAndCounts(t *testing.T) {
	b := sampleBatch()
	b.Update(Update{ID: "14836000", Status: StatusIncrease, ActualStock: dp("3"), Reason: strp("x")})
	b.Update(Update{ID: "20001", Status: StatusAccept})

	changed := b.Changed()
	if len(changed) != 1 || changed[0].ID != "14836000" {
		t.Errorf("expected only 14836000 changed, got %+v", changed)
	}

	c := b.Counts()
	want := Counts{Total: 3, Neutral: 1, Accept: 1, Increase: 1}
	if c != want {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestBatch_Validate(t *testing.T) {
	b := sampleBatch()
	if err := b.Validate(); err != nil {
		t.Fatalf("expected no error for untouched batch, got %v", err)
	}

	b.Update(Update{ID: "14836000", Status: StatusIncrease, ActualStock: dp("3")})
	b.Update(Update{ID: "20001", Status: StatusDecrease, Reason: strp("spoiled")})

	err := b.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.MissingReason) != 1 || verr.MissingReason[0] != "14836000" {
		t.Errorf("expected 14836000 missing reason, got %v", verr.MissingReason)
	}
	if len(verr.MissingActual) != 1 || verr.MissingActual[0] != "20001" {
		t.Errorf("expected 20001 missing actual, got %v", verr.MissingActual)
	}
	if ids := verr.IDs(); len(ids) != 2 {
		t.Errorf("expected 2 offending ids, got %v", ids)
	}
}

func TestItemID_UnmarshalJSON(t *testing.T) {
	var u struct {
		ID ItemID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id": 14836000}`), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "14836000" {
		t.Errorf("expected 14836000, got %q", u.ID)
	}
	if err := json.Unmarshal([]byte(`{"id": " 0042 "}`), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "0042" {
		t.Errorf("expected 0042, got %q", u.ID)
	}
	if err := json.Unmarshal([]byte(`{"id": true}`), &u); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestItemID_Matches(t *testing.T) {
	if !ItemID("0042").Matches("42") {
		t.Error("expected 0042 to match 42")
	}
	if ItemID("0042").Matches("43") {
		t.Error("expected 0042 not to match 43")
	}
	if ItemID("abc").Matches("ABC") {
		t.Error("expected non-numeric ids to compare exactly")
	}
}

func TestParseStorageCategory(t *testing.T) {
	tests := map[string]StorageCategory{
		"Refrigerated": CategoryRefrigerated,
		"FROZEN":       CategoryFrozen,
		"dry":          CategoryDry,
		"ManualItems":  CategoryManualItems,
		"Manual Items": CategoryManualItems,
		"Ambient":      CategoryUnknown,
		"":             CategoryUnknown,
	}
	for raw, want := range tests {
		if got := ParseStorageCategory(raw); got != want {
			t.Errorf("ParseStorageCategory(%q): expected %v, got %v", raw, want, got)
		}
	}
	if CategoryManualItems.String() != "Manual Items" {
		t.Errorf("expected display name %q, got %q", "Manual Items", CategoryManualItems.String())
	}
}

func TestItem_JSONRoundTripKeepsCategoryAndStatus(t *testing.T) {
	in := NewItem("14836000", "Sour Cream Sauce", d("5"), d("0.94"), d("3"), CategoryManualItems)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Item
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.StorageCategory != CategoryManualItems || out.Status != StatusNeutral {
		t.Errorf("expected category/status preserved, got %v/%q", out.StorageCategory, out.Status)
	}
	if !out.Stock.Equal(d("0.94")) || out.ActualStock != nil {
		t.Errorf("expected quantities preserved, got %+v", out)
	}
}
