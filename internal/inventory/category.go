package inventory

import (
	"encoding/json"
	"strings"
)

// StorageCategory is the storage area a report row is filed under.
type StorageCategory int

const (
	CategoryUnknown StorageCategory = iota
	CategoryRefrigerated
	CategoryFrozen
	CategoryDry
	CategoryManualItems
)

func (c StorageCategory) String() string {
	switch c {
	case CategoryRefrigerated:
		return "Refrigerated"
	case CategoryFrozen:
		return "Frozen"
	case CategoryDry:
		return "Dry"
	case CategoryManualItems:
		return "Manual Items"
	default:
		return "Unknown"
	}
}

// ParseStorageCategory normalizes a raw storage tag. Case, spaces and
// underscores are ignored, so "ManualItems", "manual items" and
// "MANUAL_ITEMS" all map to CategoryManualItems.
func ParseStorageCategory(raw string) StorageCategory {
	key := strings.ToLower(raw)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "refrigerated":
		return CategoryRefrigerated
	case "frozen":
		return CategoryFrozen
	case "dry":
		return CategoryDry
	case "manualitems":
		return CategoryManualItems
	default:
		return CategoryUnknown
	}
}

func (c StorageCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *StorageCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseStorageCategory(s)
	return nil
}
