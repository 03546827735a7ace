package inventory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the operator's decision for an item.
type Status string

const (
	StatusNeutral  Status = "neutral"
	StatusAccept   Status = "accept"
	StatusIncrease Status = "increase"
	StatusDecrease Status = "decrease"
)

// ParseStatus accepts the status names case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusNeutral, StatusAccept, StatusIncrease, StatusDecrease:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// IsChange reports whether the status asks for a quantity change.
func (s Status) IsChange() bool {
	return s == StatusIncrease || s == StatusDecrease
}

// Label is the change-type text written to the request form.
func (s Status) Label() string {
	switch s {
	case StatusIncrease:
		return "Increase"
	case StatusDecrease:
		return "Decrease"
	default:
		return "Accept"
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
