package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NullableTime distinguishes an absent JSON key from an explicit null.
// When the key is absent the zero value remains (Set=false); an explicit
// null clears the field (Set=true, Valid=false).
type NullableTime struct {
	Set   bool
	Valid bool
	Time  time.Time
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	n.Valid = true
	n.Time = t
	return nil
}

// ParseDate accepts RFC 3339 or a plain calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// TodoPatch is a partial update: a field is applied only when its key was
// present in the payload. Pointers carry "present with this value"
// (including explicit empty string and explicit false); absent keys stay
// nil and leave the stored field untouched.
type TodoPatch struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Completed   *bool        `json:"completed"`
	Priority    *Priority    `json:"priority"`
	DueDate     NullableTime `json:"dueDate"`
	Category    *string      `json:"category"`
	Tags        *[]string    `json:"tags"`
}
