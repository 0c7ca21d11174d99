package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MatchID is the canonical match identifier. Sheet rows deliver it as either a
// number or a string; both decode to the same trimmed text.
type MatchID string

// NormalizeID converts a raw identifier to its canonical form
func NormalizeID(raw string) MatchID {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, ".eE") {
		return MatchID(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return MatchID(s)
}

// String implements fmt.Stringer
func (id MatchID) String() string {
	return string(id)
}

// UnmarshalJSON accepts strings, numbers and null
func (id *MatchID) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("match_id: %w", err)
	}
	*id = NormalizeID(s)
	return nil
}

// Flex holds a sheet cell that may arrive as a string, number, bool or null
type Flex string

// UnmarshalJSON accepts any JSON scalar
func (f *Flex) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return err
	}
	*f = Flex(strings.TrimSpace(s))
	return nil
}

// String implements fmt.Stringer
func (f Flex) String() string {
	return string(f)
}

// Float returns the numeric value of f, ignoring a trailing percent sign
func (f Flex) Float() (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(string(f)), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Priority is a watch priority from 1 (high) to 3 (low)
type Priority int

// Valid reports whether p is within 1..3
func (p Priority) Valid() bool {
	return p >= 1 && p <= 3
}

// ParsePriority parses a priority string
func ParsePriority(s string) (Priority, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Priority(n).Valid() {
		return 0, fmt.Errorf("invalid priority '%s' (use 1, 2 or 3)", s)
	}
	return Priority(n), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null
func (p *Priority) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("priority: invalid value %q", s)
	}
	*p = Priority(int(f))
	return nil
}

func scalarText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected scalar, got %s", b)
	}
	return string(b), nil
}
