package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Prediction is the third-party forecast attached to a match
type Prediction struct {
	Predictions struct {
		Percent struct {
			Home Flex `json:"home"`
			Draw Flex `json:"draw"`
			Away Flex `json:"away"`
		} `json:"percent"`
		Winner struct {
			Name    string `json:"name"`
			Comment string `json:"comment"`
		} `json:"winner"`
		Advice    string `json:"advice"`
		UnderOver Flex   `json:"under_over"`
		Goals     struct {
			Home Flex `json:"home"`
			Away Flex `json:"away"`
		} `json:"goals"`
	} `json:"predictions"`
	Comparison map[string]Side `json:"comparison"`
}

// Side is a home/away pair of comparison figures
type Side struct {
	Home Flex `json:"home"`
	Away Flex `json:"away"`
}

// ComparisonKeys lists comparison rows in display order
var ComparisonKeys = []string{"form", "att", "def", "goals", "total"}

// ParsePrediction decodes a prediction cell. The sheet stores it either as a
// JSON object or as a string containing JSON. Empty cells return nil.
func ParsePrediction(raw json.RawMessage) (*Prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to unquote prediction: %w", err)
		}
		if len(bytes.TrimSpace([]byte(s))) == 0 {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}

	var p Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}
	return &p, nil
}
