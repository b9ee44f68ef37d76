package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Standards is the list of engineering standards an asset is assessed against.
//
// Older documents stored the list as a JSON-encoded string ("[\"ISO 14224\"]")
// instead of an array. Standards decodes both forms, treats null or a missing
// field as empty, and always encodes as an array.
type Standards []string

// UnmarshalJSON accepts an array, a JSON-encoded array inside a string, a bare
// string naming a single standard, or null.
func (s *Standards) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Standards{}
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("standards: %w", err)
		}
		*s = parseLegacyStandards(encoded)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("standards: %w", err)
	}
	*s = Standards(list).Normalize()
	return nil
}

// MarshalJSON encodes nil as an empty array.
func (s Standards) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(s.Normalize()))
}

// Normalize returns a non-nil list with blank entries removed.
func (s Standards) Normalize() Standards {
	out := make(Standards, 0, len(s))
	for _, std := range s {
		if std = strings.TrimSpace(std); std != "" {
			out = append(out, std)
		}
	}
	return out
}

func parseLegacyStandards(encoded string) Standards {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return Standards{}
	}
	var list []string
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		// Plain text from hand-edited files: one standard.
		return Standards{encoded}
	}
	return Standards(list).Normalize()
}
