package handlers

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FID accepts a JSON string or number; Farcaster clients send both.
type FID string

func (f *FID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := n.Int64(); err != nil {
		return err
	}
	*f = FID(n.String())
	return nil
}

func (f FID) String() string { return string(f) }
