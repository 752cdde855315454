package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The backend is loose about shapes: ids arrive as numbers, numeric strings or
// embedded objects, money as numbers or strings, dates with or without time.
// The types below absorb those variants so the entity package never sees them.

// idRef accepts 12, "12" or {"id": 12, ...}.
type idRef int64

func (r *idRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	switch data[0] {
	case '{':
		var obj struct {
			ID idRef `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = obj.ID
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("api: id %q: %w", s, err)
		}
		*r = idRef(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = idRef(n)
	return nil
}

// nameRef accepts "Acme" or {"name": "Acme", ...}.
type nameRef string

func (r *nameRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Name         string `json:"name"`
			BusinessName string `json:"business_name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = nameRef(firstNonEmpty(obj.Name, obj.BusinessName))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = nameRef(s)
	return nil
}

// wireTime accepts RFC3339 timestamps, "2006-01-02 15:04:05" and bare dates.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null or a non-string value leaves the zero time
		t.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("api: unrecognised date %q", s)
}

// amount picks the first valid decimal among field-name variants.
func amount(candidates ...decimal.NullDecimal) decimal.Decimal {
	for _, c := range candidates {
		if c.Valid {
			return c.Decimal
		}
	}
	return decimal.Zero
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...idRef) int64 {
	for _, v := range values {
		if v != 0 {
			return int64(v)
		}
	}
	return 0
}
