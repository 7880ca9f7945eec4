package clients

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Capacity is an installed capacity that may be absent or unusable.
// Only finite, strictly positive values are usable.
type Capacity struct {
	value decimal.Decimal
	ok    bool
}

// NoCapacity is the absent capacity.
var NoCapacity = Capacity{}

// NewCapacity builds a capacity from a float.
func NewCapacity(value float64) Capacity {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NoCapacity
	}
	return capacityFromDecimal(decimal.NewFromFloat(value))
}

// ParseCapacity normalizes free-form input such as "1,000" or " 250.5 kWp".
// Unparseable input yields an absent capacity.
func ParseCapacity(raw string) Capacity {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	lower := strings.ToLower(cleaned)
	for _, unit := range []string{"kwp", "kw"} {
		if strings.HasSuffix(lower, unit) {
			cleaned = cleaned[:len(cleaned)-len(unit)]
			break
		}
	}
	if cleaned == "" {
		return NoCapacity
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return NoCapacity
	}
	return capacityFromDecimal(value)
}

func capacityFromDecimal(value decimal.Decimal) Capacity {
	if !value.IsPositive() {
		return NoCapacity
	}
	return Capacity{value: value, ok: true}
}

// Value returns the capacity and whether it is usable.
func (c Capacity) Value() (decimal.Decimal, bool) {
	return c.value, c.ok
}

// Valid reports whether the capacity can be used as a divisor.
func (c Capacity) Valid() bool { return c.ok }

// String renders the capacity or an empty string when absent.
func (c Capacity) String() string {
	if !c.ok {
		return ""
	}
	return c.value.String()
}

// MarshalJSON renders a number or null.
func (c Capacity) MarshalJSON() ([]byte, error) {
	if !c.ok {
		return []byte("null"), nil
	}
	return []byte(c.value.String()), nil
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (c *Capacity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = NoCapacity
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*c = ParseCapacity(raw)
		return nil
	}
	value, err := decimal.NewFromString(string(data))
	if err != nil {
		*c = NoCapacity
		return nil
	}
	*c = capacityFromDecimal(value)
	return nil
}
