package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexDate is a calendar date that can be unmarshaled from either a plain
// "2006-01-02" string or a full RFC3339 timestamp. The time-of-day portion is
// always discarded.
type FlexDate time.Time

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexDate) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("FlexDate: expected string, got %s", string(data))
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		*f = FlexDate(t)
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("FlexDate: invalid date %q: %w", s, err)
	}
	*f = FlexDate(DateOnly(t))
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(f).Format("2006-01-02"))
}

// Time converts FlexDate back to a UTC-midnight time.Time.
func (f FlexDate) Time() time.Time {
	return DateOnly(time.Time(f))
}

// IsZero reports whether the date was never set.
func (f FlexDate) IsZero() bool {
	return time.Time(f).IsZero()
}

// DateOnly truncates a timestamp to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
