package tournament

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Keys of the tournament list entries.
const (
	InputKeyURL = "start.gg-melee-singles-url"
)

// Input is one operator-authored entry of the tournament list. Any string or
// number under a record field name overrides the derived value for that field.
type Input struct {
	URL           string
	StreamURL     string
	ScheduleURL   string
	Top8StartTime string
	Timezone      string
	Overrides     map[string]string
}

// UnmarshalJSON captures the known keys and keeps every scalar value as an override.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tournament entry must be an object: %w", err)
	}

	overrides := make(map[string]string, len(raw))
	for key, value := range raw {
		text, err := scalarText(value)
		if err != nil {
			return fmt.Errorf("tournament entry key %q: %w", key, err)
		}
		overrides[key] = text
	}

	*in = Input{
		URL:           overrides[InputKeyURL],
		StreamURL:     overrides[KeyStreamURL],
		ScheduleURL:   overrides[KeyScheduleURL],
		Top8StartTime: overrides[KeyTop8StartTime],
		Timezone:      overrides[KeyTimezone],
		Overrides:     overrides,
	}
	return nil
}

func scalarText(value json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Validate checks the entry can be built.
func (in Input) Validate() error {
	if in.URL == "" {
		return fmt.Errorf("tournament entry is missing %q", InputKeyURL)
	}
	_, _, err := ParseURL(in.URL)
	return err
}

// Override returns the operator value for a record field, if any.
func (in Input) Override(key string) (string, bool) {
	v, ok := in.Overrides[key]
	return v, ok
}
