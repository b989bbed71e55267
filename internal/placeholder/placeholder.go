package placeholder

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// TemplateFieldTypeError reports a field whose value cannot be rendered as text.
type TemplateFieldTypeError struct {
	Key   string
	Value any
}

func (e *TemplateFieldTypeError) Error() string {
	return fmt.Sprintf("template field %q has unsupported type %T", e.Key, e.Value)
}

// UnresolvedPlaceholderError lists placeholders that no known field satisfies.
type UnresolvedPlaceholderError struct {
	Names []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unresolved placeholders: %s", strings.Join(e.Names, ", "))
}

// AsTemplateFieldTypeError attempts to unwrap an error into a TemplateFieldTypeError.
func AsTemplateFieldTypeError(err error) (*TemplateFieldTypeError, bool) {
	var typeErr *TemplateFieldTypeError
	if errors.As(err, &typeErr) {
		return typeErr, true
	}
	return nil, false
}

// AsUnresolvedPlaceholderError attempts to unwrap an error into an UnresolvedPlaceholderError.
func AsUnresolvedPlaceholderError(err error) (*UnresolvedPlaceholderError, bool) {
	var uErr *UnresolvedPlaceholderError
	if errors.As(err, &uErr) {
		return uErr, true
	}
	return nil, false
}

// Substitute replaces every {{key}} in tmpl with the text form of fields[key].
// Placeholders without a matching key are left verbatim. Substituted values
// are not scanned again, so a value containing {{other}} stays literal.
func Substitute(fields map[string]any, tmpl string) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	texts := make(map[string]string, len(fields))
	for _, key := range keys {
		text, err := toText(key, fields[key])
		if err != nil {
			return "", err
		}
		texts[key] = text
	}

	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		if text, ok := texts[match[2:len(match)-2]]; ok {
			return text
		}
		return match
	}), nil
}

// MustSubstitute is Substitute for templates and fields known to be valid.
func MustSubstitute(fields map[string]any, tmpl string) string {
	out, err := Substitute(fields, tmpl)
	if err != nil {
		panic(err)
	}
	return out
}

func toText(key string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", &TemplateFieldTypeError{Key: key, Value: v}
	}
}

// Placeholders returns the distinct placeholder names in tmpl, in order of first appearance.
func Placeholders(tmpl string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(tmpl, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// Validate fails when tmpl references a placeholder outside known.
func Validate(tmpl string, known []string) error {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}

	var missing []string
	for _, name := range Placeholders(tmpl) {
		if !set[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &UnresolvedPlaceholderError{Names: missing}
	}
	return nil
}
