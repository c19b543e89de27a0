// Package fields declares the per-platform listing form schema and the single
// generic validator that interprets it.
//
// Each platform owns a list of [Group]s (purely for UI organization), each
// holding [Definition]s. Validation rules live in the declarative
// [Constraint] attached to a definition; [ValidateField] is the only code
// path that interprets them, so adding a field never adds validation code.
package fields

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Type is the input type of a field.
type Type string

const (
	Text     Type = "text"
	TextArea Type = "textarea"
	Number   Type = "number"
	Select   Type = "select"
	Checkbox Type = "checkbox"
	URL      Type = "url"
	Date     Type = "date"
)

// Option is one suggested choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Constraint holds the optional validation rules of a field.
//
// For number fields Min/Max are inclusive numeric bounds. For text and
// textarea fields Max is the maximum length in characters and Pattern a
// regular expression the whole value must satisfy.
type Constraint struct {
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	CustomError string   `json:"customError,omitempty"`
}

// Bound returns a pointer to v for use in Constraint literals.
func Bound(v float64) *float64 {
	return &v
}

// Definition describes one form field.
type Definition struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Type        Type        `json:"type"`
	Required    bool        `json:"required"`
	Placeholder string      `json:"placeholder,omitempty"`
	HelpText    string      `json:"helpText,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Validation  *Constraint `json:"validation,omitempty"`
}

// Group is a titled set of fields shown together.
type Group struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []Definition `json:"fields"`
}

// Result is the outcome of validating one value.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func fail(format string, args ...any) Result {
	return Result{Valid: false, Error: fmt.Sprintf(format, args...)}
}

var (
	patternCache   = make(map[string]*regexp.Regexp)
	patternCacheMu sync.RWMutex
)

// compilePattern compiles and caches a constraint pattern.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternCacheMu.RLock()
	re, found := patternCache[pattern]
	patternCacheMu.RUnlock()
	if found {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	patternCacheMu.Lock()
	patternCache[pattern] = re
	patternCacheMu.Unlock()
	return re, nil
}

// stringValue normalizes a raw form value. present is false for nil and for
// values that are empty after trimming whitespace.
func stringValue(value any) (s string, present bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case *string:
		if v == nil {
			return "", false
		}
		s = *v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateField checks a single value against its definition.
//
// A missing value fails only when the field is required; constraints apply
// to present values only. Select options are form suggestions and are not
// enforced.
func ValidateField(value any, field Definition) Result {
	s, present := stringValue(value)
	if !present {
		if field.Required {
			return fail("%s is required", field.Label)
		}
		return ok()
	}

	c := field.Validation
	if c == nil {
		c = &Constraint{}
	}

	switch field.Type {
	case Number:
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail("%s must be a number", field.Label)
		}
		if c.Min != nil && num < *c.Min {
			return fail("%s must be at least %s", field.Label, formatBound(*c.Min))
		}
		if c.Max != nil && num > *c.Max {
			return fail("%s must be at most %s", field.Label, formatBound(*c.Max))
		}

	case Text, TextArea:
		if c.Max != nil && float64(utf8.RuneCountInString(s)) > *c.Max {
			return fail("%s must be %s characters or fewer", field.Label, formatBound(*c.Max))
		}
		if c.Pattern != "" {
			re, err := compilePattern(c.Pattern)
			if err != nil {
				return fail("%s has an invalid validation rule", field.Label)
			}
			if !re.MatchString(s) {
				if c.CustomError != "" {
					return fail("%s", c.CustomError)
				}
				return fail("%s has an invalid format", field.Label)
			}
		}

	case Checkbox:
		if _, err := strconv.ParseBool(s); err != nil {
			return fail("%s must be true or false", field.Label)
		}

	case URL:
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fail("%s must be an http(s) URL", field.Label)
		}

	case Date:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fail("%s must be a date (YYYY-MM-DD)", field.Label)
		}
	}

	return ok()
}
