package forms

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// ValidationResult reports per-field failures. Errors holds a short
// human-readable message for each failing field, never an error code.
type ValidationResult struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isTextLike(t FieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldTel, FieldURL, FieldPassword, FieldTextarea:
		return true
	}
	return false
}

// ValidateData checks candidate values against a schema. When fields is
// non-nil only those names are checked and no other field ever appears in
// the result, which is how one step is validated in isolation. Each failing
// field reports a single message, picked by rule priority:
// required, then type/pattern, then length/range.
func ValidateData(schema *FormSchema, values map[string]any, fields []string) ValidationResult {
	var subset map[string]bool
	if fields != nil {
		subset = make(map[string]bool, len(fields))
		for _, name := range fields {
			subset[name] = true
		}
	}

	errs := map[string]string{}
	for _, step := range schema.Steps {
		for _, f := range step.Fields {
			if IsLayoutType(f.Type) {
				continue
			}
			if subset != nil && !subset[f.Name] {
				continue
			}
			if msg := validateField(f, values[f.Name]); msg != "" {
				errs[f.Name] = msg
			}
		}
	}
	if len(errs) > 0 {
		return ValidationResult{OK: false, Errors: errs}
	}
	return ValidationResult{OK: true}
}

func validateField(f FormField, v any) string {
	if EmptyValue(v) {
		if f.Required {
			return fieldLabel(f) + " is required"
		}
		return ""
	}
	if msg := checkType(f, v); msg != "" {
		return msg
	}
	return checkBounds(f, v)
}

func fieldLabel(f FormField) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// checkType covers the type/pattern tier.
func checkType(f FormField, v any) string {
	switch f.Type {
	case FieldEmail:
		s, ok := v.(string)
		if !ok || !emailPattern.MatchString(s) {
			return "Enter a valid email address"
		}
	case FieldURL:
		s, ok := v.(string)
		if !ok {
			return "Enter a valid URL"
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "Enter a valid URL"
		}
	case FieldNumber, FieldSlider, FieldRating:
		if _, ok := numericValue(v); !ok {
			return "Must be a number"
		}
	case FieldDate:
		s, ok := v.(string)
		if !ok {
			return "Enter a valid date"
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "Enter a valid date"
		}
	case FieldDatetime:
		s, ok := v.(string)
		if !ok {
			return "Enter a valid date and time"
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return "Enter a valid date and time"
		}
	}
	if isTextLike(f.Type) && f.Validation != nil && f.Validation.Pattern != "" {
		s, ok := v.(string)
		if !ok {
			return "Invalid value"
		}
		// full-string match; a pattern that fails to compile is a schema
		// authoring mistake and is skipped rather than failing the value
		re, err := regexp.Compile("^(?:" + f.Validation.Pattern + ")$")
		if err == nil && !re.MatchString(s) {
			return "Invalid format"
		}
	}
	return ""
}

// checkBounds covers the length/range tier. File accept filters are
// advisory and enforced by the upload collaborator, not here.
func checkBounds(f FormField, v any) string {
	if f.Type == FieldRating {
		max := 5.0
		if f.Validation != nil && f.Validation.Max != nil {
			max = *f.Validation.Max
		}
		n, _ := numericValue(v)
		if n < 1 || n > max {
			return fmt.Sprintf("Rating must be between 1 and %g", max)
		}
		return ""
	}
	if f.Validation == nil {
		return ""
	}
	if isTextLike(f.Type) {
		s, ok := v.(string)
		if !ok {
			return ""
		}
		length := len([]rune(s))
		if f.Validation.MinLength != nil && length < *f.Validation.MinLength {
			return fmt.Sprintf("Must be at least %d characters", *f.Validation.MinLength)
		}
		if f.Validation.MaxLength != nil && length > *f.Validation.MaxLength {
			return fmt.Sprintf("Must be at most %d characters", *f.Validation.MaxLength)
		}
		return ""
	}
	if f.Type == FieldNumber || f.Type == FieldSlider {
		n, ok := numericValue(v)
		if !ok {
			return ""
		}
		if f.Validation.Min != nil && n < *f.Validation.Min {
			return fmt.Sprintf("Must be at least %g", *f.Validation.Min)
		}
		if f.Validation.Max != nil && n > *f.Validation.Max {
			return fmt.Sprintf("Must be at most %g", *f.Validation.Max)
		}
	}
	return ""
}

func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
