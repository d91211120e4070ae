package forms

// InitialData produces the starting values map for a schema: "" for
// text-like fields, false for checkboxes, an empty slice for multiselects.
// Numeric, date, file and signature fields stay unset so the UI can render
// them as untouched. Layout fields get no entry. Pure function of the schema.
func InitialData(s *FormSchema) map[string]any {
	values := map[string]any{}
	if s == nil {
		return values
	}
	for _, step := range s.Steps {
		for _, f := range step.Fields {
			if IsLayoutType(f.Type) {
				continue
			}
			switch f.Type {
			case FieldText, FieldEmail, FieldTel, FieldURL, FieldPassword,
				FieldTextarea, FieldSelect, FieldRadio:
				values[f.Name] = ""
			case FieldCheckbox:
				values[f.Name] = false
			case FieldMultiselect:
				values[f.Name] = []string{}
			}
			// number, slider, rating, date, datetime, file, signature: unset
		}
	}
	return values
}

// EmptyValue reports whether v counts as "no answer" for required checks:
// unset, nil, empty string, or an empty slice. False booleans and zero
// numbers are answers.
func EmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
