package forms

import "fmt"

// FieldType identifies the kind of control a field renders as. The set is
// closed: validation and defaults dispatch on it.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldEmail       FieldType = "email"
	FieldTel         FieldType = "tel"
	FieldURL         FieldType = "url"
	FieldPassword    FieldType = "password"
	FieldNumber      FieldType = "number"
	FieldTextarea    FieldType = "textarea"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldDate        FieldType = "date"
	FieldDatetime    FieldType = "datetime"
	FieldSlider      FieldType = "slider"
	FieldRating      FieldType = "rating"
	FieldFile        FieldType = "file"
	FieldSignature   FieldType = "signature"
	FieldHeading     FieldType = "heading"
	FieldParagraph   FieldType = "paragraph"
	FieldDivider     FieldType = "divider"
)

var knownTypes = map[FieldType]bool{
	FieldText: true, FieldEmail: true, FieldTel: true, FieldURL: true,
	FieldPassword: true, FieldNumber: true, FieldTextarea: true,
	FieldSelect: true, FieldMultiselect: true, FieldRadio: true,
	FieldCheckbox: true, FieldDate: true, FieldDatetime: true,
	FieldSlider: true, FieldRating: true, FieldFile: true,
	FieldSignature: true, FieldHeading: true, FieldParagraph: true,
	FieldDivider: true,
}

// IsLayoutType reports whether t is a pure-layout type that carries no data
// and never validates.
func IsLayoutType(t FieldType) bool {
	return t == FieldHeading || t == FieldParagraph || t == FieldDivider
}

// Layout values for UIConfig.Layout.
const (
	LayoutWizard       = "wizard"
	LayoutStepper      = "stepper"
	LayoutSingleColumn = "single-column"
	LayoutTwoColumn    = "two-column"
	LayoutCard         = "card"
)

// Field width values.
const (
	WidthFull  = "full"
	WidthHalf  = "half"
	WidthThird = "third"
)

// Validation holds the optional per-field constraints. Which keys apply
// depends on the field type.
type Validation struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Accept    string   `json:"accept,omitempty"`
}

// Option is one selectable choice for select/multiselect/radio fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionSets maps an option-set slug to its pre-resolved choice list. The
// caller resolves slugs against its backing store; this package never looks
// anything up.
type OptionSets map[string][]Option

type FormField struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          FieldType   `json:"type"`
	Label         string      `json:"label"`
	Required      bool        `json:"required,omitempty"`
	Placeholder   string      `json:"placeholder,omitempty"`
	Description   string      `json:"description,omitempty"`
	Validation    *Validation `json:"validation,omitempty"`
	Options       []Option    `json:"options,omitempty"`
	OptionSetSlug string      `json:"option_set_slug,omitempty"`
	Width         string      `json:"width,omitempty"` // full | half | third
}

type FormStep struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
}

// UIConfig is the cosmetic document: layout, chrome and copy. It is stored
// independently of the structural schema so cosmetic edits never touch the
// versioned document.
type UIConfig struct {
	Layout           string `json:"layout,omitempty"`
	ShowProgressBar  bool   `json:"show_progress_bar,omitempty"`
	ShowStepNumbers  bool   `json:"show_step_numbers,omitempty"`
	SubmitButtonText string `json:"submit_button_text,omitempty"`
	SuccessMessage   string `json:"success_message,omitempty"`
}

// IsZero reports whether the config is nil or carries no settings at all.
func (c *UIConfig) IsZero() bool {
	return c == nil || *c == UIConfig{}
}

// FormSchema is the structural document: ordered steps of ordered fields.
// Step order defines navigation order. UIConfig is only populated on merged,
// render-ready schemas (see BuildFormSchema).
type FormSchema struct {
	Steps     []FormStep        `json:"steps"`
	UIConfig  *UIConfig         `json:"ui_config,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

// Validate checks the structural invariants: at least one step, a known type
// on every field, and per-step uniqueness of data field names. Names only
// need to be unique within their step.
func (s *FormSchema) Validate() error {
	if s == nil || len(s.Steps) == 0 {
		return fmt.Errorf("schema must have at least one step")
	}
	for si, step := range s.Steps {
		seen := map[string]bool{}
		for _, f := range step.Fields {
			if !knownTypes[f.Type] {
				return fmt.Errorf("step %d: field %q has unknown type %q", si, f.Name, f.Type)
			}
			if IsLayoutType(f.Type) {
				continue
			}
			if f.Name == "" {
				return fmt.Errorf("step %d: field of type %q has no name", si, f.Type)
			}
			if seen[f.Name] {
				return fmt.Errorf("step %d: duplicate field name %q", si, f.Name)
			}
			seen[f.Name] = true
		}
	}
	return nil
}

// Field returns the first non-layout field with the given name, searching
// steps in order.
func (s *FormSchema) Field(name string) *FormField {
	for si := range s.Steps {
		for fi := range s.Steps[si].Fields {
			f := &s.Steps[si].Fields[fi]
			if !IsLayoutType(f.Type) && f.Name == name {
				return f
			}
		}
	}
	return nil
}

// StepFieldNames lists the data field names of one step, in order.
func (s *FormSchema) StepFieldNames(index int) []string {
	if index < 0 || index >= len(s.Steps) {
		return nil
	}
	out := []string{}
	for _, f := range s.Steps[index].Fields {
		if !IsLayoutType(f.Type) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Clone returns a deep copy. Merge and split hand out clones so that edits
// to a merged schema can never leak back into the stored structural
// document through shared slices.
func (s *FormSchema) Clone() *FormSchema {
	if s == nil {
		return nil
	}
	out := &FormSchema{}
	if s.Steps != nil {
		out.Steps = make([]FormStep, len(s.Steps))
		for i, step := range s.Steps {
			cp := step
			if step.Fields != nil {
				cp.Fields = make([]FormField, len(step.Fields))
				for j, f := range step.Fields {
					cp.Fields[j] = f.clone()
				}
			}
			out.Steps[i] = cp
		}
	}
	if s.UIConfig != nil {
		cp := *s.UIConfig
		out.UIConfig = &cp
	}
	if s.Overrides != nil {
		out.Overrides = make(map[string]string, len(s.Overrides))
		for k, v := range s.Overrides {
			out.Overrides[k] = v
		}
	}
	return out
}

func (f FormField) clone() FormField {
	cp := f
	if f.Validation != nil {
		v := *f.Validation
		cp.Validation = &v
	}
	if f.Options != nil {
		cp.Options = append([]Option(nil), f.Options...)
	}
	return cp
}

// ResolveOptions returns the effective choice list for a field. A resolvable
// option-set slug wins over inline options; a slug that resolves to nothing
// falls back to the inline list.
func ResolveOptions(f FormField, sets OptionSets) []Option {
	if f.OptionSetSlug != "" {
		if opts, ok := sets[f.OptionSetSlug]; ok {
			return opts
		}
	}
	return f.Options
}
