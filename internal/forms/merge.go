package forms

// DefaultUIConfig is the hard-coded fallback used when neither the cosmetic
// document nor the structural schema carries any UI settings.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Layout:           LayoutSingleColumn,
		ShowProgressBar:  true,
		SubmitButtonText: "Submit",
		SuccessMessage:   "Thank you! Your submission has been received.",
	}
}

// BuildFormSchema merges the two independently stored documents into one
// render-ready schema. Precedence for the cosmetic part: the standalone UI
// config document, then a config embedded in the structural schema (legacy
// forms), then DefaultUIConfig. Neither input is mutated.
func BuildFormSchema(structural *FormSchema, ui *UIConfig) *FormSchema {
	if structural == nil {
		structural = &FormSchema{}
	}
	merged := structural.Clone()
	switch {
	case !ui.IsZero():
		cp := *ui
		merged.UIConfig = &cp
	case !structural.UIConfig.IsZero():
		cp := *structural.UIConfig
		merged.UIConfig = &cp
	default:
		merged.UIConfig = DefaultUIConfig()
	}
	return merged
}

// ExtractUIConfig splits a merged schema back into its two documents: the
// structural schema with every cosmetic key stripped, and the UI config on
// its own. Inverse of BuildFormSchema: the returned structural document is
// the input minus its ui_config, so writing it back never looks like a
// structural change when only cosmetics moved.
func ExtractUIConfig(merged *FormSchema) (*FormSchema, *UIConfig) {
	if merged == nil {
		return &FormSchema{}, nil
	}
	structural := merged.Clone()
	ui := structural.UIConfig
	structural.UIConfig = nil
	return structural, ui
}
