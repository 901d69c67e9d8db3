package schema

// FieldResult is the validation outcome for one submitted field. It is a
// first-class value, not an error: invalid input produces IsValid=false
// with explanatory text, and a coerced default substitution stays valid
// but carries InfoText.
type FieldResult struct {
	// Name is the submitted field name.
	Name string `json:"name"`

	// Value echoes the submitted value, possibly coerced.
	Value any `json:"value"`

	// Kind is the field's declared kind.
	Kind Kind `json:"type"`

	// IsValid is false only when ErrorText is set.
	IsValid bool `json:"is_valid"`

	// ErrorText explains a failed rule. Non-empty iff IsValid is false.
	ErrorText string `json:"error_text,omitempty"`

	// InfoText annotates a non-fatal substitution, e.g. an optional
	// integer defaulted to 0 after failed coercion.
	InfoText string `json:"info_text,omitempty"`

	// Children holds nested results when the field recursed into a
	// nested schema's validator.
	Children []FieldResult `json:"children,omitempty"`
}

// Invalidate marks the result failed with the given message.
func (r *FieldResult) Invalidate(msg string) {
	r.IsValid = false
	r.ErrorText = msg
}
