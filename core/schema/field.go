package schema

// SchemaField is one projected attribute of a Schema.
type SchemaField struct {
	// Name matches an underlying record attribute, or is synthetic for
	// reverse and computed relations.
	Name string `yaml:"name" json:"name"`

	// Label is the human-readable name shown in form projections.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`

	// Kind is the declared kind, used by every dispatch family unless
	// overridden below.
	Kind Kind `yaml:"kind" json:"kind"`

	// OutKind overrides the kind for the outbound value family.
	OutKind Kind `yaml:"out_kind,omitempty" json:"out_kind,omitempty"`

	// InKind overrides the kind for the inbound transform family.
	InKind Kind `yaml:"in_kind,omitempty" json:"in_kind,omitempty"`

	// FormKind overrides the kind for the form render family.
	FormKind Kind `yaml:"form_kind,omitempty" json:"form_kind,omitempty"`

	// AltKey, when set, replaces Name as the output key in rest format.
	AltKey string `yaml:"alt_key,omitempty" json:"alt_key,omitempty"`

	// NestedSchema names the schema used by relation/nested kinds. When
	// empty the field degrades to an id or list-of-ids projection.
	NestedSchema string `yaml:"nested_schema,omitempty" json:"nested_schema,omitempty"`

	// Active fields participate in dispatch; inactive ones are kept for
	// historical references and toggled rather than deleted.
	Active bool `yaml:"active" json:"active"`

	// Required fields fail validation when absent or empty.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// IsKey marks the field usable as the lookup identifier during
	// deserialization (defaults to "id" when no field is marked).
	IsKey bool `yaml:"is_key,omitempty" json:"is_key,omitempty"`

	// Order is the total sort order for serialization and validation.
	Order int `yaml:"order" json:"order"`
}

// OutboundKind resolves the effective kind for the outbound family.
func (f *SchemaField) OutboundKind() Kind {
	if f.OutKind != "" {
		return f.OutKind
	}
	return f.Kind
}

// InboundKind resolves the effective kind for the inbound family.
func (f *SchemaField) InboundKind() Kind {
	if f.InKind != "" {
		return f.InKind
	}
	return f.Kind
}

// RenderKind resolves the effective kind for the form render family.
func (f *SchemaField) RenderKind() Kind {
	if f.FormKind != "" {
		return f.FormKind
	}
	return f.Kind
}

// OutputKey returns the rest-format result key: AltKey when set, else Name.
func (f *SchemaField) OutputKey() string {
	if f.AltKey != "" {
		return f.AltKey
	}
	return f.Name
}

// Deferred reports whether the field's inbound transform must wait until
// the owning record has a stable identifier (multi-valued relations and
// composite kinds attach to the owner by id).
func (f *SchemaField) Deferred() bool {
	k := f.InboundKind()
	return k.IsMulti() || k == KindGenericToOne || k.IsComposite()
}
