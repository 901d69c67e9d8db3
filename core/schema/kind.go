package schema

import "strings"

// Kind is the declared type tag of a schema field. Dispatch tables in
// core/handler key their behaviors by Kind; strings outside the closed
// set below fall back to each family's default behavior rather than
// failing, so legacy configuration keeps working.
type Kind string

const (
	// KindDefault is the explicit fallback variant. Every dispatch family
	// maps it to its pass-through behavior.
	KindDefault Kind = "default"

	// Scalar kinds.
	KindChar     Kind = "char"
	KindText     Kind = "text"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDecimal  Kind = "decimal"
	KindBool     Kind = "bool"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDateTime Kind = "datetime"
	KindURL      Kind = "url"
	KindJSON     Kind = "json"
	KindFile     Kind = "file"

	// Relation kinds.
	KindToOne         Kind = "to_one"
	KindToMany        Kind = "to_many"
	KindReverseToMany Kind = "reverse_to_many"
	KindGenericToOne  Kind = "generic_to_one"

	// KindNested serializes the relation through the field's nested schema
	// instead of projecting identifiers.
	KindNested Kind = "nested"
)

// CompositePrefix namespaces domain-specific composite kinds
// (e.g. "composite:route"). Composite kinds are the extensibility seam
// for business transforms that create multiple auxiliary records.
const CompositePrefix = "composite:"

// Fixed textual layouts for temporal kinds, shared by the outbound and
// inbound handler families.
const (
	DateLayout     = "02.01.2006"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "02.01.2006 15:04:05"
)

var scalarKinds = map[Kind]bool{
	KindChar: true, KindText: true, KindInt: true, KindFloat: true,
	KindDecimal: true, KindBool: true, KindDate: true, KindTime: true,
	KindDateTime: true, KindURL: true, KindJSON: true, KindFile: true,
}

var relationKinds = map[Kind]bool{
	KindToOne: true, KindToMany: true, KindReverseToMany: true,
	KindGenericToOne: true, KindNested: true,
}

// IsScalar reports whether k is a scalar kind.
func (k Kind) IsScalar() bool { return scalarKinds[k] }

// IsRelation reports whether k is a relation kind.
func (k Kind) IsRelation() bool { return relationKinds[k] }

// IsMulti reports whether k projects multiple related records.
func (k Kind) IsMulti() bool {
	return k == KindToMany || k == KindReverseToMany
}

// IsComposite reports whether k is a namespaced composite kind.
func (k Kind) IsComposite() bool {
	return strings.HasPrefix(string(k), CompositePrefix)
}

// Known reports whether k belongs to the closed kind set.
func (k Kind) Known() bool {
	return k == KindDefault || k.IsScalar() || k.IsRelation() || k.IsComposite()
}

// NumericZero returns the defaulted value substituted for an optional
// field that fails numeric coercion: 0 for numeric kinds, "" otherwise.
func (k Kind) NumericZero() any {
	switch k {
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindDecimal:
		return "0"
	default:
		return ""
	}
}
