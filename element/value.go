package element

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Code is a coded value, optionally carrying its system and display text.
type Code struct {
	System  string
	Code    string
	Display string
}

// Quantity is a measured amount. Value uses exact decimal semantics so that
// idempotent reassignment compares exactly rather than by float equality.
type Quantity struct {
	Value  *decimal.Decimal
	Unit   string
	System string
	Code   string
}

// Ratio relates two quantities.
type Ratio struct {
	Numerator   *Quantity
	Denominator *Quantity
}

// Reference is a literal reference to another resource.
type Reference struct {
	Reference string
	Display   string
}

// CodeableConcept is a set of codings with optional free text.
type CodeableConcept struct {
	Codings []Code
	Text    string
}

// Value is the single value slot used for fixed[x] and pattern[x]
// assignments. Exactly one payload field is set.
type Value struct {
	Boolean         *bool
	Integer         *int64
	Decimal         *decimal.Decimal
	String          *string
	Code            *Code
	Quantity        *Quantity
	Ratio           *Ratio
	Reference       *Reference
	CodeableConcept *CodeableConcept
}

// Convenience constructors.

func BooleanValue(b bool) Value          { return Value{Boolean: &b} }
func IntegerValue(i int64) Value         { return Value{Integer: &i} }
func StringValue(s string) Value         { return Value{String: &s} }
func DecimalValue(d decimal.Decimal) Value { return Value{Decimal: &d} }
func CodeValue(c Code) Value             { return Value{Code: &c} }
func QuantityValue(q Quantity) Value     { return Value{Quantity: &q} }
func RatioValue(r Ratio) Value           { return Value{Ratio: &r} }
func ReferenceValue(r Reference) Value   { return Value{Reference: &r} }
func CodeableConceptValue(cc CodeableConcept) Value { return Value{CodeableConcept: &cc} }

// Kind returns the value's payload kind name.
func (v Value) Kind() string {
	switch {
	case v.Boolean != nil:
		return "boolean"
	case v.Integer != nil:
		return "integer"
	case v.Decimal != nil:
		return "decimal"
	case v.String != nil:
		return "string"
	case v.Code != nil:
		return "code"
	case v.Quantity != nil:
		return "Quantity"
	case v.Ratio != nil:
		return "Ratio"
	case v.Reference != nil:
		return "Reference"
	case v.CodeableConcept != nil:
		return "CodeableConcept"
	default:
		return ""
	}
}

// IsComposite reports whether the value merges field-by-field under pattern
// semantics.
func (v Value) IsComposite() bool {
	return v.Quantity != nil || v.Ratio != nil || v.Reference != nil ||
		v.CodeableConcept != nil || v.Code != nil
}

// Render formats the value for diagnostics.
func (v Value) Render() string {
	switch {
	case v.Boolean != nil:
		return fmt.Sprintf("%t", *v.Boolean)
	case v.Integer != nil:
		return fmt.Sprintf("%d", *v.Integer)
	case v.Decimal != nil:
		return v.Decimal.String()
	case v.String != nil:
		return fmt.Sprintf("%q", *v.String)
	case v.Code != nil:
		if v.Code.System != "" {
			return v.Code.System + "#" + v.Code.Code
		}
		return "#" + v.Code.Code
	case v.Quantity != nil:
		return quantityString(v.Quantity)
	case v.Ratio != nil:
		return quantityString(v.Ratio.Numerator) + " : " + quantityString(v.Ratio.Denominator)
	case v.Reference != nil:
		return "Reference(" + v.Reference.Reference + ")"
	case v.CodeableConcept != nil:
		parts := make([]string, 0, len(v.CodeableConcept.Codings))
		for _, c := range v.CodeableConcept.Codings {
			parts = append(parts, c.System+"#"+c.Code)
		}
		return strings.Join(parts, ", ")
	default:
		return "<empty>"
	}
}

// typeNamesFor maps a value kind to the FHIR type names it can satisfy.
var typeNamesFor = map[string][]string{
	"boolean": {"boolean"},
	"integer": {"integer", "integer64", "unsignedInt", "positiveInt", "decimal"},
	"decimal": {"decimal"},
	"string": {
		"string", "id", "markdown", "uri", "url", "canonical", "code",
		"oid", "uuid", "date", "dateTime", "time", "instant", "base64Binary", "xhtml",
	},
	"code":            {"code", "string", "uri", "Coding", "CodeableConcept", "Quantity"},
	"Quantity":        {"Quantity", "Age", "Distance", "Duration", "Count", "MoneyQuantity", "SimpleQuantity"},
	"Ratio":           {"Ratio"},
	"Reference":       {"Reference"},
	"CodeableConcept": {"CodeableConcept"},
}

// matchesType reports whether the value's shape corresponds to the type code.
func (v Value) matchesType(code string) bool {
	for _, name := range typeNamesFor[v.Kind()] {
		if name == code {
			return true
		}
	}
	return false
}

// Equal reports exact equality of two values. Decimal payloads compare by
// numeric value, not representation.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch {
	case v.Boolean != nil:
		return *v.Boolean == *other.Boolean
	case v.Integer != nil:
		return *v.Integer == *other.Integer
	case v.Decimal != nil:
		return v.Decimal.Equal(*other.Decimal)
	case v.String != nil:
		return *v.String == *other.String
	case v.Code != nil:
		return *v.Code == *other.Code
	case v.Quantity != nil:
		return quantityEqual(v.Quantity, other.Quantity)
	case v.Ratio != nil:
		return quantityEqual(v.Ratio.Numerator, other.Ratio.Numerator) &&
			quantityEqual(v.Ratio.Denominator, other.Ratio.Denominator)
	case v.Reference != nil:
		return *v.Reference == *other.Reference
	case v.CodeableConcept != nil:
		return codeableConceptEqual(v.CodeableConcept, other.CodeableConcept)
	default:
		return true
	}
}

func quantityEqual(a, b *Quantity) bool {
	if a == nil || b == nil {
		return a == b
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	if a.Value != nil && !a.Value.Equal(*b.Value) {
		return false
	}
	return a.Unit == b.Unit && a.System == b.System && a.Code == b.Code
}

func quantityString(q *Quantity) string {
	if q == nil {
		return "<nil>"
	}
	val := ""
	if q.Value != nil {
		val = q.Value.String()
	}
	if q.Code != "" {
		return val + " '" + q.Code + "'"
	}
	return val + " " + q.Unit
}

func codeableConceptEqual(a, b *CodeableConcept) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Text != b.Text || len(a.Codings) != len(b.Codings) {
		return false
	}
	for i := range a.Codings {
		if a.Codings[i] != b.Codings[i] {
			return false
		}
	}
	return true
}

// AssignValue assigns a fixed (exact) or pattern (partial) value to the
// element.
//
// A value may only be assigned when its shape matches one of the element's
// allowed types. A different already-fixed value fails; a pattern request on
// an element with a fixed value fails even for the identical value, since
// patterns are weaker. Pattern-over-pattern assignments of composite values
// merge field by field; conflicting fields fail. Assigning the identical
// value again is idempotent.
func (e *Element) AssignValue(v Value, exact bool) error {
	if v.Kind() == "" {
		return &MismatchedTypeError{Path: e.ID, ValueKind: "empty", Allowed: e.typeCodes()}
	}
	if len(e.Types) > 0 {
		ok := false
		for _, t := range e.Types {
			if v.matchesType(t.Code) {
				ok = true
				break
			}
		}
		if !ok {
			return &MismatchedTypeError{Path: e.ID, ValueKind: v.Kind(), Allowed: e.typeCodes()}
		}
	}

	if e.Fixed != nil {
		if !exact {
			return &FixedToPatternError{Path: e.ID}
		}
		if !e.Fixed.Equal(v) {
			return &ValueAlreadyFixedError{Path: e.ID, Found: e.Fixed.Render(), Requested: v.Render()}
		}
		return nil
	}

	if e.Pattern != nil {
		if exact {
			// Promoting an identical pattern to a fixed value tightens the
			// constraint and is allowed.
			if !e.Pattern.Equal(v) {
				return &ValueAlreadyAssignedError{Path: e.ID, Found: e.Pattern.Render(), Requested: v.Render()}
			}
			e.Fixed = &v
			e.Pattern = nil
			return nil
		}
		if e.Pattern.IsComposite() && v.IsComposite() {
			merged, err := mergeComposite(e.ID, *e.Pattern, v)
			if err != nil {
				return err
			}
			e.Pattern = &merged
			return nil
		}
		if !e.Pattern.Equal(v) {
			return &ValueAlreadyAssignedError{Path: e.ID, Found: e.Pattern.Render(), Requested: v.Render()}
		}
		return nil
	}

	if exact {
		e.Fixed = &v
	} else {
		e.Pattern = &v
	}
	return nil
}

// mergeComposite merges a new composite pattern value into an existing one
// field by field. Fields set on only one side are taken; fields set on both
// sides must agree.
func mergeComposite(path string, existing, incoming Value) (Value, error) {
	if existing.Kind() != incoming.Kind() {
		return Value{}, &ValueAlreadyAssignedError{Path: path, Found: existing.Render(), Requested: incoming.Render()}
	}
	conflict := func() (Value, error) {
		return Value{}, &ValueAlreadyAssignedError{Path: path, Found: existing.Render(), Requested: incoming.Render()}
	}

	switch {
	case existing.Quantity != nil:
		merged, ok := mergeQuantity(existing.Quantity, incoming.Quantity)
		if !ok {
			return conflict()
		}
		return Value{Quantity: merged}, nil

	case existing.Ratio != nil:
		num, ok := mergeQuantity(existing.Ratio.Numerator, incoming.Ratio.Numerator)
		if !ok {
			return conflict()
		}
		den, ok := mergeQuantity(existing.Ratio.Denominator, incoming.Ratio.Denominator)
		if !ok {
			return conflict()
		}
		return Value{Ratio: &Ratio{Numerator: num, Denominator: den}}, nil

	case existing.Code != nil:
		merged := *existing.Code
		if !mergeString(&merged.System, incoming.Code.System) ||
			!mergeString(&merged.Code, incoming.Code.Code) ||
			!mergeString(&merged.Display, incoming.Code.Display) {
			return conflict()
		}
		return Value{Code: &merged}, nil

	case existing.Reference != nil:
		merged := *existing.Reference
		if !mergeString(&merged.Reference, incoming.Reference.Reference) ||
			!mergeString(&merged.Display, incoming.Reference.Display) {
			return conflict()
		}
		return Value{Reference: &merged}, nil

	case existing.CodeableConcept != nil:
		merged := CodeableConcept{Text: existing.CodeableConcept.Text}
		if !mergeString(&merged.Text, incoming.CodeableConcept.Text) {
			return conflict()
		}
		merged.Codings = append(merged.Codings, existing.CodeableConcept.Codings...)
		for _, c := range incoming.CodeableConcept.Codings {
			present := false
			for _, have := range merged.Codings {
				if have == c {
					present = true
					break
				}
			}
			if !present {
				merged.Codings = append(merged.Codings, c)
			}
		}
		return Value{CodeableConcept: &merged}, nil

	default:
		if existing.Equal(incoming) {
			return existing, nil
		}
		return conflict()
	}
}

// mergeQuantity merges two quantities field by field; nil means unset.
func mergeQuantity(existing, incoming *Quantity) (*Quantity, bool) {
	if existing == nil {
		return incoming, true
	}
	if incoming == nil {
		return existing, true
	}
	merged := *existing
	if incoming.Value != nil {
		if merged.Value != nil && !merged.Value.Equal(*incoming.Value) {
			return nil, false
		}
		merged.Value = incoming.Value
	}
	if !mergeString(&merged.Unit, incoming.Unit) ||
		!mergeString(&merged.System, incoming.System) ||
		!mergeString(&merged.Code, incoming.Code) {
		return nil, false
	}
	return &merged, true
}

// mergeString merges an incoming string field into dst. Empty means unset;
// both set and different is a conflict.
func mergeString(dst *string, incoming string) bool {
	if incoming == "" {
		return true
	}
	if *dst != "" && *dst != incoming {
		return false
	}
	*dst = incoming
	return true
}
