package loader

import (
	"github.com/gofhir/fhir/r4"
	"github.com/shopspring/decimal"

	"github.com/FHIR/sushi-sub009/element"
)

// Converter converts R4 wire models into the internal element tree model.
type Converter struct{}

// NewConverter creates a new R4 converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ConvertStructureDefinition converts an r4.StructureDefinition into an
// element tree. Snapshot elements are preferred; a definition shipped with
// only a differential converts from that instead.
func (c *Converter) ConvertStructureDefinition(sd *r4.StructureDefinition) *element.StructureDefinition {
	if sd == nil {
		return nil
	}

	result := &element.StructureDefinition{
		URL:            derefString(sd.Url),
		ID:             derefString(sd.Id),
		Name:           derefString(sd.Name),
		Title:          derefString(sd.Title),
		Description:    derefString(sd.Description),
		Version:        derefString(sd.Version),
		Status:         c.convertStatus(sd.Status),
		Experimental:   derefBool(sd.Experimental),
		Type:           derefString(sd.Type),
		Kind:           c.convertKind(sd.Kind),
		Abstract:       derefBool(sd.Abstract),
		BaseDefinition: derefString(sd.BaseDefinition),
		Derivation:     c.convertDerivation(sd.Derivation),
		FHIRVersion:    c.convertFHIRVersion(sd.FhirVersion),
		Context:        c.convertContext(sd.Context),
	}

	source := []r4.ElementDefinition(nil)
	if sd.Snapshot != nil && len(sd.Snapshot.Element) > 0 {
		source = sd.Snapshot.Element
	} else if sd.Differential != nil {
		source = sd.Differential.Element
	}
	for i := range source {
		result.AddElement(c.convertElementDefinition(&source[i]))
	}
	return result
}

// convertElementDefinition converts one r4.ElementDefinition.
func (c *Converter) convertElementDefinition(ed *r4.ElementDefinition) *element.Element {
	e := element.NewElement(derefString(ed.Id))
	if path := derefString(ed.Path); path != "" {
		e.Path = path
	}
	e.SliceName = derefString(ed.SliceName)
	e.Short = derefString(ed.Short)
	e.Definition = derefString(ed.Definition)
	e.Comment = derefString(ed.Comment)
	e.Min = c.convertMin(ed.Min)
	e.Max = derefString(ed.Max)
	e.Types = c.convertTypes(ed.Type)
	e.Binding = c.convertBinding(ed.Binding)
	e.Constraints = c.convertConstraints(ed.Constraint)
	e.MustSupport = derefBool(ed.MustSupport)
	e.IsModifier = derefBool(ed.IsModifier)
	e.IsSummary = derefBool(ed.IsSummary)
	e.Slicing = c.convertSlicing(ed.Slicing)
	e.ContentReference = derefString(ed.ContentReference)
	e.Fixed = c.extractFixedValue(ed)
	e.Pattern = c.extractPatternValue(ed)
	return e
}

// convertTypes converts r4.ElementDefinitionType slice to element.Type slice.
func (c *Converter) convertTypes(types []r4.ElementDefinitionType) []element.Type {
	if len(types) == 0 {
		return nil
	}

	result := make([]element.Type, 0, len(types))
	for i := range types {
		t := &types[i]
		result = append(result, element.Type{
			Code:           derefString(t.Code),
			Profiles:       t.Profile,
			TargetProfiles: t.TargetProfile,
		})
	}
	return result
}

// convertBinding converts r4.ElementDefinitionBinding to element.Binding.
func (c *Converter) convertBinding(binding *r4.ElementDefinitionBinding) *element.Binding {
	if binding == nil {
		return nil
	}

	return &element.Binding{
		Strength:    c.convertBindingStrength(binding.Strength),
		ValueSet:    derefString(binding.ValueSet),
		Description: derefString(binding.Description),
	}
}

// convertConstraints converts r4.ElementDefinitionConstraint slice to
// element.Constraint slice. Expressions are carried verbatim.
func (c *Converter) convertConstraints(constraints []r4.ElementDefinitionConstraint) []element.Constraint {
	if len(constraints) == 0 {
		return nil
	}

	result := make([]element.Constraint, 0, len(constraints))
	for i := range constraints {
		con := &constraints[i]
		result = append(result, element.Constraint{
			Key:        derefString(con.Key),
			Severity:   c.convertConstraintSeverity(con.Severity),
			Human:      derefString(con.Human),
			Expression: derefString(con.Expression),
			XPath:      derefString(con.Xpath),
			Source:     derefString(con.Source),
		})
	}
	return result
}

// convertSlicing converts r4.ElementDefinitionSlicing to element.Slicing.
func (c *Converter) convertSlicing(slicing *r4.ElementDefinitionSlicing) *element.Slicing {
	if slicing == nil {
		return nil
	}

	return &element.Slicing{
		Discriminator: c.convertDiscriminators(slicing.Discriminator),
		Description:   derefString(slicing.Description),
		Ordered:       derefBool(slicing.Ordered),
		Rules:         c.convertSlicingRules(slicing.Rules),
	}
}

// convertDiscriminators converts r4.ElementDefinitionSlicingDiscriminator slice.
func (c *Converter) convertDiscriminators(discriminators []r4.ElementDefinitionSlicingDiscriminator) []element.Discriminator {
	if len(discriminators) == 0 {
		return nil
	}

	result := make([]element.Discriminator, 0, len(discriminators))
	for i := range discriminators {
		d := &discriminators[i]
		result = append(result, element.Discriminator{
			Type: c.convertDiscriminatorType(d.Type),
			Path: derefString(d.Path),
		})
	}
	return result
}

// convertContext extracts context expressions from StructureDefinitionContext.
func (c *Converter) convertContext(contexts []r4.StructureDefinitionContext) []string {
	if len(contexts) == 0 {
		return nil
	}

	result := make([]string, 0, len(contexts))
	for i := range contexts {
		if contexts[i].Expression != nil {
			result = append(result, *contexts[i].Expression)
		}
	}
	return result
}

// Type conversion helpers

func (c *Converter) convertKind(kind *r4.StructureDefinitionKind) string {
	if kind == nil {
		return ""
	}
	return string(*kind)
}

func (c *Converter) convertStatus(status *r4.PublicationStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}

func (c *Converter) convertDerivation(derivation *r4.TypeDerivationRule) string {
	if derivation == nil {
		return ""
	}
	return string(*derivation)
}

func (c *Converter) convertFHIRVersion(version *r4.FHIRVersion) string {
	if version == nil {
		return ""
	}
	return string(*version)
}

func (c *Converter) convertBindingStrength(strength *r4.BindingStrength) string {
	if strength == nil {
		return ""
	}
	return string(*strength)
}

func (c *Converter) convertConstraintSeverity(severity *r4.ConstraintSeverity) string {
	if severity == nil {
		return ""
	}
	return string(*severity)
}

func (c *Converter) convertSlicingRules(rules *r4.SlicingRules) string {
	if rules == nil {
		return ""
	}
	return string(*rules)
}

func (c *Converter) convertDiscriminatorType(dtype *r4.DiscriminatorType) string {
	if dtype == nil {
		return ""
	}
	return string(*dtype)
}

func (c *Converter) convertMin(minVal *uint32) *int {
	if minVal == nil {
		return nil
	}
	n := int(*minVal)
	return &n
}

// valueSlots holds the polymorphic value pointers of one fixed[x] or
// pattern[x] group.
type valueSlots struct {
	String    *string
	Boolean   *bool
	Integer   *int
	Decimal   *float64
	Code      *string
	URI       *string
	URL       *string
	Canonical *string

	Coding          *r4.Coding
	CodeableConcept *r4.CodeableConcept
	Quantity        *r4.Quantity
	Reference       *r4.Reference
	Ratio           *r4.Ratio
}

// extractValue converts the first populated slot into an internal value.
func (c *Converter) extractValue(slots valueSlots) *element.Value {
	switch {
	case slots.Boolean != nil:
		v := element.BooleanValue(*slots.Boolean)
		return &v
	case slots.Integer != nil:
		v := element.IntegerValue(int64(*slots.Integer))
		return &v
	case slots.Decimal != nil:
		v := element.DecimalValue(decimal.NewFromFloat(*slots.Decimal))
		return &v
	case slots.String != nil:
		v := element.StringValue(*slots.String)
		return &v
	case slots.Code != nil:
		v := element.CodeValue(element.Code{Code: *slots.Code})
		return &v
	case slots.URI != nil:
		v := element.StringValue(*slots.URI)
		return &v
	case slots.URL != nil:
		v := element.StringValue(*slots.URL)
		return &v
	case slots.Canonical != nil:
		v := element.StringValue(*slots.Canonical)
		return &v
	case slots.Coding != nil:
		v := element.CodeValue(element.Code{
			System:  derefString(slots.Coding.System),
			Code:    derefString(slots.Coding.Code),
			Display: derefString(slots.Coding.Display),
		})
		return &v
	case slots.CodeableConcept != nil:
		cc := element.CodeableConcept{Text: derefString(slots.CodeableConcept.Text)}
		for i := range slots.CodeableConcept.Coding {
			coding := &slots.CodeableConcept.Coding[i]
			cc.Codings = append(cc.Codings, element.Code{
				System:  derefString(coding.System),
				Code:    derefString(coding.Code),
				Display: derefString(coding.Display),
			})
		}
		v := element.CodeableConceptValue(cc)
		return &v
	case slots.Quantity != nil:
		v := element.QuantityValue(*quantityFrom(slots.Quantity))
		return &v
	case slots.Reference != nil:
		v := element.ReferenceValue(element.Reference{
			Reference: derefString(slots.Reference.Reference),
			Display:   derefString(slots.Reference.Display),
		})
		return &v
	case slots.Ratio != nil:
		v := element.RatioValue(element.Ratio{
			Numerator:   quantityFrom(slots.Ratio.Numerator),
			Denominator: quantityFrom(slots.Ratio.Denominator),
		})
		return &v
	default:
		return nil
	}
}

// quantityFrom converts an r4.Quantity, preserving the decimal value exactly.
func quantityFrom(q *r4.Quantity) *element.Quantity {
	if q == nil {
		return nil
	}
	out := &element.Quantity{
		Unit:   derefString(q.Unit),
		System: derefString(q.System),
		Code:   derefString(q.Code),
	}
	if q.Value != nil {
		d := decimal.NewFromFloat(*q.Value)
		out.Value = &d
	}
	return out
}

// extractFixedValue extracts the fixed[x] value from an ElementDefinition.
func (c *Converter) extractFixedValue(ed *r4.ElementDefinition) *element.Value {
	return c.extractValue(valueSlots{
		String:          ed.FixedString,
		Boolean:         ed.FixedBoolean,
		Integer:         ed.FixedInteger,
		Decimal:         ed.FixedDecimal,
		Code:            ed.FixedCode,
		URI:             ed.FixedUri,
		URL:             ed.FixedUrl,
		Canonical:       ed.FixedCanonical,
		Coding:          ed.FixedCoding,
		CodeableConcept: ed.FixedCodeableConcept,
		Quantity:        ed.FixedQuantity,
		Reference:       ed.FixedReference,
		Ratio:           ed.FixedRatio,
	})
}

// extractPatternValue extracts the pattern[x] value from an ElementDefinition.
func (c *Converter) extractPatternValue(ed *r4.ElementDefinition) *element.Value {
	return c.extractValue(valueSlots{
		String:          ed.PatternString,
		Boolean:         ed.PatternBoolean,
		Integer:         ed.PatternInteger,
		Decimal:         ed.PatternDecimal,
		Code:            ed.PatternCode,
		URI:             ed.PatternUri,
		URL:             ed.PatternUrl,
		Canonical:       ed.PatternCanonical,
		Coding:          ed.PatternCoding,
		CodeableConcept: ed.PatternCodeableConcept,
		Quantity:        ed.PatternQuantity,
		Reference:       ed.PatternReference,
		Ratio:           ed.PatternRatio,
	})
}

// Generic helpers

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
