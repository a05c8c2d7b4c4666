// Package export serializes compiled element trees back into FHIR R4
// StructureDefinition JSON, with the snapshot carrying the full element
// sequence and the differential carrying only locally constrained elements.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofhir/fhir/r4"

	"github.com/FHIR/sushi-sub009/element"
)

// Exporter converts element trees into R4 wire models.
type Exporter struct{}

// New creates an exporter.
func New() *Exporter {
	return &Exporter{}
}

// Export converts a compiled tree into an r4.StructureDefinition with both
// snapshot and differential views populated.
func (x *Exporter) Export(sd *element.StructureDefinition) *r4.StructureDefinition {
	if sd == nil {
		return nil
	}

	out := &r4.StructureDefinition{
		Url:            strPtr(sd.URL),
		Id:             strPtr(sd.ID),
		Name:           strPtr(sd.Name),
		Title:          strPtr(sd.Title),
		Description:    strPtr(sd.Description),
		Version:        strPtr(sd.Version),
		Type:           strPtr(sd.Type),
		BaseDefinition: strPtr(sd.BaseDefinition),
		Abstract:       boolPtr(sd.Abstract),
	}
	if sd.Experimental {
		out.Experimental = boolPtr(true)
	}
	if sd.Status != "" {
		status := r4.PublicationStatus(sd.Status)
		out.Status = &status
	}
	if sd.Kind != "" {
		kind := r4.StructureDefinitionKind(sd.Kind)
		out.Kind = &kind
	}
	if sd.Derivation != "" {
		derivation := r4.TypeDerivationRule(sd.Derivation)
		out.Derivation = &derivation
	}
	if sd.FHIRVersion != "" {
		version := r4.FHIRVersion(sd.FHIRVersion)
		out.FhirVersion = &version
	}
	for _, expr := range sd.Context {
		out.Context = append(out.Context, r4.StructureDefinitionContext{
			Expression: strPtr(expr),
		})
	}

	snapshot := sd.Snapshot()
	if len(snapshot) > 0 {
		out.Snapshot = &r4.StructureDefinitionSnapshot{
			Element: x.convertElements(snapshot),
		}
	}
	differential := sd.Differential()
	if len(differential) > 0 {
		out.Differential = &r4.StructureDefinitionDifferential{
			Element: x.convertElements(differential),
		}
	}
	return out
}

func (x *Exporter) convertElements(elements []*element.Element) []r4.ElementDefinition {
	result := make([]r4.ElementDefinition, 0, len(elements))
	for _, e := range elements {
		result = append(result, x.convertElement(e))
	}
	return result
}

// convertElement converts one internal element. Zero-valued fields stay nil
// so differential elements serialize minimally.
func (x *Exporter) convertElement(e *element.Element) r4.ElementDefinition {
	ed := r4.ElementDefinition{
		Id:   strPtr(e.ID),
		Path: strPtr(e.Path),
	}
	if e.SliceName != "" {
		ed.SliceName = strPtr(e.SliceName)
	}
	if e.Short != "" {
		ed.Short = strPtr(e.Short)
	}
	if e.Definition != "" {
		ed.Definition = strPtr(e.Definition)
	}
	if e.Comment != "" {
		ed.Comment = strPtr(e.Comment)
	}
	if e.Min != nil {
		minVal := uint32(*e.Min)
		ed.Min = &minVal
	}
	if e.Max != "" {
		ed.Max = strPtr(e.Max)
	}
	if e.ContentReference != "" {
		ed.ContentReference = strPtr(e.ContentReference)
	}
	if e.MustSupport {
		ed.MustSupport = boolPtr(true)
	}
	if e.IsModifier {
		ed.IsModifier = boolPtr(true)
	}
	if e.IsSummary {
		ed.IsSummary = boolPtr(true)
	}

	for i := range e.Types {
		t := &e.Types[i]
		ed.Type = append(ed.Type, r4.ElementDefinitionType{
			Code:          strPtr(t.Code),
			Profile:       t.Profiles,
			TargetProfile: t.TargetProfiles,
		})
	}

	if e.Binding != nil {
		strength := r4.BindingStrength(e.Binding.Strength)
		ed.Binding = &r4.ElementDefinitionBinding{
			Strength: &strength,
		}
		if e.Binding.ValueSet != "" {
			ed.Binding.ValueSet = strPtr(e.Binding.ValueSet)
		}
		if e.Binding.Description != "" {
			ed.Binding.Description = strPtr(e.Binding.Description)
		}
	}

	for _, c := range e.Constraints {
		severity := r4.ConstraintSeverity(c.Severity)
		constraint := r4.ElementDefinitionConstraint{
			Key:      strPtr(c.Key),
			Severity: &severity,
			Human:    strPtr(c.Human),
		}
		if c.Expression != "" {
			constraint.Expression = strPtr(c.Expression)
		}
		if c.XPath != "" {
			constraint.Xpath = strPtr(c.XPath)
		}
		if c.Source != "" {
			constraint.Source = strPtr(c.Source)
		}
		ed.Constraint = append(ed.Constraint, constraint)
	}

	if e.Slicing != nil {
		ed.Slicing = x.convertSlicing(e.Slicing)
	}
	if e.Fixed != nil {
		setFixedValue(&ed, e.Fixed)
	}
	if e.Pattern != nil {
		setPatternValue(&ed, e.Pattern)
	}
	return ed
}

func (x *Exporter) convertSlicing(s *element.Slicing) *r4.ElementDefinitionSlicing {
	out := &r4.ElementDefinitionSlicing{}
	if s.Description != "" {
		out.Description = strPtr(s.Description)
	}
	if s.Ordered {
		out.Ordered = boolPtr(true)
	}
	if s.Rules != "" {
		rules := r4.SlicingRules(s.Rules)
		out.Rules = &rules
	}
	for _, d := range s.Discriminator {
		dtype := r4.DiscriminatorType(d.Type)
		out.Discriminator = append(out.Discriminator, r4.ElementDefinitionSlicingDiscriminator{
			Type: &dtype,
			Path: strPtr(d.Path),
		})
	}
	return out
}

// setFixedValue maps an internal value onto the matching fixed[x] slot.
func setFixedValue(ed *r4.ElementDefinition, v *element.Value) {
	switch {
	case v.Boolean != nil:
		ed.FixedBoolean = boolPtr(*v.Boolean)
	case v.Integer != nil:
		n := int(*v.Integer)
		ed.FixedInteger = &n
	case v.Decimal != nil:
		f, _ := v.Decimal.Float64()
		ed.FixedDecimal = &f
	case v.String != nil:
		ed.FixedString = strPtr(*v.String)
	case v.Code != nil:
		if v.Code.System == "" && v.Code.Display == "" {
			ed.FixedCode = strPtr(v.Code.Code)
		} else {
			ed.FixedCoding = codingOf(v.Code)
		}
	case v.CodeableConcept != nil:
		ed.FixedCodeableConcept = codeableConceptOf(v.CodeableConcept)
	case v.Quantity != nil:
		ed.FixedQuantity = quantityOf(v.Quantity)
	case v.Reference != nil:
		ed.FixedReference = referenceOf(v.Reference)
	case v.Ratio != nil:
		ed.FixedRatio = ratioOf(v.Ratio)
	}
}

// setPatternValue maps an internal value onto the matching pattern[x] slot.
func setPatternValue(ed *r4.ElementDefinition, v *element.Value) {
	switch {
	case v.Boolean != nil:
		ed.PatternBoolean = boolPtr(*v.Boolean)
	case v.Integer != nil:
		n := int(*v.Integer)
		ed.PatternInteger = &n
	case v.Decimal != nil:
		f, _ := v.Decimal.Float64()
		ed.PatternDecimal = &f
	case v.String != nil:
		ed.PatternString = strPtr(*v.String)
	case v.Code != nil:
		if v.Code.System == "" && v.Code.Display == "" {
			ed.PatternCode = strPtr(v.Code.Code)
		} else {
			ed.PatternCoding = codingOf(v.Code)
		}
	case v.CodeableConcept != nil:
		ed.PatternCodeableConcept = codeableConceptOf(v.CodeableConcept)
	case v.Quantity != nil:
		ed.PatternQuantity = quantityOf(v.Quantity)
	case v.Reference != nil:
		ed.PatternReference = referenceOf(v.Reference)
	case v.Ratio != nil:
		ed.PatternRatio = ratioOf(v.Ratio)
	}
}

func codingOf(c *element.Code) *r4.Coding {
	coding := &r4.Coding{}
	if c.System != "" {
		coding.System = strPtr(c.System)
	}
	if c.Code != "" {
		coding.Code = strPtr(c.Code)
	}
	if c.Display != "" {
		coding.Display = strPtr(c.Display)
	}
	return coding
}

func codeableConceptOf(cc *element.CodeableConcept) *r4.CodeableConcept {
	out := &r4.CodeableConcept{}
	if cc.Text != "" {
		out.Text = strPtr(cc.Text)
	}
	for i := range cc.Codings {
		out.Coding = append(out.Coding, *codingOf(&cc.Codings[i]))
	}
	return out
}

func referenceOf(ref *element.Reference) *r4.Reference {
	out := &r4.Reference{}
	if ref.Reference != "" {
		out.Reference = strPtr(ref.Reference)
	}
	if ref.Display != "" {
		out.Display = strPtr(ref.Display)
	}
	return out
}

func ratioOf(r *element.Ratio) *r4.Ratio {
	out := &r4.Ratio{}
	if r.Numerator != nil {
		out.Numerator = quantityOf(r.Numerator)
	}
	if r.Denominator != nil {
		out.Denominator = quantityOf(r.Denominator)
	}
	return out
}

func quantityOf(q *element.Quantity) *r4.Quantity {
	out := &r4.Quantity{}
	if q.Value != nil {
		f, _ := q.Value.Float64()
		out.Value = &f
	}
	if q.Unit != "" {
		out.Unit = strPtr(q.Unit)
	}
	if q.System != "" {
		out.System = strPtr(q.System)
	}
	if q.Code != "" {
		out.Code = strPtr(q.Code)
	}
	return out
}

// WriteFile marshals the definition to indented JSON under dir, named
// StructureDefinition-{id}.json, creating the directory if needed.
func (x *Exporter) WriteFile(dir string, sd *r4.StructureDefinition) (string, error) {
	if sd == nil || sd.Id == nil || *sd.Id == "" {
		return "", fmt.Errorf("definition has no id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal StructureDefinition: %w", err)
	}

	path := filepath.Join(dir, "StructureDefinition-"+*sd.Id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
