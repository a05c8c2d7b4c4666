package rules

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FHIR/sushi-sub009/element"
)

// Document is one artifact to compile: identity metadata plus its ordered
// rule sequence, as produced by the external authoring-language parser.
type Document struct {
	Name        string
	ID          string
	Title       string
	Description string
	Parent      string // base type or profile the artifact constrains
	Kind        string // profile, extension, resource, logical
	Rules       []Rule
}

// jsonDocument is the wire shape of a Document.
type jsonDocument struct {
	Name        string            `json:"name"`
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Parent      string            `json:"parent"`
	Kind        string            `json:"kind"`
	Rules       []json.RawMessage `json:"rules"`
}

// jsonRule is the envelope shared by every wire rule; Rule tags the variant.
type jsonRule struct {
	Rule   string     `json:"rule"`
	Path   string     `json:"path"`
	Source SourceInfo `json:"source"`

	Min int    `json:"min"`
	Max string `json:"max"`

	Targets []jsonTarget `json:"targets"`

	MustSupport     bool   `json:"mustSupport"`
	IsModifier      bool   `json:"isModifier"`
	IsSummary       bool   `json:"isSummary"`
	StandardsStatus string `json:"standardsStatus"`

	Exact bool       `json:"exact"`
	Value *jsonValue `json:"value"`

	Items []jsonContainsItem `json:"items"`

	DiscriminatorType string `json:"discriminatorType"`
	DiscriminatorPath string `json:"discriminatorPath"`
	Ordered           bool   `json:"ordered"`
	Rules             string `json:"rules"`

	Constraints []jsonConstraint `json:"constraints"`

	ValueSet string `json:"valueSet"`
	Strength string `json:"strength"`

	CaretPath string `json:"caretPath"`

	RuleSet string `json:"ruleSet"`
}

type jsonTarget struct {
	Type        string `json:"type"`
	IsReference bool   `json:"isReference"`
	IsCanonical bool   `json:"isCanonical"`
}

type jsonContainsItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Min  int    `json:"min"`
	Max  string `json:"max"`
}

type jsonConstraint struct {
	Key        string `json:"key"`
	Severity   string `json:"severity"`
	Human      string `json:"human"`
	Expression string `json:"expression"`
	XPath      string `json:"xpath"`
	Source     string `json:"source"`
}

type jsonValue struct {
	Boolean         *bool            `json:"boolean"`
	Integer         *int64           `json:"integer"`
	Decimal         *string          `json:"decimal"`
	String          *string          `json:"string"`
	Code            *jsonCode        `json:"code"`
	Quantity        *jsonQuantity    `json:"quantity"`
	Ratio           *jsonRatio       `json:"ratio"`
	Reference       *jsonReference   `json:"reference"`
	CodeableConcept *jsonCodeableCon `json:"codeableConcept"`
}

type jsonCode struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

type jsonQuantity struct {
	Value  *string `json:"value"`
	Unit   string  `json:"unit"`
	System string  `json:"system"`
	Code   string  `json:"code"`
}

type jsonRatio struct {
	Numerator   *jsonQuantity `json:"numerator"`
	Denominator *jsonQuantity `json:"denominator"`
}

type jsonReference struct {
	Reference string `json:"reference"`
	Display   string `json:"display"`
}

type jsonCodeableCon struct {
	Codings []jsonCode `json:"coding"`
	Text    string     `json:"text"`
}

// UnmarshalDocument decodes one rule document from its JSON wire form.
func UnmarshalDocument(data []byte) (*Document, error) {
	var jd jsonDocument
	if err := json.Unmarshal(data, &jd); err != nil {
		return nil, fmt.Errorf("parsing rule document: %w", err)
	}

	doc := &Document{
		Name:        jd.Name,
		ID:          jd.ID,
		Title:       jd.Title,
		Description: jd.Description,
		Parent:      jd.Parent,
		Kind:        jd.Kind,
	}
	for i, raw := range jd.Rules {
		rule, err := unmarshalRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %d of %s: %w", i, jd.Name, err)
		}
		doc.Rules = append(doc.Rules, rule)
	}
	return doc, nil
}

// UnmarshalDocuments decodes a JSON array of rule documents.
func UnmarshalDocuments(data []byte) ([]*Document, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parsing rule documents: %w", err)
	}
	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		doc, err := UnmarshalDocument(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// unmarshalRule decodes one tagged rule record.
func unmarshalRule(data []byte) (Rule, error) {
	var jr jsonRule
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, err
	}
	base := Base{Path: jr.Path, Source: jr.Source}

	switch jr.Rule {
	case "card":
		return &CardRule{Base: base, Min: jr.Min, Max: jr.Max}, nil

	case "only":
		targets := make([]Target, 0, len(jr.Targets))
		for _, t := range jr.Targets {
			targets = append(targets, Target(t))
		}
		return &OnlyRule{Base: base, Targets: targets}, nil

	case "flag":
		return &FlagRule{Base: base, Flags: Flags{
			MustSupport:     jr.MustSupport,
			IsModifier:      jr.IsModifier,
			IsSummary:       jr.IsSummary,
			StandardsStatus: jr.StandardsStatus,
		}}, nil

	case "assignment":
		value, err := jr.Value.toValue()
		if err != nil {
			return nil, err
		}
		return &AssignmentRule{Base: base, Value: value, Exact: jr.Exact}, nil

	case "contains":
		items := make([]ContainsItem, 0, len(jr.Items))
		for _, item := range jr.Items {
			items = append(items, ContainsItem(item))
		}
		return &ContainsRule{Base: base, Items: items}, nil

	case "slicing":
		return &SlicingRule{
			Base:              base,
			DiscriminatorType: jr.DiscriminatorType,
			DiscriminatorPath: jr.DiscriminatorPath,
			Ordered:           jr.Ordered,
			Rules:             jr.Rules,
		}, nil

	case "obeys":
		constraints := make([]element.Constraint, 0, len(jr.Constraints))
		for _, c := range jr.Constraints {
			constraints = append(constraints, element.Constraint(c))
		}
		return &ObeysRule{Base: base, Constraints: constraints}, nil

	case "binding":
		return &BindingRule{Base: base, ValueSet: jr.ValueSet, Strength: jr.Strength}, nil

	case "caret":
		value, err := jr.Value.toValue()
		if err != nil {
			return nil, err
		}
		return &CaretValueRule{Base: base, CaretPath: jr.CaretPath, Value: value}, nil

	case "insert":
		return &InsertRule{Base: base, RuleSet: jr.RuleSet}, nil

	default:
		return nil, fmt.Errorf("unknown rule kind %q", jr.Rule)
	}
}

// toValue converts a wire value to an element.Value.
func (jv *jsonValue) toValue() (element.Value, error) {
	if jv == nil {
		return element.Value{}, fmt.Errorf("rule carries no value")
	}
	switch {
	case jv.Boolean != nil:
		return element.BooleanValue(*jv.Boolean), nil
	case jv.Integer != nil:
		return element.IntegerValue(*jv.Integer), nil
	case jv.Decimal != nil:
		d, err := decimal.NewFromString(*jv.Decimal)
		if err != nil {
			return element.Value{}, fmt.Errorf("invalid decimal %q: %w", *jv.Decimal, err)
		}
		return element.DecimalValue(d), nil
	case jv.String != nil:
		return element.StringValue(*jv.String), nil
	case jv.Code != nil:
		return element.CodeValue(element.Code(*jv.Code)), nil
	case jv.Quantity != nil:
		q, err := jv.Quantity.toQuantity()
		if err != nil {
			return element.Value{}, err
		}
		return element.QuantityValue(*q), nil
	case jv.Ratio != nil:
		var r element.Ratio
		var err error
		if jv.Ratio.Numerator != nil {
			if r.Numerator, err = jv.Ratio.Numerator.toQuantity(); err != nil {
				return element.Value{}, err
			}
		}
		if jv.Ratio.Denominator != nil {
			if r.Denominator, err = jv.Ratio.Denominator.toQuantity(); err != nil {
				return element.Value{}, err
			}
		}
		return element.RatioValue(r), nil
	case jv.Reference != nil:
		return element.ReferenceValue(element.Reference(*jv.Reference)), nil
	case jv.CodeableConcept != nil:
		cc := element.CodeableConcept{Text: jv.CodeableConcept.Text}
		for _, c := range jv.CodeableConcept.Codings {
			cc.Codings = append(cc.Codings, element.Code(c))
		}
		return element.CodeableConceptValue(cc), nil
	default:
		return element.Value{}, fmt.Errorf("rule value has no payload")
	}
}

func (jq *jsonQuantity) toQuantity() (*element.Quantity, error) {
	q := &element.Quantity{Unit: jq.Unit, System: jq.System, Code: jq.Code}
	if jq.Value != nil {
		d, err := decimal.NewFromString(*jq.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity value %q: %w", *jq.Value, err)
		}
		q.Value = &d
	}
	return q, nil
}
