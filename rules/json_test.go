package rules

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnmarshalDocument(t *testing.T) {
	data := []byte(`{
		"name": "BloodPressureProfile",
		"id": "blood-pressure",
		"parent": "Observation",
		"kind": "profile",
		"rules": [
			{"rule": "card", "path": "component", "min": 2, "max": "*",
			 "source": {"file": "bp.fsh", "line": 10, "column": 3}},
			{"rule": "flag", "path": "status", "mustSupport": true, "isSummary": true},
			{"rule": "only", "path": "value[x]", "targets": [{"type": "Quantity"}]},
			{"rule": "assignment", "path": "status", "exact": true,
			 "value": {"code": {"code": "final"}}},
			{"rule": "contains", "path": "component",
			 "items": [{"name": "SystolicBP", "min": 1, "max": "1"}]},
			{"rule": "slicing", "path": "component", "discriminatorType": "value",
			 "discriminatorPath": "code", "rules": "open"},
			{"rule": "obeys", "path": "",
			 "constraints": [{"key": "bp-1", "severity": "error", "human": "must have both"}]},
			{"rule": "binding", "path": "code", "valueSet": "http://example.org/vs", "strength": "required"},
			{"rule": "caret", "path": "", "caretPath": "status", "value": {"string": "active"}},
			{"rule": "insert", "ruleSet": "Metadata"}
		]
	}`)

	doc, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument failed: %v", err)
	}
	if doc.Name != "BloodPressureProfile" || doc.Parent != "Observation" {
		t.Errorf("Name/Parent = %q/%q; want BloodPressureProfile/Observation", doc.Name, doc.Parent)
	}
	if len(doc.Rules) != 10 {
		t.Fatalf("len(Rules) = %d; want 10", len(doc.Rules))
	}

	card, ok := doc.Rules[0].(*CardRule)
	if !ok {
		t.Fatalf("Rules[0] is %T; want *CardRule", doc.Rules[0])
	}
	if card.Min != 2 || card.Max != "*" || card.RulePath() != "component" {
		t.Errorf("card rule = %+v; want 2..* on component", card)
	}
	if src := card.RuleSource(); src.File != "bp.fsh" || src.Line != 10 || src.Column != 3 {
		t.Errorf("source = %+v; want bp.fsh:10:3", src)
	}

	flag := doc.Rules[1].(*FlagRule)
	if !flag.Flags.MustSupport || !flag.Flags.IsSummary || flag.Flags.IsModifier {
		t.Errorf("flags = %+v; want MS and SU", flag.Flags)
	}

	only := doc.Rules[2].(*OnlyRule)
	if len(only.Targets) != 1 || only.Targets[0].Type != "Quantity" {
		t.Errorf("only targets = %v; want [Quantity]", only.Targets)
	}

	assignment := doc.Rules[3].(*AssignmentRule)
	if !assignment.Exact || assignment.Value.Code == nil || assignment.Value.Code.Code != "final" {
		t.Errorf("assignment = %+v; want exact code final", assignment)
	}

	contains := doc.Rules[4].(*ContainsRule)
	if len(contains.Items) != 1 || contains.Items[0].Name != "SystolicBP" || contains.Items[0].Max != "1" {
		t.Errorf("contains items = %v; want SystolicBP 1..1", contains.Items)
	}

	insert := doc.Rules[9].(*InsertRule)
	if insert.RuleSet != "Metadata" {
		t.Errorf("RuleSet = %q; want Metadata", insert.RuleSet)
	}
}

func TestUnmarshalDocuments(t *testing.T) {
	data := []byte(`[
		{"name": "A", "parent": "Observation", "rules": []},
		{"name": "B", "parent": "Patient", "rules": [{"rule": "flag", "path": "name", "mustSupport": true}]}
	]`)

	docs, err := UnmarshalDocuments(data)
	if err != nil {
		t.Fatalf("UnmarshalDocuments failed: %v", err)
	}
	if len(docs) != 2 || docs[0].Name != "A" || docs[1].Name != "B" {
		t.Fatalf("docs = %v; want [A B]", docs)
	}
	if len(docs[1].Rules) != 1 {
		t.Errorf("len(docs[1].Rules) = %d; want 1", len(docs[1].Rules))
	}
}

func TestUnmarshalRuleErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			"unknown rule kind",
			`{"name": "X", "rules": [{"rule": "teleport", "path": "a"}]}`,
			"unknown rule kind",
		},
		{
			"assignment without value",
			`{"name": "X", "rules": [{"rule": "assignment", "path": "a"}]}`,
			"no value",
		},
		{
			"invalid decimal",
			`{"name": "X", "rules": [{"rule": "assignment", "path": "a", "value": {"decimal": "12.x"}}]}`,
			"invalid decimal",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalDocument([]byte(tc.data))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("UnmarshalDocument = %v; want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDecimalValuesAreExact(t *testing.T) {
	data := []byte(`{"name": "X", "rules": [
		{"rule": "assignment", "path": "a", "value": {"decimal": "0.1"}}
	]}`)
	doc, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument failed: %v", err)
	}
	v := doc.Rules[0].(*AssignmentRule).Value
	want, _ := decimal.NewFromString("0.1")
	if v.Decimal == nil || !v.Decimal.Equal(want) {
		t.Errorf("Decimal = %v; want exactly 0.1", v.Decimal)
	}
}

func TestFlagsSummary(t *testing.T) {
	f := Flags{MustSupport: true, IsModifier: true}
	got := f.Summary()
	if !strings.Contains(got, "MS") || !strings.Contains(got, "?!") || strings.Contains(got, "SU") {
		t.Errorf("Summary() = %q; want MS and ?! only", got)
	}
}
