// Package engine implements the rule application engine: an ordered
// interpreter that applies typed rule records to a working element tree,
// resolving target paths (including soft indexing and slice names),
// isolating per-rule failures as diagnostics, and finalizing the tree into
// snapshot and differential views.
package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	fsh "github.com/FHIR/sushi-sub009"
	"github.com/FHIR/sushi-sub009/element"
	"github.com/FHIR/sushi-sub009/rules"
)

// Engine compiles rule documents against base definitions resolved through
// a fisher. Engines are safe for concurrent use once configured: all
// per-compilation state lives on the tree being built.
type Engine struct {
	fisher    element.Fisher
	opts      *fsh.Options
	logger    zerolog.Logger
	canonical string
	ruleSets  map[string][]rules.Rule
	stats     *fsh.Stats
}

// New creates an engine over the given fisher. Pass zerolog.Nop() to silence
// batch-progress logging; the per-rule core never logs.
func New(f element.Fisher, opts *fsh.Options, logger zerolog.Logger) *Engine {
	if opts == nil {
		opts = fsh.DefaultOptions()
	}
	return &Engine{
		fisher:   f,
		opts:     opts,
		logger:   logger,
		ruleSets: make(map[string][]rules.Rule),
		stats:    &fsh.Stats{},
	}
}

// SetCanonical sets the canonical URL base used to mint artifact URLs.
func (e *Engine) SetCanonical(canonical string) {
	e.canonical = strings.TrimSuffix(canonical, "/")
}

// RegisterRuleSet registers a named, reusable rule sequence for insert rules.
func (e *Engine) RegisterRuleSet(name string, rs []rules.Rule) {
	e.ruleSets[name] = rs
}

// Stats returns the engine's cumulative compile metrics.
func (e *Engine) Stats() fsh.StatsSnapshot {
	return e.stats.Snapshot()
}

// Compile applies the document's rules, in declaration order, to a working
// copy of its parent definition. Rule failures are recorded as diagnostics
// and never abort the artifact; only an unresolvable parent is fatal. The
// returned tree is nil exactly when the result is marked failed.
func (e *Engine) Compile(doc *rules.Document) (*element.StructureDefinition, *fsh.Result) {
	result := fsh.NewResult(doc.Name)

	sd, err := element.FromBase(doc.Parent, e.fisher)
	if err != nil {
		result.AddIssue(fsh.NewIssue(fsh.SeverityFatal).
			Kind(kindOf(err)).
			Message(fmt.Sprintf("cannot compile %s: %v", doc.Name, err)).
			Build())
		return nil, result
	}
	e.applyMetadata(sd, doc)

	ruleSeq, expandIssues := e.expandRuleSets(doc.Rules, nil)
	result.AddIssues(expandIssues)

	paths, softIssues := e.ResolveSoftIndexing(ruleSeq)
	result.AddIssues(softIssues)

	applied := 0
	for i, rule := range ruleSeq {
		if e.opts.MaxIssues > 0 && result.ErrorCount() >= e.opts.MaxIssues {
			result.AddIssue(fsh.WarningIssue().
				Message(fmt.Sprintf("stopped after %d errors; remaining rules skipped", e.opts.MaxIssues)).
				Build())
			break
		}
		if err := e.applyRule(sd, rule, paths[i], result); err != nil {
			result.AddIssue(ruleIssue(rule, paths[i], err))
			continue
		}
		applied++
	}
	e.stats.RecordRules(applied)

	if err := sd.Validate(); err != nil {
		result.AddIssue(fsh.ErrorIssue().
			Kind(kindOf(err)).
			Message(err.Error()).
			Build())
	}
	return sd, result
}

// applyMetadata stamps the document's identity onto the working tree.
func (e *Engine) applyMetadata(sd *element.StructureDefinition, doc *rules.Document) {
	sd.BaseDefinition = sd.URL
	sd.Name = doc.Name
	sd.ID = doc.ID
	if sd.ID == "" {
		sd.ID = doc.Name
	}
	sd.Title = doc.Title
	sd.Description = doc.Description
	sd.Derivation = "constraint"
	if e.canonical != "" {
		sd.URL = e.canonical + "/StructureDefinition/" + sd.ID
	}
	switch doc.Kind {
	case "extension":
		sd.Kind = "complex-type"
	case "logical":
		sd.Kind = "logical"
		sd.Derivation = "specialization"
	case "resource":
		sd.Kind = "resource"
		sd.Derivation = "specialization"
	}
}

// applyRule resolves the rule's target and dispatches to the matching
// element operation. The switch is exhaustive over the rule union.
func (e *Engine) applyRule(sd *element.StructureDefinition, rule rules.Rule, path string, result *fsh.Result) error {
	switch r := rule.(type) {
	case *rules.CaretValueRule:
		if path == "" || path == "." {
			return e.applyDefinitionCaret(sd, r)
		}
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return applyElementCaret(target, r)

	case *rules.CardRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return target.ConstrainCardinality(r.Min, r.Max)

	case *rules.OnlyRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		targets := make([]element.TypeTarget, 0, len(r.Targets))
		for _, t := range r.Targets {
			targets = append(targets, element.TypeTarget{
				Name:        t.Type,
				IsReference: t.IsReference,
				IsCanonical: t.IsCanonical,
			})
		}
		return target.ConstrainType(targets, e.fisher)

	case *rules.FlagRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return target.ApplyFlags(r.Flags.MustSupport, r.Flags.IsModifier, r.Flags.IsSummary, r.Flags.StandardsStatus)

	case *rules.AssignmentRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return target.AssignValue(r.Value, r.Exact)

	case *rules.SlicingRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return target.SliceIt(r.DiscriminatorType, r.DiscriminatorPath, r.Ordered, r.Rules)

	case *rules.ContainsRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return e.applyContains(target, r, result)

	case *rules.ObeysRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		for _, c := range r.Constraints {
			target.AddConstraint(c)
		}
		return nil

	case *rules.BindingRule:
		target, err := sd.FindElementByPath(path, e.fisher)
		if err != nil {
			return err
		}
		return target.BindToValueSet(r.ValueSet, r.Strength)

	case *rules.InsertRule:
		// Insert rules are expanded before application; one surviving here
		// references an unknown rule set.
		return fmt.Errorf("rule set %q is not defined", r.RuleSet)

	default:
		return fmt.Errorf("unsupported rule type %T", rule)
	}
}

// applyContains declares the rule's slices on the target, synthesizing the
// conventional slicing definition when the target has none: extension
// elements are discriminated by url, everything else gets a value/$this
// default (with a warning) when AutoSlicing is on.
func (e *Engine) applyContains(target *element.Element, r *rules.ContainsRule, result *fsh.Result) error {
	if target.Slicing == nil {
		last := target.Path[strings.LastIndexByte(target.Path, '.')+1:]
		switch {
		case last == "extension" || last == "modifierExtension":
			if err := target.SliceIt("value", "url", false, element.SlicingOpen); err != nil {
				return err
			}
		case e.opts.AutoSlicing:
			if err := target.SliceIt("value", "$this", false, element.SlicingOpen); err != nil {
				return err
			}
			result.AddIssue(fsh.WarningIssue().
				At(target.ID).
				Position(r.Source.File, r.Source.Line, r.Source.Column).
				Message("no slicing defined; defaulted to discriminator value on $this (declare slicing explicitly)").
				Build())
		default:
			return &element.MissingSlicingError{Path: target.ID}
		}
	}

	for _, item := range r.Items {
		sliceType, err := e.resolveContainsType(target, item)
		if err != nil {
			return err
		}
		slice, err := target.AddSlice(item.Name, sliceType)
		if err != nil {
			return err
		}
		if item.Min > 0 || item.Max != "" {
			max := item.Max
			if max == "" {
				max = slice.Max
			}
			if err := slice.ConstrainCardinality(item.Min, max); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveContainsType maps a contains item's optional type to the slice's
// element type. Named extensions and profiles become a profiled type; plain
// names stay as-is.
func (e *Engine) resolveContainsType(target *element.Element, item rules.ContainsItem) (*element.Type, error) {
	if item.Type == "" {
		return nil, nil
	}
	md, err := e.fisher.FishForMetadata(item.Type,
		element.KindExtension, element.KindProfile, element.KindResource, element.KindType)
	if err != nil {
		// Not a known artifact; treat as a literal type code (choice slices).
		return &element.Type{Code: item.Type}, nil
	}
	switch md.Kind {
	case element.KindExtension:
		return &element.Type{Code: "Extension", Profiles: []string{md.URL}}, nil
	case element.KindProfile:
		code := md.ResourceType
		if code == "" {
			code = md.Name
		}
		return &element.Type{Code: code, Profiles: []string{md.URL}}, nil
	default:
		return &element.Type{Code: md.Name}, nil
	}
}

// applyDefinitionCaret sets artifact-level metadata reached via a caret path.
func (e *Engine) applyDefinitionCaret(sd *element.StructureDefinition, r *rules.CaretValueRule) error {
	switch r.CaretPath {
	case "url":
		return caretString(&sd.URL, r)
	case "version":
		return caretString(&sd.Version, r)
	case "status":
		return caretString(&sd.Status, r)
	case "title":
		return caretString(&sd.Title, r)
	case "description":
		return caretString(&sd.Description, r)
	case "experimental":
		if r.Value.Boolean == nil {
			return fmt.Errorf("caret path experimental requires a boolean value, got %s", r.Value.Kind())
		}
		sd.Experimental = *r.Value.Boolean
		return nil
	case "abstract":
		if r.Value.Boolean == nil {
			return fmt.Errorf("caret path abstract requires a boolean value, got %s", r.Value.Kind())
		}
		sd.Abstract = *r.Value.Boolean
		return nil
	default:
		return fmt.Errorf("unsupported definition caret path %q", r.CaretPath)
	}
}

// applyElementCaret sets element-level metadata reached via a caret path.
func applyElementCaret(target *element.Element, r *rules.CaretValueRule) error {
	switch r.CaretPath {
	case "short":
		return caretElementString(&target.Short, r)
	case "definition":
		return caretElementString(&target.Definition, r)
	case "comment":
		return caretElementString(&target.Comment, r)
	default:
		return fmt.Errorf("unsupported element caret path %q", r.CaretPath)
	}
}

func caretString(dst *string, r *rules.CaretValueRule) error {
	if r.Value.String == nil {
		return fmt.Errorf("caret path %s requires a string value, got %s", r.CaretPath, r.Value.Kind())
	}
	*dst = *r.Value.String
	return nil
}

func caretElementString(dst *string, r *rules.CaretValueRule) error {
	return caretString(dst, r)
}

// expandRuleSets splices registered rule sets into the sequence in place of
// insert rules. Expansion is cycle-guarded; an unknown or cyclic rule set
// leaves the insert rule in place to surface a diagnostic at apply time.
func (e *Engine) expandRuleSets(seq []rules.Rule, visiting []string) ([]rules.Rule, []fsh.Issue) {
	var out []rules.Rule
	var issues []fsh.Issue
	for _, rule := range seq {
		insert, ok := rule.(*rules.InsertRule)
		if !ok {
			out = append(out, rule)
			continue
		}
		if cycleIn(visiting, insert.RuleSet) {
			issues = append(issues, fsh.ErrorIssue().
				Position(insert.Source.File, insert.Source.Line, insert.Source.Column).
				Message(fmt.Sprintf("rule set %q inserts itself (chain: %s)",
					insert.RuleSet, strings.Join(append(visiting, insert.RuleSet), " -> "))).
				Build())
			continue
		}
		rs, ok := e.ruleSets[insert.RuleSet]
		if !ok {
			out = append(out, rule)
			continue
		}
		expanded, nested := e.expandRuleSets(rs, append(visiting, insert.RuleSet))
		issues = append(issues, nested...)
		out = append(out, rebaseRules(expanded, insert.RulePath())...)
	}
	return out, issues
}

func cycleIn(visiting []string, name string) bool {
	for _, v := range visiting {
		if v == name {
			return true
		}
	}
	return false
}

// rebaseRules prefixes an inserted rule set's paths with the insert rule's
// own target path, so rule sets can be written relative to any context.
func rebaseRules(seq []rules.Rule, prefix string) []rules.Rule {
	if prefix == "" || prefix == "." {
		return seq
	}
	out := make([]rules.Rule, 0, len(seq))
	for _, rule := range seq {
		out = append(out, withPath(rule, joinRulePath(prefix, rule.RulePath())))
	}
	return out
}

func joinRulePath(prefix, path string) string {
	if path == "" || path == "." {
		return prefix
	}
	return prefix + "." + path
}

// withPath returns a copy of the rule with its path replaced.
func withPath(rule rules.Rule, path string) rules.Rule {
	switch r := rule.(type) {
	case *rules.CardRule:
		c := *r
		c.Path = path
		return &c
	case *rules.OnlyRule:
		c := *r
		c.Path = path
		return &c
	case *rules.FlagRule:
		c := *r
		c.Path = path
		return &c
	case *rules.AssignmentRule:
		c := *r
		c.Path = path
		return &c
	case *rules.SlicingRule:
		c := *r
		c.Path = path
		return &c
	case *rules.ContainsRule:
		c := *r
		c.Path = path
		return &c
	case *rules.ObeysRule:
		c := *r
		c.Path = path
		return &c
	case *rules.BindingRule:
		c := *r
		c.Path = path
		return &c
	case *rules.CaretValueRule:
		c := *r
		c.Path = path
		return &c
	case *rules.InsertRule:
		c := *r
		c.Path = path
		return &c
	default:
		return rule
	}
}

// ruleIssue converts a contract violation into a diagnostic carrying the
// rule's source location.
func ruleIssue(rule rules.Rule, path string, err error) fsh.Issue {
	src := rule.RuleSource()
	return fsh.ErrorIssue().
		Kind(kindOf(err)).
		Message(err.Error()).
		At(path).
		Position(src.File, src.Line, src.Column).
		Build()
}

// kindOf tags an error with its concrete type name, e.g.
// "WideningCardinalityError".
func kindOf(err error) string {
	name := fmt.Sprintf("%T", err)
	if idx := strings.LastIndexByte(name, '.'); idx != -1 {
		name = name[idx+1:]
	}
	return strings.TrimPrefix(name, "*")
}
