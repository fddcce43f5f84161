package schema

import (
	"github.com/goliatone/go-regform/pkg/model"
)

// Field lists the rules applied to a single input, in evaluation order.
type Field struct {
	Name  string
	Rules []Rule
}

// Refinement is a cross-field rule. It only runs once Path and every field in
// DependsOn passed their own rules, and its message is attached to Path.
type Refinement struct {
	Path      string
	DependsOn []string
	Message   string
	Check     func(values map[string]any) bool
}

// Schema validates raw records against per-field rules and refinements. It
// holds no state beyond its rule lists and is safe for concurrent use.
type Schema struct {
	fields      []Field
	index       map[string]int
	refinements []Refinement
}

// New builds a schema. Field order determines nothing but iteration order;
// every field is checked independently.
func New(fields []Field, refinements ...Refinement) *Schema {
	s := &Schema{
		fields:      append([]Field(nil), fields...),
		index:       make(map[string]int, len(fields)),
		refinements: append([]Refinement(nil), refinements...),
	}
	for i, f := range s.fields {
		s.index[f.Name] = i
	}
	return s
}

// Fields returns the field names known to the schema.
func (s *Schema) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f.Name)
	}
	return out
}

// Validate runs every field and refinement over values. The result carries one
// message per failing field and is empty when the record is accepted.
func (s *Schema) Validate(values map[string]any) model.FieldErrors {
	errs := model.FieldErrors{}
	for _, f := range s.fields {
		if msg, ok := checkField(f, values[f.Name]); !ok {
			errs.Set(f.Name, msg)
		}
	}
	for _, r := range s.refinements {
		if !refinementReady(r, errs) {
			continue
		}
		if r.Check != nil && !r.Check(values) {
			errs.Set(r.Path, r.Message)
		}
	}
	return errs
}

// ValidateField re-checks a single field against values, including any
// refinement targeting it. It returns the failing message and false, or "" and
// true when the field is valid. Unknown fields are always valid.
func (s *Schema) ValidateField(name string, values map[string]any) (string, bool) {
	idx, ok := s.index[name]
	if !ok {
		return "", true
	}
	if msg, ok := checkField(s.fields[idx], values[name]); !ok {
		return msg, false
	}
	for _, r := range s.refinements {
		if r.Path != name {
			continue
		}
		dependenciesOK := true
		for _, dep := range r.DependsOn {
			if i, known := s.index[dep]; known {
				if _, ok := checkField(s.fields[i], values[dep]); !ok {
					dependenciesOK = false
					break
				}
			}
		}
		if dependenciesOK && r.Check != nil && !r.Check(values) {
			return r.Message, false
		}
	}
	return "", true
}

// Dependents lists the refinement targets that depend on field, e.g. a
// confirmation field that must be re-checked when the original changes.
func (s *Schema) Dependents(field string) []string {
	var out []string
	for _, r := range s.refinements {
		for _, dep := range r.DependsOn {
			if dep == field && r.Path != field {
				out = append(out, r.Path)
				break
			}
		}
	}
	return out
}

func checkField(f Field, value any) (string, bool) {
	for _, rule := range f.Rules {
		if !rule.Passes(value) {
			return rule.Message, false
		}
	}
	return "", true
}

func refinementReady(r Refinement, errs model.FieldErrors) bool {
	if errs.Has(r.Path) {
		return false
	}
	for _, dep := range r.DependsOn {
		if errs.Has(dep) {
			return false
		}
	}
	return true
}
