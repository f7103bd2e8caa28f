/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: composite.go
Description: Composite payload recipes. A recipe chains mutation steps sequentially, each step
consuming the previous step's whole output, so a module's mutation pipeline is declared in one
expression.
*/

package strategies

import "strings"

// Step transforms a payload sequence. Steps never modify their input.
type Step struct {
	name  string
	apply func([]string) []string
}

// Name describes the step
func (s Step) Name() string { return s.name }

// Apply runs the step
func (s Step) Apply(payloads []string) []string { return s.apply(payloads) }

// AppendStep wraps Append
func AppendStep(suffix string) Step {
	return Step{name: "append(" + suffix + ")", apply: func(p []string) []string { return Append(p, suffix) }}
}

// PrependStep wraps Prepend
func PrependStep(prefix string) Step {
	return Step{name: "prepend(" + prefix + ")", apply: func(p []string) []string { return Prepend(p, prefix) }}
}

// ReplaceStep wraps Replace
func ReplaceStep(from, to string) Step {
	return Step{name: "replace(" + from + "," + to + ")", apply: func(p []string) []string { return Replace(p, from, to) }}
}

// EncodeStep wraps PercentEncode
func EncodeStep() Step {
	return Step{name: "encode", apply: PercentEncode}
}

// Recipe applies its steps in order
type Recipe struct {
	steps []Step
}

// NewRecipe chains steps. An empty recipe passes payloads through unchanged.
func NewRecipe(steps ...Step) Recipe {
	return Recipe{steps: steps}
}

// Apply runs every step over the output of the previous one
func (r Recipe) Apply(payloads []string) []string {
	out := append([]string(nil), payloads...)
	for _, s := range r.steps {
		out = s.Apply(out)
	}
	return out
}

// Name lists the steps, e.g. "prepend(\">) -> encode"
func (r Recipe) Name() string {
	if len(r.steps) == 0 {
		return "identity"
	}
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name()
	}
	return strings.Join(names, " -> ")
}
