/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: modules.go
Description: The closed table of vulnerability modules. Each entry pairs a mutation recipe over
the bound target's interpolated payloads with the evaluator and signature set that decide
whether a response confirms the vulnerability.
*/

package core

import (
	"fmt"
	"iter"

	"github.com/kleascm/punk-fuzzer/pkg/analysis"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/kleascm/punk-fuzzer/pkg/strategies"
	"github.com/kleascm/punk-fuzzer/pkg/target"
)

// Database error fingerprints for error-based SQL injection
var sqlErrorSignatures = []string{
	"you have an error in your sql syntax",
	"supplied argument is not a valid mysql",
	"[microsoft][odbc microsoft acess driver]",
	"[microsoft][odbc sql server driver]",
	"microsoft ole db provider for odbc drivers",
	"java.sql.sqlexception: syntax error or access violation",
	"postgresql query failed: error: parser:",
	"db2 sql error:",
	"dynamic sql error",
	"sybase message:",
	"ora-01756: quoted string not properly terminated",
	"ora-00933: sql command not properly ended",
	"pls-00306: wrong number or types",
	"incorrect syntax near",
	"unclosed quotation mark before",
	"syntax error containing the varchar value",
	"ora-01722: invalid number",
	"ora-01858: a non-numeric character was found where a numeric was expected",
	"ora-00920: invalid relational operator",
	"ora-00920: missing right parenthesis",
}

// File contents that leak through traversal or command execution
var fileDisclosureSignatures = []string{"root:x:", "[font]"}

var mailCommandSignatures = []string{
	"unexpected extra arguments to select",
	"Bad or malformed request",
	"Could not access the following folders",
	"invalid mailbox name",
	"go to the folders page",
}

// XPath engine errors, after the w3af xpath audit plugin
var xpathErrorSignatures = []string{
	"System.Xml.XPath.XPathException:",
	"MS.Internal.Xml.",
	"Unknown error in XPath",
	"org.apache.xpath.XPath",
	"A closing bracket expected in",
	"An operand in Union Expression does not produce a node-set",
	"Cannot convert expression to a number",
	"Document Axis does not allow any context Location Steps",
	"Empty Path Expression",
	"DOMXPath::",
	"Empty Relative Location Path",
	"Empty Union Expression",
	"Expected ')' in",
	"Expected node test or name specification after axis operator",
	"Incompatible XPath key",
	"Incorrect Variable Binding",
	"libxml2 library function failed",
	"libxml2",
	"xmlsec library function",
	"xmlsec",
	"error '80004005'",
	"A document must contain exactly one root element.",
	`<font face="Arial" size=2>Expression must evaluate to a node-set.`,
	"Expected token ']'",
	"<p>msxml4.dll</font>",
	"<p>msxml3.dll</font>",
	"4005 Notes error: Query is not understandable",
}

var (
	xssRecipe = strategies.NewRecipe(
		strategies.PrependStep(`">`),
		strategies.EncodeStep(),
		strategies.ReplaceStep(`"`, `'`),
	)
	sqliRecipe   = strategies.NewRecipe(strategies.AppendStep(")"), strategies.EncodeStep())
	encodeRecipe = strategies.NewRecipe(strategies.EncodeStep())
)

// Module describes one vulnerability class: the status label announced
// before it runs, how its payloads are mutated into probes, and how the
// responses are evaluated.
type Module struct {
	Class      payloads.Class
	Label      string
	Signatures []string
	// Recipe mutates the interpolated payloads. Blind SQL builds pairs instead.
	Recipe strategies.Recipe

	probes    func(t *target.Target) iter.Seq[analysis.Probe]
	evaluator func(t *target.Target, cfg *Config) analysis.Evaluator
}

// Probes returns the lazy probe sequence for t
func (m Module) Probes(t *target.Target) iter.Seq[analysis.Probe] {
	return m.probes(t)
}

// Evaluator builds the evaluator for t under cfg
func (m Module) Evaluator(t *target.Target, cfg *Config) analysis.Evaluator {
	return m.evaluator(t, cfg)
}

// Modules returns the module table in fuzz order
func Modules() []Module {
	return []Module{
		{
			Class:  payloads.ClassXSS,
			Label:  "Starting XSS fuzz",
			Recipe: xssRecipe,
			probes: func(t *target.Target) iter.Seq[analysis.Probe] {
				return singleProbes(t, xssRecipe.Apply(t.Payloads(payloads.ClassXSS)))
			},
			evaluator: func(t *target.Target, cfg *Config) analysis.Evaluator {
				return &analysis.TagScopedMatch{
					Tag:         "script",
					Needles:     []string{xssNeedle(t.Marker)},
					MemoryLimit: cfg.PageMemoryLoadLimit,
				}
			},
		},
		substringModule(payloads.ClassSQLi, "Starting SQLi fuzz", sqlErrorSignatures, sqliRecipe),
		{
			Class: payloads.ClassBSQLi,
			Label: "Starting bsqli fuzz",
			probes: func(t *target.Target) iter.Seq[analysis.Probe] {
				return pairedProbes(t, strategies.BooleanPairs(t.Payloads(payloads.ClassBSQLi)))
			},
			evaluator: func(_ *target.Target, cfg *Config) analysis.Evaluator {
				return &analysis.DifferentialLengthMatch{
					Threshold: cfg.DifferentialThreshold,
					Tolerance: cfg.StabilityTolerance,
				}
			},
		},
		substringModule(payloads.ClassTraversal, "Starting trav fuzz", fileDisclosureSignatures, encodeRecipe),
		substringModule(payloads.ClassMXI, "Starting mxi fuzz", mailCommandSignatures, encodeRecipe),
		substringModule(payloads.ClassXPathI, "Starting xpathi fuzz", xpathErrorSignatures, encodeRecipe),
		substringModule(payloads.ClassOSCI, "Starting osci fuzz", fileDisclosureSignatures, encodeRecipe),
	}
}

// ModuleFor looks a module up by class
func ModuleFor(class payloads.Class) (Module, bool) {
	for _, m := range Modules() {
		if m.Class == class {
			return m, true
		}
	}
	return Module{}, false
}

func substringModule(class payloads.Class, label string, signatures []string, recipe strategies.Recipe) Module {
	return Module{
		Class:      class,
		Label:      label,
		Signatures: signatures,
		Recipe:     recipe,
		probes: func(t *target.Target) iter.Seq[analysis.Probe] {
			return singleProbes(t, recipe.Apply(t.Payloads(class)))
		},
		evaluator: func(*target.Target, *Config) analysis.Evaluator {
			return analysis.NewSubstringMatch(signatures)
		},
	}
}

func xssNeedle(marker int) string {
	return fmt.Sprintf("alert(%d)", marker)
}

// singleProbes rebuilds URLs only as the evaluator pulls them
func singleProbes(t *target.Target, mutated []string) iter.Seq[analysis.Probe] {
	return func(yield func(analysis.Probe) bool) {
		for _, p := range mutated {
			if !yield(analysis.Probe{URL: t.Rebuild(p), Payload: p}) {
				return
			}
		}
	}
}

func pairedProbes(t *target.Target, pairs []strategies.Pair) iter.Seq[analysis.Probe] {
	return func(yield func(analysis.Probe) bool) {
		for _, p := range pairs {
			probe := analysis.Probe{
				URL:            t.Rebuild(p.True),
				Payload:        p.True,
				ControlURL:     t.Rebuild(p.False),
				ControlPayload: p.False,
			}
			if !yield(probe) {
				return
			}
		}
	}
}
