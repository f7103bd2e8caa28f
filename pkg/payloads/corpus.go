/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: corpus.go
Description: Raw payload templates per vulnerability class and their interpolation into
concrete base payloads. Templates carry two placeholders: the valid parameter value of
the bound target and the random marker integer drawn once per fuzz run.
*/

package payloads

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholders recognised inside payload templates
const (
	ValidParamPlaceholder = "__VALID_PARAM__"
	RandomIntPlaceholder  = "__RANDOM_INT__"
)

// Class identifies a vulnerability class. The string value doubles as the
// vuln_type reported on findings.
type Class string

const (
	ClassXSS       Class = "xss"
	ClassSQLi      Class = "sqli"
	ClassBSQLi     Class = "bsqli"
	ClassTraversal Class = "trav"
	ClassMXI       Class = "mxi"
	ClassXPathI    Class = "xpathi"
	ClassOSCI      Class = "osci"
)

// Classes lists every class in fuzzing order
var Classes = []Class{
	ClassXSS,
	ClassSQLi,
	ClassBSQLi,
	ClassTraversal,
	ClassMXI,
	ClassXPathI,
	ClassOSCI,
}

// Valid reports whether c is one of the seven known classes
func (c Class) Valid() bool {
	for _, known := range Classes {
		if c == known {
			return true
		}
	}
	return false
}

// ConfigError reports a class whose template sequence is empty or missing
type ConfigError struct {
	Class Class
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("payload corpus has no templates for class %q", e.Class)
}

// Corpus maps each class to its raw payload templates
type Corpus map[Class][]string

// Interpolate resolves both placeholders in every template. It is pure:
// the same inputs always produce the same base payloads.
func Interpolate(templates []string, baseline string, marker int) ([]string, error) {
	if len(templates) == 0 {
		return nil, &ConfigError{}
	}

	markerStr := strconv.Itoa(marker)
	base := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		p := strings.ReplaceAll(tmpl, ValidParamPlaceholder, baseline)
		p = strings.ReplaceAll(p, RandomIntPlaceholder, markerStr)
		base = append(base, p)
	}
	return base, nil
}

// Interpolate resolves the templates of all seven classes
func (c Corpus) Interpolate(baseline string, marker int) (map[Class][]string, error) {
	resolved := make(map[Class][]string, len(Classes))
	for _, class := range Classes {
		base, err := Interpolate(c[class], baseline, marker)
		if err != nil {
			return nil, &ConfigError{Class: class}
		}
		resolved[class] = base
	}
	return resolved, nil
}

// Validate checks that every class has at least one template
func (c Corpus) Validate() error {
	for _, class := range Classes {
		if len(c[class]) == 0 {
			return &ConfigError{Class: class}
		}
	}
	return nil
}
