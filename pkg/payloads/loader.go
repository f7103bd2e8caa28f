/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: loader.go
Description: Loads a payload corpus from a YAML file keyed by class name.
*/

package payloads

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML corpus such as
//
//	xss:
//	  - "<script>alert(__RANDOM_INT__)</script>"
//	sqli:
//	  - "'"
//
// Unknown class keys are rejected. Classes missing from the file are not
// filled from the defaults; Validate reports them.
func LoadFile(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML corpus document
func Parse(data []byte) (Corpus, error) {
	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse payload file: %w", err)
	}

	corpus := make(Corpus, len(raw))
	for key, templates := range raw {
		class := Class(key)
		if !class.Valid() {
			return nil, fmt.Errorf("unknown payload class %q", key)
		}
		corpus[class] = templates
	}
	return corpus, nil
}
