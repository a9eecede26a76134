// Package query parses and validates user queries against the per-module
// field and operator schema. A query selects the records an export run
// starts from; everything else is pulled in by dependency resolution.
package query

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/contentstack/cli-query-export/types"
)

// recognized query file extensions mapped to their decoders.
var fileDecoders = map[string]func([]byte, interface{}) error{
	".json": json.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
}

// Parse builds a StructuredQuery from input, which is either a path to a
// query file (recognized by extension) or a raw JSON string. The result
// is read-only for the rest of the run.
func Parse(input string) (*types.StructuredQuery, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, &ParseError{Source: "<inline>", Err: fmt.Errorf("empty query")}
	}

	if decode, ok := fileDecoders[strings.ToLower(filepath.Ext(input))]; ok {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, &ParseError{Source: input, Err: err}
		}
		q, err := decodeQuery(data, decode)
		if err != nil {
			return nil, &ParseError{Source: input, Err: err}
		}
		return q, nil
	}

	q, err := decodeQuery([]byte(input), json.Unmarshal)
	if err != nil {
		return nil, &ParseError{Source: "<inline>", Err: err}
	}
	return q, nil
}

func decodeQuery(data []byte, decode func([]byte, interface{}) error) (*types.StructuredQuery, error) {
	var raw struct {
		Modules map[string]map[string]interface{} `json:"modules" yaml:"modules"`
	}
	if err := decode(data, &raw); err != nil {
		return nil, err
	}

	q := &types.StructuredQuery{Modules: make(map[types.Module]map[string]interface{}, len(raw.Modules))}
	for name, filter := range raw.Modules {
		// YAML decodes nested maps as map[string]interface{} under
		// yaml.v3, so no key normalization is needed here; unknown
		// module names are the validator's concern, not the parser's.
		q.Modules[types.Module(name)] = filter
	}
	return q, nil
}
