package sensor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseStrategy is one way of recovering a JSON value from document text.
// Strategies run in priority order; the first success wins and the failure
// reasons of the ones tried before it are kept for diagnostics.
type parseStrategy struct {
	name string
	fn   func(string) (any, error)
}

var parseStrategies = []parseStrategy{
	{"direct", parseDirect},
	{"jsonlines", parseJSONLines},
	{"salvage", parseSalvage},
}

// ParseDocument decodes document text with the prioritized strategy list.
// On total failure it returns nil plus one reason per strategy tried.
func ParseDocument(text string) (any, []string) {
	var failures []string
	for _, s := range parseStrategies {
		v, err := s.fn(text)
		if err == nil {
			return v, failures
		}
		failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
	}
	return nil, failures
}

func parseDirect(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseJSONLines handles line-delimited JSON. A single decodable line
// yields that value; multiple lines yield a list.
func parseJSONLines(text string) (any, error) {
	var objects []any
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, fmt.Errorf("line %q: %w", truncate(line, 40), err)
		}
		objects = append(objects, v)
	}
	switch len(objects) {
	case 0:
		return nil, fmt.Errorf("no non-empty lines")
	case 1:
		return objects[0], nil
	default:
		return objects, nil
	}
}

// parseSalvage scans for the outermost brace or bracket pair and decodes
// whatever sits between them, recovering objects embedded in noise.
func parseSalvage(text string) (any, error) {
	start := strings.Index(text, "{")
	if alt := strings.Index(text, "["); alt != -1 && (start == -1 || alt < start) {
		start = alt
	}
	end := strings.LastIndex(text, "}")
	if alt := strings.LastIndex(text, "]"); alt > end {
		end = alt
	}
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no brace or bracket pair found")
	}
	var v any
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
