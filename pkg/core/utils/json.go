package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common defects in model-generated JSON: missing quotes,
// trailing commas, unclosed arrays and stray code fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts Hjson (comments, unquoted keys, optional commas) to JSON.
func ParseHJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := hjson.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("hjson parse failed: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal failed: %w", err)
	}
	return out, nil
}

// SmartParse decodes input into v, trying in order:
//  1. Standard JSON
//  2. Repaired JSON
//  3. Hjson
func SmartParse(input string, v interface{}) error {
	if err := json.Unmarshal([]byte(input), v); err == nil {
		return nil
	}
	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}
	if converted, err := ParseHJSON([]byte(input)); err == nil {
		if err := json.Unmarshal(converted, v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("smart parse failed: no strategy produced valid JSON")
}
