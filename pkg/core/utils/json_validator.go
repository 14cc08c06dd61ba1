package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ValidateJSON ensures that a json string matches the provided Go struct
// schema. Exported string fields must be non-empty unless tagged
// `llm:"optional"`; this catches models that silently drop required keys.
func ValidateJSON(jsonData string, schema interface{}) error {
	// 1. Basic Unmarshal check
	if err := json.Unmarshal([]byte(jsonData), schema); err != nil {
		return fmt.Errorf("JSON_STRUCTURAL_ERROR: %v", err)
	}

	// 2. Required-field check via reflection
	v := reflect.ValueOf(schema)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			sf := t.Field(i)

			if sf.Tag.Get("llm") == "optional" {
				continue
			}
			// Only string fields are hard requirements; slices and numbers
			// may legitimately be empty/zero.
			if field.Kind() == reflect.String && field.Len() == 0 {
				return fmt.Errorf("JSON_SCHEMA_VIOLATION: Required field '%s' is missing or empty", sf.Name)
			}
		}
	}

	return nil
}

// RepairJSON attempts to fix common JSON errors from LLM outputs:
// missing quotes around keys, single quotes, unclosed arrays/objects,
// trailing commas, comments, markdown code fences.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Hjson tolerates comments, unquoted keys and optional commas, which covers
// the most lenient LLM outputs.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}

	return string(jsonBytes), nil
}

// SmartParse tries multiple parsing strategies to extract valid JSON.
// Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
func SmartParse(input string, schema interface{}) (string, error) {
	// Try 1: Standard JSON
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	// Try 2: JSON Repair
	repaired, err := RepairJSON(input)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	// Try 3: Hjson (most lenient)
	hjsonResult, err := ParseHJSON(input)
	if err == nil {
		if err := json.Unmarshal([]byte(hjsonResult), schema); err == nil {
			return hjsonResult, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}
