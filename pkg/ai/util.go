package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSONObject is returned when a model reply contains no parseable JSON
// object at all, balanced or otherwise.
var ErrNoJSONObject = errors.New("no json object found in input")

func stripDuplicateLeadingBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}

// StripCodeFences extracts the contents of the first fenced code block if the
// input contains one, otherwise returns the input unchanged. A fence opened
// but never closed is treated as running to the end of the input, which
// happens when the model reply is truncated.
func StripCodeFences(input string) string {
	trimmed := strings.TrimSpace(input)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		// language tag like "json" on the opening fence
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ExtractFirstJSONBlock scans the input for the first balanced JSON object and
// returns it. The scan is string-aware: braces inside quoted strings do not
// affect the balance. If the input contains an opening brace whose object is
// never closed (a truncated reply), or no brace at all, an error is returned.
func ExtractFirstJSONBlock(input string) (string, error) {
	start := strings.IndexByte(input, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(input); i++ {
		c := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced json object: %d unclosed brace(s)", depth)
}

// GenerateSchema creates a JSON Schema from the given Go type.
// It uses reflection to inspect the type structure and generates
// a schema suitable for use with model structured output.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnmarshalFlexible attempts to unmarshal JSON into the target with multiple
// fallback strategies, in order:
//
//  1. standard JSON unmarshaling
//  2. unwrapping a double-encoded JSON string
//  3. extracting a fenced code block
//  4. scanning for the first balanced JSON object (tolerates prose around
//     the payload)
//  5. repairing malformed JSON before parsing
//
// This is necessary for parsing model-generated JSON, which may be wrapped in
// prose, fenced, truncated or otherwise malformed.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = StripCodeFences(input)
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	if block, err := ExtractFirstJSONBlock(input); err == nil {
		if err := json.Unmarshal([]byte(block), out); err == nil {
			return nil
		}
		input = block
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	return fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
}
