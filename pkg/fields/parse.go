package fields

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var looseObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// ParseJSONObject recovers a JSON object from a model response. Models wrap
// JSON in fences, prefix it with prose, or truncate it; the recovery order
// is: strip fences, balanced-brace match from the first '{', then a loose
// regex for a flat object.
func ParseJSONObject(response string) (map[string]interface{}, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(response), &obj); err == nil {
		return obj, nil
	}

	if candidate := balancedBraces(response); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
	}

	if candidate := looseObjectPattern.FindString(response); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("no JSON object found in response: %.120s", response)
}

// balancedBraces returns the longest balanced {...} block starting at the
// first '{', respecting string literals.
func balancedBraces(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1]
			}
		}
	}
	return ""
}

// stringSliceField reads a JSON array of strings leniently: a single string
// or a comma-joined string both count.
func stringSliceField(obj map[string]interface{}, key string) []string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
