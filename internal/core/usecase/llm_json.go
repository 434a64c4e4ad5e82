package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoJSONObject = errors.New("no json object in model output")

// decodeLLMObject parses a model answer into a JSON object. It strips
// markdown fences, cuts to the outermost braces and retries once with
// trailing commas removed.
func decodeLLMObject(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, errNoJSONObject
	}
	s = s[start : end+1]

	var out map[string]any
	err := json.Unmarshal([]byte(s), &out)
	if err == nil {
		return out, nil
	}
	fixed := strings.NewReplacer(",}", "}", ",]", "]").Replace(stripSpaceBeforeClosers(s))
	if err2 := json.Unmarshal([]byte(fixed), &out); err2 != nil {
		return nil, fmt.Errorf("parse model json: %w", err)
	}
	return out, nil
}

// stripSpaceBeforeClosers removes whitespace between a comma and the
// following '}' or ']' so the trailing comma fix sees ",}" and ",]".
func stripSpaceBeforeClosers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				b.WriteByte(',')
				i = j - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// remarshal decodes a generic JSON value into a typed target.
func remarshal(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
