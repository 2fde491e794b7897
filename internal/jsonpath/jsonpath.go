// Package jsonpath pulls transcript text out of engine JSON responses with
// dot paths such as "results[0].alternatives[0].transcript".
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type step struct {
	key  string
	idxs []int
}

// Path is a compiled dot path.
type Path []step

// Compile parses a dot path. Each element is a key, optionally followed by
// indexes ("items[1]"), or indexes alone ("[0]").
func Compile(path string) (Path, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	var p Path
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := ParseKeyAndIndexes(part)
		if err != nil {
			return nil, err
		}
		p = append(p, step{key: key, idxs: idxs})
	}
	return p, nil
}

// Lookup walks root, as produced by json.Unmarshal into any.
func (p Path) Lookup(root any) (any, bool) {
	cur := root
	for _, s := range p {
		if s.key != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			next, exists := m[s.key]
			if !exists {
				return nil, false
			}
			cur = next
		}
		for _, idx := range s.idxs {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

// ExtractByPath returns the scalar at path as a string.
func ExtractByPath(root any, path string) (string, bool) {
	p, err := Compile(path)
	if err != nil {
		return "", false
	}
	v, ok := p.Lookup(root)
	if !ok {
		return "", false
	}
	return scalar(v)
}

func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// ExtractTextFromResponse returns the text at textPath, falling back to a
// top level "text" field and then to the first non-empty top level string.
func ExtractTextFromResponse(body []byte, textPath string) string {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return ""
	}

	if textPath != "" {
		if v, ok := ExtractByPath(root, textPath); ok {
			return v
		}
	}

	m, ok := root.(map[string]any)
	if !ok {
		return ""
	}
	if v, ok := scalar(m["text"]); ok {
		return v
	}
	for _, val := range m {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Span is one timed piece of text, in seconds.
type Span struct {
	Start float64
	End   float64
	Text  string
}

// ExtractSpans reads an array of {"start", "end", "text"} objects at path.
// It reports false when the path is missing or holds no usable entries.
func ExtractSpans(body []byte, path string) ([]Span, bool) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, false
	}
	p, err := Compile(path)
	if err != nil {
		return nil, false
	}
	v, ok := p.Lookup(root)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}

	var spans []Span
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, ok := m["text"].(string)
		if !ok {
			continue
		}
		start, _ := m["start"].(float64)
		end, _ := m["end"].(float64)
		spans = append(spans, Span{Start: start, End: end, Text: text})
	}
	return spans, len(spans) > 0
}

// ParseKeyAndIndexes parses a token like "foo[0][1]", "[0]" or "bar" into
// its key and indexes.
func ParseKeyAndIndexes(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty token")
	}
	br := strings.IndexByte(token, '[')
	if br == -1 {
		return token, nil, nil
	}
	key, rest := token[:br], token[br:]
	var idxs []int
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return "", nil, fmt.Errorf("missing closing ] in %s", token)
		}
		num := rest[1:end]
		if num == "" {
			return "", nil, fmt.Errorf("empty index in %s", token)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %s", num, token)
		}
		idxs = append(idxs, n)
		rest = rest[end+1:]
	}
	return key, idxs, nil
}
