package checks

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AssertJSON checks that the value at the dotted path key in body equals the
// JSON literal expected. Numeric path segments index into arrays.
func AssertJSON(body []byte, key, expected string) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("response body is not valid JSON")
	}

	var want any
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return fmt.Errorf("expected value for %q is not valid JSON", key)
	}

	got, ok := lookup(doc, key)
	if !ok {
		return fmt.Errorf("JSON key %q not found", key)
	}
	if !reflect.DeepEqual(got, want) {
		raw, _ := json.Marshal(got)
		return fmt.Errorf("JSON key %q is %s, expected %s", key, raw, expected)
	}
	return nil
}

func lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
