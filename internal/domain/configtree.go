package domain

import (
	"strconv"
	"strings"
)

// ConfigTree is a read-only snapshot of the merchant's hierarchical settings,
// keyed by slash-delimited paths ("postnl_settings/mailbox/weight"). It is
// loaded once per operation; the decision components never write to it.
type ConfigTree struct {
	values map[string]string
}

// NewConfigTree wraps the provided flat path map. The map is copied so later
// mutation by the caller cannot leak into a running computation.
func NewConfigTree(values map[string]string) ConfigTree {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[strings.Trim(k, "/")] = v
	}
	return ConfigTree{values: copied}
}

// Value returns the raw string at path, reporting presence separately so
// callers can distinguish "" from absent.
func (t ConfigTree) Value(path string) (string, bool) {
	v, ok := t.values[strings.Trim(path, "/")]
	return v, ok
}

// Bool interprets the value at path as a configuration flag. Absent keys and
// unrecognised values are false.
func (t ConfigTree) Bool(path string) bool {
	v, ok := t.Value(path)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Float parses the value at path as a decimal number, tolerating a comma
// decimal separator. Absent or unparsable values yield zero.
func (t ConfigTree) Float(path string) float64 {
	v, ok := t.Value(path)
	if !ok {
		return 0
	}
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Int parses the value at path as an integer; absent or unparsable values
// yield zero.
func (t ConfigTree) Int(path string) int {
	v, ok := t.Value(path)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// Group returns the direct and nested children under prefix as a map keyed by
// the remaining path. The boolean is false when no key lives under the prefix,
// which callers treat as a missing settings group.
func (t ConfigTree) Group(prefix string) (map[string]string, bool) {
	prefix = strings.Trim(prefix, "/") + "/"
	out := make(map[string]string)
	for k, v := range t.values {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Values returns a copy of the full path map for inspection surfaces.
func (t ConfigTree) Values() map[string]string {
	out := make(map[string]string, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
