// Package exclusion removes unwanted channels from a log table before
// statistics are computed.
//
// Rules are keyed by value type. "<type>-long" lists exact "header - channel"
// names; "<type>-short" lists substrings, and a channel whose name contains
// any of them is removed wherever it appears.
package exclusion

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qcwatch/internal/logreader"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// Rules maps "<valueType>-long" and "<valueType>-short" to their patterns,
// the layout of the exclusion YAML file.
type Rules map[string][]string

// Filter applies a fixed rule set.
type Filter struct {
	long  map[types.ValueType]map[string]bool
	short map[types.ValueType][]string
}

// New builds a filter from rules. Keys that do not name a known value type
// are an error.
func New(rules Rules) (*Filter, error) {
	f := &Filter{
		long:  make(map[types.ValueType]map[string]bool),
		short: make(map[types.ValueType][]string),
	}
	for key, patterns := range rules {
		i := strings.LastIndex(key, "-")
		if i < 0 {
			return nil, fmt.Errorf("exclusion key %q: want <type>-long or <type>-short", key)
		}
		vt, kind := types.ValueType(key[:i]), key[i+1:]
		if !types.IsValidValueType(vt) {
			return nil, fmt.Errorf("exclusion key %q: %w", key, types.ErrInvalidValueType)
		}
		switch kind {
		case "long":
			set := f.long[vt]
			if set == nil {
				set = make(map[string]bool, len(patterns))
				f.long[vt] = set
			}
			for _, p := range patterns {
				set[p] = true
			}
		case "short":
			for _, p := range patterns {
				if p != "" {
					f.short[vt] = append(f.short[vt], p)
				}
			}
		default:
			return nil, fmt.Errorf("exclusion key %q: want <type>-long or <type>-short", key)
		}
	}
	return f, nil
}

// Load reads a YAML rule file. An empty path yields a filter that removes
// nothing.
func Load(path string) (*Filter, error) {
	if path == "" {
		return New(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exclusions: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing exclusions %s: %w", path, err)
	}
	return New(rules)
}

// Excluded reports whether the cell at k is removed for value type vt.
func (f *Filter) Excluded(vt types.ValueType, k logreader.Key) bool {
	if f == nil {
		return false
	}
	if f.long[vt][types.PropertyName(k.Header, k.Channel)] {
		return true
	}
	for _, p := range f.short[vt] {
		if strings.Contains(k.Channel, p) {
			return true
		}
	}
	return false
}

// Apply removes every excluded cell from t and returns how many were removed.
func (f *Filter) Apply(t *logreader.Table, vt types.ValueType) int {
	return t.Retain(func(k logreader.Key) bool {
		return !f.Excluded(vt, k)
	})
}
