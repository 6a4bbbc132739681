package weather

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownVariable is returned for a variable name with no parameter mapping.
var ErrUnknownVariable = errors.New("unknown variable")

// ParameterMap maps user-facing variable names (temperature, humidity, ...)
// to provider parameter codes.
type ParameterMap map[string][]string

// DefaultParameters is the mapping used when none is configured.
func DefaultParameters() ParameterMap {
	return ParameterMap{
		"temperature": {"T2M", "T2M_MAX", "T2M_MIN"},
		"humidity":    {"RH2M", "QV2M"},
		"pressure":    {"PS"},
	}
}

// Variables returns the variable names in sorted order.
func (m ParameterMap) Variables() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand resolves variable names to parameter codes, without duplicates and
// in order of first appearance. No names means every variable.
func (m ParameterMap) Expand(variables []string) ([]string, error) {
	if len(variables) == 0 {
		variables = m.Variables()
	}

	seen := make(map[string]struct{})
	var codes []string
	for _, v := range variables {
		name := strings.ToLower(strings.TrimSpace(v))
		mapped, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, v)
		}
		for _, code := range mapped {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// ParseParameterMap parses "temperature=T2M|T2M_MAX;pressure=PS".
func ParseParameterMap(s string) (ParameterMap, error) {
	m := make(ParameterMap)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, codes, ok := strings.Cut(entry, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter mapping %q", entry)
		}
		for _, code := range strings.Split(codes, "|") {
			code = strings.TrimSpace(code)
			if code != "" {
				m[name] = append(m[name], code)
			}
		}
		if len(m[name]) == 0 {
			return nil, fmt.Errorf("parameter mapping %q has no codes", name)
		}
	}
	if len(m) == 0 {
		return nil, errors.New("empty parameter mapping")
	}
	return m, nil
}
