package domain

import "sort"

// ParameterSet maps parameter names to parsed values. A set is built once
// when its file is parsed and treated as read-only afterward; each name maps
// to exactly one value.
type ParameterSet map[string]Value

// Lookup returns the value for name and whether it is present.
func (p ParameterSet) Lookup(name string) (Value, bool) {
	v, ok := p[name]
	return v, ok
}

// Get returns the value for name, or the zero Value when absent.
func (p ParameterSet) Get(name string) Value {
	return p[name]
}

// GetDefault returns the value for name, or def when absent.
func (p ParameterSet) GetDefault(name string, def Value) Value {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Names returns all parameter names in sorted order.
func (p ParameterSet) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of parameters in the set.
func (p ParameterSet) Len() int { return len(p) }

// Clone returns an independent copy of the set.
func (p ParameterSet) Clone() ParameterSet {
	if p == nil {
		return nil
	}
	cp := make(ParameterSet, len(p))
	for name, v := range p {
		cp[name] = v
	}
	return cp
}
