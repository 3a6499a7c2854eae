// Package document assembles the JSON analysis document consumed by the
// downstream structure-verification service. The layout mirrors the MNova
// export format: a flat object of named sections, each wrapping its payload
// in a datatype/count/data envelope with string-indexed entries.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Section is the common envelope for scalar and list payloads.
type Section struct {
	Datatype string         `json:"datatype"`
	Count    int            `json:"count"`
	Data     map[string]any `json:"data"`
}

// scalarSection wraps a single value under key "0".
func scalarSection(datatype string, value any) Section {
	return Section{Datatype: datatype, Count: 1, Data: map[string]any{"0": value}}
}

// listSection spreads values over keys "0".."n-1" in input order.
func listSection(datatype string, values []string) Section {
	data := make(map[string]any, len(values))
	for i, v := range values {
		data[strconv.Itoa(i)] = v
	}
	return Section{Datatype: datatype, Count: len(values), Data: data}
}

// emptySection is a named placeholder with no entries.
func emptySection(datatype string) Section {
	return Section{Datatype: datatype, Count: 0, Data: map[string]any{}}
}

// Document is an ordered set of named sections. Key order is the order
// sections were added, and marshalling preserves it so the serialized
// output is byte-stable for identical inputs.
type Document struct {
	keys     []string
	sections map[string]any
}

func newDocument() *Document {
	return &Document{sections: make(map[string]any)}
}

func (d *Document) add(key string, section any) {
	if _, exists := d.sections[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.sections[key] = section
}

// Keys returns the section names in document order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Section returns the named section.
func (d *Document) Section(key string) (any, bool) {
	s, ok := d.sections[key]
	return s, ok
}

// Len reports the number of sections.
func (d *Document) Len() int { return len(d.keys) }

// MarshalJSON renders the document with sections in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		payload, err := json.Marshal(d.sections[key])
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		buf.Write(payload)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
