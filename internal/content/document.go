// Package content models schemaless documents returned by the search
// index and the typed accessors used to read them.
package content

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is one content record: an identifier plus its source fields.
type Document struct {
	ID     string
	Fields map[string]Value
}

// NewDocument converts a decoded source tree into a Document.
func NewDocument(id string, source map[string]any) (Document, error) {
	doc := Document{ID: id, Fields: make(map[string]Value, len(source))}
	for name, raw := range source {
		v, err := FromAny(raw)
		if err != nil {
			return Document{}, fmt.Errorf("document %s: field %q: %w", id, name, err)
		}
		if v.IsPresent() {
			doc.Fields[name] = v
		}
	}

	return doc, nil
}

// ParseSource decodes a JSON source object into a Document.
func ParseSource(id string, source []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(source, &raw); err != nil {
		return Document{}, fmt.Errorf("decoding document %s: %w", id, err)
	}

	return NewDocument(id, raw)
}

// Field returns the named top-level field; absent fields are the zero Value.
func (d Document) Field(name string) Value {
	return d.Fields[name]
}

// Source converts the document fields back into plain Go values.
func (d Document) Source() map[string]any {
	out := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		out[k] = v.Interface()
	}
	return out
}
