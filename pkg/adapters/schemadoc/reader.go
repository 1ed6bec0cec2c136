// Package schemadoc normalizes raw connector schema documents into flat
// source-field lists. Connectors are independently administered and ship
// their schemas in several shapes; a Registry tries each known shape in
// order, so the manifest builder accepts all of them without configuration.
package schemadoc

// SourceField is one field discovered in a raw schema document.
type SourceField struct {
	Entity       string // table, worksheet, or named entity
	Field        string
	DeclaredType string
}

// ShapeReader extracts source fields from one document shape. Read reports
// ok=false when the document does not carry that shape.
type ShapeReader interface {
	// Name identifies the shape for logging ("tables", "schemas", ...).
	Name() string

	// Read extracts fields. ok=false means "not my shape"; an empty slice
	// with ok=true means the shape matched but held no fields.
	Read(doc map[string]any) ([]SourceField, bool)
}

// Registry holds an immutable, ordered set of shape readers. Build it once
// at startup; there is no mutable global state.
type Registry struct {
	readers []ShapeReader
}

// NewRegistry creates a registry over the given readers, tried in order.
func NewRegistry(readers ...ShapeReader) *Registry {
	rs := make([]ShapeReader, len(readers))
	copy(rs, readers)
	return &Registry{readers: rs}
}

// DefaultRegistry returns a registry covering every shape connectors are
// known to emit.
func DefaultRegistry() *Registry {
	return NewRegistry(
		tablesReader{},
		nestedSchemasReader{},
		relationsReader{},
		entitiesReader{},
	)
}

// Extract normalizes a raw schema document into source fields, trying each
// registered shape in order. Documents wrapped as {"schema": ...} by the
// fetch layer are unwrapped first. Returns nil when no shape matches.
func (r *Registry) Extract(doc map[string]any) []SourceField {
	if doc == nil {
		return nil
	}

	// Fetched documents commonly arrive as {"schema": <doc>, "fetched_at": ...}.
	if inner, ok := doc["schema"].(map[string]any); ok {
		doc = inner
	}

	for _, reader := range r.readers {
		if fields, ok := reader.Read(doc); ok {
			return fields
		}
	}
	return nil
}
