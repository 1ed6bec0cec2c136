package models

import "fmt"

// ManifestEntry is one addressable source field discovered in a connector's
// raw schema document. The MappingID is unique within a single build and is
// the only handle the clustering LLM uses to reference the field.
// Entries are immutable once the manifest is built.
type ManifestEntry struct {
	MappingID    int    `json:"mapping_id"`
	ConnectorID  string `json:"connector_id"`
	SourceEntity string `json:"source_entity"`
	SourceField  string `json:"source_field"`
	DeclaredType string `json:"declared_type"`
}

// Triple identifies a source field by value. Canonical field mappings link
// back to manifest entries by triple equality, not by mapping ID.
type Triple struct {
	ConnectorID  string
	SourceEntity string
	SourceField  string
}

// Triple returns the value-equality key for this entry.
func (e *ManifestEntry) Triple() Triple {
	return Triple{
		ConnectorID:  e.ConnectorID,
		SourceEntity: e.SourceEntity,
		SourceField:  e.SourceField,
	}
}

// Line renders the entry in the pipe-delimited wire format sent to the
// clustering LLM: connector_id|source_entity|source_field|type|mapping_id.
func (e *ManifestEntry) Line() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		e.ConnectorID, e.SourceEntity, e.SourceField, e.DeclaredType, e.MappingID)
}

// Manifest is the flat, ID-addressed enumeration of every source field
// across all selected connectors for one build. It is the universe of truth
// for the coverage invariant.
type Manifest struct {
	Entries []ManifestEntry
	byID    map[int]*ManifestEntry
}

// NewManifest builds the reverse lookup over the given entries.
// Entries are expected to carry strictly increasing IDs starting at 0.
func NewManifest(entries []ManifestEntry) *Manifest {
	m := &Manifest{
		Entries: entries,
		byID:    make(map[int]*ManifestEntry, len(entries)),
	}
	for i := range entries {
		m.byID[entries[i].MappingID] = &entries[i]
	}
	return m
}

// Lookup resolves a mapping ID to its entry. Returns nil for IDs that were
// never issued (e.g. hallucinated by the LLM).
func (m *Manifest) Lookup(id int) *ManifestEntry {
	return m.byID[id]
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// AllIDs returns the set of every issued mapping ID.
func (m *Manifest) AllIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(m.Entries))
	for _, e := range m.Entries {
		ids[e.MappingID] = struct{}{}
	}
	return ids
}
