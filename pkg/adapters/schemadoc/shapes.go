package schemadoc

import (
	"fmt"
	"sort"
)

// sortedKeys returns the map's keys in lexical order. Map iteration order
// would otherwise reshuffle manifest rows, and mapping IDs with them, on
// every build of the same document.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// columnName pulls a field name from either a bare string or an object
// column entry.
func columnName(col any) (string, bool) {
	switch c := col.(type) {
	case string:
		if c == "" {
			return "", false
		}
		return c, true
	case map[string]any:
		for _, key := range []string{"name", "column_name", "field"} {
			if name, ok := c[key].(string); ok && name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// columnType pulls a declared type from an object column entry, falling
// back to "unknown" for bare strings and untyped columns.
func columnType(col any) string {
	if c, ok := col.(map[string]any); ok {
		for _, key := range []string{"type", "dtype", "data_type"} {
			if t, ok := c[key].(string); ok && t != "" {
				return t
			}
		}
	}
	return "unknown"
}

// tablesReader handles {tables:[{name, columns:[str|{name}]}]}.
type tablesReader struct{}

func (tablesReader) Name() string { return "tables" }

func (tablesReader) Read(doc map[string]any) ([]SourceField, bool) {
	tables, ok := doc["tables"].([]any)
	if !ok {
		return nil, false
	}

	var fields []SourceField
	for _, t := range tables {
		table, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := table["name"].(string)
		if name == "" {
			continue
		}
		cols, _ := table["columns"].([]any)
		for _, col := range cols {
			if colName, ok := columnName(col); ok {
				fields = append(fields, SourceField{
					Entity:       name,
					Field:        colName,
					DeclaredType: columnType(col),
				})
			}
		}
	}
	return fields, true
}

// nestedSchemasReader handles {schemas:{s:{tables:{name:[cols]}}}}.
// Entities are qualified as "schema.table".
type nestedSchemasReader struct{}

func (nestedSchemasReader) Name() string { return "schemas" }

func (nestedSchemasReader) Read(doc map[string]any) ([]SourceField, bool) {
	schemas, ok := doc["schemas"].(map[string]any)
	if !ok {
		return nil, false
	}

	var fields []SourceField
	for _, schemaName := range sortedKeys(schemas) {
		schema, ok := schemas[schemaName].(map[string]any)
		if !ok {
			continue
		}
		tables, ok := schema["tables"].(map[string]any)
		if !ok {
			continue
		}
		for _, tableName := range sortedKeys(tables) {
			colList, ok := tables[tableName].([]any)
			if !ok {
				continue
			}
			entity := fmt.Sprintf("%s.%s", schemaName, tableName)
			for _, col := range colList {
				if colName, ok := columnName(col); ok {
					fields = append(fields, SourceField{
						Entity:       entity,
						Field:        colName,
						DeclaredType: columnType(col),
					})
				}
			}
		}
	}
	return fields, true
}

// relationsReader handles {relations:[{name|table, columns}]}.
type relationsReader struct{}

func (relationsReader) Name() string { return "relations" }

func (relationsReader) Read(doc map[string]any) ([]SourceField, bool) {
	relations, ok := doc["relations"].([]any)
	if !ok {
		return nil, false
	}

	var fields []SourceField
	for _, r := range relations {
		rel, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name, _ := rel["name"].(string)
		if name == "" {
			name, _ = rel["table"].(string)
		}
		if name == "" {
			continue
		}
		cols, _ := rel["columns"].([]any)
		for _, col := range cols {
			if colName, ok := columnName(col); ok {
				fields = append(fields, SourceField{
					Entity:       name,
					Field:        colName,
					DeclaredType: columnType(col),
				})
			}
		}
	}
	return fields, true
}

// entitiesReader handles {entities:[{id, name, fields:[str|{name}]}]},
// the generic shape spreadsheet-style connectors emit.
type entitiesReader struct{}

func (entitiesReader) Name() string { return "entities" }

func (entitiesReader) Read(doc map[string]any) ([]SourceField, bool) {
	entities, ok := doc["entities"].([]any)
	if !ok {
		return nil, false
	}

	var fields []SourceField
	for _, e := range entities {
		entity, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entity["name"].(string)
		if name == "" {
			name, _ = entity["id"].(string)
		}
		if name == "" {
			continue
		}
		fieldList, _ := entity["fields"].([]any)
		for _, f := range fieldList {
			if fieldName, ok := columnName(f); ok {
				fields = append(fields, SourceField{
					Entity:       name,
					Field:        fieldName,
					DeclaredType: columnType(f),
				})
			}
		}
	}
	return fields, true
}
