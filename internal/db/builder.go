package db

// SchemaBuilder assembles an IndexDefinition field by field.
type SchemaBuilder struct {
	def IndexDefinition
}

// NewJSONIndex starts an index over JSON documents whose keys start with prefix.
func NewJSONIndex(name, prefix string) *SchemaBuilder {
	return &SchemaBuilder{def: IndexDefinition{Name: name, Prefix: prefix}}
}

// Tag adds a case-sensitive TAG field.
func (b *SchemaBuilder) Tag(path, alias string) *SchemaBuilder {
	return b.add(IndexField{Path: path, Alias: alias, Kind: FieldTag})
}

// SortableNumeric adds a NUMERIC SORTABLE field.
func (b *SchemaBuilder) SortableNumeric(path, alias string) *SchemaBuilder {
	return b.add(IndexField{Path: path, Alias: alias, Kind: FieldNumeric, Sortable: true})
}

// Vector adds an HNSW vector field.
func (b *SchemaBuilder) Vector(path, alias string, p HNSW) *SchemaBuilder {
	return b.add(IndexField{Path: path, Alias: alias, Kind: FieldVector, Vector: p})
}

// Build validates and returns the definition.
func (b *SchemaBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

func (b *SchemaBuilder) add(f IndexField) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}
