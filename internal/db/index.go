package db

import (
	"fmt"
	"regexp"
	"strconv"
)

// FieldKind is the type of a SCHEMA entry.
type FieldKind int

const (
	// FieldTag is an exact-match field; arrays index every element.
	FieldTag FieldKind = iota + 1
	// FieldNumeric supports range filters and, when sortable, SORTBY.
	FieldNumeric
	// FieldVector is an HNSW FLOAT32 vector compared by cosine distance.
	FieldVector
)

// HNSW holds vector field parameters. Zero M or EFConstruct keeps the server default.
type HNSW struct {
	Dim         int
	M           int
	EFConstruct int
}

// IndexField is one SCHEMA entry. Path is a JSONPath; queries refer to Alias.
type IndexField struct {
	Path     string
	Alias    string
	Kind     FieldKind
	Sortable bool
	Vector   HNSW
}

// IndexDefinition is a search index over the JSON documents stored under Prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

var identifier = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// Validate reports the first problem that would make FT.CREATE fail.
func (d *IndexDefinition) Validate() error {
	if !identifier.MatchString(d.Name) {
		return fmt.Errorf("index name %q must match %s", d.Name, identifier)
	}
	if d.Prefix == "" {
		return fmt.Errorf("index %s: key prefix is required", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("index %s: no fields", d.Name)
	}

	aliases := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.Path == "" || f.Alias == "" {
			return fmt.Errorf("index %s: field needs both path and alias (%q, %q)", d.Name, f.Path, f.Alias)
		}
		if _, dup := aliases[f.Alias]; dup {
			return fmt.Errorf("index %s: alias %q used twice", d.Name, f.Alias)
		}
		aliases[f.Alias] = struct{}{}

		switch f.Kind {
		case FieldTag, FieldNumeric:
		case FieldVector:
			if f.Vector.Dim <= 0 {
				return fmt.Errorf("index %s: vector %s needs a positive dimension", d.Name, f.Alias)
			}
		default:
			return fmt.Errorf("index %s: field %s has unknown kind %d", d.Name, f.Alias, f.Kind)
		}
		if f.Sortable && f.Kind != FieldNumeric {
			return fmt.Errorf("index %s: only numeric fields can be sortable (%s)", d.Name, f.Alias)
		}
	}
	return nil
}

// CreateArgs renders the FT.CREATE arguments that follow the command name.
// Call Validate first.
func (d *IndexDefinition) CreateArgs() []string {
	args := []string{d.Name, "ON", "JSON", "PREFIX", "1", d.Prefix, "SCHEMA"}
	for _, f := range d.Fields {
		args = append(args, f.Path, "AS", f.Alias)
		switch f.Kind {
		case FieldTag:
			// Author IDs are opaque; "Bob" and "bob" are different people.
			args = append(args, "TAG", "CASESENSITIVE")
		case FieldNumeric:
			args = append(args, "NUMERIC")
			if f.Sortable {
				args = append(args, "SORTABLE")
			}
		case FieldVector:
			args = append(args, vectorArgs(f.Vector)...)
		}
	}
	return args
}

func vectorArgs(p HNSW) []string {
	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(p.Dim), "DISTANCE_METRIC", "COSINE"}
	if p.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(p.M))
	}
	if p.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(p.EFConstruct))
	}
	return append([]string{"VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
}
