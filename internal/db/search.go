package db

// Condition is a single pre-filter clause: a tag match when Tag is set,
// otherwise a numeric range over [Min, Max] (nil bound = open).
type Condition struct {
	Field string
	Tag   string
	Min   *float64
	Max   *float64
}

// TagIs builds a tag match condition.
func TagIs(field, value string) Condition {
	return Condition{Field: field, Tag: value}
}

// Filter combines conditions: all of Must, at least one of Should, none of MustNot.
type Filter struct {
	Must    []Condition
	Should  []Condition
	MustNot []Condition
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool {
	return len(f.Must) == 0 && len(f.Should) == 0 && len(f.MustNot) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery is the input for a paginated, optionally sorted, search.
type ListQuery struct {
	IndexName    string
	Filter       Filter
	Offset       int
	Limit        int
	SortBy       string
	Descending   bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is cosine similarity (1 - distance) for KNN hits.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
