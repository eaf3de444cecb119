package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ideahub/internal/db"
)

const (
	scoreField   = "__vector_score"
	matchAll     = "*"
	queryDialect = "2"
)

// ftSearch collects the arguments of one FT.SEARCH call in the order the
// server expects them.
type ftSearch struct {
	index  string
	query  string
	ret    []string
	sortBy string
	desc   bool
	offset int
	limit  int
	params []string
}

func (q ftSearch) args() []string {
	args := []string{q.index, q.query}
	if len(q.ret) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ret)))
		args = append(args, q.ret...)
	}
	if q.sortBy != "" {
		dir := "ASC"
		if q.desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.sortBy, dir)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.offset), strconv.Itoa(q.limit))
	if len(q.params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(q.params)))
		args = append(args, q.params...)
	}
	return append(args, "DIALECT", queryDialect)
}

func (s *Store) ftSearch(ctx context.Context, q ftSearch) (*db.SearchResult, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(q.args()...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseSearchResult(raw)
}

// SearchKNN returns the K nearest documents to q.Vector, closest first.
// Entry scores are cosine similarities.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = "vector"
	}
	knn := fmt.Sprintf("[KNN %d @%s $BLOB AS %s]", q.K, field, scoreField)
	prefilter := matchAll
	if !q.Filter.IsEmpty() {
		prefilter = "(" + buildFilter(q.Filter) + ")"
	}

	search := ftSearch{
		index:  q.IndexName,
		query:  prefilter + "=>" + knn,
		sortBy: scoreField,
		limit:  q.K,
		params: []string{"BLOB", rueidis.VectorString32(q.Vector)},
	}
	if len(q.ReturnFields) > 0 {
		search.ret = append(append(search.ret, q.ReturnFields...), scoreField)
	}

	res, err := s.ftSearch(ctx, search)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		dist, ok := e.Fields[scoreField]
		if !ok {
			continue
		}
		delete(e.Fields, scoreField)
		if d, err := strconv.ParseFloat(dist, 64); err == nil {
			e.Score = 1 - d
		}
	}
	return res, nil
}

// SearchList returns one page of documents matching q.Filter.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	return s.ftSearch(ctx, ftSearch{
		index:  q.IndexName,
		query:  buildFilter(q.Filter),
		ret:    q.ReturnFields,
		sortBy: q.SortBy,
		desc:   q.Descending,
		offset: q.Offset,
		limit:  q.Limit,
	})
}

// parseSearchResult reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Malformed pairs are skipped.
func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(raw) == 0 {
		return res, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res.Total = int(total)

	for i := 1; i+1 < len(raw); i += 2 {
		key, kerr := raw[i].ToString()
		pairs, ferr := raw[i+1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		fields := make(map[string]string, len(pairs)/2)
		for j := 0; j+1 < len(pairs); j += 2 {
			name, nerr := pairs[j].ToString()
			value, verr := pairs[j+1].ToString()
			if nerr == nil && verr == nil {
				fields[name] = value
			}
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: fields})
	}
	return res, nil
}

// buildFilter renders f as a query-syntax expression. An empty filter matches everything.
func buildFilter(f db.Filter) string {
	if f.IsEmpty() {
		return matchAll
	}

	var parts []string
	for _, c := range f.Must {
		parts = append(parts, buildCondition(c))
	}
	if len(f.Should) > 0 {
		either := make([]string, len(f.Should))
		for i, c := range f.Should {
			either[i] = buildCondition(c)
		}
		parts = append(parts, "("+strings.Join(either, " | ")+")")
	}
	for _, c := range f.MustNot {
		parts = append(parts, "-"+buildCondition(c))
	}
	return strings.Join(parts, " ")
}

func buildCondition(c db.Condition) string {
	if c.Tag != "" {
		return "@" + c.Field + ":{" + escapeTag(c.Tag) + "}"
	}
	return "@" + c.Field + ":[" + bound(c.Min, "-inf") + " " + bound(c.Max, "+inf") + "]"
}

func bound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// tagSpecial lists the characters the query parser treats as syntax inside a tag.
const tagSpecial = `\,.<>{}[]"':;!@#$%^&*()-+=~|/ `

func escapeTag(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(tagSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
