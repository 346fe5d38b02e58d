package defra

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// IDPattern matches identifiers that are safe to interpolate into GraphQL.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks if a string is safe to use as an identifier in GraphQL queries.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if len(id) > 500 {
		return fmt.Errorf("ID too long: %d characters", len(id))
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("invalid ID format: contains unsafe characters")
	}
	return nil
}

// QueryBuilder constructs parameterized GraphQL queries.
// Filter values are always passed as variables, never interpolated.
type QueryBuilder struct {
	collection string
	filters    []filterDef
	fields     []string
	order      string
	limit      int
	offset     int
	varIndex   int
}

type filterDef struct {
	field   string
	op      string
	varName string
	varType string
	value   any
}

// NewQuery creates a new QueryBuilder for the given collection.
func NewQuery(collection string) *QueryBuilder {
	return &QueryBuilder{
		collection: collection,
		fields:     []string{"_docID"},
	}
}

func (q *QueryBuilder) addFilter(field, op string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{
		field:   field,
		op:      op,
		varName: q.nextVarName(),
		varType: inferGraphQLType(value),
		value:   value,
	})
	return q
}

// Filter adds an equality filter.
func (q *QueryBuilder) Filter(field string, value any) *QueryBuilder {
	return q.addFilter(field, "_eq", value)
}

// FilterGTE adds a greater-than-or-equal filter.
func (q *QueryBuilder) FilterGTE(field string, value any) *QueryBuilder {
	return q.addFilter(field, "_gte", value)
}

// FilterLTE adds a less-than-or-equal filter.
func (q *QueryBuilder) FilterLTE(field string, value any) *QueryBuilder {
	return q.addFilter(field, "_lte", value)
}

// Fields sets the fields to return (replaces default of just _docID).
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	q.fields = fields
	return q
}

// OrderBy sets the ordering. direction is ASC or DESC.
func (q *QueryBuilder) OrderBy(field string, direction string) *QueryBuilder {
	q.order = fmt.Sprintf("{%s: %s}", field, direction)
	return q
}

// Limit sets the maximum number of results.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Offset sets the offset for pagination.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = n
	return q
}

func (q *QueryBuilder) varDefs() (string, map[string]any) {
	if len(q.filters) == 0 {
		return "", nil
	}
	defs := make([]string, 0, len(q.filters))
	vars := make(map[string]any, len(q.filters))
	for _, f := range q.filters {
		defs = append(defs, fmt.Sprintf("$%s: %s", f.varName, f.varType))
		vars[f.varName] = f.value
	}
	return fmt.Sprintf("query(%s) ", strings.Join(defs, ", ")), vars
}

// filterClause renders the filter argument. Operators on the same field
// share one object since GraphQL input objects cannot repeat a key.
func (q *QueryBuilder) filterClause() string {
	if len(q.filters) == 0 {
		return ""
	}
	var fields []string
	ops := make(map[string][]string)
	for _, f := range q.filters {
		if _, ok := ops[f.field]; !ok {
			fields = append(fields, f.field)
		}
		ops[f.field] = append(ops[f.field], fmt.Sprintf("%s: $%s", f.op, f.varName))
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: {%s}", field, strings.Join(ops[field], ", ")))
	}
	return fmt.Sprintf("filter: {%s}", strings.Join(parts, ", "))
}

// Build returns the query string and variables map.
func (q *QueryBuilder) Build() (string, map[string]any) {
	header, vars := q.varDefs()

	var args []string
	if f := q.filterClause(); f != "" {
		args = append(args, f)
	}
	if q.order != "" {
		args = append(args, fmt.Sprintf("order: %s", q.order))
	}
	if q.limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", q.limit))
	}
	if q.offset > 0 {
		args = append(args, fmt.Sprintf("offset: %d", q.offset))
	}

	var query strings.Builder
	query.WriteString(header)
	query.WriteString("{ ")
	query.WriteString(q.collection)
	if len(args) > 0 {
		query.WriteString(fmt.Sprintf("(%s)", strings.Join(args, ", ")))
	}
	query.WriteString(" { ")
	query.WriteString(strings.Join(q.fields, " "))
	query.WriteString(" } }")

	return query.String(), vars
}

// BuildCount returns a _count query over the builder's filters.
// Ordering, limit and offset are ignored.
func (q *QueryBuilder) BuildCount() (string, map[string]any) {
	header, vars := q.varDefs()
	inner := ""
	if f := q.filterClause(); f != "" {
		inner = ": {" + f + "}"
	}
	return fmt.Sprintf("%s{ _count(%s%s) }", header, q.collection, inner), vars
}

// Execute builds and executes the query on the given client.
func (q *QueryBuilder) Execute(ctx context.Context, client *Client) (*GQLResponse, error) {
	query, vars := q.Build()
	resp, err := client.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("query error: %s", errMsg)
	}
	return resp, nil
}

// Count executes a _count query and returns the number of matching documents.
func (q *QueryBuilder) Count(ctx context.Context, client *Client) (int, error) {
	query, vars := q.BuildCount()
	resp, err := client.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return 0, fmt.Errorf("count error: %s", errMsg)
	}
	n, ok := resp.Data["_count"].(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected count response: %+v", resp.Data)
	}
	return int(n), nil
}

// nextVarName generates the next variable name.
func (q *QueryBuilder) nextVarName() string {
	name := fmt.Sprintf("v%d", q.varIndex)
	q.varIndex++
	return name
}

// inferGraphQLType infers the GraphQL type from a Go value.
func inferGraphQLType(v any) string {
	switch v.(type) {
	case string:
		return "String"
	case int, int32, int64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Boolean"
	default:
		return "String"
	}
}
