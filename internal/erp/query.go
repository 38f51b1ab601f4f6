// Package erp provides the HTTP client for the remote catalog/order-storage
// collaborator. The collaborator exposes an OData-style query surface over
// typed collections (products, price-list entries, promotions, order lines,
// order headers, promotion-application records) plus a create/patch write
// interface with relationship binding.
package erp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter is a single $filter expression fragment.
type Filter struct {
	expr string
}

func (f Filter) String() string { return f.expr }

// quote encodes a string literal for a filter expression.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// Eq builds an equality filter. Numeric and boolean values are emitted
// unquoted; everything else is treated as a string literal.
func Eq(field string, value interface{}) Filter {
	return Filter{expr: fmt.Sprintf("%s eq %s", field, literal(value))}
}

// Ne builds an inequality filter.
func Ne(field string, value interface{}) Filter {
	return Filter{expr: fmt.Sprintf("%s ne %s", field, literal(value))}
}

// Contains builds a substring filter.
func Contains(field, value string) Filter {
	return Filter{expr: fmt.Sprintf("contains(%s,%s)", field, quote(value))}
}

// StartsWith builds a prefix filter.
func StartsWith(field, value string) Filter {
	return Filter{expr: fmt.Sprintf("startswith(%s,%s)", field, quote(value))}
}

// And joins filters with a logical and.
func And(filters ...Filter) Filter {
	return join("and", filters)
}

// Or joins filters with a logical or, parenthesized so it composes with And.
func Or(filters ...Filter) Filter {
	f := join("or", filters)
	if len(filters) > 1 {
		f.expr = "(" + f.expr + ")"
	}
	return f
}

func join(op string, filters []Filter) Filter {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.expr != "" {
			parts = append(parts, f.expr)
		}
	}
	return Filter{expr: strings.Join(parts, " "+op+" ")}
}

func literal(value interface{}) string {
	switch v := value.(type) {
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return quote(fmt.Sprintf("%v", v))
	}
}

// Expand describes a related-record expansion with an optional projection.
type Expand struct {
	Relation string
	Selects  []string
}

func (e Expand) encode() string {
	if len(e.Selects) == 0 {
		return e.Relation
	}
	return fmt.Sprintf("%s($select=%s)", e.Relation, strings.Join(e.Selects, ","))
}

// Query builds the read-side query options for a collection request.
type Query struct {
	filter  Filter
	selects []string
	expands []Expand
	orderBy []string
	top     int
}

// NewQuery creates an empty query.
func NewQuery() *Query { return &Query{} }

// Where sets the filter, replacing any previous one.
func (q *Query) Where(f Filter) *Query {
	q.filter = f
	return q
}

// Select adds projected fields.
func (q *Query) Select(fields ...string) *Query {
	q.selects = append(q.selects, fields...)
	return q
}

// ExpandRelation adds a related-record expansion.
func (q *Query) ExpandRelation(relation string, selects ...string) *Query {
	q.expands = append(q.expands, Expand{Relation: relation, Selects: selects})
	return q
}

// OrderBy adds ordering clauses, e.g. "createdon desc".
func (q *Query) OrderBy(clauses ...string) *Query {
	q.orderBy = append(q.orderBy, clauses...)
	return q
}

// Top limits the number of returned rows.
func (q *Query) Top(n int) *Query {
	q.top = n
	return q
}

// Encode renders the query as URL parameters.
func (q *Query) Encode() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}
	if q.filter.expr != "" {
		values.Set("$filter", q.filter.expr)
	}
	if len(q.selects) > 0 {
		values.Set("$select", strings.Join(q.selects, ","))
	}
	if len(q.expands) > 0 {
		encoded := make([]string, 0, len(q.expands))
		for _, e := range q.expands {
			encoded = append(encoded, e.encode())
		}
		values.Set("$expand", strings.Join(encoded, ","))
	}
	if len(q.orderBy) > 0 {
		values.Set("$orderby", strings.Join(q.orderBy, ","))
	}
	if q.top > 0 {
		values.Set("$top", strconv.Itoa(q.top))
	}
	return values
}

// Bind renders the relationship-binding value for a foreign key field,
// e.g. Bind("salesorders", id) -> "/salesorders(<id>)". The caller uses it
// under a "<nav>@odata.bind" JSON key.
func Bind(collection, id string) string {
	return fmt.Sprintf("/%s(%s)", collection, id)
}
