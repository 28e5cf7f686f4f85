package client

import (
	"net/url"
	"strconv"
	"strings"
)

// PostgREST filter operators used by the TransfereGov API.

func Eq(v string) string { return "eq." + v }

func In(ids []string) string { return "in.(" + strings.Join(ids, ",") + ")" }

const NotNull = "not.is.null"

// Query is an ordered set of column filters.
type Query url.Values

func NewQuery() Query { return Query{} }

func (q Query) Where(column, filter string) Query {
	url.Values(q).Set(column, filter)
	return q
}

func (q Query) clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// page returns the query for one page of results.
func (q Query) page(limit, offset int) Query {
	p := q.clone()
	url.Values(p).Set("limit", strconv.Itoa(limit))
	url.Values(p).Set("offset", strconv.Itoa(offset))
	return p
}

// Encode keeps "(", ")" and "," readable so URLs match what PostgREST documents.
func (q Query) Encode() string {
	enc := url.Values(q).Encode()
	r := strings.NewReplacer("%28", "(", "%29", ")", "%2C", ",")
	return r.Replace(enc)
}
