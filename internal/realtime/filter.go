package realtime

import (
	"fmt"
	"strings"
)

// Filter is a column-equality predicate on the changed row, written
// "column=eq.value". The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

// OwnerFilter scopes a subscription to rows owned by userID.
func OwnerFilter(userID string) Filter {
	return Filter{Column: "owner_id", Value: userID}
}

// ParseFilter parses the "column=eq.value" form. An empty string is the
// match-all filter.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("filter %q: want column=eq.value", s)
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("filter %q: only eq is supported", s)
	}
	return Filter{Column: col, Value: val}, nil
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches reports whether a decoded row satisfies the filter.
func (f Filter) Matches(record map[string]any) bool {
	if f.Column == "" {
		return true
	}
	v, ok := record[f.Column]
	if !ok || v == nil {
		return false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return s == f.Value
}

// matchLazy applies f to a row decoded only when needed. Rows that cannot
// be decoded never match a non-empty filter.
func (f Filter) matchLazy(record func() (map[string]any, error)) bool {
	if f.Column == "" {
		return true
	}
	rec, err := record()
	if err != nil {
		return false
	}
	return f.Matches(rec)
}
