package query

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseValues decodes options from URL query parameters:
//
//	filter=status:eq:booked        one predicate per filter parameter
//	filter=status:in:booked,paid   list values are comma separated
//	filter=notes:isNull
//	sort=-date,customer            "-" selects descending order
//	page=2&pageSize=10
//
// Values stay strings; callers coerce them to field kinds.
func ParseValues(v url.Values) (Options, error) {
	var opts Options
	for _, raw := range v["filter"] {
		field, rest, ok := strings.Cut(raw, ":")
		if !ok || field == "" {
			return Options{}, &InvalidOptionError{Option: "filter", Value: raw, Message: "expected field:op[:value]"}
		}
		op, value, hasValue := strings.Cut(rest, ":")
		p := Predicate{Field: field, Op: Operator(op)}
		switch {
		case !hasValue:
		case p.Op == In || p.Op == Nin || p.Op == Between:
			p.Value = splitList(value)
		default:
			p.Value = value
		}
		opts.Filter = append(opts.Filter, p)
	}
	for _, raw := range v["sort"] {
		for _, key := range strings.Split(raw, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			o := Order{Field: key, Dir: Asc}
			if name, ok := strings.CutPrefix(key, "-"); ok {
				o = Order{Field: name, Dir: Desc}
			} else if name, dir, ok := strings.Cut(key, ":"); ok {
				o = Order{Field: name, Dir: Direction(dir)}
			}
			opts.Sort = append(opts.Sort, o)
		}
	}
	var err error
	if opts.Page, err = intParam(v, "page"); err != nil {
		return Options{}, err
	}
	if opts.PageSize, err = intParam(v, "pageSize"); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func splitList(s string) []any {
	parts := strings.Split(s, ",")
	vs := make([]any, len(parts))
	for i, p := range parts {
		vs[i] = p
	}
	return vs
}

func intParam(v url.Values, name string) (int, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InvalidOptionError{Option: name, Value: s, Message: "must be an integer"}
	}
	return n, nil
}
