package rules

import (
	"fmt"
	"strings"
)

// Record is a flat view of one customer keyed by catalog field name.
type Record map[string]any

// Match reports whether rec satisfies the tree. An empty group matches
// every record. Rules that fail validation never match.
func Match(g Group, rec Record) bool {
	result := matchGroup(g, rec)
	if g.Not {
		return !result
	}
	return result
}

func matchGroup(g Group, rec Record) bool {
	if len(g.Rules) == 0 {
		return true
	}
	or := g.Combinator.Normalize() == Or
	for _, n := range g.Rules {
		var ok bool
		switch {
		case n.Group != nil:
			ok = Match(*n.Group, rec)
		case n.Rule != nil:
			ok = matchRule(*n.Rule, rec)
		}
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

func matchRule(r Rule, rec Record) bool {
	f, ok := LookupField(r.Field)
	if !ok {
		return false
	}
	actual, present := rec[r.Field]

	switch r.Operator {
	case "null":
		return !present || isBlank(actual)
	case "notNull":
		return present && !isBlank(actual)
	}
	if !present {
		return false
	}

	if f.Type == FieldNumber {
		return matchNumber(r, actual)
	}
	return matchText(r, actual)
}

func matchNumber(r Rule, actual any) bool {
	a, ok := toFloat(actual)
	if !ok {
		return false
	}

	if r.Operator == "between" || r.Operator == "notBetween" {
		lo, hi, ok := pair(r.Value)
		if !ok {
			return false
		}
		l, okL := toFloat(lo)
		h, okH := toFloat(hi)
		if !okL || !okH {
			return false
		}
		if l > h {
			l, h = h, l
		}
		in := a >= l && a <= h
		if r.Operator == "between" {
			return in
		}
		return !in
	}

	want, ok := toFloat(r.Value)
	if !ok {
		return false
	}
	switch r.Operator {
	case "=":
		return a == want
	case "!=":
		return a != want
	case "<":
		return a < want
	case ">":
		return a > want
	case "<=":
		return a <= want
	case ">=":
		return a >= want
	default:
		return false
	}
}

func matchText(r Rule, actual any) bool {
	want, ok := r.Value.(string)
	if !ok {
		return false
	}
	a := strings.ToLower(fmt.Sprint(actual))
	w := strings.ToLower(want)

	switch r.Operator {
	case "=":
		return a == w
	case "!=":
		return a != w
	case "contains":
		return strings.Contains(a, w)
	case "beginsWith":
		return strings.HasPrefix(a, w)
	case "endsWith":
		return strings.HasSuffix(a, w)
	case "doesNotContain":
		return !strings.Contains(a, w)
	case "doesNotBeginWith":
		return !strings.HasPrefix(a, w)
	case "doesNotEndWith":
		return !strings.HasSuffix(a, w)
	default:
		return false
	}
}
