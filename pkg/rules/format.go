package rules

import (
	"strconv"
	"strings"
)

// Format renders the tree as a single readable line, e.g.
//
//	total_spend > 500 AND (email contains "@x.com" OR visit_count >= 3)
//
// The empty tree renders as "(no rules)".
func Format(g Group) string {
	if len(g.Rules) == 0 && !g.Not {
		return "(no rules)"
	}
	s := formatGroup(g)
	if g.Not {
		return "NOT (" + s + ")"
	}
	return s
}

func formatGroup(g Group) string {
	if len(g.Rules) == 0 {
		return "(no rules)"
	}
	parts := make([]string, 0, len(g.Rules))
	for _, n := range g.Rules {
		switch {
		case n.Group != nil:
			inner := formatGroup(*n.Group)
			if n.Group.Not {
				parts = append(parts, "NOT ("+inner+")")
			} else {
				parts = append(parts, "("+inner+")")
			}
		case n.Rule != nil:
			parts = append(parts, FormatRule(*n.Rule))
		}
	}
	return strings.Join(parts, " "+g.Combinator.Normalize().String()+" ")
}

// FormatRule renders a single rule.
func FormatRule(r Rule) string {
	op := r.Operator
	if f, ok := LookupField(r.Field); ok {
		if o, ok := LookupOperator(f.Type, r.Operator); ok {
			op = o.Label
			switch o.Arity {
			case 0:
				return r.Field + " " + op
			case 2:
				if lo, hi, ok := pair(r.Value); ok {
					return r.Field + " " + op + " " + formatValue(lo) + " and " + formatValue(hi)
				}
			}
		}
	}
	return r.Field + " " + op + " " + formatValue(r.Value)
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return s
		}
		return strconv.Quote(s)
	}
	return ValueString(v)
}
