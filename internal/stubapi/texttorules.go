package stubapi

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// ErrNoRules is returned when no clause of a prompt is understood.
var ErrNoRules = errors.New("could not derive any rules from the prompt")

var (
	betweenRe  = regexp.MustCompile(`between\s+(\d+(?:\.\d+)?)\s+(?:and|to)\s+(\d+(?:\.\d+)?)`)
	orSplitRe  = regexp.MustCompile(`\s+or\s+|\s*\|\|\s*`)
	andSplitRe = regexp.MustCompile(`\s+and\s+|\s*,\s*|\s*&&\s*|\s+but\s+`)
	numberRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:-(\d+(?:\.\d+)?))?`)
	emailRe    = regexp.MustCompile(`e-?mails?\s+(?:address\s+)?(contains|containing|includes|ends with|ending with|starts with|starting with|begins with|is|equals|does not contain|doesn't contain)\s+(\S+)`)
	domainRe   = regexp.MustCompile(`(@?[a-z0-9\-]+(?:\.[a-z0-9\-]+)+)\s+e-?mails?|e-?mails?\s+(?:at|on|from)\s+(@?[a-z0-9\-]+(?:\.[a-z0-9\-]+)+)`)
	recentRe   = regexp.MustCompile(`(?:in|within|during)\s+the\s+(?:last|past)\s+(\d+)\s+days?`)
	currencyRe = regexp.MustCompile(`₹|\$|€|£|\brs\.?\s*|\binr\s*`)
)

// comparators maps phrases to operators. Longer phrases come first so
// "no more than" wins over "more than".
var comparators = []struct {
	phrase string
	op     string
}{
	{"no more than", "<="},
	{"no less than", ">="},
	{"greater than or equal to", ">="},
	{"less than or equal to", "<="},
	{"at least", ">="},
	{"at most", "<="},
	{"minimum of", ">="},
	{"maximum of", "<="},
	{"more than", ">"},
	{"greater than", ">"},
	{"higher than", ">"},
	{"over", ">"},
	{"above", ">"},
	{"exceeding", ">"},
	{"less than", "<"},
	{"fewer than", "<"},
	{"lower than", "<"},
	{"under", "<"},
	{"below", "<"},
	{"exactly", "="},
	{"equal to", "="},
	{"equals", "="},
	{">=", ">="},
	{"<=", "<="},
	{">", ">"},
	{"<", "<"},
	{"=", "="},
}

// TextToRules turns a short English description into a rule tree. Clauses
// joined by "or" form the top level; clauses joined by "and" inside each of
// them are grouped. Unrecognised clauses are skipped.
func TextToRules(prompt string) (rules.Group, error) {
	text := strings.ToLower(strings.TrimSpace(prompt))
	text = currencyRe.ReplaceAllString(text, "")
	text = betweenRe.ReplaceAllString(text, "between $1-$2")

	var alternatives []rules.Group
	for _, alt := range orSplitRe.Split(text, -1) {
		g := rules.Group{Combinator: rules.And, Rules: []rules.Node{}}
		for _, clause := range andSplitRe.Split(alt, -1) {
			if r, ok := parseClause(clause); ok {
				g.Rules = append(g.Rules, rules.RuleNode(r))
			}
		}
		if len(g.Rules) > 0 {
			alternatives = append(alternatives, g)
		}
	}

	switch len(alternatives) {
	case 0:
		return rules.Group{}, ErrNoRules
	case 1:
		return alternatives[0], nil
	}

	root := rules.Group{Combinator: rules.Or, Rules: []rules.Node{}}
	for _, alt := range alternatives {
		if len(alt.Rules) == 1 {
			root.Rules = append(root.Rules, alt.Rules[0])
			continue
		}
		root.Rules = append(root.Rules, rules.GroupNode(alt))
	}
	return root, nil
}

func parseClause(clause string) (rules.Rule, bool) {
	c := strings.TrimSpace(clause)
	if c == "" {
		return rules.Rule{}, false
	}

	if m := emailRe.FindStringSubmatch(c); m != nil {
		value := strings.TrimRight(strings.Trim(m[2], `"'`), ".")
		return rules.Rule{Field: "email", Operator: emailOperator(m[1]), Value: value}, true
	}
	if m := domainRe.FindStringSubmatch(c); m != nil {
		domain := m[1]
		if domain == "" {
			domain = m[2]
		}
		if !strings.HasPrefix(domain, "@") {
			domain = "@" + domain
		}
		return rules.Rule{Field: "email", Operator: "contains", Value: domain}, true
	}

	if m := recentRe.FindStringSubmatch(c); m != nil && mentionsActivity(c) {
		n, _ := strconv.ParseFloat(m[1], 64)
		return rules.Rule{Field: "inactive_days", Operator: "<=", Value: n}, true
	}

	switch {
	case strings.Contains(c, "inactive") || strings.Contains(c, "not visited") ||
		strings.Contains(c, "haven't visited") || strings.Contains(c, "hasn't visited") ||
		strings.Contains(c, "no visit") || strings.Contains(c, "dormant"):
		return numericRule("inactive_days", c, ">=")
	case strings.Contains(c, "visit"):
		return numericRule("visit_count", c, ">=")
	case strings.Contains(c, "spen") || strings.Contains(c, "purchase") ||
		strings.Contains(c, "revenue") || strings.Contains(c, "paid"):
		return numericRule("total_spend", c, ">")
	}
	return rules.Rule{}, false
}

func mentionsActivity(c string) bool {
	for _, w := range []string{"visit", "active", "seen", "came", "shopped", "purchased", "bought"} {
		if strings.Contains(c, w) && !strings.Contains(c, "inactive") {
			return true
		}
	}
	return false
}

func numericRule(field, clause, defaultOp string) (rules.Rule, bool) {
	m := numberRe.FindStringSubmatch(clause)
	if m == nil {
		return rules.Rule{}, false
	}
	if m[2] != "" && strings.Contains(clause, "between") {
		op := "between"
		if strings.Contains(clause, "not between") {
			op = "notBetween"
		}
		return rules.Rule{Field: field, Operator: op, Value: m[1] + "," + m[2]}, true
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return rules.Rule{}, false
	}
	op := defaultOp
	for _, cmp := range comparators {
		if strings.Contains(clause, cmp.phrase) {
			op = cmp.op
			break
		}
	}
	return rules.Rule{Field: field, Operator: op, Value: n}, true
}

func emailOperator(verb string) string {
	switch verb {
	case "ends with", "ending with":
		return "endsWith"
	case "starts with", "starting with", "begins with":
		return "beginsWith"
	case "is", "equals":
		return "="
	case "does not contain", "doesn't contain":
		return "doesNotContain"
	default:
		return "contains"
	}
}
