package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// =============================================================================
// Combinator
// =============================================================================

// Combinator joins the children of a Group.
type Combinator string

// Supported combinators. The wire form is lowercase.
const (
	And Combinator = "and"
	Or  Combinator = "or"
)

// Normalize lowercases the combinator so "AND" and "and" compare equal.
func (c Combinator) Normalize() Combinator {
	return Combinator(strings.ToLower(strings.TrimSpace(string(c))))
}

// Valid reports whether c is and/or, ignoring case.
func (c Combinator) Valid() bool {
	switch c.Normalize() {
	case And, Or:
		return true
	default:
		return false
	}
}

// Toggle flips and <-> or. Anything else becomes and.
func (c Combinator) Toggle() Combinator {
	if c.Normalize() == And {
		return Or
	}
	return And
}

// String returns the display form (AND / OR).
func (c Combinator) String() string {
	return strings.ToUpper(string(c))
}

// =============================================================================
// Rule / Group / Node
// =============================================================================

// Rule is a single leaf condition.
type Rule struct {
	ID       string `json:"id,omitempty"`
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`

	// Extra holds members the catalog does not model, such as valueSource.
	// They are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Group is a rule tree: a combinator over an ordered list of children.
type Group struct {
	ID         string     `json:"id,omitempty"`
	Combinator Combinator `json:"combinator"`
	Not        bool       `json:"not,omitempty"`
	Rules      []Node     `json:"rules"`

	// Extra holds unmodelled members, written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Node is one child of a Group. Exactly one of Rule or Group is set.
type Node struct {
	Rule  *Rule
	Group *Group
}

// RuleNode wraps r as a Node.
func RuleNode(r Rule) Node {
	return Node{Rule: &r}
}

// GroupNode wraps g as a Node.
func GroupNode(g Group) Node {
	return Node{Group: &g}
}

// IsGroup reports whether the node holds a nested group.
func (n Node) IsGroup() bool {
	return n.Group != nil
}

// New returns the empty tree every builder starts from.
func New() Group {
	return Group{Combinator: And, Rules: []Node{}}
}

// Len returns the number of direct children.
func (g Group) Len() int {
	return len(g.Rules)
}

var (
	ruleKeys  = []string{"id", "field", "operator", "value"}
	groupKeys = []string{"id", "combinator", "not", "rules"}
)

// MarshalJSON always emits "rules" as an array, never null.
func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	p := plain(g)
	if p.Rules == nil {
		p.Rules = []Node{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return appendExtra(data, g.Extra, groupKeys)
}

// UnmarshalJSON decodes the modelled members and keeps the rest in Extra.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraMembers(data, groupKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*g = Group(p)
	return nil
}

// MarshalJSON writes the modelled members followed by Extra.
func (r Rule) MarshalJSON() ([]byte, error) {
	type plain Rule
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return appendExtra(data, r.Extra, ruleKeys)
}

// UnmarshalJSON decodes the modelled members and keeps the rest in Extra.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraMembers(data, ruleKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = Rule(p)
	return nil
}

// extraMembers returns the members of the object in data whose names match
// none of known. encoding/json matches names case-insensitively, so this
// does too. It returns nil when there are none.
func extraMembers(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for name, raw := range all {
		if isKnown(name, known) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[name] = raw
	}
	return extra, nil
}

// appendExtra splices extra into the encoded object obj, sorted by name.
// Names that collide with a modelled member are skipped.
func appendExtra(obj []byte, extra map[string]json.RawMessage, known []string) ([]byte, error) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		if !isKnown(name, known) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return obj, nil
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Write(obj[:len(obj)-1])
	empty := bytes.Equal(bytes.TrimSpace(obj), []byte("{}"))
	for i, name := range names {
		if i > 0 || !empty {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw := extra[name]
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isKnown(name string, known []string) bool {
	for _, k := range known {
		if strings.EqualFold(name, k) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes whichever side of the node is set.
func (n Node) MarshalJSON() ([]byte, error) {
	switch {
	case n.Group != nil:
		return json.Marshal(n.Group)
	case n.Rule != nil:
		return json.Marshal(n.Rule)
	default:
		return nil, errors.New("rules: empty node")
	}
}

// UnmarshalJSON treats any object carrying a "rules" key as a group.
func (n *Node) UnmarshalJSON(data []byte) error {
	var probe struct {
		Rules json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*n = Node{}
	if probe.Rules != nil {
		var g Group
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		n.Group = &g
		return nil
	}

	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	n.Rule = &r
	return nil
}

// =============================================================================
// Parsing
// =============================================================================

// Parse decodes a rule tree from r.
func Parse(r io.Reader) (Group, error) {
	var g Group
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Group{}, fmt.Errorf("failed to decode rule tree: %w", err)
	}
	if g.Rules == nil {
		g.Rules = []Node{}
	}
	return g, nil
}

// ParseBytes decodes a rule tree from data.
func ParseBytes(data []byte) (Group, error) {
	return Parse(bytes.NewReader(data))
}
