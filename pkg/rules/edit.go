package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by the editing functions.
var (
	ErrInvalidPath = errors.New("rules: path does not address a node")
	ErrNotGroup    = errors.New("rules: path does not address a group")
	ErrNotRule     = errors.New("rules: path does not address a rule")
)

// Path addresses a node by child indexes from the root group.
// The empty path is the root itself.
type Path []int

// Parent returns the path of the enclosing group. The root has no parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// String renders the path the way validation errors report it,
// e.g. "rules[0].rules[2]". The root renders as "root".
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = "rules[" + strconv.Itoa(idx) + "]"
	}
	return strings.Join(parts, ".")
}

func (p Path) child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Clone returns a deep copy of g. Rule values are copied by assignment;
// slice values (between operands) are copied element-wise.
func Clone(g Group) Group {
	out := g
	out.Extra = cloneExtra(g.Extra)
	out.Rules = make([]Node, len(g.Rules))
	for i, n := range g.Rules {
		switch {
		case n.Group != nil:
			c := Clone(*n.Group)
			out.Rules[i] = Node{Group: &c}
		case n.Rule != nil:
			r := *n.Rule
			r.Extra = cloneExtra(r.Extra)
			if vs, ok := r.Value.([]any); ok {
				cp := make([]any, len(vs))
				copy(cp, vs)
				r.Value = cp
			}
			out.Rules[i] = Node{Rule: &r}
		}
	}
	return out
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// groupAt walks root along p and returns the group found there.
func groupAt(root *Group, p Path) (*Group, error) {
	g := root
	for depth, idx := range p {
		if idx < 0 || idx >= len(g.Rules) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, p[:depth+1])
		}
		n := g.Rules[idx]
		if n.Group == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, p[:depth+1])
		}
		g = n.Group
	}
	return g, nil
}

// At returns the node addressed by p. The root is returned as a group node.
func At(g Group, p Path) (Node, error) {
	if len(p) == 0 {
		return Node{Group: &g}, nil
	}
	parent, err := groupAt(&g, p.Parent())
	if err != nil {
		return Node{}, err
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(parent.Rules) {
		return Node{}, fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return parent.Rules[idx], nil
}

// AddRule appends r to the group at p.
func AddRule(g Group, p Path, r Rule) (Group, error) {
	out := Clone(g)
	target, err := groupAt(&out, p)
	if err != nil {
		return g, err
	}
	target.Rules = append(target.Rules, RuleNode(r))
	return out, nil
}

// AddGroup appends an empty AND group to the group at p.
func AddGroup(g Group, p Path) (Group, error) {
	out := Clone(g)
	target, err := groupAt(&out, p)
	if err != nil {
		return g, err
	}
	target.Rules = append(target.Rules, GroupNode(New()))
	return out, nil
}

// Remove deletes the node at p. The root cannot be removed.
func Remove(g Group, p Path) (Group, error) {
	if len(p) == 0 {
		return g, fmt.Errorf("%w: cannot remove root", ErrInvalidPath)
	}
	out := Clone(g)
	parent, err := groupAt(&out, p.Parent())
	if err != nil {
		return g, err
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(parent.Rules) {
		return g, fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	parent.Rules = append(parent.Rules[:idx], parent.Rules[idx+1:]...)
	return out, nil
}

// SetCombinator sets the combinator of the group at p.
func SetCombinator(g Group, p Path, c Combinator) (Group, error) {
	out := Clone(g)
	target, err := groupAt(&out, p)
	if err != nil {
		return g, err
	}
	target.Combinator = c
	return out, nil
}

// ToggleNot flips the negation flag of the group at p.
func ToggleNot(g Group, p Path) (Group, error) {
	out := Clone(g)
	target, err := groupAt(&out, p)
	if err != nil {
		return g, err
	}
	target.Not = !target.Not
	return out, nil
}

// UpdateRule applies fn to a copy of the rule at p.
func UpdateRule(g Group, p Path, fn func(*Rule)) (Group, error) {
	if len(p) == 0 {
		return g, fmt.Errorf("%w: %s", ErrNotRule, p)
	}
	out := Clone(g)
	parent, err := groupAt(&out, p.Parent())
	if err != nil {
		return g, err
	}
	idx := p[len(p)-1]
	if idx < 0 || idx >= len(parent.Rules) {
		return g, fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	n := parent.Rules[idx]
	if n.Rule == nil {
		return g, fmt.Errorf("%w: %s", ErrNotRule, p)
	}
	fn(n.Rule)
	return out, nil
}

// Row is one line of a flattened tree.
type Row struct {
	Path  Path
	Depth int
	Node  Node
}

// Flatten lists the tree depth-first, root first. Editors render one row per
// entry and address edits by Row.Path.
func Flatten(g Group) []Row {
	rows := []Row{{Path: Path{}, Depth: 0, Node: Node{Group: &g}}}
	var walk func(grp *Group, p Path, depth int)
	walk = func(grp *Group, p Path, depth int) {
		for i := range grp.Rules {
			n := grp.Rules[i]
			cp := p.child(i)
			rows = append(rows, Row{Path: cp, Depth: depth, Node: n})
			if n.Group != nil {
				walk(n.Group, cp, depth+1)
			}
		}
	}
	walk(&g, Path{}, 1)
	return rows
}
