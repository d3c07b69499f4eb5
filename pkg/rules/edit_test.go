package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Group {
	return Group{
		Combinator: And,
		Rules: []Node{
			RuleNode(Rule{Field: "total_spend", Operator: ">", Value: float64(500)}),
			GroupNode(Group{
				Combinator: Or,
				Rules: []Node{
					RuleNode(Rule{Field: "email", Operator: "contains", Value: "@x.com"}),
				},
			}),
		},
	}
}

func TestAddRule_DoesNotMutateInput(t *testing.T) {
	orig := sampleTree()

	out, err := AddRule(orig, Path{1}, DefaultRule())
	require.NoError(t, err)

	assert.Len(t, orig.Rules[1].Group.Rules, 1, "input must be untouched")
	assert.Len(t, out.Rules[1].Group.Rules, 2)
	assert.Equal(t, "total_spend", out.Rules[1].Group.Rules[1].Rule.Field)
}

func TestAddGroup(t *testing.T) {
	out, err := AddGroup(New(), Path{})
	require.NoError(t, err)
	require.Len(t, out.Rules, 1)
	require.True(t, out.Rules[0].IsGroup())
	assert.Equal(t, And, out.Rules[0].Group.Combinator)
	assert.Empty(t, out.Rules[0].Group.Rules)
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name    string
		path    Path
		wantErr error
		check   func(t *testing.T, g Group)
	}{
		{
			name: "remove leaf",
			path: Path{0},
			check: func(t *testing.T, g Group) {
				require.Len(t, g.Rules, 1)
				assert.True(t, g.Rules[0].IsGroup())
			},
		},
		{
			name: "remove nested leaf",
			path: Path{1, 0},
			check: func(t *testing.T, g Group) {
				assert.Empty(t, g.Rules[1].Group.Rules)
			},
		},
		{
			name:    "root cannot be removed",
			path:    Path{},
			wantErr: ErrInvalidPath,
		},
		{
			name:    "out of range",
			path:    Path{5},
			wantErr: ErrInvalidPath,
		},
		{
			name:    "descend through a rule",
			path:    Path{0, 0},
			wantErr: ErrNotGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := sampleTree()
			out, err := Remove(orig, tt.path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, orig.Rules, 2, "input must be untouched")
			tt.check(t, out)
		})
	}
}

func TestSetCombinatorAndToggleNot(t *testing.T) {
	out, err := SetCombinator(sampleTree(), Path{1}, And)
	require.NoError(t, err)
	assert.Equal(t, And, out.Rules[1].Group.Combinator)

	out, err = ToggleNot(out, Path{})
	require.NoError(t, err)
	assert.True(t, out.Not)

	_, err = SetCombinator(sampleTree(), Path{0}, Or)
	assert.ErrorIs(t, err, ErrNotGroup)
}

func TestUpdateRule(t *testing.T) {
	orig := sampleTree()
	out, err := UpdateRule(orig, Path{1, 0}, func(r *Rule) {
		r.Value = "@y.com"
	})
	require.NoError(t, err)
	assert.Equal(t, "@y.com", out.Rules[1].Group.Rules[0].Rule.Value)
	assert.Equal(t, "@x.com", orig.Rules[1].Group.Rules[0].Rule.Value)

	_, err = UpdateRule(orig, Path{1}, func(*Rule) {})
	assert.ErrorIs(t, err, ErrNotRule)

	_, err = UpdateRule(orig, Path{}, func(*Rule) {})
	assert.ErrorIs(t, err, ErrNotRule)
}

func TestAt(t *testing.T) {
	g := sampleTree()

	n, err := At(g, Path{})
	require.NoError(t, err)
	assert.True(t, n.IsGroup())

	n, err = At(g, Path{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "email", n.Rule.Field)

	_, err = At(g, Path{3})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFlatten(t *testing.T) {
	rows := Flatten(sampleTree())
	require.Len(t, rows, 4)

	assert.Equal(t, Path{}, rows[0].Path)
	assert.Equal(t, 0, rows[0].Depth)

	assert.Equal(t, Path{0}, rows[1].Path)
	assert.Equal(t, 1, rows[1].Depth)

	assert.Equal(t, Path{1}, rows[2].Path)
	assert.True(t, rows[2].Node.IsGroup())

	assert.Equal(t, Path{1, 0}, rows[3].Path)
	assert.Equal(t, 2, rows[3].Depth)
}

func TestClone_CopiesBetweenOperands(t *testing.T) {
	g := Group{Combinator: And, Rules: []Node{
		RuleNode(Rule{Field: "total_spend", Operator: "between", Value: []any{float64(1), float64(9)}}),
	}}
	c := Clone(g)
	c.Rules[0].Rule.Value.([]any)[0] = float64(100)
	assert.Equal(t, float64(1), g.Rules[0].Rule.Value.([]any)[0])
}

func TestPath_String(t *testing.T) {
	assert.Equal(t, "root", Path{}.String())
	assert.Equal(t, "rules[1].rules[0]", Path{1, 0}.String())
}
