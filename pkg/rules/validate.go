package rules

import (
	"errors"
	"fmt"
)

// ValidationError reports one problem at one node.
type ValidationError struct {
	Path    Path
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks the tree against the field catalog. It returns nil for a
// valid tree, otherwise an errors.Join of *ValidationError values, one per
// problem, in depth-first order.
func Validate(g Group) error {
	var errs []error
	validateGroup(g, Path{}, &errs)
	return errors.Join(errs...)
}

func validateGroup(g Group, p Path, errs *[]error) {
	if !g.Combinator.Valid() {
		*errs = append(*errs, &ValidationError{Path: p, Message: fmt.Sprintf("unknown combinator %q", string(g.Combinator))})
	}
	for i, n := range g.Rules {
		cp := p.child(i)
		switch {
		case n.Group != nil:
			validateGroup(*n.Group, cp, errs)
		case n.Rule != nil:
			if err := validateRule(*n.Rule, cp); err != nil {
				*errs = append(*errs, err)
			}
		default:
			*errs = append(*errs, &ValidationError{Path: cp, Message: "empty node"})
		}
	}
}

func validateRule(r Rule, p Path) error {
	f, ok := LookupField(r.Field)
	if !ok {
		return &ValidationError{Path: p, Message: fmt.Sprintf("unknown field %q", r.Field)}
	}
	op, ok := LookupOperator(f.Type, r.Operator)
	if !ok {
		return &ValidationError{Path: p, Message: fmt.Sprintf("operator %q is not valid for %s field %q", r.Operator, f.Type, f.Name)}
	}

	switch op.Arity {
	case 0:
		return nil
	case 2:
		lo, hi, ok := pair(r.Value)
		if !ok {
			return &ValidationError{Path: p, Message: fmt.Sprintf("%s needs two values", op.Name)}
		}
		if f.Type == FieldNumber {
			_, okLo := toFloat(lo)
			_, okHi := toFloat(hi)
			if !okLo || !okHi {
				return &ValidationError{Path: p, Message: fmt.Sprintf("%s needs two numbers", op.Name)}
			}
		}
		return nil
	}

	if r.Value == nil {
		return &ValidationError{Path: p, Message: fmt.Sprintf("missing value for %q", f.Name)}
	}
	switch f.Type {
	case FieldNumber:
		if _, ok := toFloat(r.Value); !ok {
			return &ValidationError{Path: p, Message: fmt.Sprintf("value for %q must be a number", f.Name)}
		}
	case FieldText:
		if _, ok := r.Value.(string); !ok {
			return &ValidationError{Path: p, Message: fmt.Sprintf("value for %q must be text", f.Name)}
		}
	}
	return nil
}
