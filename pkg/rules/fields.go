package rules

// FieldType is the value type of a catalog field.
type FieldType string

// Field types used by the catalog.
const (
	FieldNumber FieldType = "number"
	FieldText   FieldType = "text"
)

// Field describes one selectable field in the builder.
type Field struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

// Operator describes a comparison available for a field type.
// Arity is the number of operands: 0 (null checks), 1, or 2 (between).
type Operator struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Arity int    `json:"arity"`
}

var catalog = []Field{
	{Name: "total_spend", Label: "Total Spend", Type: FieldNumber},
	{Name: "visit_count", Label: "Visit Count", Type: FieldNumber},
	{Name: "inactive_days", Label: "Inactive for (days)", Type: FieldNumber},
	{Name: "email", Label: "Email", Type: FieldText},
}

var numberOperators = []Operator{
	{Name: "=", Label: "=", Arity: 1},
	{Name: "!=", Label: "!=", Arity: 1},
	{Name: "<", Label: "<", Arity: 1},
	{Name: ">", Label: ">", Arity: 1},
	{Name: "<=", Label: "<=", Arity: 1},
	{Name: ">=", Label: ">=", Arity: 1},
	{Name: "between", Label: "between", Arity: 2},
	{Name: "notBetween", Label: "not between", Arity: 2},
	{Name: "null", Label: "is null", Arity: 0},
	{Name: "notNull", Label: "is not null", Arity: 0},
}

var textOperators = []Operator{
	{Name: "=", Label: "=", Arity: 1},
	{Name: "!=", Label: "!=", Arity: 1},
	{Name: "contains", Label: "contains", Arity: 1},
	{Name: "beginsWith", Label: "begins with", Arity: 1},
	{Name: "endsWith", Label: "ends with", Arity: 1},
	{Name: "doesNotContain", Label: "does not contain", Arity: 1},
	{Name: "doesNotBeginWith", Label: "does not begin with", Arity: 1},
	{Name: "doesNotEndWith", Label: "does not end with", Arity: 1},
	{Name: "null", Label: "is null", Arity: 0},
	{Name: "notNull", Label: "is not null", Arity: 0},
}

// Catalog returns the fixed field catalog in display order.
func Catalog() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// LookupField finds a catalog field by name.
func LookupField(name string) (Field, bool) {
	for _, f := range catalog {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// OperatorsFor returns the operators valid for a field type.
func OperatorsFor(t FieldType) []Operator {
	var src []Operator
	switch t {
	case FieldNumber:
		src = numberOperators
	case FieldText:
		src = textOperators
	default:
		return nil
	}
	out := make([]Operator, len(src))
	copy(out, src)
	return out
}

// LookupOperator finds an operator by name for a field type.
func LookupOperator(t FieldType, name string) (Operator, bool) {
	for _, op := range OperatorsFor(t) {
		if op.Name == name {
			return op, true
		}
	}
	return Operator{}, false
}

// zeroValue is the value a fresh rule gets for a field type.
func zeroValue(t FieldType) any {
	if t == FieldNumber {
		return float64(0)
	}
	return ""
}

// DefaultRule is the rule added by "+ Add Rule": the first catalog field
// with its first operator.
func DefaultRule() Rule {
	f := catalog[0]
	return Rule{
		Field:    f.Name,
		Operator: OperatorsFor(f.Type)[0].Name,
		Value:    zeroValue(f.Type),
	}
}

// ChangeField switches the rule to another field. The operator is kept when
// the new field type supports it; the value is reset when the type changes.
func (r *Rule) ChangeField(name string) {
	prev, prevOK := LookupField(r.Field)
	next, ok := LookupField(name)
	r.Field = name
	if !ok {
		return
	}
	if _, valid := LookupOperator(next.Type, r.Operator); !valid {
		r.Operator = OperatorsFor(next.Type)[0].Name
	}
	if !prevOK || prev.Type != next.Type {
		r.Value = zeroValue(next.Type)
	}
	if op, _ := LookupOperator(next.Type, r.Operator); op.Arity == 0 {
		r.Value = nil
	}
}

// ChangeOperator switches the operator. Null checks drop the value; moving
// off a null check restores the zero value for the field type.
func (r *Rule) ChangeOperator(name string) {
	r.Operator = name
	f, ok := LookupField(r.Field)
	if !ok {
		return
	}
	op, ok := LookupOperator(f.Type, name)
	if !ok {
		return
	}
	switch {
	case op.Arity == 0:
		r.Value = nil
	case r.Value == nil:
		r.Value = zeroValue(f.Type)
	}
}
