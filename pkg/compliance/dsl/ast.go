package dsl

// Position is a source position carried by every AST node for diagnostics.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every AST type so callers can always ask where a
// node came from.
type Node interface {
	Pos() Position
}

// Variable is a dotted-path reference such as a.b.c.
type Variable struct {
	Parts    []string
	Position Position
}

func (v Variable) Pos() Position { return v.Position }

// Value is the tagged union of literal and variable value forms.
type Value interface {
	Node
	isValue()
}

type StringValue struct {
	Val      string
	Position Position
}

type NumberValue struct {
	Val      float64
	Position Position
}

type BooleanValue struct {
	Val      bool
	Position Position
}

// DatetimeValue is a string literal recognized as ISO-8601-shaped at parse
// time; the evaluator still falls back to raw comparison if it fails to
// parse as a timestamp.
type DatetimeValue struct {
	Val      string
	Position Position
}

type VariableValue struct {
	Var Variable
}

func (v *StringValue) Pos() Position   { return v.Position }
func (v *NumberValue) Pos() Position   { return v.Position }
func (v *BooleanValue) Pos() Position  { return v.Position }
func (v *DatetimeValue) Pos() Position { return v.Position }
func (v *VariableValue) Pos() Position { return v.Var.Position }

func (*StringValue) isValue()   {}
func (*NumberValue) isValue()   {}
func (*BooleanValue) isValue()  {}
func (*DatetimeValue) isValue() {}
func (*VariableValue) isValue() {}

// Condition is the tagged union of condition grammar productions.
type Condition interface {
	Node
	isCondition()
}

type SimpleCondition struct {
	Var      Variable
	Op       string
	Value    Value
	Position Position
}

type ListCondition struct {
	Var      Variable
	List     []Value
	Position Position
}

// PatternCondition covers CONTAINS and MATCHES.
type PatternCondition struct {
	Var      Variable
	Op       string
	Value    Value
	Position Position
}

// TemporalCondition covers BEFORE, AFTER, WITHIN, and EXPIRES_AFTER.
type TemporalCondition struct {
	Var      Variable
	Op       string
	Value    Value
	Position Position
}

type NotCondition struct {
	Inner    Condition
	Position Position
}

// CompoundCondition covers AND/OR binary combination.
type CompoundCondition struct {
	Op       string
	Left     Condition
	Right    Condition
	Position Position
}

// VariableCondition is a bare variable used as a boolean condition.
type VariableCondition struct {
	Var      Variable
	Position Position
}

func (c *SimpleCondition) Pos() Position    { return c.Position }
func (c *ListCondition) Pos() Position      { return c.Position }
func (c *PatternCondition) Pos() Position   { return c.Position }
func (c *TemporalCondition) Pos() Position  { return c.Position }
func (c *NotCondition) Pos() Position       { return c.Position }
func (c *CompoundCondition) Pos() Position  { return c.Position }
func (c *VariableCondition) Pos() Position  { return c.Position }

func (*SimpleCondition) isCondition()   {}
func (*ListCondition) isCondition()     {}
func (*PatternCondition) isCondition()  {}
func (*TemporalCondition) isCondition() {}
func (*NotCondition) isCondition()      {}
func (*CompoundCondition) isCondition() {}
func (*VariableCondition) isCondition() {}

// Consequence is the tagged union of consequence/boolean-expression grammar
// productions.
type Consequence interface {
	Node
	isConsequence()
}

type Requirement struct {
	Keyword  string // REQUIRE, ENSURE, or VALIDATE
	Var      Variable
	Position Position
}

type Constraint struct {
	Var      Variable
	Op       string
	Value    Value
	Position Position
}

type InConstraint struct {
	Var      Variable
	Negate   bool
	List     []Value
	Position Position
}

type BetweenConstraint struct {
	Var      Variable
	Low      Value
	High     Value
	Position Position
}

type BoolLiteral struct {
	Val      bool
	Position Position
}

type BoolVariable struct {
	Var      Variable
	Position Position
}

type BoolNot struct {
	Inner    Consequence
	Position Position
}

// BoolBinary covers AND/OR combination of consequences/expressions.
type BoolBinary struct {
	Op       string
	Left     Consequence
	Right    Consequence
	Position Position
}

func (c *Requirement) Pos() Position       { return c.Position }
func (c *Constraint) Pos() Position        { return c.Position }
func (c *InConstraint) Pos() Position      { return c.Position }
func (c *BetweenConstraint) Pos() Position { return c.Position }
func (c *BoolLiteral) Pos() Position       { return c.Position }
func (c *BoolVariable) Pos() Position      { return c.Position }
func (c *BoolNot) Pos() Position           { return c.Position }
func (c *BoolBinary) Pos() Position        { return c.Position }

func (*Requirement) isConsequence()       {}
func (*Constraint) isConsequence()        {}
func (*InConstraint) isConsequence()      {}
func (*BetweenConstraint) isConsequence() {}
func (*BoolLiteral) isConsequence()       {}
func (*BoolVariable) isConsequence()      {}
func (*BoolNot) isConsequence()           {}
func (*BoolBinary) isConsequence()        {}

// Action is FLAG/ALERT/BLOCK/ALLOW/LOG/NOTIFY applied to a variable.
type Action struct {
	Keyword  string
	Var      Variable
	Position Position
}

func (a *Action) Pos() Position { return a.Position }

// Rule is the top-level parsed DSL rule: a condition clause followed by
// either a consequence clause or an action clause.
type Rule struct {
	Condition   Condition
	Consequence Consequence // nil when Action is set
	Action      *Action     // nil when Consequence is set
}
