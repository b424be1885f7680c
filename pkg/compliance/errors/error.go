// Package errors defines the single tagged error taxonomy shared by every
// compliance engine component: bundle validation, the DSL pipeline, the
// rule engine, the evidence manager, and the audit trail.
package errors

import "fmt"

// Kind discriminates the failure domain of an Error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindDSLParser     Kind = "dsl_parser"
	KindRuleExecution Kind = "rule_execution"
	KindEvidence      Kind = "evidence"
	KindAudit         Kind = "audit"
	KindStorage       Kind = "storage"
)

// Error is the discriminated failure type produced by every component in
// this module. Only the fields relevant to Kind are populated; the rest are
// left at their zero value.
type Error struct {
	Kind    Kind
	Message string

	// ValidationError context.
	Field string

	// DSLParserError context.
	Line   int
	Column int

	// RuleExecutionError context.
	RuleID  string
	Context string

	// EvidenceError context.
	EvidenceID string

	// AuditError context.
	AuditID string

	// StorageError context.
	Backend   string
	Operation string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("validation error (field: %s): %s", e.Field, e.Message)
		}
		return fmt.Sprintf("validation error: %s", e.Message)
	case KindDSLParser:
		if e.Line > 0 {
			return fmt.Sprintf("DSL parser error at line %d, column %d: %s", e.Line, e.Column, e.Message)
		}
		return fmt.Sprintf("DSL parser error: %s", e.Message)
	case KindRuleExecution:
		if e.RuleID != "" {
			return fmt.Sprintf("rule execution error (rule: %s): %s", e.RuleID, e.Message)
		}
		return fmt.Sprintf("rule execution error: %s", e.Message)
	case KindEvidence:
		if e.EvidenceID != "" {
			return fmt.Sprintf("evidence error (id: %s): %s", e.EvidenceID, e.Message)
		}
		return fmt.Sprintf("evidence error: %s", e.Message)
	case KindAudit:
		if e.AuditID != "" {
			return fmt.Sprintf("audit error (id: %s): %s", e.AuditID, e.Message)
		}
		return fmt.Sprintf("audit error: %s", e.Message)
	case KindStorage:
		return fmt.Sprintf("storage error [backend=%s, operation=%s]: %s", e.Backend, e.Operation, e.Message)
	default:
		return e.Message
	}
}

// Validation builds a ValidationError for a missing or malformed field.
func Validation(message, field string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// DSLParser builds a DSLParserError tied to a source position. Pass line <= 0
// when no position is known.
func DSLParser(message string, line, column int) *Error {
	return &Error{Kind: KindDSLParser, Message: message, Line: line, Column: column}
}

// RuleExecution builds a RuleExecutionError for evaluator or dispatch failures.
func RuleExecution(message, ruleID, context string) *Error {
	return &Error{Kind: KindRuleExecution, Message: message, RuleID: ruleID, Context: context}
}

// Evidence builds an EvidenceError for missing, duplicate, or integrity-violating records.
func Evidence(message, evidenceID string) *Error {
	return &Error{Kind: KindEvidence, Message: message, EvidenceID: evidenceID}
}

// Audit builds an AuditError for missing entries or bundle integrity failures.
func Audit(message, auditID string) *Error {
	return &Error{Kind: KindAudit, Message: message, AuditID: auditID}
}

// Storage builds a StorageError for a failed backend operation.
func Storage(message, backend, operation string) *Error {
	return &Error{Kind: KindStorage, Message: message, Backend: backend, Operation: operation}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// List aggregates multiple Errors, used where a caller wants every violation
// rather than the first (e.g. batch bundle validation from the CLI).
type List struct {
	Errors []*Error
}

func NewList() *List {
	return &List{Errors: make([]*Error, 0)}
}

func (l *List) Add(err *Error) {
	l.Errors = append(l.Errors, err)
}

func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

func (l *List) Error() string {
	if !l.HasErrors() {
		return ""
	}
	s := fmt.Sprintf("%d error(s):\n", len(l.Errors))
	for _, e := range l.Errors {
		s += "  " + e.Error() + "\n"
	}
	return s
}

func (l *List) ToError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}
