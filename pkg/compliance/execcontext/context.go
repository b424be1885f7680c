// Package execcontext models the snapshot of inputs consumed by one bundle
// execution: context data, accumulated results, and accumulated errors.
package execcontext

import "github.com/google/uuid"

// ExecutionContext is a snapshot of inputs for one bundle execution. It is
// created per run and discarded; its Results may be persisted externally by
// the caller.
type ExecutionContext struct {
	Data        map[string]interface{}
	Variables   map[string]interface{}
	ExecutionID string
	Timestamp   string
	Results     []interface{}
	Errors      []string
	Metadata    map[string]interface{}
}

// New builds an ExecutionContext with a fresh execution id and empty
// accumulators.
func New(data map[string]interface{}, timestamp string) *ExecutionContext {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &ExecutionContext{
		Data:        data,
		Variables:   map[string]interface{}{},
		ExecutionID: uuid.NewString(),
		Timestamp:   timestamp,
		Results:     make([]interface{}, 0),
		Errors:      make([]string, 0),
		Metadata:    map[string]interface{}{},
	}
}

// VisibleData returns the merged view evaluators and the rule engine's cache
// key operate over: Data with Variables layered on top.
func (c *ExecutionContext) VisibleData() map[string]interface{} {
	merged := make(map[string]interface{}, len(c.Data)+len(c.Variables))
	for k, v := range c.Data {
		merged[k] = v
	}
	for k, v := range c.Variables {
		merged[k] = v
	}
	return merged
}

func (c *ExecutionContext) AddResult(result interface{}) {
	c.Results = append(c.Results, result)
}

func (c *ExecutionContext) AddError(message string) {
	c.Errors = append(c.Errors, message)
}
