// Package bundle implements the DecisionBundle data model: the portable,
// self-describing artifact that carries a set of compliance rules,
// recorded decisions, supporting evidence, and an embedded audit header.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
)

// SupportedVersion is the only DecisionBundle wire version this module accepts.
const SupportedVersion = "1.0"

var validDomains = map[string]bool{
	"finance": true,
	"health":  true,
	"esg":     true,
	"general": true,
}

var validRuleTypes = map[string]bool{
	"dsl":            true,
	"expression":     true,
	"decision_table": true,
	"decision_tree":  true,
}

// Metadata describes a DecisionBundle's provenance.
type Metadata struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Created      string   `json:"created" yaml:"created"`
	Jurisdiction string   `json:"jurisdiction" yaml:"jurisdiction"`
	Domain       string   `json:"domain" yaml:"domain"`
	Author       string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Rule is a declarative compliance rule. Definition's shape depends on Type;
// see the dsl/expression/tabletree packages for how each type is consumed.
type Rule struct {
	ID          string                 `json:"id" yaml:"id"`
	Name        string                 `json:"name" yaml:"name"`
	Type        string                 `json:"type" yaml:"type"`
	Definition  map[string]interface{} `json:"definition" yaml:"definition"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    string                 `json:"severity,omitempty" yaml:"severity,omitempty"`
	Category    string                 `json:"category,omitempty" yaml:"category,omitempty"`
}

// Decision records the outcome of evaluating a Rule against some input.
type Decision struct {
	ID        string                 `json:"id" yaml:"id"`
	RuleID    string                 `json:"ruleId" yaml:"ruleId"`
	Input     map[string]interface{} `json:"input" yaml:"input"`
	Output    map[string]interface{} `json:"output" yaml:"output"`
	Timestamp string                 `json:"timestamp" yaml:"timestamp"`
}

// Evidence is a bundle-embedded evidence record, distinct from records held
// by the standalone evidence manager (pkg/compliance/evidence) though
// identical in shape.
type Evidence struct {
	ID        string                 `json:"id" yaml:"id"`
	Type      string                 `json:"type" yaml:"type"`
	Content   map[string]interface{} `json:"content" yaml:"content"`
	Timestamp string                 `json:"timestamp" yaml:"timestamp"`
	Source    string                 `json:"source" yaml:"source"`
	Hash      string                 `json:"hash" yaml:"hash"`
}

// TrailEntry is one entry in a bundle's embedded audit header, recording
// builder mutations (rule/decision/evidence additions). It is unrelated to
// the standalone audit trail manager's Entry type.
type TrailEntry struct {
	Timestamp string                 `json:"timestamp" yaml:"timestamp"`
	Action    string                 `json:"action" yaml:"action"`
	User      string                 `json:"user" yaml:"user"`
	Details   map[string]interface{} `json:"details" yaml:"details"`
}

// AuditHeader is the bundle's optional embedded audit metadata.
type AuditHeader struct {
	Created  string       `json:"created" yaml:"created"`
	Modified string       `json:"modified" yaml:"modified"`
	Version  string       `json:"version" yaml:"version"`
	Trail    []TrailEntry `json:"trail" yaml:"trail"`
}

// Bundle is the fully validated, in-memory representation of a DecisionBundle.
type Bundle struct {
	Version   string       `json:"version" yaml:"version"`
	Metadata  Metadata     `json:"metadata" yaml:"metadata"`
	Rules     []Rule       `json:"rules" yaml:"rules"`
	Decisions []Decision   `json:"decisions" yaml:"decisions"`
	Evidence  []Evidence   `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Audit     *AuditHeader `json:"audit,omitempty" yaml:"audit,omitempty"`
}

// FromMap validates and builds a Bundle from an untyped, externally sourced
// document (the JSON/YAML-decoded document itself, not a Go struct).
// Validation mirrors invariant I4: any missing required field, an
// unsupported version, an invalid domain, or an invalid rule type fails the
// construction before any rule runs.
func FromMap(data map[string]interface{}) (*Bundle, error) {
	if err := validateRaw(data); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, cerrors.Validation("bundle data is not serializable: "+err.Error(), "")
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, cerrors.Validation("bundle does not match the expected shape: "+err.Error(), "")
	}
	return &b, nil
}

// FromJSON parses and validates a DecisionBundle from JSON bytes.
func FromJSON(data []byte) (*Bundle, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cerrors.Validation("invalid JSON: "+err.Error(), "")
	}
	return FromMap(raw)
}

// FromFile loads and validates a DecisionBundle from a JSON file on disk.
// File I/O failures are not part of the compliance error taxonomy (C1) and
// are returned as plain errors.
func FromFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle file: %w", err)
	}
	return FromJSON(data)
}

// FromYAMLFile loads and validates a DecisionBundle authored in YAML, an
// ergonomic authoring format layered on top of the JSON wire format
// mandated by spec (§6).
func FromYAMLFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle file: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, cerrors.Validation("invalid YAML: "+err.Error(), "")
	}
	return FromMap(normalizeYAMLMap(raw))
}

// normalizeYAMLMap converts map[interface{}]interface{} values that older
// YAML decoders can still produce into map[string]interface{} so downstream
// JSON marshaling and validation see a uniform shape.
func normalizeYAMLMap(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMap(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLMap(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLMap(val)
		}
		return out
	default:
		return v
	}
}

func validateRaw(data map[string]interface{}) error {
	for _, field := range []string{"version", "metadata", "rules", "decisions"} {
		if _, ok := data[field]; !ok {
			return cerrors.Validation("missing required field: "+field, field)
		}
	}

	version, _ := data["version"].(string)
	if version != SupportedVersion {
		return cerrors.Validation(fmt.Sprintf("unsupported version: %v", data["version"]), "version")
	}

	metadata, ok := data["metadata"].(map[string]interface{})
	if !ok {
		return cerrors.Validation("metadata must be an object", "metadata")
	}
	for _, field := range []string{"id", "name", "description", "created", "jurisdiction", "domain"} {
		if _, ok := metadata[field]; !ok {
			return cerrors.Validation("missing required metadata field: "+field, "metadata."+field)
		}
	}
	domain, _ := metadata["domain"].(string)
	if !validDomains[domain] {
		return cerrors.Validation("invalid domain: "+domain, "metadata.domain")
	}

	rules, ok := data["rules"].([]interface{})
	if !ok {
		return cerrors.Validation("rules must be an array", "rules")
	}
	for i, r := range rules {
		if err := validateRule(r, i); err != nil {
			return err
		}
	}

	decisions, ok := data["decisions"].([]interface{})
	if !ok {
		return cerrors.Validation("decisions must be an array", "decisions")
	}
	for i, d := range decisions {
		if err := validateDecision(d, i); err != nil {
			return err
		}
	}

	return nil
}

func validateRule(r interface{}, index int) error {
	rule, ok := r.(map[string]interface{})
	if !ok {
		return cerrors.Validation("rule must be an object", fmt.Sprintf("rules[%d]", index))
	}
	for _, field := range []string{"id", "name", "type", "definition"} {
		if _, ok := rule[field]; !ok {
			return cerrors.Validation("missing required rule field: "+field, fmt.Sprintf("rules[%d].%s", index, field))
		}
	}
	ruleType, _ := rule["type"].(string)
	if !validRuleTypes[ruleType] {
		return cerrors.Validation("invalid rule type: "+ruleType, fmt.Sprintf("rules[%d].type", index))
	}
	return nil
}

func validateDecision(d interface{}, index int) error {
	decision, ok := d.(map[string]interface{})
	if !ok {
		return cerrors.Validation("decision must be an object", fmt.Sprintf("decisions[%d]", index))
	}
	for _, field := range []string{"id", "ruleId", "input", "output", "timestamp"} {
		if _, ok := decision[field]; !ok {
			return cerrors.Validation("missing required decision field: "+field, fmt.Sprintf("decisions[%d].%s", index, field))
		}
	}
	output, ok := decision["output"].(map[string]interface{})
	if !ok {
		return cerrors.Validation("output must be an object", fmt.Sprintf("decisions[%d].output", index))
	}
	if _, ok := output["result"]; !ok {
		return cerrors.Validation("missing output.result", fmt.Sprintf("decisions[%d].output.result", index))
	}
	return nil
}

// GetRuleByID returns the rule with the given ID, or nil if none exists.
func (b *Bundle) GetRuleByID(ruleID string) *Rule {
	for i := range b.Rules {
		if b.Rules[i].ID == ruleID {
			return &b.Rules[i]
		}
	}
	return nil
}

// GetDecisionsByRuleID returns every decision recorded against ruleID.
func (b *Bundle) GetDecisionsByRuleID(ruleID string) []Decision {
	var out []Decision
	for _, d := range b.Decisions {
		if d.RuleID == ruleID {
			out = append(out, d)
		}
	}
	return out
}

// GetEvidenceByID returns the bundle-embedded evidence record with the given ID.
func (b *Bundle) GetEvidenceByID(evidenceID string) *Evidence {
	for i := range b.Evidence {
		if b.Evidence[i].ID == evidenceID {
			return &b.Evidence[i]
		}
	}
	return nil
}

// ToJSON serializes the bundle back to its wire JSON form.
func (b *Bundle) ToJSON(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(b, "", "  ")
	}
	return json.Marshal(b)
}

// Builder constructs a Bundle programmatically, mirroring the fluent
// DecisionBundleBuilder API while validating everything in one place at
// Build() rather than mid-chain.
type Builder struct {
	bundle *Bundle
}

// NewBuilder starts a new DecisionBundle with sensible defaults: a random
// metadata ID, domain "general", and an empty embedded audit header.
func NewBuilder() *Builder {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Builder{
		bundle: &Bundle{
			Version: SupportedVersion,
			Metadata: Metadata{
				ID:      uuid.NewString(),
				Domain:  "general",
				Created: now,
			},
			Rules:     []Rule{},
			Decisions: []Decision{},
			Evidence:  []Evidence{},
			Audit: &AuditHeader{
				Created:  now,
				Modified: now,
				Version:  SupportedVersion,
				Trail:    []TrailEntry{},
			},
		},
	}
}

func (b *Builder) SetName(name string) *Builder {
	b.bundle.Metadata.Name = name
	return b
}

func (b *Builder) SetDescription(description string) *Builder {
	b.bundle.Metadata.Description = description
	return b
}

func (b *Builder) SetJurisdiction(jurisdiction string) *Builder {
	b.bundle.Metadata.Jurisdiction = jurisdiction
	return b
}

func (b *Builder) SetDomain(domain string) *Builder {
	b.bundle.Metadata.Domain = domain
	return b
}

func (b *Builder) SetAuthor(author string) *Builder {
	b.bundle.Metadata.Author = author
	return b
}

func (b *Builder) AddTag(tag string) *Builder {
	for _, t := range b.bundle.Metadata.Tags {
		if t == tag {
			return b
		}
	}
	b.bundle.Metadata.Tags = append(b.bundle.Metadata.Tags, tag)
	return b
}

func (b *Builder) AddRule(rule Rule) *Builder {
	b.bundle.Rules = append(b.bundle.Rules, rule)
	b.addTrail("rule_added", "Added rule: "+rule.ID)
	return b
}

func (b *Builder) AddDecision(decision Decision) *Builder {
	b.bundle.Decisions = append(b.bundle.Decisions, decision)
	b.addTrail("decision_added", "Added decision: "+decision.ID)
	return b
}

func (b *Builder) AddEvidence(evidence Evidence) *Builder {
	b.bundle.Evidence = append(b.bundle.Evidence, evidence)
	b.addTrail("evidence_added", "Added evidence: "+evidence.ID)
	return b
}

func (b *Builder) addTrail(action, reason string) {
	now := time.Now().UTC().Format(time.RFC3339)
	b.bundle.Audit.Modified = now
	b.bundle.Audit.Trail = append(b.bundle.Audit.Trail, TrailEntry{
		Timestamp: now,
		Action:    action,
		User:      "builder",
		Details:   map[string]interface{}{"reason": reason},
	})
}

// Build validates the accumulated bundle and returns it, or the first
// ValidationError encountered.
func (b *Builder) Build() (*Bundle, error) {
	if !validDomains[b.bundle.Metadata.Domain] {
		return nil, cerrors.Validation("invalid domain: "+b.bundle.Metadata.Domain, "metadata.domain")
	}
	for i, r := range b.bundle.Rules {
		if !validRuleTypes[r.Type] {
			return nil, cerrors.Validation("invalid rule type: "+r.Type, fmt.Sprintf("rules[%d].type", i))
		}
	}
	for i, d := range b.bundle.Decisions {
		if _, ok := d.Output["result"]; !ok {
			return nil, cerrors.Validation("missing output.result", fmt.Sprintf("decisions[%d].output.result", i))
		}
	}
	result := *b.bundle
	return &result, nil
}
