package bundle

import (
	"testing"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
)

func validRawBundle() map[string]interface{} {
	return map[string]interface{}{
		"version": "1.0",
		"metadata": map[string]interface{}{
			"id":           "b1",
			"name":         "GDPR baseline",
			"description":  "baseline consent rules",
			"created":      "2026-01-01T00:00:00Z",
			"jurisdiction": "EU",
			"domain":       "general",
		},
		"rules": []interface{}{
			map[string]interface{}{
				"id":         "r1",
				"name":       "consent check",
				"type":       "dsl",
				"definition": map[string]interface{}{"dsl": "WHEN consent.given = TRUE THEN MUST consent.given = TRUE"},
			},
		},
		"decisions": []interface{}{},
	}
}

func TestFromMap_Valid(t *testing.T) {
	b, err := FromMap(validRawBundle())
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if b.Version != "1.0" || b.Metadata.Domain != "general" {
		t.Errorf("unexpected bundle: %+v", b)
	}
	if b.GetRuleByID("r1") == nil {
		t.Errorf("expected rule r1 to be found")
	}
}

func TestFromMap_MissingField(t *testing.T) {
	raw := validRawBundle()
	delete(raw, "decisions")
	_, err := FromMap(raw)
	if !cerrors.Is(err, cerrors.KindValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFromMap_BadVersion(t *testing.T) {
	raw := validRawBundle()
	raw["version"] = "2.0"
	_, err := FromMap(raw)
	ce, ok := err.(*cerrors.Error)
	if !ok || ce.Kind != cerrors.KindValidation || ce.Field != "version" {
		t.Fatalf("expected ValidationError on field version, got %v", err)
	}
}

func TestFromMap_BadDomain(t *testing.T) {
	raw := validRawBundle()
	metadata := raw["metadata"].(map[string]interface{})
	metadata["domain"] = "astrology"
	_, err := FromMap(raw)
	ce, ok := err.(*cerrors.Error)
	if !ok || ce.Field != "metadata.domain" {
		t.Fatalf("expected ValidationError on metadata.domain, got %v", err)
	}
}

func TestFromMap_BadRuleType(t *testing.T) {
	raw := validRawBundle()
	rules := raw["rules"].([]interface{})
	rule := rules[0].(map[string]interface{})
	rule["type"] = "magic"
	_, err := FromMap(raw)
	ce, ok := err.(*cerrors.Error)
	if !ok || ce.Field != "rules[0].type" {
		t.Fatalf("expected ValidationError on rules[0].type, got %v", err)
	}
}

func TestFromMap_DecisionMissingResult(t *testing.T) {
	raw := validRawBundle()
	raw["decisions"] = []interface{}{
		map[string]interface{}{
			"id":        "d1",
			"ruleId":    "r1",
			"input":     map[string]interface{}{},
			"output":    map[string]interface{}{},
			"timestamp": "2026-01-01T00:00:00Z",
		},
	}
	_, err := FromMap(raw)
	ce, ok := err.(*cerrors.Error)
	if !ok || ce.Field != "decisions[0].output.result" {
		t.Fatalf("expected ValidationError on decisions[0].output.result, got %v", err)
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	b, err := FromMap(validRawBundle())
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	out, err := b.ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	b2, err := FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if b2.Metadata.ID != b.Metadata.ID || len(b2.Rules) != len(b.Rules) {
		t.Errorf("round trip mismatch: %+v vs %+v", b, b2)
	}
}

func TestBuilder_Build(t *testing.T) {
	b, err := NewBuilder().
		SetName("AML screen").
		SetDomain("finance").
		SetJurisdiction("US").
		AddTag("aml").
		AddRule(Rule{ID: "r1", Name: "high value", Type: "expression", Definition: map[string]interface{}{"expression": "amount > 10000"}}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if b.Metadata.Domain != "finance" || len(b.Rules) != 1 {
		t.Errorf("unexpected bundle: %+v", b)
	}
	if len(b.Audit.Trail) != 1 || b.Audit.Trail[0].Action != "rule_added" {
		t.Errorf("expected one rule_added audit trail entry, got %+v", b.Audit.Trail)
	}
}

func TestBuilder_InvalidDomainFailsAtBuild(t *testing.T) {
	_, err := NewBuilder().SetDomain("astrology").Build()
	if !cerrors.Is(err, cerrors.KindValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
