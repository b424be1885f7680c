package dsl

import "testing"

func mustParse(t *testing.T, src string) *Rule {
	t.Helper()
	r, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return r
}

// Scenario 1: GDPR consent pass.
func TestEvaluate_GDPRConsentPass(t *testing.T) {
	rule := mustParse(t, `WHEN consent.processing_data THEN MUST consent.given = TRUE AND consent.specific = TRUE AND consent.informed = TRUE`)
	context := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true,
			"given":            true,
			"specific":         true,
			"informed":         true,
		},
	}
	out := Evaluate(rule, context)
	if !out.Result {
		t.Fatalf("expected result=true, got %+v", out)
	}
}

// Scenario 2: AML high-risk flag.
func TestEvaluate_AMLHighRiskFlag(t *testing.T) {
	rule := mustParse(t, `WHEN transaction.amount > 10000 AND transaction.country IN ['IR','KP','SY'] THEN DO FLAG transaction`)
	context := map[string]interface{}{
		"transaction": map[string]interface{}{
			"amount":  25000.0,
			"country": "IR",
		},
	}
	out := Evaluate(rule, context)
	if !out.Result {
		t.Fatalf("expected result=true, got %+v", out)
	}
	details, ok := out.Details.(map[string]interface{})
	if !ok || details["action_type"] != "FLAG" {
		t.Fatalf("expected action_type=FLAG in details, got %+v", out.Details)
	}
}

// Scenario 3: condition not met.
func TestEvaluate_ConditionNotMet(t *testing.T) {
	rule := mustParse(t, `WHEN user.age >= 18 THEN MUST account.is_active = TRUE`)
	context := map[string]interface{}{
		"user":    map[string]interface{}{"age": 16.0},
		"account": map[string]interface{}{"is_active": false},
	}
	out := Evaluate(rule, context)
	if !out.Result || out.Reason != "Condition not met" {
		t.Fatalf("expected inapplicable rule result=true reason=Condition not met, got %+v", out)
	}
}

// Scenario 4: regex pattern.
func TestEvaluate_RegexPattern(t *testing.T) {
	rule := mustParse(t, `WHEN email MATCHES '.*@bank\.com' THEN MUST user.is_verified = TRUE`)
	context := map[string]interface{}{
		"email": "x@bank.com",
		"user":  map[string]interface{}{"is_verified": false},
	}
	out := Evaluate(rule, context)
	if out.Result {
		t.Fatalf("expected result=false, got %+v", out)
	}
}

func TestEvaluate_MissingVariableIsNullSentinel(t *testing.T) {
	rule := mustParse(t, `WHEN a.b.c = 1 THEN MUST x = TRUE`)
	out := Evaluate(rule, map[string]interface{}{})
	if !out.Result || out.Reason != "Condition not met" {
		t.Fatalf("expected missing path to yield false condition, got %+v", out)
	}
}

func TestEvaluate_LikeOperator(t *testing.T) {
	rule := mustParse(t, `WHEN name LIKE 'jo_n%' THEN MUST ok = TRUE`)
	out := Evaluate(rule, map[string]interface{}{"name": "john_doe", "ok": true})
	if !out.Result {
		t.Fatalf("expected LIKE match, got %+v", out)
	}
}

func TestEvaluate_BetweenConstraint(t *testing.T) {
	rule := mustParse(t, `WHEN active THEN score BETWEEN 1 AND 10`)
	out := Evaluate(rule, map[string]interface{}{"active": true, "score": 5.0})
	if !out.Result {
		t.Fatalf("expected score within [1,10] to satisfy BETWEEN, got %+v", out)
	}
	out2 := Evaluate(rule, map[string]interface{}{"active": true, "score": 15.0})
	if out2.Result {
		t.Fatalf("expected score outside [1,10] to fail BETWEEN, got %+v", out2)
	}
}

func TestEvaluate_NotInConstraint(t *testing.T) {
	rule := mustParse(t, `WHEN active THEN country IN NOT ['IR','KP']`)
	out := Evaluate(rule, map[string]interface{}{"active": true, "country": "US"})
	if !out.Result {
		t.Fatalf("expected country not in blocklist to satisfy constraint, got %+v", out)
	}
}

func TestEvaluate_RequirementKeyword(t *testing.T) {
	rule := mustParse(t, `WHEN active THEN REQUIRE consent.given`)
	out := Evaluate(rule, map[string]interface{}{"active": true, "consent": map[string]interface{}{"given": true}})
	if !out.Result {
		t.Fatalf("expected requirement satisfied, got %+v", out)
	}
}

func TestParse_TrailingTokensRejected(t *testing.T) {
	_, err := Parse(`WHEN a = 1 THEN MUST b = TRUE EXTRA`)
	if err == nil {
		t.Fatal("expected unexpected_token error for trailing input")
	}
}

func TestParse_CompoundWithParens(t *testing.T) {
	rule := mustParse(t, `WHEN NOT (a = 1 OR b = 2) THEN MUST c = TRUE`)
	out := Evaluate(rule, map[string]interface{}{"a": 1.0, "b": 2.0, "c": true})
	if !out.Result || out.Reason != "Condition not met" {
		t.Fatalf("expected NOT(true OR true) to be false -> condition not met, got %+v", out)
	}
}
