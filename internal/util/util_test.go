package util

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"surrounding prose", `Claro! Aqui está: {"a":1} espero que ajude`, `{"a":1}`, true},
		{"nested objects", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"braces inside strings", `{"a":"tem { e } aqui"}`, `{"a":"tem { e } aqui"}`, true},
		{"escaped quotes", `{"a":"diz \"oi\""}`, `{"a":"diz \"oi\""}`, true},
		{"no object", "sem json nenhum", "", false},
		{"unbalanced", `{"a":1`, "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Errorf("ExtractJSONObject(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MONTAP_TEST_KEY", "value")
	if got := GetEnv("MONTAP_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("GetEnv = %q, want value", got)
	}
	if got := GetEnv("MONTAP_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv unset = %q, want fallback", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("MONTAP_TEST_BOOL", "yes")
	if !ParseBoolEnv("MONTAP_TEST_BOOL", false) {
		t.Error("ParseBoolEnv(yes) = false, want true")
	}
	t.Setenv("MONTAP_TEST_BOOL", "off")
	if ParseBoolEnv("MONTAP_TEST_BOOL", true) {
		t.Error("ParseBoolEnv(off) = true, want false")
	}
	t.Setenv("MONTAP_TEST_BOOL", "talvez")
	if !ParseBoolEnv("MONTAP_TEST_BOOL", true) {
		t.Error("ParseBoolEnv(invalid) should return the default")
	}
}
