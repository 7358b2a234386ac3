package main

import "testing"

func TestGetEnvPrefersEnvironment(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/suumo-checker/checker.yaml")
	if got := getEnv("CONFIG_PATH", "config/checker.yaml"); got != "/etc/suumo-checker/checker.yaml" {
		t.Errorf("got %q", got)
	}

	t.Setenv("CONFIG_PATH", "")
	if got := getEnv("CONFIG_PATH", "config/checker.yaml"); got != "config/checker.yaml" {
		t.Errorf("fallback: got %q", got)
	}
}
