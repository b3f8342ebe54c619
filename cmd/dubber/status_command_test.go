package main

import "testing"

func TestStatusReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Output directory")
	requireContains(t, out, "Free disk space")
	requireContains(t, out, "FFmpeg")
}

func TestConfigPathPrintsResolvedLocation(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, env.configPath)
}
