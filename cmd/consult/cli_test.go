package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/service"
	"github.com/fuo-consult-server/internal/setup"
)

const rmsfIntake = `{
	"age": 45,
	"sex": "Male",
	"immune": {"kind": "normal"},
	"max_temp_f": 102.5,
	"heart_rate": 88,
	"fever_days": 9,
	"exposures": ["Tick Bite (Dog/Wood)"],
	"exam": ["Rash (Palms/Soles)"]
}`

// execute runs the root command in an empty working directory so no stray config.yaml is
// picked up.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEvaluate_NoteFromStdin(t *testing.T) {
	stdout, _, err := execute(t, rmsfIntake, "evaluate")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "ID CONSULT NOTE: FEVER OF UNKNOWN ORIGIN\n"))
	assert.Contains(t, stdout, "Rocky Mountain Spotted Fever")
	assert.Contains(t, stdout, domain.TierImmediate.Label())
}

func TestEvaluate_JSONFromFile(t *testing.T) {
	input := writeFile(t, "intake.json", rmsfIntake)

	stdout, _, err := execute(t, "", "evaluate", "--input", input, "--json")
	require.NoError(t, err)

	var result struct {
		Candidates []service.CandidateView `json:"candidates"`
		Plan       domain.Plan             `json:"plan"`
		Note       string                  `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.NotEmpty(t, result.Candidates)
	assert.Equal(t, "Rocky Mountain Spotted Fever", result.Candidates[0].Name)
	assert.NotZero(t, result.Plan.Len())
	assert.NotEmpty(t, result.Note)
}

func TestEvaluate_Pretty(t *testing.T) {
	stdout, _, err := execute(t, rmsfIntake, "evaluate", "--pretty", "--width", "120")
	require.NoError(t, err)
	assert.NotEmpty(t, stdout)
}

func TestEvaluate_WritesNoteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")

	stdout, stderr, err := execute(t, rmsfIntake, "evaluate", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Note written to")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "fuo-consult-"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, stdout, string(data))
}

func TestEvaluate_SaveUsesDefaultExportDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	stdout, stderr, err := execute(t, rmsfIntake, "evaluate", "--save")
	require.NoError(t, err)

	dir := filepath.Join(home, ".fuo-consult", "exports")
	assert.Contains(t, stderr, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, stdout, string(data))
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{"malformed JSON", "{", nil, "failed to parse intake"},
		{"unknown field", `{"age": 40, "temperature": 101}`, nil, "failed to parse intake"},
		{"invalid intake", `{"age": 40, "immune": {"kind": "normal"}, "max_temp_f": 101, "heart_rate": 0}`, nil, "heart_rate"},
		{"missing input file", "", []string{"--input", "/nonexistent/intake.json"}, "failed to open intake"},
		{"json and pretty together", rmsfIntake, []string{"--json", "--pretty"}, "none of the others can be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.stdin, append([]string{"evaluate"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluate_RheumSuspicionFlag(t *testing.T) {
	without, _, err := execute(t, rmsfIntake, "evaluate", "--json")
	require.NoError(t, err)
	with, _, err := execute(t, rmsfIntake, "evaluate", "--json", "--rheum-suspicion")
	require.NoError(t, err)

	var a, b struct {
		Plan domain.Plan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(without), &a))
	require.NoError(t, json.Unmarshal([]byte(with), &b))
	assert.GreaterOrEqual(t, b.Plan.Len(), a.Plan.Len())
}

func TestConditions(t *testing.T) {
	stdout, _, err := execute(t, "", "conditions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, knowledge.Default().Len()+1)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
}

func TestConditions_CategoryJSON(t *testing.T) {
	stdout, _, err := execute(t, "", "conditions", "--category", string(domain.CategoryCritical), "--json")
	require.NoError(t, err)

	var views []service.ConditionView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))
	require.NotEmpty(t, views)
	for _, v := range views {
		assert.Equal(t, string(domain.CategoryCritical), v.Category)
	}
}

func TestExportThenValidateKB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")

	_, stderr, err := execute(t, "", "export-kb", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, path)

	stdout, _, err := execute(t, "", "validate-kb", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OK")
	assert.Contains(t, stdout, "conditions")
}

func TestValidateKB_BuiltIn(t *testing.T) {
	stdout, _, err := execute(t, "", "validate-kb")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "built-in: OK"))
}

func TestValidateKB_Invalid(t *testing.T) {
	path := writeFile(t, "kb.yaml", "conditions: []\n")

	_, _, err := execute(t, "", "validate-kb", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidKnowledgeBase)
}

func TestConfigFlag(t *testing.T) {
	cfgPath := writeFile(t, "config.yaml", "logging:\n  level: loud\n")

	_, _, err := execute(t, "", "--config", cfgPath, "conditions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestSetupRegisterAndStatus(t *testing.T) {
	clientConfig := filepath.Join(t.TempDir(), "client.json")
	binary := writeFile(t, setup.BinaryName, "#!/bin/sh\n")
	require.NoError(t, os.Chmod(binary, 0o755))

	stdout, _, err := execute(t, "", "setup", "register", "--client-config", clientConfig, "--binary", binary)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Registered fuo-consult")

	stdout, _, err = execute(t, "", "setup", "status", "--client-config", clientConfig)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Registered:    true")
	assert.NotContains(t, stdout, "!")

	stdout, _, err = execute(t, "", "setup", "unregister", "--client-config", clientConfig)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed fuo-consult")
}

func TestConsultMarkdown_NoPattern(t *testing.T) {
	md := consultMarkdown(&service.ConsultResult{Plan: domain.NewPlan()})

	assert.Contains(t, md, service.NoSyndromicPattern)
	assert.NotContains(t, md, "### ")
}
