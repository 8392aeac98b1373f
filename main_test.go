package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdtdelta/daybook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "daybook "+Version+"\n", out)
}

func TestReportCmd(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "config.json", authLookup)
	input := writeTemp(t, dir, "log.csv", workedCSV)

	out, _, err := execute(t, "report", "--lookup", lookupPath, "--log-level", "error", input)
	require.NoError(t, err)
	assert.Equal(t, workedReport, out)
}

func TestReportCmdFlags(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "codes.yaml", "LOGIN:\n  name: Login\n  description: \"{user} via {ip}\"\n")
	input := writeTemp(t, dir, "log.csv", "When,Op,IP\n01/02/24 09:00,LOGIN,1.1.1.1\n01/02/24 09:01,LOGIN,1.1.1.1\n")

	out, _, err := execute(t, "report",
		"--lookup", lookupPath,
		"--time-column", "when",
		"--event-column", "op",
		"--no-collapse",
		"--missing-text", "?",
		"--log-level", "error",
		input)
	require.NoError(t, err)
	assert.Equal(t, "January 02, 2024\n"+
		"09:00\t[Unknown Source] Login\t? via 1.1.1.1\n"+
		"09:01\t[Unknown Source] Login\t? via 1.1.1.1\n", out)
}

func TestReportCmdConfigFile(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "config.json", authLookup)
	input := writeTemp(t, dir, "log.csv", workedCSV)
	cfgPath := writeTemp(t, dir, "daybook.yaml",
		"lookup:\n  path: "+lookupPath+"\nreport:\n  only: [LOGOUT]\nlogging:\n  level: error\n")

	out, _, err := execute(t, "--config", cfgPath, "report", input)
	require.NoError(t, err)
	assert.Equal(t, "January 02, 2024\n10:00\t[Auth] Logout\tUser logged out\n", out)
}

func TestReportCmdErrors(t *testing.T) {
	_, _, err := execute(t, "report", "--log-level", "error")
	assert.ErrorContains(t, err, "no input files")

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "report", "x.csv")
	assert.Error(t, err)

	_, _, err = execute(t, "report", "--log-level", "loud", "x.csv")
	assert.Error(t, err)

	_, _, err = execute(t, "report", "--driver", "oracle", "x.csv")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestImportExportCmds(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "config.json", authLookup)
	input := writeTemp(t, dir, "log.csv", workedCSV)
	dbPath := filepath.Join(dir, "events.db")

	_, stderr, err := execute(t, "import", "--db", dbPath, "--table", "auth", "--log-level", "error", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Imported 3 rows from log.csv into auth (3 total)")

	out, _, err := execute(t, "report", "--db", dbPath, "--table", "auth", "--lookup", lookupPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, workedReport, out)

	csvOut := filepath.Join(dir, "out.csv")
	_, _, err = execute(t, "export", "--db", dbPath, "--table", "auth", "--log-level", "error", csvOut)
	require.NoError(t, err)
	data, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Equal(t, workedCSV, string(data))

	_, _, err = execute(t, "export", "--db", dbPath, "--table", "auth", "--limit", "1", "--log-level", "error", csvOut)
	require.NoError(t, err)
	data, err = os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Equal(t, "Time,Event,ip\n01/02/24 09:00,LOGIN,1.1.1.1\n", string(data))

	out, _, err = execute(t, "report", "--db", dbPath, "--table", "auth", "--lookup", lookupPath,
		"--exclude", "LOGIN", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "January 02, 2024\n10:00\t[Auth] Logout\tUser logged out\n", out)

	_, _, err = execute(t, "export", "--log-level", "error", csvOut)
	assert.ErrorContains(t, err, "no database given")
}

func TestCodesCmd(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "config.json", authLookup)
	input := writeTemp(t, dir, "log.csv", workedCSV)

	out, _, err := execute(t, "codes", "--lookup", lookupPath, "--log-level", "error", input)
	require.NoError(t, err)
	assert.Equal(t, "2\tLOGIN\t[Auth] Login\n1\tLOGOUT\t[Auth] Logout\n", out)
}

func TestCodesCmdExclude(t *testing.T) {
	dir := t.TempDir()
	lookupPath := writeTemp(t, dir, "config.json", authLookup)
	input := writeTemp(t, dir, "log.csv", workedCSV)

	out, _, err := execute(t, "codes", "--lookup", lookupPath, "--exclude", "LOGOUT", "--log-level", "error", input)
	require.NoError(t, err)
	assert.Equal(t, "2\tLOGIN\t[Auth] Login\n", out)
}

func TestConfigInitCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "daybook.yaml")

	_, stderr, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote default configuration to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, _, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	other := filepath.Join(dir, "other.yaml")
	_, _, err = execute(t, "--config", other, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, other)
}
