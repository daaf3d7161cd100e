// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points lunchctl at a fresh SQLite file.
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "lunch.db"))
	t.Setenv("PUBLIC_HOSTNAME", "lunch.test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("CONFIG_FILE", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeed(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "8 candidates added")
	assert.Contains(t, out, "voter Joe Test: http://lunch.test/vote?t=")
	assert.Contains(t, out, "voter Bob Test:")

	// Seeding again adds nothing.
	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "0 candidates added")
	assert.NotContains(t, out, "voter Joe Test")

	out, err = run(t, "candidate", "list")
	require.NoError(t, err)
	for _, name := range demoCandidates {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "never")
}

func TestCandidateCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "candidate", "add", "Thai", "--website", "https://thai.example", "--wins", "2", "--last-win", "2025-01-09")
	require.NoError(t, err)
	assert.Contains(t, out, "added Thai")

	_, err = run(t, "candidate", "add", "Thai")
	require.Error(t, err, "duplicate names are refused")

	_, err = run(t, "candidate", "add", "Greek", "--last-win", "last week")
	require.Error(t, err)

	out, err = run(t, "candidate", "disable", "thai")
	require.NoError(t, err)
	assert.Equal(t, "disabled Thai\n", out)

	out, err = run(t, "candidate", "list")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Thai\s+false\s+2\s+2025-01-09`), out)

	out, err = run(t, "candidate", "enable", "Thai")
	require.NoError(t, err)
	assert.Equal(t, "enabled Thai\n", out)

	_, err = run(t, "candidate", "enable", "Nowhere")
	require.Error(t, err)
}

func TestVoterCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "voter", "add", "Ann", "ann@test.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "added Ann: http://lunch.test/vote?t="))

	_, err = run(t, "voter", "add", "Ann Again", "ann@test.com")
	require.Error(t, err)

	out, err = run(t, "voter", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ann@test.com")
	assert.NotContains(t, out, "vote?t=")
}

func TestTickAndLeaderboard(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "seed")
	require.NoError(t, err)

	// The outcome depends on the wall clock; any transition but a skip is fine.
	out, err := run(t, "tick")
	require.NoError(t, err)
	assert.Contains(t, []string{"none\n", "opened\n", "closed\n"}, out)

	out, err = run(t, "leaderboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza")
	assert.Contains(t, out, "ballots")

	_, err = run(t, "leaderboard", "--voter", "not-a-token")
	require.Error(t, err)
}
