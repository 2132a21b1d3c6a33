package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ids", "stations", "view", "render", "preload"} {
		assert.True(t, names[want], want)
	}

	f := root.PersistentFlags().Lookup("axis-min")
	require.NotNil(t, f)
	assert.Equal(t, "2010-01-01", f.DefValue)
	assert.Equal(t, "warn", root.PersistentFlags().Lookup("log-level").DefValue)
}

func TestIDsCmd(t *testing.T) {
	out, err := execute(t, "ids", "1234567", "8454000", "abc")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"RAW", "DISPLAY", "VTEC", "VALID"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1234567", "01234567", "01234567", "true"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"8454000", "08454000", "8454000", "true"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"abc", "00000abc", "00000abc", "false"}, strings.Fields(lines[3]))
}

func TestIDsCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "ids")
	assert.Error(t, err)
}

func TestViewCmd_RequiresOneStation(t *testing.T) {
	_, err := execute(t, "view")
	assert.ErrorIs(t, err, errNoStation)

	_, err = execute(t, "view", "--discharge", "01108000", "--tide", "8447930")
	assert.ErrorIs(t, err, errNoStation)
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "ids", "1")
	assert.ErrorContains(t, err, "log level")
}
