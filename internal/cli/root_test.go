package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the CLI with args and captures stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

// ---------------------------------------------------------------------------
// Command tree
// ---------------------------------------------------------------------------

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, sub := range []string{
		"convert", "categories", "session", "history", "rates",
		"serve", "version", "completion",
	} {
		assert.Contains(t, stdout, sub, "subcommand %q", sub)
	}

	for _, flag := range []string{
		"--config", "--log-level", "--log-format", "--no-color", "--quiet",
		"--rates-url", "--rates-file", "--rates-timeout", "--rates-ttl", "--history-db",
	} {
		assert.Contains(t, stdout, flag, "flag %q", flag)
	}
}

func TestRootCommand_FlagErrorsAreSilentUsageErrors(t *testing.T) {
	_, stderr, err := executeCommand("--nonexistent")
	requireExitCode(t, err, 2)
	assert.Empty(t, stderr)
}

func TestRootCommand_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing config file", args: []string{"--config", "/nonexistent/path.yaml"}, want: "reading config file"},
		{name: "log level", args: []string{"--log-level", "trace"}, want: "invalid log level"},
		{name: "log format", args: []string{"--log-format", "xml"}, want: "invalid log format"},
		{name: "rates timeout", args: []string{"--rates-timeout", "0s"}, want: "invalid rates timeout"},
		{name: "rates url", args: []string{"--rates-url", "ftp://rates"}, want: "invalid rates url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(append(tt.args, "categories")...)
			requireExitCode(t, err, 2)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCommand_EnvConfig(t *testing.T) {
	t.Setenv("UNITCONV_LOG_LEVEL", "verbose")

	_, _, err := executeCommand("categories")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "invalid log level")
}

// ---------------------------------------------------------------------------
// run / exit codes
// ---------------------------------------------------------------------------

func TestRun_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"convert", "1", "kilometer", "meter"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "1000\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRun_ConversionFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"convert", "1", "meter", "liter"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 3, code)
	assert.Contains(t, stdout.String(), "Error: Cannot convert from 'meter'")
	assert.Empty(t, stderr.String())
}

func TestRun_ReadsStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"session", "--chart=false"}, strings.NewReader("2 hour minute\n"), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "2 hour = 120 minute")
}

func TestExitCode(t *testing.T) {
	code, msg := exitCode(&ExitError{Code: 8, Err: assert.AnError})
	assert.Equal(t, 8, code)
	assert.Equal(t, assert.AnError, msg)

	code, msg = exitCode(&ExitError{Code: 3})
	assert.Equal(t, 3, code)
	assert.NoError(t, msg)

	code, msg = exitCode(errors.New("boom"))
	assert.Equal(t, 1, code)
	assert.EqualError(t, msg, "boom")
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 1, Err: assert.AnError}
	assert.Equal(t, assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)

	bare := &ExitError{Code: 42}
	assert.Equal(t, "exit code 42", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
