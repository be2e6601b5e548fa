package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/rates"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// executeCommandWithInput runs the CLI with stdin set to input.
func executeCommandWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

const testRates = `schemaVersion: "1.0.0"
base: USD
date: "2024-01-02"
source: test
rates:
  EUR: 0.9
  GBP: 0.8
  JPY: 150
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

// ---------------------------------------------------------------------------
// convert
// ---------------------------------------------------------------------------

func TestConvert_Length(t *testing.T) {
	stdout, _, err := executeCommand("convert", "1000", "meter", "kilometer", "--category", "Length")
	require.NoError(t, err)
	assert.Equal(t, "1\n", stdout)
}

func TestConvert_InfersTemperature(t *testing.T) {
	stdout, _, err := executeCommand("convert", "100", "celsius", "fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, "212\n", stdout)
}

func TestConvert_NegativeValue(t *testing.T) {
	stdout, _, err := executeCommand("convert", "--", "-40", "celsius", "fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, "-40\n", stdout)
}

func TestConvert_CompoundUnits(t *testing.T) {
	stdout, _, err := executeCommand("convert", "36", "kilometer/hour", "meter/second")
	require.NoError(t, err)

	v, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-9)
}

func TestConvert_IncompatibleExitsThree(t *testing.T) {
	stdout, _, err := executeCommand("convert", "1", "meter", "liter", "-c", "Length-vs-Volume-mismatch")
	require.Error(t, err)
	requireExitCode(t, err, 3)

	assert.True(t, strings.HasPrefix(stdout, "Error: Cannot convert from 'meter'"), stdout)
}

func TestConvert_CurrencyFromFile(t *testing.T) {
	ratesFile := writeFile(t, "rates.yaml", testRates)

	stdout, _, err := executeCommand("--rates-file", ratesFile, "convert", "10", "EUR", "GBP", "-c", "Currency")
	require.NoError(t, err)

	v, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	require.NoError(t, err)
	assert.InDelta(t, 10*0.8/0.9, v, 1e-9)
}

func TestConvert_UnknownCurrencyJSON(t *testing.T) {
	ratesFile := writeFile(t, "rates.yaml", testRates)

	stdout, _, err := executeCommand("--rates-file", ratesFile, "convert", "5", "XYZ", "USD", "-c", "Currency", "-o", "json")
	requireExitCode(t, err, 3)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))

	errObj, ok := out["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RateUnavailable", errObj["kind"])
	assert.Contains(t, out["display"], "rate unavailable")
	assert.NotContains(t, out, "result")
}

func TestConvert_YAMLOutput(t *testing.T) {
	stdout, _, err := executeCommand("convert", "1", "mile", "kilometer", "-o", "yaml")
	require.NoError(t, err)

	var out conversionOutput
	require.NoError(t, sigsyaml.Unmarshal([]byte(stdout), &out))
	require.NotNil(t, out.Result)
	assert.InDelta(t, 1.609344, *out.Result, 1e-12)
	assert.Equal(t, "Length", out.Category)
}

func TestConvert_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad value", args: []string{"convert", "abc", "meter", "kilometer"}, want: "invalid value"},
		{name: "nan value", args: []string{"convert", "NaN", "meter", "kilometer"}, want: "must be a finite number"},
		{name: "infinite value", args: []string{"convert", "Inf", "meter", "kilometer"}, want: "must be a finite number"},
		{name: "bad format", args: []string{"convert", "1", "meter", "kilometer", "-o", "xml"}, want: "invalid output format"},
		{name: "missing rates file", args: []string{"--rates-file", "/nonexistent/rates.yaml", "convert", "1", "m", "km"}, want: "reading rate snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			requireExitCode(t, err, 2)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConvert_WrongArgCount(t *testing.T) {
	_, _, err := executeCommand("convert", "1", "meter")
	require.Error(t, err)
}

func TestConvert_CustomUnitsFromConfig(t *testing.T) {
	cfg := writeFile(t, "unitconv.yaml", "units:\n  - name: furlong\n    definition: 201.168 meter\n")

	stdout, _, err := executeCommand("--config", cfg, "convert", "1", "mile", "furlong")
	require.NoError(t, err)

	v, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, v, 1e-9)
}

func TestConvert_InvalidCustomUnits(t *testing.T) {
	cfg := writeFile(t, "unitconv.yaml", "units:\n  - name: smoot\n    definition: 1.7 nonsense\n")

	_, _, err := executeCommand("--config", cfg, "convert", "1", "meter", "smoot")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "units[smoot]")
}

func TestConvert_RecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := executeCommand("--history-db", db, "convert", "1000", "meter", "kilometer")
	require.NoError(t, err)

	_, _, err = executeCommand("--history-db", db, "convert", "1", "meter", "liter")
	requireExitCode(t, err, 3)

	stdout, _, err := executeCommand("--history-db", db, "history", "export", "--format", "json")
	require.NoError(t, err)

	var doc history.Document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Equal(t, 2, doc.Count)
	assert.Equal(t, "meter", doc.Records[0].From)
	assert.Equal(t, converter.IncompatibleUnits, doc.Records[1].ErrorKind)
}

// ---------------------------------------------------------------------------
// categories
// ---------------------------------------------------------------------------

func TestCategories_Table(t *testing.T) {
	stdout, _, err := executeCommand("categories")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, []string{"CATEGORY", "UNITS"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[2], "Length")
	assert.Contains(t, lines[2], "meter, kilometer, mile")
}

func TestCategories_One(t *testing.T) {
	stdout, _, err := executeCommand("categories", "temperature")
	require.NoError(t, err)
	assert.Equal(t, "celsius\nfahrenheit\nkelvin\n", stdout)
}

func TestCategories_Unknown(t *testing.T) {
	_, _, err := executeCommand("categories", "Luminosity")
	requireExitCode(t, err, 2)
}

func TestCategories_JSON(t *testing.T) {
	stdout, _, err := executeCommand("categories", "-o", "json")
	require.NoError(t, err)

	var entries []converter.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	assert.Len(t, entries, 11)
	assert.Equal(t, converter.Data, entries[10].Category)
}

// ---------------------------------------------------------------------------
// session
// ---------------------------------------------------------------------------

const sessionInput = `# conversions
1000 meter kilometer

100, celsius, fahrenheit, Temperature
bad line
1 meter liter
2, square meter, square foot
`

func TestSession(t *testing.T) {
	stdout, stderr, err := executeCommandWithInput(sessionInput, "session", "--chart-width", "10")
	require.NoError(t, err)

	assert.Contains(t, stdout, "1000 meter = 1 kilometer")
	assert.Contains(t, stdout, "100 celsius = 212 fahrenheit")
	assert.Contains(t, stdout, "1 meter -> liter: Error: Cannot convert")
	assert.Contains(t, stdout, "2 square meter = 21.5278")

	// Table and chart.
	assert.Contains(t, stdout, "VALUE")
	assert.Contains(t, stdout, "celsius      |##########")
	assert.Contains(t, stdout, "(1 non-numeric result(s) omitted)")

	assert.Contains(t, stderr, "line 5:")
}

func TestSession_NoChart(t *testing.T) {
	stdout, _, err := executeCommandWithInput("1 meter liter\n", "session", "--chart=false")
	require.NoError(t, err)

	assert.Contains(t, stdout, "RESULT")
	assert.NotContains(t, stdout, "omitted")
}

func TestSession_Empty(t *testing.T) {
	stdout, _, err := executeCommandWithInput("", "session")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No conversions recorded.")
}

func TestSession_PersistsToHistoryDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := executeCommandWithInput("1 mile kilometer\n1 foot inch\n", "--history-db", db, "session")
	require.NoError(t, err)

	stdout, _, err := executeCommand("--history-db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mile")
	assert.Contains(t, stdout, "foot")
}

func TestParseSessionLine(t *testing.T) {
	tests := []struct {
		line    string
		want    converter.Request
		wantErr string
	}{
		{line: "1 m km", want: converter.Request{Value: 1, From: "m", To: "km"}},
		{line: "2.5 kg lb Weight", want: converter.Request{Value: 2.5, From: "kg", To: "lb", Category: "Weight"}},
		{line: `3, cubic meter, liter`, want: converter.Request{Value: 3, From: "cubic meter", To: "liter"}},
		{line: "1 m", wantErr: "got 2 field(s)"},
		{line: "1 m km Length extra", wantErr: "got 5 field(s)"},
		{line: "x m km", wantErr: "invalid value"},
		{line: "+Inf m km", wantErr: "must be a finite number"},
		{line: `1, "m, km`, wantErr: "malformed line"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseSessionLine(tt.line)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// history
// ---------------------------------------------------------------------------

func TestHistory_RequiresDB(t *testing.T) {
	for _, args := range [][]string{{"history"}, {"history", "export"}, {"history", "clear"}} {
		_, _, err := executeCommand(args...)
		requireExitCode(t, err, 2)
		assert.Contains(t, err.Error(), "no history database configured")
	}
}

func TestHistory_ChartExportClear(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	for _, args := range [][]string{
		{"convert", "1", "mile", "kilometer"},
		{"convert", "1", "yard", "foot"},
	} {
		_, _, err := executeCommand(append([]string{"--history-db", db}, args...)...)
		require.NoError(t, err)
	}

	stdout, _, err := executeCommand("--history-db", db, "history", "--chart", "--chart-width", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "yard |### 3 foot")

	out := filepath.Join(t.TempDir(), "export", "history.yaml")
	_, _, err = executeCommand("--history-db", db, "history", "export", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "count: 2")

	_, _, err = executeCommand("--history-db", db, "history", "export", "-o", out)
	requireExitCode(t, err, 6)
	assert.Contains(t, err.Error(), "--force")

	_, _, err = executeCommand("--history-db", db, "history", "export", "--format", "json", "-o", out, "--force")
	require.NoError(t, err)

	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count": 2`)

	_, stderr, err := executeCommand("--history-db", db, "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, stderr, "History cleared.")

	stdout, _, err = executeCommand("--history-db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No conversions recorded.")
}

func TestHistory_ExportUnknownFormat(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := executeCommand("--history-db", db, "history", "export", "--format", "csv")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "unknown output format")
}

// ---------------------------------------------------------------------------
// rates
// ---------------------------------------------------------------------------

func TestRatesShow_Text(t *testing.T) {
	ratesFile := writeFile(t, "rates.yaml", testRates)

	stdout, _, err := executeCommand("--rates-file", ratesFile, "rates", "show")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Base: USD")
	assert.Contains(t, stdout, "Date: 2024-01-02")

	var sawUSD bool

	for _, line := range strings.Split(stdout, "\n") {
		if f := strings.Fields(line); len(f) == 2 && f[0] == "USD" {
			sawUSD = true

			assert.Equal(t, "1", f[1])
		}
	}

	assert.True(t, sawUSD, "base currency should be listed")
}

func TestRatesShow_YAMLRoundTrip(t *testing.T) {
	ratesFile := writeFile(t, "rates.yaml", testRates)

	stdout, _, err := executeCommand("--rates-file", ratesFile, "rates", "show", "-o", "yaml")
	require.NoError(t, err)

	snap, err := rates.ParseSnapshot([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, 150.0, snap.Rates["JPY"])
}

func TestRatesDiff(t *testing.T) {
	oldFile := writeFile(t, "old.yaml", testRates)
	sameFile := writeFile(t, "same.yaml", testRates)
	newFile := writeFile(t, "new.yaml", strings.Replace(testRates, "EUR: 0.9", "EUR: 0.95", 1))

	stdout, _, err := executeCommand("--no-color", "rates", "diff", oldFile, sameFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No differences found.")

	stdout, _, err = executeCommand("--no-color", "rates", "diff", oldFile, newFile)
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "-  EUR: 0.9\n")
	assert.Contains(t, stdout, "+  EUR: 0.95\n")
}

func TestRatesDiff_AgainstCurrent(t *testing.T) {
	oldFile := writeFile(t, "old.yaml", testRates)
	current := writeFile(t, "current.yaml", strings.Replace(testRates, "GBP: 0.8", "GBP: 0.75", 1))

	stdout, _, err := executeCommand("--no-color", "--rates-file", current, "rates", "diff", oldFile)
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "+++ current")
}

func TestRatesDiff_InvalidFile(t *testing.T) {
	bad := writeFile(t, "bad.yaml", "schemaVersion: \"2.0.0\"\nrates:\n  EUR: 0.9\n")

	_, _, err := executeCommand("rates", "diff", bad, bad)
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "unsupported schemaVersion")
}

// ---------------------------------------------------------------------------
// serve / completion
// ---------------------------------------------------------------------------

func TestServe_WatchRequiresRatesFile(t *testing.T) {
	_, _, err := executeCommand("serve", "--watch")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "--watch requires --rates-file")
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		stdout, _, err := executeCommand("completion", shell)
		require.NoError(t, err, shell)
		assert.NotEmpty(t, stdout, shell)
	}

	_, _, err := executeCommand("completion", "tcsh")
	require.Error(t, err)
}

func TestCompletion_Dynamic(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "from unit prefix",
			args: []string{"convert", "1", "mi"},
			want: []string{"mile\n", "minute\n", "milligram\n"},
		},
		{
			name:    "to unit follows from category",
			args:    []string{"convert", "1", "celsius", ""},
			want:    []string{"fahrenheit\n", "kelvin\n"},
			notWant: []string{"meter\n"},
		},
		{
			name:    "category flag narrows units",
			args:    []string{"convert", "--category", "Currency", "1", ""},
			want:    []string{"USD\n", "JPY\n"},
			notWant: []string{"meter\n"},
		},
		{
			name: "category flag value",
			args: []string{"convert", "--category", "pre"},
			want: []string{"Pressure\n"},
		},
		{
			name:    "categories argument",
			args:    []string{"categories", "T"},
			want:    []string{"Temperature\n", "Time\n"},
			notWant: []string{"Length\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(append([]string{"__complete"}, tt.args...)...)
			require.NoError(t, err)

			for _, w := range tt.want {
				assert.Contains(t, stdout, w)
			}

			for _, w := range tt.notWant {
				assert.NotContains(t, stdout, w)
			}
		})
	}
}
