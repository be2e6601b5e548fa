package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convertkit/unitconv/internal/rates"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.NotEmpty(t, info.Version)
	assert.LessOrEqual(t, len(info.GitCommit), 7)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, rates.SchemaVersion, info.RatesSchema)
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/convertkit/unitconv", Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-05-02T10:00:00Z"},
		},
	}

	t.Run("placeholders replaced", func(t *testing.T) {
		info := Info{Version: "dev", GitCommit: "none", BuildDate: "unknown"}
		info.fillFromBuildInfo(bi)

		assert.Equal(t, "v1.4.0", info.Version)
		assert.Equal(t, "0123456789abcdef", info.GitCommit)
		assert.Equal(t, "2024-05-02T10:00:00Z", info.BuildDate)
	})

	t.Run("ldflags win", func(t *testing.T) {
		info := Info{Version: "v2.0.0", GitCommit: "feedbee", BuildDate: "2025-01-01"}
		info.fillFromBuildInfo(bi)

		assert.Equal(t, "v2.0.0", info.Version)
		assert.Equal(t, "feedbee", info.GitCommit)
		assert.Equal(t, "2025-01-01", info.BuildDate)
	})

	t.Run("devel module keeps dev", func(t *testing.T) {
		info := Info{Version: "dev"}
		info.fillFromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

		assert.Equal(t, "dev", info.Version)
	})
}

func TestInfo_StringAndJSON(t *testing.T) {
	info := Info{
		Version:     "v1.0.0",
		GitCommit:   "abc1234",
		BuildDate:   "2024-05-02",
		GoVersion:   "go1.25.6",
		Platform:    "linux/amd64",
		RatesSchema: "1.0.0",
	}

	assert.Equal(t,
		"unitconv v1.0.0 (commit: abc1234, built: 2024-05-02, go1.25.6 linux/amd64, rates schema 1.0.0)",
		info.String())

	out, err := info.JSON()
	require.NoError(t, err)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, info, parsed)
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc1234def5678", "abc1234"},
		{"abc1234", "abc1234"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shortCommit(tt.input), tt.input)
	}
}

func TestInfo_Semver(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
		release bool
	}{
		{version: "dev", wantErr: true},
		{version: "v1.2.3", release: true},
		{version: "1.2.3", release: true},
		{version: "1.3.0-rc.1"},
		{version: "v0.0.0-20240502100000-0123456789ab"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			info := Info{Version: tt.version}

			v, err := info.Semver()
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, info.IsRelease())

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, v)
			assert.Equal(t, tt.release, info.IsRelease())
		})
	}
}
