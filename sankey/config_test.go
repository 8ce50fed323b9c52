package sankey_test

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/cve-sankey/debuglog"
	"github.com/aquasecurity/cve-sankey/sankey"
	"github.com/aquasecurity/cve-sankey/types"
)

var update = flag.Bool("update", false, "update golden files")

func TestConfig_Update(t *testing.T) {
	tests := []struct {
		name       string
		inputFile  string
		content    string
		strict     bool
		goldenFile string
		wantKind   types.Kind
		wantLog    string
	}{
		{
			name:       "happy path",
			inputFile:  "testdata/combined-cvss-epss-data.csv",
			goldenFile: "testdata/golden/sankey_data-03072024.csv",
			wantLog:    "First few rows of sankey data:\n0 National Vulnerability Database [6] CVE Count #F88E8E\n",
		},
		{
			name:      "sad path: missing epss column",
			inputFile: "/in/nvd.csv",
			content:   "CVE,baseScore\nCVE-2024-0001,9.8\n",
			wantKind:  types.KindMissingColumn,
			wantLog:   `An error occurred: failed to reshape: missing column: column "epss" not found`,
		},
		{
			name:      "sad path: strict",
			inputFile: "/in/combined.csv",
			content:   "CVE,baseScore,epss\nCVE-2024-0001,12,0.1\n",
			strict:    true,
			wantKind:  types.KindOutOfRange,
			wantLog:   `An error occurred: failed to reshape: out of range: row 1: baseScore "12" outside [0, 10]`,
		},
		{
			name:      "sad path: missing file",
			inputFile: "/in/unknown.csv",
			wantKind:  types.KindBadPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
			if tt.content != "" {
				require.NoError(t, afero.WriteFile(fs, tt.inputFile, []byte(tt.content), 0644))
			}

			c := sankey.NewConfig(
				sankey.WithAppFs(fs),
				sankey.WithDir("/out"),
				sankey.WithDate(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)),
				sankey.WithStrict(tt.strict),
				sankey.WithDebugLog(debuglog.New(fs, "/logs/debug_info.txt")),
			)
			err := c.Update(tt.inputFile)

			if tt.wantLog != "" {
				logged, logErr := afero.ReadFile(fs, "/logs/debug_info.txt")
				require.NoError(t, logErr)
				assert.Contains(t, string(logged), tt.wantLog)
			}

			if tt.wantKind != types.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, types.KindOf(err))
				exists, _ := afero.Exists(fs, c.OutputPath())
				assert.False(t, exists)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/out/sankey_data-03072024.csv", c.OutputPath())

			got, err := afero.ReadFile(fs, c.OutputPath())
			require.NoError(t, err)
			if *update {
				require.NoError(t, os.WriteFile(tt.goldenFile, got, 0666))
			}
			want, err := os.ReadFile(tt.goldenFile)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
			assert.NotContains(t, string(got), `"`)
		})
	}
}

func TestConfig_OutputPath(t *testing.T) {
	c := sankey.NewConfig(sankey.WithOutput("diagram.txt"), sankey.WithAppFs(afero.NewMemMapFs()))
	assert.Equal(t, "diagram.txt", c.OutputPath())
}
