package sankey_test

import (
	"bytes"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/cve-sankey/sankey"
	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func merged(rows ...[3]string) *table.Table {
	t := table.New(types.CVEColumn, types.BaseScoreColumn, "vulnStatus", types.EPSSColumn)
	for _, r := range rows {
		t.Append(table.Parse(r[0]), table.Parse(r[1]), table.String("Analyzed"), table.Parse(r[2]))
	}
	return t
}

func TestReshape(t *testing.T) {
	tests := []struct {
		name     string
		in       *table.Table
		opts     sankey.Options
		want     []sankey.Edge
		wantKind types.Kind
	}{
		{
			name: "happy path",
			in: merged(
				[3]string{"CVE-2024-0001", "10", "0.9999"},
				[3]string{"CVE-2024-0002", "9.8", "0.5"},
				[3]string{"CVE-2024-0003", "9.95", "0.0005"},
				[3]string{"CVE-2024-0004", "unscored", "0.02"},
				[3]string{"CVE-2024-0005", "5", ""},
				[3]string{"", "7.5", "0.8"},
			),
			want: []sankey.Edge{
				{Kind: sankey.EdgeRoot, Source: "National Vulnerability Database", Destination: "CVE Count", Weight: 6, Color: "#F88E8E"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "10", Weight: 1, Color: "#FF7A7B"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "9-9.9", Weight: 2, Color: "#FEAB77"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "7-7.9", Weight: 1, Color: "#FEE588"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "5-5.9", Weight: 1, Color: "#EDFEAE"},
				{Kind: sankey.EdgeStatus, Source: "CVE Count", Destination: "unscored", Weight: 1, Color: "#CCCCCC"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "unscored", Weight: 1, Color: "#CCCCCC"},
				{Kind: sankey.EdgePair, Source: "10", Destination: "97.5%", Weight: 1, Color: "#E93F3B"},
				{Kind: sankey.EdgePair, Source: "9-9.9", Destination: "17.9%", Weight: 1, Color: "#D9AC5E"},
				{Kind: sankey.EdgePair, Source: "9-9.9", Destination: ".042%", Weight: 1, Color: "#C4F188"},
				{Kind: sankey.EdgePair, Source: "7-7.9", Destination: "77.8%", Weight: 1, Color: "#FFD68C"},
				{Kind: sankey.EdgePair, Source: "unscored", Destination: "1%", Weight: 1, Color: "#FFFF8B"},
			},
		},
		{
			name: "out of range values have no category",
			in: merged(
				[3]string{"CVE-2024-0001", "-1", "0.5"},
				[3]string{"CVE-2024-0002", "6.1", "1.5"},
			),
			want: []sankey.Edge{
				{Kind: sankey.EdgeRoot, Source: "National Vulnerability Database", Destination: "CVE Count", Weight: 2, Color: "#F88E8E"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "6-6.9", Weight: 1, Color: "#FEFA7F"},
			},
		},
		{
			name: "empty table",
			in:   merged(),
			want: []sankey.Edge{
				{Kind: sankey.EdgeRoot, Source: "National Vulnerability Database", Destination: "CVE Count", Weight: 0, Color: "#F88E8E"},
			},
		},
		{
			name:     "sad path: strict severity",
			in:       merged([3]string{"CVE-2024-0001", "11", "0.5"}),
			opts:     sankey.Options{Strict: true},
			wantKind: types.KindOutOfRange,
		},
		{
			name:     "sad path: strict likelihood",
			in:       merged([3]string{"CVE-2024-0001", "5", "2"}),
			opts:     sankey.Options{Strict: true},
			wantKind: types.KindOutOfRange,
		},
		{
			name: "strict allows missing likelihood",
			in:   merged([3]string{"CVE-2024-0001", "", ""}),
			opts: sankey.Options{Strict: true},
			want: []sankey.Edge{
				{Kind: sankey.EdgeRoot, Source: "National Vulnerability Database", Destination: "CVE Count", Weight: 1, Color: "#F88E8E"},
				{Kind: sankey.EdgeSeverity, Source: "CVE Count", Destination: "unscored", Weight: 1, Color: "#CCCCCC"},
			},
		},
		{
			name:     "sad path: missing epss column",
			in:       table.New(types.CVEColumn, types.BaseScoreColumn),
			wantKind: types.KindMissingColumn,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sankey.Reshape(tt.in, tt.opts)
			if tt.wantKind != types.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			if !reflect.DeepEqual(got.Edges, tt.want) {
				t.Errorf("[%s]\n diff: %s", tt.name, pretty.Compare(got.Edges, tt.want))
			}
			assert.Equal(t, sankey.DefaultStyle(), got.Style)
		})
	}
}

func TestReshape_Totals(t *testing.T) {
	var rows [][3]string
	for i := 0; i <= 100; i++ {
		rows = append(rows, [3]string{"CVE-2024-" + strconv.Itoa(i), formatFloat(float64(i) / 10), formatFloat(float64(i) / 100)})
	}
	rows = append(rows, [3]string{"CVE-2024-9999", "unscored", ""})

	d, err := sankey.Reshape(merged(rows...), sankey.Options{})
	require.NoError(t, err)

	// every score is in [0, 10], so every row lands in one severity bucket
	assert.Equal(t, len(rows), sankey.Total(d.Edges, sankey.EdgeSeverity))
	// the unscored row has no likelihood
	assert.Equal(t, len(rows)-1, sankey.Total(d.Edges, sankey.EdgePair))
	assert.Equal(t, 0, sankey.Total(d.Edges, sankey.EdgeStatus))
	assert.Equal(t, len(rows), sankey.Total(d.Edges, sankey.EdgeRoot))
}

func TestSortEdges(t *testing.T) {
	edges := []sankey.Edge{
		{Source: "unknown", Destination: "b"},
		{Source: "9-9.9", Destination: ".042%"},
		{Source: "CVE Count", Destination: "unscored"},
		{Source: "unknown", Destination: "a"},
		{Source: "9-9.9", Destination: "97.5%"},
		{Source: "National Vulnerability Database", Destination: "CVE Count"},
		{Source: "CVE Count", Destination: "10"},
	}
	sankey.SortEdges(edges)

	var got []string
	for _, e := range edges {
		got = append(got, e.Source+">"+e.Destination)
	}
	assert.Equal(t, []string{
		"National Vulnerability Database>CVE Count",
		"CVE Count>10",
		"CVE Count>unscored",
		"9-9.9>97.5%",
		"9-9.9>.042%",
		"unknown>b",
		"unknown>a",
	}, got)
}

func TestRender(t *testing.T) {
	d := sankey.Diagram{
		Edges: []sankey.Edge{
			{Source: "National Vulnerability Database", Destination: "CVE Count", Weight: 42, Color: "#F88E8E"},
			{Source: `"quoted"`, Destination: "nowhere", Weight: 1},
		},
		Style: sankey.Style{NodeColors: []sankey.NodeColor{{Node: "CVE Count", Color: "#F88E8E"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, sankey.Render(&buf, d))
	assert.Equal(t, strings.Join([]string{
		"Source Weight Destination Color",
		"National Vulnerability Database [42] CVE Count #F88E8E",
		"quoted [1] nowhere",
		"",
		"",
		"// Node color:",
		":CVE Count #F88E8E",
		"",
	}, "\n"), buf.String())
}
