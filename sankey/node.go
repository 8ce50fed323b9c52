package sankey

import (
	"github.com/aquasecurity/cve-sankey/types"
)

const (
	RootNode  = "National Vulnerability Database"
	CountNode = "CVE Count"
)

var (
	// sourceOrder and destinationOrder rank edges; labels not listed sort last.
	sourceOrder      = append([]string{RootNode, CountNode}, severityNames()...)
	destinationOrder = append(append([]string{CountNode}, severityNames()...), likelihoodNames()...)

	// destination colors of the flows
	flowColors = map[string]string{
		RootNode:       "#F88E8E",
		CountNode:      "#F88E8E",
		"10":           "#FF7A7B",
		"9-9.9":        "#FEAB77",
		"8-8.9":        "#FDC272",
		"7-7.9":        "#FEE588",
		"6-6.9":        "#FEFA7F",
		"5-5.9":        "#EDFEAE",
		"0-4.9":        "#C4F188",
		"97.5%":        "#E93F3B",
		"77.8%":        "#FFD68C",
		"17.9%":        "#D9AC5E",
		"1%":           "#FFFF8B",
		".17%":         "#FFFF8B",
		".061%":        "#EDFEB0",
		".042%":        "#C4F188",
		types.Unscored: "#CCCCCC",
	}

	// node colors for the SankeyMATIC legend
	nodeColors = []NodeColor{
		{RootNode, "#ED0401"},
		{CountNode, "#F88E8E"},
		{"10", "#FF0D00"},
		{"9-9.9", "#FFA500"},
		{"8-8.9", "#FDA935"},
		{"7-7.9", "#FDDB56"},
		{"6-6.9", "#FDF54A"},
		{"5-5.9", "#E1FD82"},
		{"0-4.9", "#ACEA57"},
		{"97.5%", "#FF0D00"},
		{"77.8%", "#FFA500"},
		{"17.9%", "#FDA935"},
		{"1%", "#FDDB56"},
		{".17%", "#FDF54A"},
		{".061%", "#E1FD82"},
		{".042%", "#ACEA57"},
		{types.Unscored, "#A4A4A4"},
	}
)

// NodeColor is one line of the legend block.
type NodeColor struct {
	Node  string
	Color string
}

// Style is the static styling block appended after the edges.
type Style struct {
	NodeColors []NodeColor
}

// DefaultStyle returns the legend used by every diagram.
func DefaultStyle() Style {
	return Style{NodeColors: append([]NodeColor(nil), nodeColors...)}
}

// FlowColor returns the color of flows into node, or "" if it has none.
func FlowColor(node string) string {
	return flowColors[node]
}

func severityNames() []string {
	names := make([]string, 0, len(Severities))
	for _, s := range Severities {
		names = append(names, s.String())
	}
	return names
}

func likelihoodNames() []string {
	names := make([]string, 0, len(Likelihoods))
	for _, l := range Likelihoods {
		names = append(names, l.String())
	}
	return names
}
