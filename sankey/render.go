package sankey

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	header       = "Source Weight Destination Color"
	legendHeader = "// Node color:"
)

// Render writes d in the SankeyMATIC input format: a header, one
// "Source [Weight] Destination Color" line per edge, two blank lines and the
// node color legend. Double quotes never appear in the output.
func Render(w io.Writer, d Diagram) error {
	bw := bufio.NewWriter(w)
	lines := []string{header}
	for _, e := range d.Edges {
		fields := []string{e.Source, FormatWeight(e.Weight), e.Destination}
		if e.Color != "" {
			fields = append(fields, e.Color)
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	lines = append(lines, "", "", legendHeader)
	for _, nc := range d.Style.NodeColors {
		lines = append(lines, fmt.Sprintf(":%s %s", nc.Node, nc.Color))
	}

	for _, line := range lines {
		if _, err := bw.WriteString(strings.ReplaceAll(line, `"`, "") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatWeight wraps a count in brackets, e.g. [42].
func FormatWeight(n int) string {
	return fmt.Sprintf("[%d]", n)
}
