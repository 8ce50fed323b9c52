package sankey

import (
	"cmp"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
)

type EdgeKind int

const (
	EdgeRoot EdgeKind = iota
	EdgeStatus
	EdgeSeverity
	EdgePair
)

// Edge is one flow of the diagram. An empty Color means none.
type Edge struct {
	Kind        EdgeKind
	Source      string
	Destination string
	Weight      int
	Color       string
}

type Diagram struct {
	Edges []Edge
	Style Style
}

type Options struct {
	// Strict rejects scores and probabilities outside their domain with
	// KindOutOfRange instead of leaving them without a category.
	Strict bool
}

type pair struct {
	severity   Severity
	likelihood Likelihood
}

// Reshape counts the rows of a merged table by severity, by severity and
// likelihood and by status, and returns the sorted flows between them.
// t needs the CVE, baseScore and epss columns.
func Reshape(t *table.Table, opts Options) (Diagram, error) {
	idx, err := t.Require(types.CVEColumn, types.BaseScoreColumn, types.EPSSColumn)
	if err != nil {
		return Diagram{}, err
	}
	cveIdx, scoreIdx, epssIdx := idx[0], idx[1], idx[2]

	var (
		statuses   []Status
		severities []Severity
		pairs      []pair
	)
	for i, row := range t.Rows {
		statuses = append(statuses, ClassifyStatus(row[cveIdx]))

		severity, sevOK := ClassifySeverity(row[scoreIdx])
		if !sevOK && opts.Strict {
			return Diagram{}, types.NewError(types.KindOutOfRange, nil,
				"row %d: %s %q outside [0, 10]", i+1, types.BaseScoreColumn, row[scoreIdx].String())
		}
		likelihood, likOK := ClassifyLikelihood(row[epssIdx])
		if !likOK && opts.Strict && !row[epssIdx].IsNull() {
			return Diagram{}, types.NewError(types.KindOutOfRange, nil,
				"row %d: %s %q outside [0, 1]", i+1, types.EPSSColumn, row[epssIdx].String())
		}

		if sevOK {
			severities = append(severities, severity)
		}
		if sevOK && likOK {
			pairs = append(pairs, pair{severity, likelihood})
		}
	}

	edges := []Edge{{
		Kind:        EdgeRoot,
		Source:      RootNode,
		Destination: CountNode,
		Weight:      len(t.Rows),
	}}

	if n := lo.CountValues(statuses)[StatusUnscored]; n > 0 {
		edges = append(edges, Edge{Kind: EdgeStatus, Source: CountNode, Destination: StatusUnscored.String(), Weight: n})
	}

	severityCounts := lo.CountValues(severities)
	pairCounts := lo.CountValues(pairs)
	for _, s := range Severities {
		if n := severityCounts[s]; n > 0 {
			edges = append(edges, Edge{Kind: EdgeSeverity, Source: CountNode, Destination: s.String(), Weight: n})
		}
	}
	for _, s := range Severities {
		for _, l := range Likelihoods {
			if n := pairCounts[pair{s, l}]; n > 0 {
				edges = append(edges, Edge{Kind: EdgePair, Source: s.String(), Destination: l.String(), Weight: n})
			}
		}
	}

	SortEdges(edges)
	for i := range edges {
		edges[i].Color = FlowColor(edges[i].Destination)
	}

	return Diagram{Edges: edges, Style: DefaultStyle()}, nil
}

// SortEdges orders edges by source rank, then destination rank. Ties keep
// their relative order.
func SortEdges(edges []Edge) {
	slices.SortStableFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(rank(sourceOrder, a.Source), rank(sourceOrder, b.Source)); c != 0 {
			return c
		}
		return cmp.Compare(rank(destinationOrder, a.Destination), rank(destinationOrder, b.Destination))
	})
}

func rank(order []string, label string) int {
	if i := slices.Index(order, label); i >= 0 {
		return i
	}
	return len(order)
}

// Total sums the weights of the edges of kind k.
func Total(edges []Edge, k EdgeKind) int {
	return lo.SumBy(edges, func(e Edge) int {
		if e.Kind == k {
			return e.Weight
		}
		return 0
	})
}
