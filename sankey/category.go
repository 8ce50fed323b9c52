package sankey

import (
	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
)

// Severity is a CVSS base score range, ordered from the highest range down
// with SeverityUnscored last.
type Severity int

const (
	SeverityTen Severity = iota
	SeverityNine
	SeverityEight
	SeveritySeven
	SeveritySix
	SeverityFive
	SeverityLow
	SeverityUnscored
)

// Severities lists every Severity in display order.
var Severities = []Severity{
	SeverityTen, SeverityNine, SeverityEight, SeveritySeven,
	SeveritySix, SeverityFive, SeverityLow, SeverityUnscored,
}

var severityLabels = [...]string{
	SeverityTen:      "10",
	SeverityNine:     "9-9.9",
	SeverityEight:    "8-8.9",
	SeveritySeven:    "7-7.9",
	SeveritySix:      "6-6.9",
	SeverityFive:     "5-5.9",
	SeverityLow:      "0-4.9",
	SeverityUnscored: types.Unscored,
}

func (s Severity) String() string {
	return severityLabels[s]
}

// lower bounds of the half-open numeric ranges below 10
var severityFloors = []struct {
	floor    float64
	severity Severity
}{
	{9, SeverityNine},
	{8, SeverityEight},
	{7, SeveritySeven},
	{6, SeveritySix},
	{5, SeverityFive},
	{0, SeverityLow},
}

// ClassifySeverity maps a base score cell to its range. Null cells and the
// "unscored" literal are SeverityUnscored; exactly 10 is SeverityTen and
// every other bucket includes its lower edge. Scores outside [0, 10] and
// other text have no category.
func ClassifySeverity(v table.Value) (Severity, bool) {
	if v.IsNull() || v.String() == types.Unscored {
		return SeverityUnscored, true
	}
	score, ok := v.Float()
	if !ok {
		return 0, false
	}
	if score == 10 {
		return SeverityTen, true
	}
	for _, f := range severityFloors {
		if score >= f.floor && score < 10 {
			return f.severity, true
		}
	}
	return 0, false
}

// Likelihood is an EPSS probability range, ordered from the most likely
// range down.
type Likelihood int

const (
	Likelihood975 Likelihood = iota
	Likelihood778
	Likelihood179
	Likelihood1
	Likelihood017
	Likelihood0061
	Likelihood0042
)

// Likelihoods lists every Likelihood in display order.
var Likelihoods = []Likelihood{
	Likelihood975, Likelihood778, Likelihood179, Likelihood1,
	Likelihood017, Likelihood0061, Likelihood0042,
}

var likelihoodLabels = [...]string{
	Likelihood975:  "97.5%",
	Likelihood778:  "77.8%",
	Likelihood179:  "17.9%",
	Likelihood1:    "1%",
	Likelihood017:  ".17%",
	Likelihood0061: ".061%",
	Likelihood0042: ".042%",
}

func (l Likelihood) String() string {
	return likelihoodLabels[l]
}

var likelihoodFloors = []struct {
	floor      float64
	likelihood Likelihood
}{
	{0.975, Likelihood975},
	{0.778, Likelihood778},
	{0.179, Likelihood179},
	{0.01, Likelihood1},
	{0.0017, Likelihood017},
	{0.00061, Likelihood0061},
	{0, Likelihood0042},
}

// ClassifyLikelihood maps an EPSS cell to its range. Each range includes its
// lower edge. Null cells, text and probabilities outside [0, 1] have no
// category.
func ClassifyLikelihood(v table.Value) (Likelihood, bool) {
	p, ok := v.Float()
	if !ok || p < 0 || p > 1 {
		return 0, false
	}
	for _, f := range likelihoodFloors {
		if p >= f.floor {
			return f.likelihood, true
		}
	}
	return 0, false
}

// Status tells whether a merged row carries a CVE identifier.
type Status int

const (
	StatusScored Status = iota
	StatusUnscored
)

func (s Status) String() string {
	if s == StatusScored {
		return "scored"
	}
	return types.Unscored
}

func ClassifyStatus(cve table.Value) Status {
	if cve.IsNull() {
		return StatusUnscored
	}
	return StatusScored
}
