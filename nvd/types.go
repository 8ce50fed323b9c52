package nvd

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/xerrors"
)

// Entry is one page of the CVE API 2.0 response.
type Entry struct {
	ResultsPerPage  int             `json:"resultsPerPage"`
	StartIndex      int             `json:"startIndex"`
	TotalResults    int             `json:"totalResults"`
	Format          string          `json:"format"`
	Version         string          `json:"version"`
	Timestamp       string          `json:"timestamp"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
}

type Vulnerability struct {
	Cve Cve `json:"cve"`
}

type Cve struct {
	ID               string  `json:"id"`
	SourceIdentifier string  `json:"sourceIdentifier"`
	Published        string  `json:"published"`
	LastModified     string  `json:"lastModified"`
	VulnStatus       string  `json:"vulnStatus"`
	Metrics          Metrics `json:"metrics"`
}

type Metric struct {
	Source              string   `json:"source"`
	Type                string   `json:"type"`
	CvssData            CvssData `json:"cvssData"`
	BaseSeverity        string   `json:"baseSeverity"`
	ExploitabilityScore *float64 `json:"exploitabilityScore"`
	ImpactScore         *float64 `json:"impactScore"`
}

type CvssData struct {
	Version      string   `json:"version"`
	VectorString string   `json:"vectorString"`
	BaseScore    *float64 `json:"baseScore"`
	BaseSeverity string   `json:"baseSeverity"`
}

// MetricSet is the list stored under one "cvssMetricVxx" key.
type MetricSet struct {
	Key     string
	Metrics []Metric
}

// Metrics keeps the metric sets in document order, which decides the
// "first available" metric.
type Metrics []MetricSet

func (m *Metrics) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return xerrors.Errorf("unable to read metrics: %w", err)
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return xerrors.Errorf("metrics: expected an object, got %v", tok)
	}

	var sets Metrics
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return xerrors.Errorf("unable to read a metric key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return xerrors.Errorf("metrics: unexpected key %v", tok)
		}
		var metrics []Metric
		if err = dec.Decode(&metrics); err != nil {
			return xerrors.Errorf("unable to decode %s: %w", key, err)
		}
		sets = append(sets, MetricSet{Key: key, Metrics: metrics})
	}
	*m = sets
	return nil
}

// Versions returns the metric keys without their "cvssMetric" prefix.
func (m Metrics) Versions() []string {
	var versions []string
	for _, set := range m {
		versions = append(versions, strings.TrimPrefix(set.Key, "cvssMetric"))
	}
	return versions
}

// First returns the first metric of the first set.
func (m Metrics) First() (Metric, bool) {
	if len(m) == 0 || len(m[0].Metrics) == 0 {
		return Metric{}, false
	}
	return m[0].Metrics[0], true
}
