package types

// Column names shared by the NVD, EPSS and merged tables.
const (
	CVEColumn        = "CVE"
	BaseScoreColumn  = "baseScore"
	EPSSColumn       = "epss"
	PercentileColumn = "percentile"

	// Unscored replaces a missing or non-numeric base score.
	Unscored = "unscored"
)
