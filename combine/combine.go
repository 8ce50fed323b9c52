package combine

import (
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/debuglog"
	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
	"github.com/aquasecurity/cve-sankey/utils"
)

const (
	filePrefix = "combined-cvss-epss-data"
	headRows   = 5
)

// Report summarizes a merge for the diagnostic log.
type Report struct {
	Column        string
	Matched       int
	Unmatched     int
	DuplicateKeys []string
}

// Merge returns a copy of left with one column projected from right.
//
// The first column of left is renamed to CVE and used as the key. The first
// column of right is its key and the second column is the projected value;
// the new column takes the name of that second column and replaces a left
// column of the same name, except the key column, which is never replaced.
// Rows without a match get a null value. When right
// holds the same key more than once the last row wins and the key is listed
// in Report.DuplicateKeys. Null or non-numeric values in scoreColumn become
// "unscored".
func Merge(left, right *table.Table, scoreColumn string) (*table.Table, Report, error) {
	if len(left.Columns) == 0 {
		return nil, Report{}, types.NewError(types.KindMissingColumn, nil, "left table has no key column")
	}
	if len(right.Columns) < 2 {
		return nil, Report{}, types.NewError(types.KindMissingColumn, nil,
			"right table needs a key and a value column, got %v", right.Columns)
	}

	merged := left.Clone()
	merged.Columns[0] = types.CVEColumn

	scoreIdx := merged.Index(scoreColumn)
	if scoreIdx < 0 {
		return nil, Report{}, types.NewError(types.KindMissingColumn, nil,
			"score column %q not found in %v", scoreColumn, left.Columns)
	}

	lookup, duplicates := buildLookup(right)
	report := Report{
		Column:        right.Columns[1],
		DuplicateKeys: duplicates,
	}

	newIdx := merged.Index(report.Column)
	if newIdx <= 0 {
		newIdx = len(merged.Columns)
		merged.Columns = append(merged.Columns, report.Column)
	}

	for i, row := range merged.Rows {
		if newIdx == len(row) {
			row = append(row, table.Null())
		}

		value, ok := table.Null(), false
		if key := row[0]; !key.IsNull() {
			value, ok = lookup[key.String()]
		}
		if ok {
			report.Matched++
		} else {
			report.Unmatched++
		}
		row[newIdx] = value

		if _, numeric := row[scoreIdx].Float(); !numeric {
			row[scoreIdx] = table.String(types.Unscored)
		}
		merged.Rows[i] = row
	}

	return merged, report, nil
}

func buildLookup(right *table.Table) (map[string]table.Value, []string) {
	keys := lo.FilterMap(right.Rows, func(row table.Row, _ int) (string, bool) {
		return row[0].String(), !row[0].IsNull()
	})

	lookup := make(map[string]table.Value, len(keys))
	for _, row := range right.Rows {
		if row[0].IsNull() {
			continue
		}
		lookup[row[0].String()] = row[1]
	}

	var duplicates []string
	counts := lo.CountValues(keys)
	for _, key := range lo.Uniq(keys) {
		if counts[key] > 1 {
			duplicates = append(duplicates, key)
		}
	}
	return lookup, duplicates
}

type option func(*options)

type options struct {
	appFs       afero.Fs
	dir         string
	output      string
	date        time.Time
	scoreColumn string
	debugLog    *debuglog.Logger
}

func WithAppFs(fs afero.Fs) option {
	return func(opts *options) { opts.appFs = fs }
}

// WithDir sets the directory of the dated output file.
func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

// WithOutput sets an explicit output path, ignoring the dated default.
func WithOutput(path string) option {
	return func(opts *options) { opts.output = path }
}

func WithDate(date time.Time) option {
	return func(opts *options) { opts.date = date }
}

func WithScoreColumn(column string) option {
	return func(opts *options) { opts.scoreColumn = column }
}

func WithDebugLog(l *debuglog.Logger) option {
	return func(opts *options) { opts.debugLog = l }
}

// Config runs the merge between two files on an afero filesystem.
type Config struct {
	*options
}

// NewConfig returns a Config writing to the dated file in the working
// directory unless options say otherwise.
func NewConfig(opts ...option) Config {
	o := &options{
		appFs:       afero.NewOsFs(),
		dir:         ".",
		date:        time.Now(),
		scoreColumn: types.BaseScoreColumn,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.debugLog == nil {
		o.debugLog = debuglog.New(o.appFs, debuglog.DefaultPath)
	}
	return Config{options: o}
}

// OutputPath returns the file Update writes.
func (c Config) OutputPath() string {
	if c.output != "" {
		return c.output
	}
	return utils.DatedFileName(c.dir, filePrefix, c.date)
}

// Update merges the NVD table at source1 with the EPSS table at source2 and
// writes the result. Failures are recorded in the debug log and returned.
func (c Config) Update(source1, source2 string) error {
	if err := c.update(source1, source2); err != nil {
		c.debugLog.Error(err)
		return err
	}
	return nil
}

func (c Config) update(source1, source2 string) error {
	log.Printf("Combining %s with %s", source1, source2)

	left, err := table.Read(c.appFs, source1)
	if err != nil {
		return xerrors.Errorf("failed to read NVD data: %w", err)
	}
	right, err := table.Read(c.appFs, source2)
	if err != nil {
		return xerrors.Errorf("failed to read EPSS data: %w", err)
	}

	if len(left.Columns) > 0 {
		c.debugLog.Excerpt(fmt.Sprintf("First few rows of %s from Source1:", left.Columns[0]), left.Head(0, headRows))
	}
	if len(right.Columns) > 0 {
		c.debugLog.Excerpt(fmt.Sprintf("First few rows of %s from Source2:", right.Columns[0]), right.Head(0, headRows))
	}

	merged, report, err := Merge(left, right, c.scoreColumn)
	if err != nil {
		return xerrors.Errorf("failed to merge: %w", err)
	}
	if len(report.DuplicateKeys) > 0 {
		msg := fmt.Sprintf("Duplicate keys in Source2, last row wins (%d keys):", len(report.DuplicateKeys))
		c.debugLog.Excerpt(msg, fmt.Sprint(lo.Slice(report.DuplicateKeys, 0, headRows)))
		log.Printf("%d duplicate keys in %s", len(report.DuplicateKeys), source2)
	}
	c.debugLog.Excerpt("First few rows of merged data:", merged.HeadTable(headRows))

	output := c.OutputPath()
	if err = table.Write(c.appFs, output, merged); err != nil {
		return xerrors.Errorf("failed to write merged data: %w", err)
	}
	log.Printf("%d rows written to %s (%s matched: %d, unmatched: %d)",
		len(merged.Rows), output, report.Column, report.Matched, report.Unmatched)

	return nil
}
