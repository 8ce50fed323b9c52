// Package epss downloads the daily FIRST EPSS scores and stores them as a
// plain CSV whose first two columns are the CVE ID and its probability, the
// shape the combine package expects for its lookup table.
package epss

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
	"github.com/aquasecurity/cve-sankey/utils"
)

const (
	epssURL    = "https://epss.cyentia.com/epss_scores-current.csv.gz"
	filePrefix = "epss_data"
	cveColumn  = "cve"
)

type option func(*Updater)

func WithURL(url string) option {
	return func(u *Updater) { u.url = url }
}

func WithAppFs(fs afero.Fs) option {
	return func(u *Updater) { u.appFs = fs }
}

func WithDir(dir string) option {
	return func(u *Updater) { u.dir = dir }
}

func WithOutput(path string) option {
	return func(u *Updater) { u.output = path }
}

func WithDate(date time.Time) option {
	return func(u *Updater) { u.date = date }
}

type Updater struct {
	url    string
	appFs  afero.Fs
	dir    string
	output string
	date   time.Time
}

func NewUpdater(opts ...option) *Updater {
	u := &Updater{
		url:   epssURL,
		appFs: afero.NewOsFs(),
		dir:   ".",
		date:  time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Updater) OutputPath() string {
	if u.output != "" {
		return u.output
	}
	return utils.DatedFileName(u.dir, filePrefix, u.date)
}

func (u *Updater) Update(ctx context.Context) error {
	log.Printf("Fetching EPSS scores from %s", u.url)

	tmpFile, err := utils.DownloadToTempFile(ctx, u.url)
	if err != nil {
		return types.NewError(types.KindNetwork, err, "unable to download %s", u.url)
	}
	defer os.Remove(tmpFile)

	// go-getter writes to the local disk regardless of appFs
	scores, err := table.Read(afero.NewOsFs(), tmpFile)
	if err != nil {
		return xerrors.Errorf("failed to read EPSS scores: %w", err)
	}
	if _, err = scores.Require(cveColumn, types.EPSSColumn); err != nil {
		return xerrors.Errorf("unexpected EPSS feed: %w", err)
	}
	if scores.Columns[0] != cveColumn || scores.Columns[1] != types.EPSSColumn {
		return types.NewError(types.KindUnreadableFormat, nil,
			"EPSS feed must start with %s,%s columns, got %v", cveColumn, types.EPSSColumn, scores.Columns)
	}

	output := u.OutputPath()
	if err = table.Write(u.appFs, output, scores); err != nil {
		return xerrors.Errorf("failed to save EPSS scores: %w", err)
	}
	log.Printf("%d EPSS scores written to %s", len(scores.Rows), output)

	return nil
}
