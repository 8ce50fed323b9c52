package sankey

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/debuglog"
	"github.com/aquasecurity/cve-sankey/table"
	"github.com/aquasecurity/cve-sankey/types"
	"github.com/aquasecurity/cve-sankey/utils"
)

const (
	filePrefix = "sankey_data"
	headEdges  = 5
)

type option func(*options)

type options struct {
	appFs    afero.Fs
	dir      string
	output   string
	date     time.Time
	strict   bool
	debugLog *debuglog.Logger
}

func WithAppFs(fs afero.Fs) option {
	return func(opts *options) { opts.appFs = fs }
}

func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

func WithOutput(path string) option {
	return func(opts *options) { opts.output = path }
}

func WithDate(date time.Time) option {
	return func(opts *options) { opts.date = date }
}

func WithStrict(strict bool) option {
	return func(opts *options) { opts.strict = strict }
}

func WithDebugLog(l *debuglog.Logger) option {
	return func(opts *options) { opts.debugLog = l }
}

// Config turns a merged CVSS/EPSS file into a Sankey diagram file.
type Config struct {
	*options
}

// NewConfig returns a Config writing to the dated file in the working
// directory unless options say otherwise.
func NewConfig(opts ...option) Config {
	o := &options{
		appFs: afero.NewOsFs(),
		dir:   ".",
		date:  time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.debugLog == nil {
		o.debugLog = debuglog.New(o.appFs, debuglog.DefaultPath)
	}
	return Config{options: o}
}

func (c Config) OutputPath() string {
	if c.output != "" {
		return c.output
	}
	return utils.DatedFileName(c.dir, filePrefix, c.date)
}

// Update reads a merged CVSS/EPSS table and writes its Sankey diagram.
// Failures are recorded in the debug log and returned.
func (c Config) Update(filePath string) error {
	if err := c.update(filePath); err != nil {
		c.debugLog.Error(err)
		return err
	}
	return nil
}

func (c Config) update(filePath string) error {
	log.Printf("Transforming %s for Sankey diagram", filePath)

	t, err := table.Read(c.appFs, filePath)
	if err != nil {
		return xerrors.Errorf("failed to read merged data: %w", err)
	}

	d, err := Reshape(t, Options{Strict: c.strict})
	if err != nil {
		return xerrors.Errorf("failed to reshape: %w", err)
	}
	c.debugLog.Excerpt("First few rows of sankey data:", headLines(d, headEdges))

	output := c.OutputPath()
	err = utils.NewFs(c.appFs).WriteFile(output, func(w io.Writer) error {
		return Render(w, d)
	})
	if err != nil {
		return types.NewError(types.KindWrite, err, "unable to write %s", output)
	}
	log.Printf("%d edges written to %s", len(d.Edges), output)

	return nil
}

func headLines(d Diagram, n int) string {
	var lines []string
	for i, e := range d.Edges {
		if i == n {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, fmt.Sprintf("%d %s %s %s %s", i, e.Source, FormatWeight(e.Weight), e.Destination, e.Color))
	}
	return strings.Join(lines, "\n")
}
