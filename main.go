package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/combine"
	"github.com/aquasecurity/cve-sankey/config"
	"github.com/aquasecurity/cve-sankey/debuglog"
	"github.com/aquasecurity/cve-sankey/epss"
	"github.com/aquasecurity/cve-sankey/nvd"
	"github.com/aquasecurity/cve-sankey/sankey"
	"github.com/aquasecurity/cve-sankey/utils"
)

var (
	target     = flag.String("target", "", "update target (nvd, epss, combine, sankey)")
	configPath = flag.String("config", "", "path to a YAML config file")
	date       = flag.String("date", "", "date used in output file names (default: today)")
	output     = flag.String("output", "", "output file path, overrides the dated default name")
	source1    = flag.String("source1", "", "NVD data CSV file (only combine)")
	source2    = flag.String("source2", "", "EPSS data CSV file (only combine)")
	file       = flag.String("file", "", "path to the CSV file to transform (only sankey)")
	pubStart   = flag.String("pub-start", "", "earliest publication date (only nvd)")
	pubEnd     = flag.String("pub-end", "", "latest publication date (only nvd)")
	strict     = flag.Bool("strict", false, "reject out of range scores (only sankey)")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	appFs := afero.NewOsFs()

	conf, err := config.Load(appFs, *configPath)
	if err != nil {
		return xerrors.Errorf("config error: %w", err)
	}
	day, err := utils.ParseDate(*date)
	if err != nil {
		return err
	}
	debugLog := debuglog.New(appFs, conf.DebugLog)
	prompt := newPrompter(os.Stdin, os.Stdout)

	switch *target {
	case "nvd":
		start, end, err := publishedWindow(*pubStart, *pubEnd)
		if err != nil {
			return err
		}
		u := nvd.NewUpdater(
			nvd.WithAppFs(appFs),
			nvd.WithBaseURL(conf.NVD.BaseURL),
			nvd.WithAPIKey(conf.NVD.APIKey),
			nvd.WithDir(conf.OutputDir),
			nvd.WithOutput(*output),
			nvd.WithDate(day),
			nvd.WithMaxResultsPerPage(conf.NVD.ResultsPerPage),
			nvd.WithRetry(conf.NVD.Retry),
			nvd.WithWait(time.Duration(conf.NVD.WaitSeconds)*time.Second),
			nvd.WithPublished(start, end),
		)
		if err = u.Update(); err != nil {
			debugLog.Error(err)
			return xerrors.Errorf("error in NVD update: %w", err)
		}
	case "epss":
		u := epss.NewUpdater(
			epss.WithURL(conf.EPSS.URL),
			epss.WithAppFs(appFs),
			epss.WithDir(conf.OutputDir),
			epss.WithOutput(*output),
			epss.WithDate(day),
		)
		if err = u.Update(context.Background()); err != nil {
			debugLog.Error(err)
			return xerrors.Errorf("error in EPSS update: %w", err)
		}
	case "combine":
		s1, s2 := *source1, *source2
		if args := flag.Args(); s1 == "" && s2 == "" && len(args) == 2 {
			s1, s2 = args[0], args[1]
		}
		if s1, err = prompt.ask(s1, "Please enter the path to the NVD data (Source1) CSV file: "); err != nil {
			return err
		}
		if s2, err = prompt.ask(s2, "Please enter the path to the EPSS data (Source2) CSV file: "); err != nil {
			return err
		}
		c := combine.NewConfig(
			combine.WithAppFs(appFs),
			combine.WithDir(conf.OutputDir),
			combine.WithOutput(*output),
			combine.WithDate(day),
			combine.WithScoreColumn(conf.Combine.ScoreColumn),
			combine.WithDebugLog(debugLog),
		)
		if err = c.Update(s1, s2); err != nil {
			return xerrors.Errorf("error in combine: %w", err)
		}
	case "sankey":
		f, err := prompt.ask(*file, "Please enter the path to the CSV file to transform: ")
		if err != nil {
			return err
		}
		c := sankey.NewConfig(
			sankey.WithAppFs(appFs),
			sankey.WithDir(conf.OutputDir),
			sankey.WithOutput(*output),
			sankey.WithDate(day),
			sankey.WithStrict(*strict || conf.Sankey.Strict),
			sankey.WithDebugLog(debugLog),
		)
		if err = c.Update(f); err != nil {
			return xerrors.Errorf("error in sankey transform: %w", err)
		}
	default:
		return xerrors.New("unknown target")
	}

	return nil
}

func publishedWindow(start, end string) (time.Time, time.Time, error) {
	if start == "" && end == "" {
		return time.Time{}, time.Time{}, nil
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, xerrors.New("-pub-start and -pub-end must be used together")
	}
	s, err := utils.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) prompter {
	return prompter{in: bufio.NewReader(in), out: out}
}

// ask returns value, or reads a line from the input when value is empty.
func (p prompter) ask(value, question string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", xerrors.Errorf("unable to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", xerrors.New("no path given")
	}
	return line, nil
}
