package nvd

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/spf13/afero"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/types"
	"github.com/aquasecurity/cve-sankey/utils"
)

const (
	url20             = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	apiKeyEnvName     = "NVD_API_KEY"
	filePrefix        = "nvd_data"
	maxResultsPerPage = 2000
	retry             = 5
	wait              = 6 * time.Second // public rate limit
	nvdTimeFormat     = "2006-01-02T15:04:05.000"
)

// Fields are the CSV columns written for every CVE.
var Fields = []string{"id", "published", "baseScore", "baseSeverity", "exploitabilityScore", "impactScore", "version", "vulnStatus"}

// skippedStatuses are never written.
var skippedStatuses = []string{"Rejected", "Reserved"}

type options struct {
	appFs             afero.Fs
	baseURL           string
	apiKey            string
	dir               string
	output            string
	date              time.Time
	maxResultsPerPage int
	retry             int
	wait              time.Duration
	pubStartDate      time.Time
	pubEndDate        time.Time
}

type option func(*options)

func WithAppFs(fs afero.Fs) option {
	return func(opts *options) { opts.appFs = fs }
}

func WithBaseURL(url string) option {
	return func(opts *options) { opts.baseURL = url }
}

func WithAPIKey(apiKey string) option {
	return func(opts *options) { opts.apiKey = apiKey }
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

func WithMaxResultsPerPage(n int) option {
	return func(opts *options) { opts.maxResultsPerPage = n }
}

func WithRetry(retry int) option {
	return func(opts *options) { opts.retry = retry }
}

func WithWait(wait time.Duration) option {
	return func(opts *options) { opts.wait = wait }
}

// WithPublished limits the fetch to CVEs published in [start, end]. The NVD
// API needs both ends, so a zero time on either side disables the filter.
func WithPublished(start, end time.Time) option {
	return func(opts *options) {
		opts.pubStartDate = start
		opts.pubEndDate = end
	}
}

type Updater struct {
	*options
}

func NewUpdater(opts ...option) Updater {
	o := &options{
		appFs:             afero.NewOsFs(),
		baseURL:           url20,
		apiKey:            utils.LookupEnv(apiKeyEnvName, ""),
		dir:               ".",
		date:              time.Now(),
		maxResultsPerPage: maxResultsPerPage,
		retry:             retry,
		wait:              wait,
	}

	for _, opt := range opts {
		opt(o)
	}
	return Updater{
		options: o,
	}
}

func (updater Updater) OutputPath() string {
	if updater.output != "" {
		return updater.output
	}
	return utils.DatedFileName(updater.dir, filePrefix, updater.date)
}

// Update pages through the CVE API and writes one CSV row per CVE.
func (updater Updater) Update() error {
	output := updater.OutputPath()
	log.Printf("Fetching NVD data into %s", output)

	return utils.NewFs(updater.appFs).WriteFile(output, func(w io.Writer) error {
		return updater.update(w)
	})
}

func (updater Updater) update(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Fields); err != nil {
		return types.NewError(types.KindWrite, err, "unable to write the header")
	}
	cw.Flush()

	var bar *pb.ProgressBar
	var written int
	for startIndex := 0; ; startIndex += updater.maxResultsPerPage {
		pageURL, err := urlWithParams(updater.baseURL, startIndex, updater.maxResultsPerPage,
			updater.pubStartDate, updater.pubEndDate)
		if err != nil {
			return xerrors.Errorf("unable to build a page url: %w", err)
		}

		log.Printf("Making request with startIndex: %d, resultsPerPage: %d", startIndex, updater.maxResultsPerPage)
		entry, err := updater.getEntry(pageURL)
		if err != nil {
			return xerrors.Errorf("unable to get entry for %q: %w", pageURL, err)
		}

		if entry.TotalResults == 0 {
			log.Println("No results found.")
			break
		}
		if bar == nil {
			bar = pb.StartNew(entry.TotalResults)
			defer bar.Finish()
		}

		for _, vuln := range entry.Vulnerabilities {
			row, ok := Row(vuln.Cve)
			if !ok {
				continue
			}
			if err = cw.Write(row); err != nil {
				return types.NewError(types.KindWrite, err, "unable to write %s", vuln.Cve.ID)
			}
			written++
		}
		cw.Flush()
		if err = cw.Error(); err != nil {
			return types.NewError(types.KindWrite, err, "unable to flush page %d", startIndex)
		}
		bar.Add(len(entry.Vulnerabilities))

		if startIndex+updater.maxResultsPerPage >= entry.TotalResults {
			break
		}
		time.Sleep(updater.wait)
	}

	log.Printf("%d CVEs written", written)
	return nil
}

func (updater Updater) getEntry(url string) (Entry, error) {
	var entry Entry
	b, err := utils.FetchURL(url, updater.apiKey, updater.retry)
	if err != nil {
		return entry, types.NewError(types.KindNetwork, err, "unable to fetch %s", url)
	}
	if err = json.Unmarshal(b, &entry); err != nil {
		return entry, types.NewError(types.KindUnreadableFormat, err, "unable to decode response for %q", url)
	}
	return entry, nil
}

// Row flattens a CVE into the Fields columns. Rejected and Reserved CVEs are
// skipped.
func Row(cve Cve) ([]string, bool) {
	if slices.ContainsFunc(skippedStatuses, func(s string) bool {
		return strings.Contains(cve.VulnStatus, s)
	}) {
		return nil, false
	}

	metric, _ := cve.Metrics.First()
	severity := metric.BaseSeverity
	if severity == "" {
		// CVSS v3 and v4 keep the severity inside cvssData
		severity = metric.CvssData.BaseSeverity
	}

	return []string{
		cve.ID,
		cve.Published,
		formatScore(metric.CvssData.BaseScore),
		severity,
		formatScore(metric.ExploitabilityScore),
		formatScore(metric.ImpactScore),
		strings.Join(cve.Metrics.Versions(), ", "),
		cve.VulnStatus,
	}, true
}

func formatScore(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func urlWithParams(baseURL string, startIndex, resultsPerPage int, pubStart, pubEnd time.Time) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", xerrors.Errorf("unable to parse %q base url: %w", baseURL, err)
	}
	q := u.Query()
	q.Set("startIndex", strconv.Itoa(startIndex))
	q.Set("resultsPerPage", strconv.Itoa(resultsPerPage))
	if !pubStart.IsZero() && !pubEnd.IsZero() {
		q.Set("pubStartDate", pubStart.Format(nvdTimeFormat))
		q.Set("pubEndDate", pubEnd.Format(nvdTimeFormat))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
