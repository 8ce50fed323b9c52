package config

import (
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/cve-sankey/debuglog"
	"github.com/aquasecurity/cve-sankey/types"
	"github.com/aquasecurity/cve-sankey/utils"
)

const (
	envAPIKey    = "NVD_API_KEY"
	envOutputDir = "CVE_SANKEY_OUTPUT_DIR"
	envDebugLog  = "CVE_SANKEY_DEBUG_LOG"
)

type Config struct {
	OutputDir string  `yaml:"output_dir"`
	DebugLog  string  `yaml:"debug_log"`
	NVD       NVD     `yaml:"nvd"`
	EPSS      EPSS    `yaml:"epss"`
	Combine   Combine `yaml:"combine"`
	Sankey    Sankey  `yaml:"sankey"`
}

type NVD struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	ResultsPerPage int    `yaml:"results_per_page"`
	WaitSeconds    int    `yaml:"wait_seconds"`
	Retry          int    `yaml:"retry"`
}

type EPSS struct {
	URL string `yaml:"url"`
}

type Combine struct {
	ScoreColumn string `yaml:"score_column"`
}

type Sankey struct {
	Strict bool `yaml:"strict"`
}

func Default() Config {
	return Config{
		OutputDir: ".",
		DebugLog:  debuglog.DefaultPath,
		NVD: NVD{
			BaseURL:        "https://services.nvd.nist.gov/rest/json/cves/2.0",
			ResultsPerPage: 2000,
			WaitSeconds:    6,
			Retry:          5,
		},
		EPSS: EPSS{
			URL: "https://epss.cyentia.com/epss_scores-current.csv.gz",
		},
		Combine: Combine{
			ScoreColumn: types.BaseScoreColumn,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any, and
// then with the environment.
func Load(fs afero.Fs, path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, types.NewError(types.KindBadPath, err, "unable to read config %s", path)
		}
		if err = yaml.UnmarshalStrict(b, &c); err != nil {
			return Config{}, types.NewError(types.KindUnreadableFormat, err, "invalid config %s", path)
		}
	}

	c.NVD.APIKey = utils.LookupEnv(envAPIKey, c.NVD.APIKey)
	c.OutputDir = utils.LookupEnv(envOutputDir, c.OutputDir)
	c.DebugLog = utils.LookupEnv(envDebugLog, c.DebugLog)

	if err := c.validate(); err != nil {
		return Config{}, xerrors.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c Config) validate() error {
	if n := c.NVD.ResultsPerPage; n < 1 || n > 2000 {
		return types.NewError(types.KindOutOfRange, nil, "nvd.results_per_page must be in [1, 2000], got %d", n)
	}
	if c.NVD.WaitSeconds < 0 || c.NVD.Retry < 0 {
		return types.NewError(types.KindOutOfRange, nil, "nvd.wait_seconds and nvd.retry must not be negative")
	}
	if c.OutputDir == "" {
		return types.NewError(types.KindBadPath, nil, "output_dir must not be empty")
	}
	return nil
}
