package utils

import (
	"crypto/rand"
	"fmt"
	"log"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/araddon/dateparse"
	"github.com/parnurzeal/gorequest"
	"golang.org/x/xerrors"
)

const dateSuffixFormat = "01022006"

// StatusError is returned by FetchURL when the server answers with a non-200
// status code.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error. status code: %d, url: %s", e.StatusCode, e.URL)
}

// FetchURL returns HTTP response body with retry
func FetchURL(url, apikey string, retry int) (res []byte, err error) {
	for i := 0; i <= retry; i++ {
		if i > 0 {
			wait := math.Pow(float64(i), 2) + float64(randInt()%10)
			log.Printf("retry after %f seconds\n", wait)
			time.Sleep(time.Duration(time.Duration(wait) * time.Second))
		}
		res, err = fetchURL(url, apikey)
		if err == nil {
			return res, nil
		}
	}
	return nil, xerrors.Errorf("failed to fetch URL: %w", err)
}

func randInt() int {
	seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	return int(seed.Int64())
}

func fetchURL(url, apikey string) ([]byte, error) {
	req := gorequest.New().Get(url)
	if apikey != "" {
		req.Header.Add("apiKey", apikey)
	}
	resp, body, errs := req.Type("text").EndBytes()
	if len(errs) > 0 {
		return nil, xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	if resp.StatusCode != 200 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func LookupEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}

// DatedFileName returns "<prefix>-MMDDYYYY.csv" inside dir.
func DatedFileName(dir, prefix string, date time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.csv", prefix, date.Format(dateSuffixFormat)))
}

// ParseDate accepts any layout understood by dateparse. An empty string
// means now.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, xerrors.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
