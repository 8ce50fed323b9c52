package utils

import (
	"context"
	"os"

	getter "github.com/hashicorp/go-getter"
	"golang.org/x/xerrors"
)

// DownloadToTempFile fetches src into a fresh temp file and returns its
// path. Compressed sources such as *.csv.gz are decompressed by go-getter.
func DownloadToTempFile(ctx context.Context, src string) (string, error) {
	f, err := os.CreateTemp("", "cve-sankey")
	if err != nil {
		return "", xerrors.Errorf("failed to create a temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", xerrors.Errorf("close error: %w", err)
	}

	if err = download(ctx, src, f.Name(), getter.ClientModeFile); err != nil {
		return "", xerrors.Errorf("download error: %w", err)
	}

	return f.Name(), nil
}

func download(ctx context.Context, src, dst string, mode getter.ClientMode) error {
	pwd, err := os.Getwd()
	if err != nil {
		return xerrors.Errorf("unable to get the current dir: %w", err)
	}

	// Build the client
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     pwd,
		Getters: getter.Getters,
		Mode:    mode,
	}

	if err = client.Get(); err != nil {
		return xerrors.Errorf("failed to download: %w", err)
	}

	return nil
}
