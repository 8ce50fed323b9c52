package utils

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/spf13/afero"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

// WriteFile creates filePath and its parent directories and hands the file
// to write.
func (fs Fs) WriteFile(filePath string, write func(w io.Writer) error) error {
	if err := fs.AppFs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}

	f, err := fs.AppFs.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	if err = write(f); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}

// Append adds b to the end of filePath, creating it if needed.
func (fs Fs) Append(filePath string, b []byte) error {
	f, err := fs.AppFs.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to append to a file: %w", err)
	}
	return nil
}
