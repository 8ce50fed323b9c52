package utils

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemFS struct {
	afero.Fs
	create   func(string) (afero.File, error)
	openFile func(string, int, os.FileMode) (afero.File, error)
}

func (ffs fakeMemFS) Create(name string) (afero.File, error) {
	if ffs.create != nil {
		return ffs.create(name)
	}
	return ffs.Fs.Create(name)
}

func (ffs fakeMemFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if ffs.openFile != nil {
		return ffs.openFile(name, flag, perm)
	}
	return ffs.Fs.OpenFile(name, flag, perm)
}

func TestFs_WriteFile(t *testing.T) {
	testCases := []struct {
		name          string
		memfs         Fs
		write         func(w io.Writer) error
		expectedError error
	}{
		{
			name:  "happy path",
			memfs: NewFs(fakeMemFS{Fs: afero.NewMemMapFs()}),
			write: func(w io.Writer) error {
				_, err := io.WriteString(w, "CVE,epss\n")
				return err
			},
		},
		{
			name: "sad path: fs.AppFs.Create returns an error",
			memfs: NewFs(fakeMemFS{
				Fs: afero.NewMemMapFs(),
				create: func(s string) (file afero.File, e error) {
					return nil, errors.New("cannot create file")
				},
			}),
			write:         func(w io.Writer) error { return nil },
			expectedError: errors.New("unable to open a file: cannot create file"),
		},
		{
			name:          "sad path: write fails",
			memfs:         NewFs(fakeMemFS{Fs: afero.NewMemMapFs()}),
			write:         func(w io.Writer) error { return errors.New("disk full") },
			expectedError: errors.New("failed to save a file: disk full"),
		},
	}

	for _, tc := range testCases {
		err := tc.memfs.WriteFile("/tmp/out/foo.csv", tc.write)
		switch {
		case tc.expectedError != nil:
			require.Error(t, err, tc.name)
			assert.Equal(t, tc.expectedError.Error(), err.Error(), tc.name)
		default:
			assert.NoError(t, err, tc.name)
			got, err := afero.ReadFile(tc.memfs.AppFs, "/tmp/out/foo.csv")
			assert.NoError(t, err, tc.name)
			assert.Equal(t, "CVE,epss\n", string(got), tc.name)
		}
	}
}

func TestFs_Append(t *testing.T) {
	fs := NewFs(afero.NewMemMapFs())
	require.NoError(t, fs.Append("debug_info.txt", []byte("first\n")))
	require.NoError(t, fs.Append("debug_info.txt", []byte("second\n")))

	got, err := afero.ReadFile(fs.AppFs, "debug_info.txt")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(got))

	failing := NewFs(fakeMemFS{
		Fs: afero.NewMemMapFs(),
		openFile: func(string, int, os.FileMode) (afero.File, error) {
			return nil, errors.New("permission denied")
		},
	})
	err = failing.Append("debug_info.txt", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, "unable to open a file: permission denied", err.Error())
}
