// Package debuglog appends human readable excerpts and error messages to a
// plain text file shared by every run. The file is never rotated and is not
// meant to be parsed.
package debuglog

import (
	"fmt"
	"log"

	"github.com/spf13/afero"

	"github.com/aquasecurity/cve-sankey/utils"
)

const DefaultPath = "debug_info.txt"

type Logger struct {
	fs   utils.Fs
	path string
}

func New(appFs afero.Fs, path string) *Logger {
	if path == "" {
		path = DefaultPath
	}
	return &Logger{
		fs:   utils.NewFs(appFs),
		path: path,
	}
}

// Excerpt writes message and data on separate lines. A nil Logger discards.
func (l *Logger) Excerpt(message, data string) {
	l.write(fmt.Sprintf("%s\n%s\n", message, data))
}

// Error records err. A nil Logger or a nil err is a no-op.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.write(fmt.Sprintf("An error occurred: %s\n", err))
}

func (l *Logger) write(s string) {
	if l == nil {
		return
	}
	if err := l.fs.Append(l.path, []byte(s)); err != nil {
		log.Printf("unable to write debug info to %s: %s", l.path, err)
	}
}
