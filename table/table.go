package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/cve-sankey/types"
)

const (
	gzipExt     = ".gz"
	utf8BOM     = "\ufeff"
	headEllipse = "..."
	commentChar = '#'
)

var gzipMagic = []byte{0x1f, 0x8b}

type Row []Value

// Table is a header plus rows, loaded entirely in memory.
// Every row has exactly len(Columns) values.
type Table struct {
	Columns []string
	Rows    []Row
}

func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row, padding it with nulls up to the column count.
func (t *Table) Append(values ...Value) {
	row := make(Row, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values in column i.
func (t *Table) Column(i int) []Value {
	values := make([]Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[i])
	}
	return values
}

// Require returns the indexes of the named columns, failing with
// KindMissingColumn on the first one not present.
func (t *Table) Require(names ...string) ([]int, error) {
	indexes := make([]int, 0, len(names))
	for _, name := range names {
		i := t.Index(name)
		if i < 0 {
			return nil, types.NewError(types.KindMissingColumn, nil, "column %q not found in %v", name, t.Columns)
		}
		indexes = append(indexes, i)
	}
	return indexes, nil
}

func (t *Table) Clone() *Table {
	c := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		c.Rows = append(c.Rows, append(Row(nil), row...))
	}
	return c
}

// Read loads a CSV file with a header line. Files ending in .gz or starting
// with the gzip magic number are decompressed. Lines starting with '#' before
// the header are skipped, which drops the banner line of the EPSS feed.
func Read(fs afero.Fs, filePath string) (*Table, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return nil, types.NewError(types.KindBadPath, err, "unable to open %s", filePath)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return nil, types.NewError(types.KindBadPath, nil, "%s is a directory", filePath)
	}

	br := bufio.NewReader(f)
	var r io.Reader = br
	magic, _ := br.Peek(len(gzipMagic))
	if strings.HasSuffix(filePath, gzipExt) || bytes.Equal(magic, gzipMagic) {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, types.NewError(types.KindUnreadableFormat, err, "unable to decompress %s", filePath)
		}
		defer gr.Close()
		r = gr
	}

	t, err := Decode(r)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode %s: %w", filePath, err)
	}
	return t, nil
}

// Decode parses CSV from r. Short rows are padded with nulls, long rows are
// rejected.
func Decode(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(len(utf8BOM)); string(bom) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	if err := skipBanner(br); err != nil {
		return nil, types.NewError(types.KindUnreadableFormat, err, "invalid banner")
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, types.NewError(types.KindUnreadableFormat, nil, "no columns to parse")
	} else if err != nil {
		return nil, types.NewError(types.KindUnreadableFormat, err, "invalid header")
	}

	t := New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, types.NewError(types.KindUnreadableFormat, err, "invalid record")
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, types.NewError(types.KindUnreadableFormat, nil,
				"line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		row := make(Row, len(header))
		for i, cell := range record {
			row[i] = Parse(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// skipBanner drops the '#' lines in front of the header. Later lines are
// data even when they start with '#'.
func skipBanner(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if b[0] != commentChar {
			return nil
		}
		if _, err = br.ReadString('\n'); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// Write stores t as comma separated CSV, creating parent directories.
func Write(fs afero.Fs, filePath string, t *Table) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return types.NewError(types.KindWrite, err, "mkdir %s", dir)
		}
	}
	f, err := fs.Create(filePath)
	if err != nil {
		return types.NewError(types.KindWrite, err, "unable to create %s", filePath)
	}
	defer f.Close()

	if err = Encode(f, t); err != nil {
		return types.NewError(types.KindWrite, err, "unable to write %s", filePath)
	}
	return nil
}

func Encode(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return xerrors.Errorf("header write error: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return xerrors.Errorf("record write error: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Head renders the first n values of column i, one per line with its row
// number, followed by the column name.
func (t *Table) Head(i, n int) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 4, ' ', 0)
	for j, row := range t.Rows {
		if j == n {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\n", j, display(row[i]))
	}
	tw.Flush()
	fmt.Fprintf(&buf, "Name: %s, rows: %d", t.Columns[i], len(t.Rows))
	return buf.String()
}

// HeadTable renders the header and the first n rows as aligned text.
func (t *Table) HeadTable(n int) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(t.Columns, "\t"))
	for j, row := range t.Rows {
		if j == n {
			fmt.Fprintf(tw, "%s\n", headEllipse)
			break
		}
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, display(v))
		}
		fmt.Fprintf(tw, "%d\t%s\n", j, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(&buf, "[%d rows x %d columns]", len(t.Rows), len(t.Columns))
	return buf.String()
}

func display(v Value) string {
	if v.IsNull() {
		return "NaN"
	}
	return v.String()
}
