package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/segmentio/parquet-go"
	"github.com/xuri/excelize/v2"
)

// Options controls how a file is read into a Table.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// Loader reads one tabular format.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Load selects a loader by filename and reads the file into a Table.
// Any failure is reported as a *DataSourceError.
func Load(path string, opt Options) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &DataSourceError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &DataSourceError{Path: path, Err: errors.New("is a directory")}
	}
	var l Loader = csvLoader{}
	for _, cand := range registry {
		if cand.CanLoad(path) {
			l = cand
			break
		}
	}
	t, err := l.Load(path, opt)
	if err != nil {
		var dse *DataSourceError
		if errors.As(err, &dse) {
			return nil, err
		}
		return nil, &DataSourceError{Path: path, Err: err}
	}
	return t, nil
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(parquetLoader{})
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}
	t := &Table{Name: filepath.Base(path), Columns: trimAll(header)}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", len(t.Rows)+1, len(rec), len(t.Columns))
		}
		t.Rows = append(t.Rows, normalizeRow(rec, len(t.Columns)))
	}
	return t, nil
}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Load(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			sheet, filepath.Base(path), strings.Join(f.GetSheetList(), ", "))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}
	header := rows[0]
	if err := checkHeader(header); err != nil {
		return nil, err
	}
	t := &Table{Name: filepath.Base(path), Columns: trimAll(header)}
	for i, rec := range rows[1:] {
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", i+1, len(rec), len(t.Columns))
		}
		t.Rows = append(t.Rows, normalizeRow(rec, len(t.Columns)))
	}
	return t, nil
}

type parquetLoader struct{}

func (parquetLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".parquet")
}

// Load reads a flat parquet schema; every leaf value is rendered as text so
// the Cleaner sees the same cells it would see from CSV.
func (parquetLoader) Load(path string, _ Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	reader := parquet.NewReader(f)
	defer reader.Close()

	fields := reader.Schema().Fields()
	header := make([]string, len(fields))
	for i, fl := range fields {
		header[i] = fl.Name()
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}
	t := &Table{Name: filepath.Base(path), Columns: header}
	buf := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			rec := make([]string, len(header))
			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= len(rec) {
					return nil, fmt.Errorf("row %d: nested column %d not supported", len(t.Rows)+1, col)
				}
				rec[col] = parquetText(v)
			}
			t.Rows = append(t.Rows, rec)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return t, nil
}

func parquetText(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return "True"
		}
		return "False"
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return fmt.Sprint(v)
	}
}

func checkHeader(header []string) error {
	if len(header) == 0 {
		return errors.New("missing header row")
	}
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return fmt.Errorf("header column %d is empty", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate header column %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	}
	return out
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
