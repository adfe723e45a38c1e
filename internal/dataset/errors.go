package dataset

import "fmt"

// DataSourceError indicates the input file is missing, unreadable, or not
// parseable as a table with a header row.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	if e == nil {
		return "data source error"
	}
	return fmt.Sprintf("data source %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// SchemaError indicates an expected column is absent.
type SchemaError struct {
	Column string
	Op     string
}

func (e *SchemaError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("schema: %s: missing column %q", e.Op, e.Column)
	}
	return fmt.Sprintf("schema: missing column %q", e.Column)
}
