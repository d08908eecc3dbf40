package tables

import "fmt"

// LoadError reports that a tables source could not be loaded: the file is
// absent, the XML is malformed, or a row references an axis position outside
// 4-7. A LoadError is fatal to the store instance being built; it is never
// retried automatically.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load pcs tables %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadReport summarizes the non-fatal findings of a table load. Entries
// skipped here are data-integrity notices, not errors: the rest of the
// source is still usable.
type LoadReport struct {
	Tables         int      `json:"tables"`
	SkippedTables  int      `json:"skipped_tables"`
	SkippedRows    int      `json:"skipped_rows"`
	DuplicateRoots []string `json:"duplicate_roots,omitempty"`
}
