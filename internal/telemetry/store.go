package telemetry

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var ErrDatasetMissing = errors.New("telemetry dataset is missing or empty")
var ErrSchemaDrift = errors.New("telemetry dataset header does not match the expected columns")

// Store is an append-only log of benchmark records backed by a CSV file.
// Appends are serialized by an exclusive lock and each row is fully buffered
// before a single write call, so concurrent writers cannot interleave fields.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Append durably adds one record to the log. The record is never modified
// afterwards; numeric fields are rounded to 3 decimals on the way in.
func (s *Store) Append(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open telemetry log: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if newFile {
		if err := w.Write(Columns); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Write(r.row()); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("could not append telemetry record: %w", err)
	}

	return f.Close()
}

// ReadAll returns the full history in write order.
func (s *Store) ReadAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, s.path)
		}
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, s.path)
	}
	if err != nil {
		return nil, err
	}
	if len(header) != len(Columns) {
		return nil, fmt.Errorf("%w: %d columns, expected %d", ErrSchemaDrift, len(header), len(Columns))
	}
	for i, name := range Columns {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaDrift, i, header[i], name)
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+2, err)
		}
		records = append(records, record)
	}

	return records, nil
}
