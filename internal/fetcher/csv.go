package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSV reads a CSV document into a Table. The first row is the header.
// Rows may have variable widths; the record builder pads short rows.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var t Table
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if first {
			t.Headers = record
			first = false
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if first {
		return nil, eris.New("csv: empty document")
	}
	return &t, nil
}

// WriteCSV writes a Table. Used to persist the enriched dataset so later
// runs can skip populated records.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return eris.Wrapf(err, "csv: write row %d", i)
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "csv: flush")
}
