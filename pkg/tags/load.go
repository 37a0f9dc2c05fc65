package tags

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/platformops/policytool/pkg/errors"
)

// Source file header names. Header matching is case-insensitive; tag values
// themselves are never normalized.
const (
	headerSchema = "schema"
	headerTable  = "table"
	headerColumn = "attribute"
	headerTags   = "tags"
)

// LoadTableTags parses a table-level tag file (schema, table, tags). Rows
// that resolve to the same table merge by tag-set union.
func LoadTableTags(path string) ([]Record, error) {
	return loadFile(path, false)
}

// LoadColumnTags parses a column-level tag file (schema, table, attribute,
// tags). Rows that resolve to the same column merge by tag-set union.
func LoadColumnTags(path string) ([]Record, error) {
	return loadFile(path, true)
}

func loadFile(path string, column bool) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	return ParseRecords(f, path, column)
}

// ParseRecords reads tabular tag declarations from r. The path is used only
// for error reporting. When column is true the attribute header is required
// and every row must name a column.
func ParseRecords(r io.Reader, path string, column bool) ([]Record, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewMalformedSourceError(path, 0, "file is empty", nil)
	}
	if err != nil {
		return nil, errors.NewMalformedSourceError(path, 0, "cannot read header row", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	required := []string{headerSchema, headerTable, headerTags}
	if column {
		required = []string{headerSchema, headerTable, headerColumn, headerTags}
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, errors.NewMalformedSourceError(path, 0, "missing required column: "+name, nil)
		}
	}

	var (
		out  []Record
		byID = make(map[EntityID]int)
	)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMalformedSourceError(path, row, "cannot parse row", err)
		}

		rec := Record{
			Schema: strings.TrimSpace(fields[index[headerSchema]]),
			Table:  strings.TrimSpace(fields[index[headerTable]]),
			Tags:   NewSet(SplitTags(fields[index[headerTags]])...),
		}
		if column {
			rec.Column = strings.TrimSpace(fields[index[headerColumn]])
		}

		switch {
		case rec.Schema == "":
			return nil, errors.NewMalformedSourceError(path, row, "empty schema", nil)
		case rec.Table == "":
			return nil, errors.NewMalformedSourceError(path, row, "empty table", nil)
		case column && rec.Column == "":
			return nil, errors.NewMalformedSourceError(path, row, "empty attribute", nil)
		}

		// Entity identity is unique after grouping: later rows for the same
		// entity union into the first.
		id := rec.ID()
		if i, ok := byID[id]; ok {
			out[i].Tags = out[i].Tags.Union(rec.Tags)
			continue
		}
		byID[id] = len(out)
		out = append(out, rec)
	}

	return out, nil
}

// SplitTags splits a comma-separated multi-value cell into tag names,
// trimming surrounding whitespace and dropping empties.
func SplitTags(cell string) []string {
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}
