package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseError reports an uploaded file that could not be decoded into rows.
// It surfaces to the user as an error badge on the file; there is no
// meaningful fallback for an undecodable file.
type ParseError struct {
	FileName string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.FileName, e.Reason)
}

// Reader converts uploaded spreadsheet or delimited-text content into raw
// rows. It is a pure transform with no side effects beyond reading the input.
type Reader struct {
	Locale string
}

// TabularFile reports whether a file name looks like spreadsheet or
// delimited-text content that the ingestion pipeline can handle.
func TabularFile(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// Read decodes the input into an ordered sequence of raw rows. Workbook
// containers get a two-strategy decode (header-keyed, then column-letter
// fallback for merged-cell layouts); everything else is treated as delimited
// text with an empirically detected delimiter.
func (rd Reader) Read(r io.Reader, fileName string) ([]RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Reason: fmt.Sprintf("read: %v", err)}
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return rd.readWorkbook(data, fileName)
	default:
		return rd.readDelimited(data, fileName)
	}
}

func (rd Reader) readWorkbook(data []byte, fileName string) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{FileName: fileName, Reason: fmt.Sprintf("open workbook: %v", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Reason: fmt.Sprintf("read sheet %q: %v", sheet, err)}
	}

	rows := rd.rowsFromHeader(cells)
	if degenerate(rows) {
		// Merged-cell exports often collapse into a single usable column
		// under the header strategy. Re-key every row by column letter and
		// take the widest shape we can get.
		rows = rd.rowsFromColumnLetters(cells)
	}
	if len(rows) == 0 {
		if len(cells) > 0 {
			return nil, &ParseError{FileName: fileName, Reason: "workbook rows could not be decoded by any strategy"}
		}
		return nil, &ParseError{FileName: fileName, Reason: "workbook has no rows"}
	}
	return rows, nil
}

// rowsFromHeader keys data rows by the first row's cell text.
func (rd Reader) rowsFromHeader(cells [][]string) []RawRow {
	if len(cells) < 2 {
		return nil
	}
	header := cells[0]
	var columns []string
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			columns = append(columns, strings.TrimSpace(h))
		}
	}
	if len(columns) == 0 {
		return nil
	}

	var out []RawRow
	for _, line := range cells[1:] {
		row := RawRow{Values: make(map[string]string, len(columns))}
		nonEmpty := 0
		for i, col := range columns {
			if i >= len(line) {
				break
			}
			val := rd.normalizeToken(line[i])
			row.Columns = append(row.Columns, col)
			row.Values[col] = val
			if val != "" {
				nonEmpty++
			}
		}
		if nonEmpty > 0 {
			out = append(out, row)
		}
	}
	return out
}

// rowsFromColumnLetters is the best-effort fallback: every row becomes data
// keyed by its spreadsheet column letter (A, B, C, ...).
func (rd Reader) rowsFromColumnLetters(cells [][]string) []RawRow {
	var out []RawRow
	for _, line := range cells {
		row := RawRow{Values: make(map[string]string, len(line))}
		nonEmpty := 0
		for i, cell := range line {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				continue
			}
			val := rd.normalizeToken(cell)
			row.Columns = append(row.Columns, name)
			row.Values[name] = val
			if val != "" {
				nonEmpty++
			}
		}
		if nonEmpty > 1 {
			out = append(out, row)
		}
	}
	return out
}

// degenerate reports a decode that produced nothing usable: no rows at all,
// or every row collapsed to at most one populated field (merged-cell
// artifact).
func degenerate(rows []RawRow) bool {
	if len(rows) == 0 {
		return true
	}
	for _, row := range rows {
		populated := 0
		for _, v := range row.Values {
			if v != "" {
				populated++
			}
		}
		if populated > 1 {
			return false
		}
	}
	return true
}

func (rd Reader) readDelimited(data []byte, fileName string) ([]RawRow, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	delim := DetectDelimiter(lines)

	var header []string
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, delim)
		if len(parts) > 1 {
			for _, p := range parts {
				header = append(header, strings.TrimSpace(p))
			}
			start = i + 1
		}
		break
	}
	if start < 0 {
		return nil, &ParseError{FileName: fileName, Reason: "no header row found"}
	}

	var out []RawRow
	for _, line := range lines[start:] {
		parts := strings.Split(line, delim)
		// Lines that do not split into more than one field are decorative or
		// trailing blanks; skip them.
		if len(parts) <= 1 {
			continue
		}
		row := RawRow{Values: make(map[string]string, len(header))}
		for i, col := range header {
			if col == "" || i >= len(parts) {
				continue
			}
			row.Columns = append(row.Columns, col)
			row.Values[col] = rd.normalizeToken(parts[i])
		}
		out = append(out, row)
	}
	return out, nil
}

func (rd Reader) normalizeToken(cell string) string {
	locale := rd.Locale
	if locale == "" {
		locale = LocaleAuto
	}
	return NormalizeCell(cell, locale)
}

// DetectDelimiter counts candidate delimiters over the first 3 lines and
// picks the most frequent, defaulting to comma on a tie or empty input.
func DetectDelimiter(lines []string) string {
	sample := lines
	if len(sample) > 3 {
		sample = sample[:3]
	}
	joined := strings.Join(sample, "\n")

	best := ","
	bestCount := strings.Count(joined, ",")
	if c := strings.Count(joined, ";"); c > bestCount {
		best, bestCount = ";", c
	}
	if c := strings.Count(joined, "\t"); c > bestCount {
		best = "\t"
	}
	return best
}
