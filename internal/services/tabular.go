package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/boulouzanacer/SafeBoutique-sub000/internal/models"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrUnreadableFile is returned when the file container cannot be decoded.
// No row can be recovered from such a file.
var ErrUnreadableFile = errors.New("unreadable file")

// ErrNoData is reported when a readable file holds no data row.
var ErrNoData = errors.New("aucune donnée trouvée dans le fichier")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data row of an uploaded table. Index is the 1-indexed position
// of the row below the header; Values is keyed by the header label as it
// appears in the file.
type Row struct {
	Index  int
	Values map[string]string
}

// Table is the parsed content of an uploaded file.
type Table struct {
	Format  models.FileFormat
	Headers []string
	Rows    []Row
}

// sourceRecord is a raw record with its logical row position in the file.
// Blank lines count as rows even when the reader skips them.
type sourceRecord struct {
	pos    int
	fields []string
}

// ParseTable converts a raw upload into a header and an ordered list of rows.
func ParseTable(data []byte) (*Table, error) {
	format := DetectFormat(data)

	var (
		records []sourceRecord
		err     error
	)
	if IsSpreadsheet(format) {
		var rows [][]string
		if format == models.FormatXLSX {
			rows, err = readXLSX(data)
		} else {
			rows, err = readXLS(data)
		}
		records = positional(rows)
	} else {
		records, err = readDelimited(data)
	}
	if err != nil {
		return nil, err
	}

	table := &Table{Format: format}

	// Blank lines above the header are ignored.
	for len(records) > 0 && isBlank(records[0].fields) {
		records = records[1:]
	}
	if len(records) == 0 {
		return table, nil
	}

	header := records[0]
	table.Headers = make([]string, len(header.fields))
	for i, h := range header.fields {
		table.Headers[i] = strings.TrimSpace(h)
	}

	for _, record := range records[1:] {
		values := make(map[string]string, len(table.Headers))
		hasData := false
		for col, value := range record.fields {
			if col >= len(table.Headers) || table.Headers[col] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			values[table.Headers[col]] = value
			if value != "" {
				hasData = true
			}
		}
		if !hasData {
			continue
		}
		table.Rows = append(table.Rows, Row{Index: record.pos - header.pos, Values: values})
	}

	return table, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// positional numbers spreadsheet rows by their sheet position; empty rows
// are kept by the readers so the slice index is the row number.
func positional(rows [][]string) []sourceRecord {
	records := make([]sourceRecord, len(rows))
	for i, row := range rows {
		records[i] = sourceRecord{pos: i + 1, fields: row}
	}
	return records
}

// readDelimited reads CSV-like text. Non UTF-8 input is decoded as
// Windows-1252, which is what Excel produces for French locales.
func readDelimited(data []byte) ([]sourceRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot decode text: %v", ErrUnreadableFile, err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// encoding/csv drops empty lines, so positions are rebuilt from the line
	// each record starts on. A quoted field may span several lines and still
	// counts as a single row.
	var (
		records []sourceRecord
		pos     int
		lastEnd int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error reading line %d: %v", ErrUnreadableFile, lastEnd+1, err)
		}

		start, _ := reader.FieldPos(0)
		pos += start - lastEnd

		last := len(record) - 1
		lastLine, _ := reader.FieldPos(last)
		lastEnd = lastLine + strings.Count(record[last], "\n")

		records = append(records, sourceRecord{pos: pos, fields: record})
	}
	return records, nil
}

// detectDelimiter picks the most frequent candidate separator on the header
// line, the first line that is not blank.
func detectDelimiter(data []byte) rune {
	line := strings.TrimLeft(string(data), " \t\r\n")
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}

	delimiter := ','
	maxCount := strings.Count(line, ",")
	for _, candidate := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(candidate)); n > maxCount {
			maxCount = n
			delimiter = candidate
		}
	}
	return delimiter
}

// readXLSX reads the first sheet of an Office Open XML workbook. Cells are
// read raw so numbers keep full precision and dates arrive as serials.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrUnreadableFile)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrUnreadableFile, sheets[0], err)
	}
	return rows, nil
}

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(data []byte) (records [][]string, err error) {
	// The BIFF decoder panics on some truncated streams.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("%w: corrupted Excel 97-2003 file: %v", ErrUnreadableFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel 97-2003 file: %v", ErrUnreadableFile, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrUnreadableFile)
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		record := make([]string, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			record[col] = row.Col(col)
		}
		records = append(records, record)
	}
	return records, nil
}

// formatNumber renders a float the way it should appear in a cell.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
