// Package excel reads experiment frames out of Excel and CSV files.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"abx/domain/ab"
	"abx/domain/core"
	"abx/internal/logging"
)

// Column headers the reader recognizes. group/metric/user_id are required;
// exposed defaults to true when absent; every other header becomes either a
// numeric column (all values parse as numbers) or a categorical one.
const (
	groupHeader   = "group"
	metricHeader  = "metric"
	userIDHeader  = "user_id"
	exposedHeader = "exposed"
)

// FrameReader turns tabular files into ab.Frame values.
type FrameReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *logging.Logger
}

// NewFrameReader picks the parser from the file extension; log may be nil.
func NewFrameReader(filePath string, log *logging.Logger) *FrameReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &FrameReader{filePath: filePath, fileType: fileType, log: log.Child("adapters.excel")}
}

// Read loads the file and assembles the frame.
func (r *FrameReader) Read() (*ab.Frame, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.Validationf("data file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewValidationError("data file must have a header row and at least one data row")
	}

	r.log.Debug("read %d rows from %s", len(rows)-1, r.filePath)
	return r.assembleFrame(rows)
}

func (r *FrameReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (r *FrameReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *FrameReader) assembleFrame(rows [][]string) (*ab.Frame, error) {
	headers := make([]string, len(rows[0]))
	index := map[string]int{}
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.ToLower(h))
		headers[i] = h
		index[h] = i
	}
	for _, required := range []string{groupHeader, metricHeader, userIDHeader} {
		if _, ok := index[required]; !ok {
			return nil, core.Validationf("required column %q not found in header", required)
		}
	}

	data := rows[1:]
	n := len(data)
	groups := make([]ab.Group, n)
	metric := make([]float64, n)
	userIDs := make([]string, n)
	exposed := make([]bool, n)

	for i, row := range data {
		g, err := parseGroup(cell(row, index[groupHeader]))
		if err != nil {
			return nil, core.Validationf("row %d: %v", i+2, err)
		}
		groups[i] = g

		m, err := strconv.ParseFloat(strings.TrimSpace(cell(row, index[metricHeader])), 64)
		if err != nil {
			return nil, core.Validationf("row %d: metric value %q is not numeric", i+2, cell(row, index[metricHeader]))
		}
		metric[i] = m

		userIDs[i] = strings.TrimSpace(cell(row, index[userIDHeader]))

		exposed[i] = true
		if col, ok := index[exposedHeader]; ok {
			b, err := parseBool(cell(row, col))
			if err != nil {
				return nil, core.Validationf("row %d: %v", i+2, err)
			}
			exposed[i] = b
		}
	}

	frame, err := ab.NewFrame(groups, metric, userIDs, exposed)
	if err != nil {
		return nil, err
	}

	// Remaining headers become covariate columns: numeric when every
	// non-empty cell parses, categorical otherwise.
	numericCovariates := 0
	for col, header := range headers {
		switch header {
		case groupHeader, metricHeader, userIDHeader, exposedHeader, "":
			continue
		}
		values := make([]string, n)
		for i, row := range data {
			values[i] = strings.TrimSpace(cell(row, col))
		}
		if numeric, ok := tryNumeric(values); ok {
			frame, err = frame.WithNumeric(header, numeric)
			numericCovariates++
		} else {
			frame, err = frame.WithCategory(header, values)
		}
		if err != nil {
			return nil, err
		}
	}

	r.log.Debug("assembled frame rows=%d numeric_covariates=%d categorical_covariates=%d",
		frame.Len(), numericCovariates, len(frame.CategoryColumns()))
	return frame, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

func parseGroup(raw string) (ab.Group, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "control", "c", "0":
		return ab.Control, nil
	case "treatment", "t", "1":
		return ab.Treatment, nil
	}
	return "", fmt.Errorf("group value %q is neither control nor treatment", raw)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "1":
		return true, nil
	case "false", "f", "no", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("exposed value %q is not boolean", raw)
}

func tryNumeric(values []string) ([]float64, bool) {
	out := make([]float64, len(values))
	sawValue := false
	for i, v := range values {
		if v == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		sawValue = true
	}
	return out, sawValue
}
