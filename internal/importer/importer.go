// Package importer reads print settings from CSV and Excel sheets. A sheet
// holds one setting per row as a name and a value, the way slicer profile
// exports are laid out. It supports automatic delimiter detection and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/spoonorder/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Profile  model.PrintProfile
	Applied  []string // setting names taken from the sheet
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced a usable profile.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Key   int
	Value int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"key":   {"key", "setting", "setting name", "parameter", "param"},
	"value": {"value", "val", "default_value", "default value", "setting value"},
}

type settingKind int

const (
	kindBool settingKind = iota
	kindFloat
	kindString
)

// setting describes one profile field a sheet row can set.
type setting struct {
	names []string // first entry is the slicer's own key
	kind  settingKind
	set   func(p *model.PrintProfile, b bool, f float64, s string)
}

var settings = []setting{
	{[]string{"name", "profile", "profile name"}, kindString, func(p *model.PrintProfile, _ bool, _ float64, s string) { p.Name = s }},
	{[]string{"description"}, kindString, func(p *model.PrintProfile, _ bool, _ float64, s string) { p.Description = s }},
	{[]string{"retraction_enable", "retraction enabled"}, kindBool, func(p *model.PrintProfile, b bool, _ float64, _ string) { p.RetractionEnabled = b }},
	{[]string{"retraction_amount", "retraction distance"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.RetractionAmount = f }},
	{[]string{"retraction_speed", "retraction retract speed", "retraction_retract_speed"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.RetractionSpeed = f }},
	{[]string{"retraction_prime_speed", "retraction prime speed"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.RetractionPrimeSpeed = f }},
	{[]string{"retraction_hop_enabled", "z hop when retracted"}, kindBool, func(p *model.PrintProfile, b bool, _ float64, _ string) { p.HopEnabled = b }},
	{[]string{"retraction_hop", "z hop height"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.HopHeight = f }},
	{[]string{"speed_z_hop", "z hop speed"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.HopSpeed = f }},
	{[]string{"machine_max_feedrate_z", "maximum speed z"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.MaxFeedrateZ = f }},
	{[]string{"speed_travel", "travel speed"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.TravelSpeed = f }},
	{[]string{"relative_extrusion", "relative extrusion"}, kindBool, func(p *model.PrintProfile, b bool, _ float64, _ string) { p.RelativeExtrusion = b }},
	{[]string{"layer_height_0", "initial layer height"}, kindFloat, func(p *model.PrintProfile, _ bool, f float64, _ string) { p.InitialLayerHeight = f }},
}

// lookupSetting finds the setting a sheet key refers to.
func lookupSetting(key string) (setting, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, s := range settings {
		for _, name := range s.names {
			if normalized == name {
				return s, true
			}
		}
	}
	return setting{}, false
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // Allow variable field counts

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping (key, value) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Key: -1, Value: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "key":
					if mapping.Key == -1 {
						mapping.Key = i
					}
				case "value":
					if mapping.Value == -1 {
						mapping.Value = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Key: 0, Value: 1}, false
	}
	return mapping, true
}

// parseBool accepts the spellings slicers and spreadsheets use for booleans.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "on", "1", "enabled":
		return true, true
	case "false", "no", "n", "off", "0", "disabled":
		return false, true
	default:
		return false, false
	}
}

// parseFloat parses a number, accepting a decimal comma.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// applyRow sets the profile field named in row. It returns the canonical
// setting name on success, or an error or warning message.
func applyRow(p *model.PrintProfile, row []string, mapping ColumnMapping, rowLabel string) (string, string, string) {
	key := getCell(row, mapping.Key)
	if key == "" {
		return "", fmt.Sprintf("%s: Missing setting name", rowLabel), ""
	}
	s, ok := lookupSetting(key)
	if !ok {
		return "", "", fmt.Sprintf("%s: Unknown setting '%s', ignored", rowLabel, key)
	}

	value := getCell(row, mapping.Value)
	if value == "" {
		return "", fmt.Sprintf("%s: Missing value for '%s'", rowLabel, key), ""
	}

	switch s.kind {
	case kindBool:
		b, ok := parseBool(value)
		if !ok {
			return "", fmt.Sprintf("%s: Invalid boolean '%s' for '%s'", rowLabel, value, key), ""
		}
		s.set(p, b, 0, "")
	case kindFloat:
		f, err := parseFloat(value)
		if err != nil {
			return "", fmt.Sprintf("%s: Invalid number '%s' for '%s'", rowLabel, value, key), ""
		}
		if f < 0 {
			return "", fmt.Sprintf("%s: '%s' must not be negative", rowLabel, key), ""
		}
		s.set(p, false, f, "")
	case kindString:
		s.set(p, false, 0, value)
	}
	return s.names[0], "", ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isCommentRow reports whether row is a comment line such as "# exported".
func isCommentRow(row []string) bool {
	first := getCell(row, 0)
	return strings.HasPrefix(first, "#") || strings.HasPrefix(first, ";")
}

// ImportCSV imports a profile from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", profileName(path), result.Warnings)
}

// ImportCSVFromReader imports a profile from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune, name string) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", name, nil)
}

// ImportExcel imports a profile from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", profileName(path), nil)
}

// Import picks ImportExcel or ImportCSV by the file extension.
func Import(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	default:
		return ImportCSV(path)
	}
}

// profileName derives a profile name from a file name.
func profileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// importFromRows is the shared import logic for both CSV and Excel data.
// Settings missing from the sheet keep the values of the Generic built-in
// profile.
func importFromRows(rows [][]string, rowPrefix, name string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	profile := model.GetPrintProfile("Generic")
	profile.IsBuiltIn = false
	profile.Name = name
	profile.Description = ""

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Key == -1 {
			missing = append(missing, "Setting")
		}
		if mapping.Value == -1 {
			missing = append(missing, "Value")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) || isCommentRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		applied, errMsg, warning := applyRow(&profile, row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		result.Applied = append(result.Applied, applied)
	}

	if len(result.Applied) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No settings found")
	}
	if len(result.Errors) == 0 {
		if err := profile.Validate(); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Profile = profile
	return result
}
