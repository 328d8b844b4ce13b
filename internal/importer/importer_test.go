package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Setting,Value\nretraction_amount,5\nspeed_travel,150\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Setting;Value\nretraction_amount;0,8\nspeed_travel;150\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Setting\tValue\nretraction_amount\t5\nspeed_travel\t150\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Setting|Value\nretraction_amount|5\nspeed_travel|150\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Setting", "Value"})
	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Key != 0 || mapping.Value != 1 {
		t.Errorf("expected key 0 value 1, got %d %d", mapping.Key, mapping.Value)
	}
}

func TestDetectColumns_ReorderedColumns(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Unit", "VALUE", "Key"})
	if !isHeader {
		t.Error("expected header to be detected")
	}
	if mapping.Key != 2 || mapping.Value != 1 {
		t.Errorf("expected key 2 value 1, got %d %d", mapping.Key, mapping.Value)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"name", "My Printer"})
	if isHeader {
		t.Error("expected no header for a settings row")
	}
	if mapping.Key != 0 || mapping.Value != 1 {
		t.Errorf("expected positional mapping, got %d %d", mapping.Key, mapping.Value)
	}
}

// ─── Row Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	csv := `Setting,Value
name,Bench Printer
retraction_enable,true
retraction_amount,4.5
retraction_speed,40
retraction_prime_speed,30
retraction_hop_enabled,yes
retraction_hop,0.3
speed_z_hop,8
speed_travel,200
relative_extrusion,0
layer_height_0,0.28`

	result := ImportCSVFromReader(strings.NewReader(csv), ',', "sheet")

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	p := result.Profile
	if p.Name != "Bench Printer" {
		t.Errorf("expected name from sheet, got %q", p.Name)
	}
	if !p.RetractionEnabled || p.RetractionAmount != 4.5 {
		t.Errorf("expected retraction 4.5 enabled, got %v %v", p.RetractionEnabled, p.RetractionAmount)
	}
	if p.RetractionSpeed != 40 || p.RetractionPrimeSpeed != 30 {
		t.Errorf("expected speeds 40/30, got %v/%v", p.RetractionSpeed, p.RetractionPrimeSpeed)
	}
	if !p.HopEnabled || p.HopHeight != 0.3 || p.HopSpeed != 8 {
		t.Errorf("unexpected hop settings: %+v", p)
	}
	if p.TravelSpeed != 200 {
		t.Errorf("expected travel speed 200, got %v", p.TravelSpeed)
	}
	if p.RelativeExtrusion {
		t.Error("expected absolute extrusion")
	}
	if p.InitialLayerHeight != 0.28 {
		t.Errorf("expected layer_height_0 0.28, got %v", p.InitialLayerHeight)
	}
	if len(result.Applied) != 11 {
		t.Errorf("expected 11 applied settings, got %d", len(result.Applied))
	}
	if p.IsBuiltIn {
		t.Error("imported profile must not be built-in")
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	csv := "retraction_amount,3\nspeed_travel,100\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', "plain")

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.Name != "plain" {
		t.Errorf("expected fallback name, got %q", result.Profile.Name)
	}
	if result.Profile.RetractionAmount != 3 {
		t.Errorf("expected retraction 3, got %v", result.Profile.RetractionAmount)
	}
}

func TestImportCSVFromReader_FriendlyNames(t *testing.T) {
	csv := "Retraction Distance;0,8\nTravel Speed;180\nRelative Extrusion;on\nZ Hop When Retracted;true\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ';', "friendly")

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.RetractionAmount != 0.8 {
		t.Errorf("expected decimal comma to parse as 0.8, got %v", result.Profile.RetractionAmount)
	}
	if !result.Profile.RelativeExtrusion || !result.Profile.HopEnabled {
		t.Error("expected relative extrusion and hop enabled")
	}
	if result.Applied[0] != "retraction_amount" {
		t.Errorf("expected canonical name, got %s", result.Applied[0])
	}
}

func TestImportCSVFromReader_MissingSettingsKeepDefaults(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("speed_travel,90\n"), ',', "partial")

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.RetractionAmount != 6.5 {
		t.Errorf("expected Generic retraction 6.5, got %v", result.Profile.RetractionAmount)
	}
}

func TestImportCSVFromReader_UnknownSetting(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("infill_density,20\nspeed_travel,90\n"), ',', "x")

	if !result.OK() {
		t.Fatalf("unknown settings must not fail the import: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "infill_density") {
		t.Errorf("expected a warning for infill_density, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"number":   "retraction_amount,lots\n",
		"boolean":  "retraction_enable,perhaps\n",
		"negative": "retraction_amount,-1\n",
		"missing":  "retraction_amount,\n",
	}
	for name, csv := range tests {
		t.Run(name, func(t *testing.T) {
			result := ImportCSVFromReader(strings.NewReader(csv), ',', "bad")
			if result.OK() {
				t.Error("expected an error")
			}
		})
	}
}

func TestImportCSVFromReader_FailsValidation(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("speed_travel,0\n"), ',', "stalled")
	if result.OK() {
		t.Fatal("expected validation error for zero travel speed")
	}
}

func TestImportCSVFromReader_EmptyAndCommentRows(t *testing.T) {
	csv := "# exported from slicer\n\n,\nspeed_travel,120\n"
	result := ImportCSVFromReader(strings.NewReader(csv), ',', "x")
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Applied) != 1 {
		t.Errorf("expected 1 applied setting, got %d", len(result.Applied))
	}
}

func TestImportCSVFromReader_OnlyHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Setting,Value\n"), ',', "x")
	if result.OK() {
		t.Error("expected error for sheet without settings")
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',', "x")
	if result.OK() {
		t.Error("expected error for empty input")
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Setting,Unit\nspeed_travel,mm/s\n"), ',', "x")
	if result.OK() {
		t.Fatal("expected error for missing value column")
	}
	if !strings.Contains(result.Errors[0], "Value") {
		t.Errorf("expected error to name the Value column, got %s", result.Errors[0])
	}
}

// ─── File Import Tests ─────────────────────────────────────

func TestImportCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workshop.csv")
	if err := os.WriteFile(path, []byte("Setting,Value\nspeed_travel,160\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := Import(path)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.Name != "workshop" {
		t.Errorf("expected name from file name, got %q", result.Profile.Name)
	}
	if result.Profile.TravelSpeed != 160 {
		t.Errorf("expected travel speed 160, got %v", result.Profile.TravelSpeed)
	}
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eu.csv")
	if err := os.WriteFile(path, []byte("Setting;Value\nretraction_amount;1,5\nspeed_travel;150\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := ImportCSV(path)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.RetractionAmount != 1.5 {
		t.Errorf("expected 1.5, got %v", result.Profile.RetractionAmount)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected semicolon warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV(filepath.Join(t.TempDir(), "missing.csv"))
	if result.OK() {
		t.Error("expected error for missing file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	result := ImportCSV(path)
	if result.OK() || result.Errors[0] != "File is empty" {
		t.Errorf("expected 'File is empty', got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "printer.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Setting", "Value"},
		{"retraction_enable", true},
		{"retraction_amount", 2.5},
		{"speed_travel", 140},
		{"relative_extrusion", false},
	})

	result := Import(path)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	p := result.Profile
	if p.Name != "printer" {
		t.Errorf("expected name from file name, got %q", p.Name)
	}
	if !p.RetractionEnabled || p.RetractionAmount != 2.5 {
		t.Errorf("expected retraction 2.5 enabled, got %v %v", p.RetractionEnabled, p.RetractionAmount)
	}
	if p.TravelSpeed != 140 {
		t.Errorf("expected travel speed 140, got %v", p.TravelSpeed)
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"name", "Shop Printer"},
		{"speed_travel", 120},
	})

	result := ImportExcel(path)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Profile.Name != "Shop Printer" {
		t.Errorf("expected 'Shop Printer', got %q", result.Profile.Name)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel(filepath.Join(t.TempDir(), "missing.xlsx"))
	if result.OK() {
		t.Error("expected error for missing file")
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Setting", "Value"},
		{"speed_travel", "fast"},
	})
	result := ImportExcel(path)
	if result.OK() {
		t.Error("expected error for non-numeric travel speed")
	}
}

// ─── Parsing Helpers ───────────────────────────────────────

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
		ok   bool
	}{
		{"TRUE", true, true},
		{"yes", true, true},
		{"1", true, true},
		{"Off", false, true},
		{"disabled", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := parseBool(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseBool(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFloat(t *testing.T) {
	tests := map[string]float64{"0.8": 0.8, "0,8": 0.8, " 12 ": 12}
	for in, want := range tests {
		got, err := parseFloat(in)
		if err != nil || got != want {
			t.Errorf("parseFloat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseFloat("1,000.5"); err == nil {
		t.Error("expected error for thousands separator")
	}
}
