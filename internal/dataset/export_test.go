package dataset

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestExportCSVFormat(t *testing.T) {
	tbl := mustLoad(t, sampleCSV)
	b, err := ExportCSV(tbl)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines: got %d, want 5", len(lines))
	}
	if lines[0] != "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES" {
		t.Errorf("header: %s", lines[0])
	}
	if lines[1] != "Rice,2018,100,50,2000,10,5,95,5,40" {
		t.Errorf("row 1: %s", lines[1])
	}
	// Undefined yield is an empty cell.
	if lines[4] != "Maize,2019,210,0,,1,3,98,2,21" {
		t.Errorf("row 4: %s", lines[4])
	}
}

func TestExportRoundTrip(t *testing.T) {
	tbl := mustLoad(t, sampleCSV)
	first, err := ExportCSV(tbl)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	uri, err := DataURI(tbl)
	if err != nil {
		t.Fatalf("DataURI: %v", err)
	}
	const prefix = "data:file/csv;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("DataURI prefix: %s", uri[:30])
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != string(first) {
		t.Fatal("decoded payload differs from ExportCSV output")
	}

	reloaded, err := LoadReader(strings.NewReader(string(decoded)), ExportFileName)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	second, _ := ExportCSV(reloaded)
	if string(second) != string(first) {
		t.Errorf("export is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestExportEmptyTable(t *testing.T) {
	b, err := ExportCSV(mustLoad(t, sampleCSV).Filter("None"))
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if strings.Count(string(b), "\n") != 1 {
		t.Errorf("empty table should export the header only, got %q", b)
	}
}

func TestExportXLSXNotEmpty(t *testing.T) {
	b, err := ExportXLSX(mustLoad(t, sampleCSV))
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	// xlsx is a zip container.
	if len(b) < 4 || string(b[:2]) != "PK" {
		t.Error("ExportXLSX did not produce a zip archive")
	}
}
