package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES
Rice,2018,100,50,0,10,5,95,5,40
Maize,2018,200,100,,0,2,99,1,20
Rice,2019,120,60,,12,4,96,4,41
Maize,2019,210,0,,1,3,98,2,21
`

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func mustLoad(t *testing.T, content string, opts ...LoadOption) *Table {
	t.Helper()
	tbl, err := LoadReader(strings.NewReader(content), "sample.csv", opts...)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	return tbl
}

// ── Load ──

func TestLoadComputesYield(t *testing.T) {
	path := writeSample(t, "data.csv", sampleCSV)
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("Len: got %d, want 4", tbl.Len())
	}

	// The file's Yield column (0 for the first row) is ignored.
	for _, i := range []int{0, 2} {
		if got := tbl.Row(i).Yield; got != 2000 {
			t.Errorf("row %d Yield: got %v, want 2000", i, got)
		}
	}
	if got := tbl.Row(1).Yield; got != 2000 {
		t.Errorf("Maize 2018 Yield: got %v, want 2000", got)
	}
}

func TestLoadZeroAreaDefaultsToNaN(t *testing.T) {
	tbl := mustLoad(t, sampleCSV)
	if y := tbl.Row(3).Yield; !math.IsNaN(y) {
		t.Errorf("Yield with Area=0: got %v, want NaN", y)
	}
}

func TestLoadZeroAreaReject(t *testing.T) {
	_, err := LoadReader(strings.NewReader(sampleCSV), "sample.csv", WithZeroAreaPolicy(ZeroAreaReject))
	if !errors.Is(err, ErrZeroArea) {
		t.Fatalf("expected ErrZeroArea, got %v", err)
	}
	var le *DataLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *DataLoadError, got %T", err)
	}
	if le.Line != 5 || le.Column != "Area" {
		t.Errorf("location: got line %d column %q, want line 5 column Area", le.Line, le.Column)
	}
}

func TestParseZeroAreaPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ZeroAreaPolicy
		wantErr bool
	}{
		{"", ZeroAreaNaN, false},
		{"nan", ZeroAreaNaN, false},
		{" Reject ", ZeroAreaReject, false},
		{"drop", "", true},
	}
	for _, tt := range tests {
		got, err := ParseZeroAreaPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseZeroAreaPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseZeroAreaPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadYieldColumnOptional(t *testing.T) {
	content := "Crop,Year,Production,Area,Export,Import,SSR,IDR,DES\nRice,2018,100,50,10,5,95,5,40\n"
	tbl := mustLoad(t, content)
	if tbl.Row(0).Yield != 2000 {
		t.Errorf("Yield: got %v, want 2000", tbl.Row(0).Yield)
	}
}

func TestLoadEmptyCellIsNaN(t *testing.T) {
	content := "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,100,50,,,5,95,5,40\n"
	tbl := mustLoad(t, content)
	if !math.IsNaN(tbl.Row(0).Export) {
		t.Errorf("Export: got %v, want NaN", tbl.Row(0).Export)
	}
}

func TestLoadStripsBOMAndHeaderSpace(t *testing.T) {
	content := "\ufeffCrop, Year ,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018.0,100,50,,10,5,95,5,40\n"
	tbl := mustLoad(t, content)
	if tbl.Row(0).Crop != "Rice" || tbl.Row(0).Year != 2018 {
		t.Errorf("row: got %+v", tbl.Row(0))
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
		line    int
		column  string
	}{
		{
			name:    "empty file",
			content: "",
			target:  ErrEmptyFile,
		},
		{
			name:    "missing column",
			content: "Crop,Year,Production,Area,Export,Import,SSR,IDR\nRice,2018,1,1,1,1,1,1\n",
			target:  ErrMissingColumn,
			column:  "DES",
		},
		{
			name:    "bad number",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,lots,50,,10,5,95,5,40\n",
			line:    2,
			column:  "Production",
		},
		{
			name:    "bad year",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018.5,100,50,,10,5,95,5,40\n",
			line:    2,
			column:  "Year",
		},
		{
			name:    "empty crop",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\n,2018,100,50,,10,5,95,5,40\n",
			line:    2,
			column:  "Crop",
		},
		{
			name:    "NaN literal",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,100,50,,NaN,5,95,5,40\n",
			target:  ErrNonFinite,
			line:    2,
			column:  "Export",
		},
		{
			name:    "infinity literal",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,100,50,,10,5,95,5,40\nRice,2019,100,-Infinity,,10,5,95,5,40\n",
			target:  ErrNonFinite,
			line:    3,
			column:  "Area",
		},
		{
			name:    "inf literal",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,100,50,,10,5,Inf,5,40\n",
			target:  ErrNonFinite,
			line:    2,
			column:  "SSR",
		},
		{
			name:    "short row",
			content: "Crop,Year,Production,Area,Yield,Export,Import,SSR,IDR,DES\nRice,2018,100,50,,10,5,95,5,40\nRice,2019,100\n",
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(tt.content), "bad.csv")
			var le *DataLoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *DataLoadError, got %T (%v)", err, err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if le.Line != tt.line {
				t.Errorf("Line: got %d, want %d", le.Line, tt.line)
			}
			if le.Column != tt.column {
				t.Errorf("Column: got %q, want %q", le.Column, tt.column)
			}
			if !strings.Contains(le.Error(), "bad.csv") {
				t.Errorf("message should name the file: %s", le.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	var le *DataLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *DataLoadError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadDelimiter(t *testing.T) {
	content := strings.ReplaceAll(sampleCSV, ",", ";")
	tbl := mustLoad(t, content, WithDelimiter(';'))
	if tbl.Len() != 4 {
		t.Errorf("Len: got %d, want 4", tbl.Len())
	}
}

func TestLoadXLSXRoundTrip(t *testing.T) {
	src := mustLoad(t, sampleCSV)
	b, err := ExportXLSX(src)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	path := writeSample(t, "data.xlsx", string(b))

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}

	want, _ := ExportCSV(src)
	have, _ := ExportCSV(got)
	if string(want) != string(have) {
		t.Errorf("xlsx round trip mismatch:\nwant:\n%s\ngot:\n%s", want, have)
	}
}
