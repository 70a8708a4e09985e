package series_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/anthon-sd/ab-test-toolkit/internal/series"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []float64
	}{
		{"one per line", "0.02\n0.025\n0.022\n", []float64{0.02, 0.025, 0.022}},
		{"percentages", "2%\n2.5 %\n", []float64{0.02, 0.025}},
		{"mixed separators", "1, 2;3\t4 5", []float64{1, 2, 3, 4, 5}},
		{"blank lines", "\n\n7\n\n8\n", []float64{7, 8}},
		{"crlf", "1\r\n2\r\n", []float64{1, 2}},
		{"empty", "", []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := series.ParseText(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ParseText(%q) error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if diff := got[i] - tt.want[i]; diff > 1e-15 || diff < -1e-15 {
					t.Errorf("value %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseText_Invalid(t *testing.T) {
	_, err := series.ParseText(strings.NewReader("1\n2\nabc\n"))
	if err == nil {
		t.Fatal("expected error for non-numeric line")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the line, got %v", err)
	}

	if _, err := series.ParseText(strings.NewReader("%")); err == nil {
		t.Error("expected error for a bare percent sign")
	}

	_, err = series.ParseText(strings.NewReader("0.02\n1e400\n"))
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected out of range error for 1e400, got %v", err)
	}
}

func TestParseText_SingleLongLine(t *testing.T) {
	// A day-by-day export pasted as one comma-separated line.
	const n = 20000
	values := make([]string, n)
	for i := range values {
		values[i] = strconv.Itoa(100 + i%50)
	}

	got, err := series.ParseText(strings.NewReader(strings.Join(values, ",")))
	if err != nil {
		t.Fatalf("ParseText error: %v", err)
	}
	if len(got) != n {
		t.Fatalf("got %d values, want %d", len(got), n)
	}
	if got[0] != 100 || got[n-1] != float64(100+(n-1)%50) {
		t.Errorf("unexpected endpoints %v, %v", got[0], got[n-1])
	}
}

func TestReadCSV(t *testing.T) {
	data := `week,installs,d7_retention
2024-01-01,1200,0.21
2024-01-08,1350,NA
2024-01-15,1100,0.19
2024-01-22,1500,20%`

	got, err := series.ReadCSV(strings.NewReader(data), "d7_retention")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	want := []float64{0.21, 0.19, 0.20}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-15 || diff < -1e-15 {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}

	installs, err := series.ReadCSV(strings.NewReader(data), "Installs")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(installs) != 4 || installs[3] != 1500 {
		t.Errorf("got installs %v", installs)
	}
}

func TestReadCSV_DefaultsToLastColumn(t *testing.T) {
	got, err := series.ReadCSV(strings.NewReader("a,b\n1,2\n3,4\n"), "")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("got %v, want [2 4]", got)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	if _, err := series.ReadCSV(strings.NewReader("a,b\n1,2\n"), "c"); err == nil {
		t.Error("expected error for missing column")
	}
	if _, err := series.ReadCSV(strings.NewReader(""), "a"); !errors.Is(err, series.ErrNoValues) {
		t.Errorf("got %v, want ErrNoValues", err)
	}
	if _, err := series.ReadCSV(strings.NewReader("a\nNA\n"), "a"); !errors.Is(err, series.ErrNoValues) {
		t.Errorf("got %v, want ErrNoValues", err)
	}
	if _, err := series.ReadCSV(strings.NewReader("a\n1\nx\n"), "a"); err == nil || !strings.Contains(err.Error(), "row 3") {
		t.Errorf("expected row 3 error, got %v", err)
	}
}

// setupKPIDB writes a small KPI history table and returns the database path.
func setupKPIDB(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "kpi.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE kpi_history (id INTEGER PRIMARY KEY, week INTEGER NOT NULL, game TEXT NOT NULL, conversion REAL)`,
		`INSERT INTO kpi_history (week, game, conversion) VALUES
			(1, 'puzzle', 0.020), (2, 'puzzle', 0.025), (3, 'puzzle', 0.022),
			(4, 'puzzle', NULL), (5, 'puzzle', 0.028), (6, 'puzzle', 0.024),
			(1, 'racer', 0.5)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed database: %v", err)
		}
	}
	return dbPath
}

func TestSQLiteSource_Load(t *testing.T) {
	dbPath := setupKPIDB(t)

	src, err := series.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer src.Close()

	got, err := src.Load(context.Background(),
		`SELECT conversion, week FROM kpi_history WHERE game = ? ORDER BY week`, "puzzle")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := []float64{0.020, 0.025, 0.022, 0.028, 0.024}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSQLiteSource_ReadOnly(t *testing.T) {
	src, err := series.OpenSQLite(setupKPIDB(t))
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer src.Close()

	_, err = src.Load(context.Background(), `DELETE FROM kpi_history RETURNING conversion`)
	if err == nil {
		t.Fatal("expected write to fail on a read-only connection")
	}
}

func TestSQLiteSource_NoRows(t *testing.T) {
	src, err := series.OpenSQLite(setupKPIDB(t))
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer src.Close()

	_, err = src.Load(context.Background(), `SELECT conversion FROM kpi_history WHERE game = 'idle'`)
	if !errors.Is(err, series.ErrNoValues) {
		t.Errorf("got %v, want ErrNoValues", err)
	}
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := series.OpenSQLite(path); err == nil {
		t.Fatal("expected error opening a missing database")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("opening a missing database must not create it")
	}
}

func TestFileAndQuerySources(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "kpi.txt")
	csvPath := filepath.Join(dir, "kpi.csv")
	if err := os.WriteFile(txt, []byte("2%\n3%\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, []byte("week,arpdau\n1,0.31\n2,0.35\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	sources := map[string]series.Source{
		"text":  series.File{Path: txt},
		"csv":   series.File{Path: csvPath, Column: "arpdau"},
		"query": series.Query{Path: setupKPIDB(t), SQL: `SELECT conversion FROM kpi_history WHERE game = ?`, Args: []any{"racer"}},
	}
	for name, src := range sources {
		values, err := src.Values(ctx)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(values) == 0 {
			t.Errorf("%s: no values", name)
		}
	}

	if _, err := (series.File{Path: filepath.Join(dir, "nope.txt")}).Values(ctx); err == nil {
		t.Error("expected error for missing file")
	}
}
