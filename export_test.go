package pconic

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestExportConfigUseless(t *testing.T) {
	if !(ExportConfig{Filename: "x"}).IsUseless() {
		t.Fatal("config without outputs should be useless")
	}
	if (ExportConfig{AsCSV: true}).IsUseless() || (ExportConfig{Catalog: true}).IsUseless() {
		t.Fatal("config with an output should not be useless")
	}
}

func TestStreamStates(t *testing.T) {
	sun, planet, _ := testSystem()
	dir := t.TempDir()
	conf := ExportConfig{Dir: dir, Filename: "flight", AsCSV: true, Catalog: true}
	states := make(chan CraftState, 8)
	planetOrbit := DeriveElements(r2.Vec{X: 1000}, r2.Vec{Y: 100}, planet.GM(DefaultGravitationalConstant))
	for i := 0; i < 3; i++ {
		states <- CraftState{Name: "c", Time: float64(i), Reference: planet, Elements: planetOrbit}
	}
	for i := 3; i < 5; i++ {
		states <- CraftState{Name: "c", Time: float64(i), Reference: sun}
	}
	states <- CraftState{Name: "c", Time: 5}
	close(states)
	if err := StreamStates(conf, states); err != nil {
		t.Fatal(err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "states-flight-*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected one file per segment, got %v", files)
	}
	f, err := os.Open(filepath.Join(dir, "states-flight-0.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 || records[0][0] != "time" {
		t.Fatalf("unexpected records %v", records)
	}
	if records[1][5] != "planet body" || records[1][6] != "1000.000000" {
		t.Fatalf("unexpected first state %v", records[1])
	}

	data, err := os.ReadFile(filepath.Join(dir, "catalog-flight.json"))
	if err != nil {
		t.Fatal(err)
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		t.Fatal(err)
	}
	if catalog.Name != "c" || len(catalog.Segments) != 3 {
		t.Fatalf("unexpected catalog %+v", catalog)
	}
	first, last := catalog.Segments[0], catalog.Segments[2]
	if first.States != 3 || first.StartTime != 0 || first.EndTime != 3 || first.Source != "states-flight-0.csv" {
		t.Fatalf("unexpected first segment %+v", first)
	}
	if last.Reference != "free space" || last.States != 1 {
		t.Fatalf("unexpected last segment %+v", last)
	}
}

func TestStreamStatesEmpty(t *testing.T) {
	dir := t.TempDir()
	states := make(chan CraftState)
	close(states)
	if err := StreamStates(ExportConfig{Dir: dir, Filename: "none", AsCSV: true, Catalog: true}, states); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("nothing should be written without states, got %d files", len(entries))
	}
}

func TestStreamStatesFailureKeepsReading(t *testing.T) {
	conf := ExportConfig{Dir: filepath.Join(t.TempDir(), "missing", "dir"), Filename: "lost", AsCSV: true}
	states := make(chan CraftState)
	errChan := make(chan error, 1)
	go func() {
		errChan <- StreamStates(conf, states)
	}()
	for i := 0; i < 2000; i++ {
		states <- CraftState{Name: "c", Time: float64(i)}
	}
	close(states)
	if err := <-errChan; err == nil {
		t.Fatal("expected an error for a missing export directory")
	}
}

func TestPatchesExport(t *testing.T) {
	sun, planet, _ := testSystem()
	patches := []TrajectoryPatch{
		{Reference: planet, Points: []r2.Vec{{X: 1000}, {Y: 1000}}},
		{Reference: nil, Points: []r2.Vec{{X: -5, Y: 2.5}}},
	}
	var csvBuf bytes.Buffer
	if err := WritePatchesCSV(&csvBuf, patches); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	if len(lines) != 4 || lines[1] != "0,planet,1000.000000,0.000000" || lines[3] != "1,,-5.000000,2.500000" {
		t.Fatalf("unexpected CSV %q", csvBuf.String())
	}

	var jsonBuf bytes.Buffer
	if err := WritePatchesJSON(&jsonBuf, patches); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPatchesJSON(&jsonBuf, []*Body{sun, planet})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Reference != planet || got[1].Reference != nil {
		t.Fatalf("unexpected patches %v", got)
	}
	if got[0].Points[1] != (r2.Vec{Y: 1000}) || got[1].Points[0] != (r2.Vec{X: -5, Y: 2.5}) {
		t.Fatalf("unexpected points %v %v", got[0].Points, got[1].Points)
	}

	infinite := []TrajectoryPatch{{Points: []r2.Vec{{X: math.Inf(1)}}}}
	if err := WritePatchesJSON(&jsonBuf, infinite); err == nil {
		t.Fatal("points at infinity cannot be exported as JSON")
	}
	if _, err := ReadPatchesJSON(strings.NewReader("{"), nil); err == nil {
		t.Fatal("expected a decoding error")
	}
}
