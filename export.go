package pconic

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// ExportConfig configures the exporting of the simulation.
type ExportConfig struct {
	Dir       string
	Filename  string
	AsCSV     bool // one CSV of states per reference body segment
	Catalog   bool // JSON catalog of the segments
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.Catalog
}

func (c ExportConfig) path(kind string, fileNo int, ext string) string {
	name := fmt.Sprintf("%s-%s-%d", kind, c.Filename, fileNo)
	if c.Timestamp {
		t := time.Now()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(c.Dir, name+"."+ext)
}

// Catalog lists the segments of a flight, one per reference body.
type Catalog struct {
	Name     string     `json:"name"`
	Segments []*Segment `json:"segments"`
}

// Segment is a part of a flight spent in a single reference frame.
type Segment struct {
	Reference string  `json:"reference"`
	Source    string  `json:"source,omitempty"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	States    int     `json:"states"`
}

var stateHeader = []string{"time", "x", "y", "vx", "vy", "reference", "a", "e", "omega", "nu"}

// stateRecord formats a state, the elements are blank when invalid. Angles are in degrees.
func stateRecord(st CraftState) []string {
	rec := []string{
		formatFloat(st.Time), formatFloat(st.Position.X), formatFloat(st.Position.Y),
		formatFloat(st.Velocity.X), formatFloat(st.Velocity.Y), st.Reference.String(),
		"", "", "", "",
	}
	if st.Elements.Valid {
		rec[6] = formatFloat(st.Elements.A)
		rec[7] = formatFloat(st.Elements.E)
		rec[8] = formatFloat(Rad2deg(st.Elements.Omega))
		rec[9] = formatFloat(Rad2deg(st.Elements.Nu))
	}
	return rec
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// StreamStates streams the output of the channel to files until it is closed. A new CSV
// file is started every time the reference body changes. On error, the channel is still
// read until closed.
func StreamStates(conf ExportConfig, stateChan <-chan CraftState) (err error) {
	var (
		f       *os.File
		w       *csv.Writer
		prev    *CraftState
		current *Segment
		fileNo  int
		catalog Catalog
	)
	closeFile := func() error {
		if f == nil {
			return nil
		}
		w.Flush()
		werr := w.Error()
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		f = nil
		return werr
	}
	defer func() {
		if cerr := closeFile(); err == nil {
			err = cerr
		}
		if err == nil && conf.Catalog && prev != nil {
			err = writeCatalog(conf, catalog)
		}
		if err != nil {
			// Keep consuming so the producer never blocks on a failed export.
			for range stateChan {
			}
		}
	}()

	for state := range stateChan {
		state := state
		if prev == nil || prev.Reference != state.Reference {
			if current != nil {
				current.EndTime = state.Time
			}
			current = &Segment{Reference: state.Reference.String(), StartTime: state.Time}
			catalog.Name = state.Name
			catalog.Segments = append(catalog.Segments, current)
			if conf.AsCSV {
				if err = closeFile(); err != nil {
					return
				}
				name := conf.path("states", fileNo, "csv")
				if f, err = os.Create(name); err != nil {
					return
				}
				current.Source = filepath.Base(name)
				w = csv.NewWriter(f)
				if err = w.Write(stateHeader); err != nil {
					return
				}
			}
			fileNo++
		}
		prev = &state
		current.EndTime = state.Time
		current.States++
		if conf.AsCSV {
			if err = w.Write(stateRecord(state)); err != nil {
				return
			}
		}
	}
	return
}

func writeCatalog(conf ExportConfig, catalog Catalog) error {
	fc, err := os.Create(filepath.Join(conf.Dir, fmt.Sprintf("catalog-%s.json", conf.Filename)))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(fc)
	enc.SetIndent("", "  ")
	if err := enc.Encode(catalog); err != nil {
		fc.Close()
		return err
	}
	return fc.Close()
}

// WritePatchesCSV writes the trajectory patches as CSV records of patch index, reference
// body name and relative position.
func WritePatchesCSV(w io.Writer, patches []TrajectoryPatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"patch", "reference", "x", "y"}); err != nil {
		return err
	}
	for i, patch := range patches {
		for _, pt := range patch.Points {
			if err := cw.Write([]string{strconv.Itoa(i), referenceName(patch.Reference), formatFloat(pt.X), formatFloat(pt.Y)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonPatch struct {
	Reference string       `json:"reference"`
	Points    [][2]float64 `json:"points"`
}

// WritePatchesJSON writes the trajectory patches as a JSON array.
func WritePatchesJSON(w io.Writer, patches []TrajectoryPatch) error {
	out := make([]jsonPatch, len(patches))
	for i, patch := range patches {
		out[i] = jsonPatch{Reference: referenceName(patch.Reference), Points: make([][2]float64, 0, len(patch.Points))}
		for _, pt := range patch.Points {
			if !isFinite(pt) {
				return errors.New("cannot export a point at infinity")
			}
			out[i].Points = append(out[i].Points, [2]float64{pt.X, pt.Y})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReadPatchesJSON reads trajectory patches written by WritePatchesJSON. References are
// looked up by name in the provided bodies, unknown names are returned as free space.
func ReadPatchesJSON(r io.Reader, bodies []*Body) ([]TrajectoryPatch, error) {
	var in []jsonPatch
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("could not decode patches: %w", err)
	}
	patches := make([]TrajectoryPatch, len(in))
	for i, p := range in {
		for _, b := range bodies {
			if b != nil && b.Name == p.Reference {
				patches[i].Reference = b
				break
			}
		}
		patches[i].Points = make([]r2.Vec, len(p.Points))
		for j, pt := range p.Points {
			patches[i].Points[j] = r2.Vec{X: pt[0], Y: pt[1]}
		}
	}
	return patches, nil
}

func referenceName(b *Body) string {
	if b == nil {
		return ""
	}
	return b.Name
}
