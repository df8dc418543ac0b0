// Package report renders scan results as a JSON manifest or a terminal report.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/lexandro/secretscan-mcp/findings"
	"github.com/lexandro/secretscan-mcp/scan"
)

// Finding is one manifest entry. Byte fields are base64 in JSON.
type Finding struct {
	FileName     string               `json:"fileName"`
	Groups       [][]byte             `json:"groups"`
	Context      []byte               `json:"context"`
	ContextStart int                  `json:"contextStart"`
	ContextEnd   int                  `json:"contextEnd"`
	Capture      []byte               `json:"capture"`
	Pattern      string               `json:"pattern"`
	PatternName  string               `json:"patternName"`
	CaptureStart int                  `json:"captureStart"`
	CaptureEnd   int                  `json:"captureEnd"`
	Indicators   []findings.Indicator `json:"indicators"`
	Score        float64              `json:"score"`
}

// Stats summarises the run.
type Stats struct {
	ScanID             string    `json:"scanId"`
	Root               string    `json:"root"`
	StartedAt          time.Time `json:"startedAt"`
	CompletedAt        time.Time `json:"completedAt"`
	DurationMillis     int64     `json:"durationMillis"`
	FilesScanned       int       `json:"filesScanned"`
	DirectoriesScanned int       `json:"directoriesScanned"`
	BytesScanned       int64     `json:"bytesScanned"`
	PeakWorkers        int       `json:"peakWorkers"`
	Findings           int       `json:"findings"`
}

// Manifest is the machine-readable outcome of a scan, keyed by finding id.
type Manifest struct {
	Findings     map[string]Finding `json:"findings"`
	Descriptions map[string]string  `json:"descriptions"`
	Stats        Stats              `json:"stats"`
}

// Build assesses every match of result with catalog and assembles the manifest.
func Build(root string, result *scan.Result, catalog findings.Catalog) *Manifest {
	m := &Manifest{
		Findings:     make(map[string]Finding, len(result.Matches)),
		Descriptions: make(map[string]string),
		Stats: Stats{
			ScanID:             result.ID,
			Root:               root,
			StartedAt:          result.StartedAt,
			CompletedAt:        result.CompletedAt,
			DurationMillis:     result.Duration().Milliseconds(),
			FilesScanned:       result.FilesScanned,
			DirectoriesScanned: result.DirectoriesScanned,
			BytesScanned:       result.BytesScanned,
			PeakWorkers:        result.PeakWorkers,
			Findings:           len(result.Matches),
		},
	}

	for _, rec := range result.Matches {
		assessment := catalog.Assess(rec)
		m.Findings[rec.ID] = Finding{
			FileName:     rec.FilePath,
			Groups:       rec.Groups,
			Context:      rec.Context,
			ContextStart: rec.ContextStart,
			ContextEnd:   rec.ContextEnd,
			Capture:      rec.Capture,
			Pattern:      rec.PatternSource,
			PatternName:  rec.PatternTag,
			CaptureStart: rec.CaptureStart,
			CaptureEnd:   rec.CaptureEnd,
			Indicators:   assessment.Indicators,
			Score:        assessment.Score,
		}

		if _, ok := m.Descriptions[rec.PatternTag]; ok {
			continue
		}
		if f, ok := catalog.Owner(rec); ok {
			m.Descriptions[rec.PatternTag] = f.Description
		} else {
			m.Descriptions[rec.PatternTag] = "Custom pattern " + rec.PatternSource
		}
	}
	return m
}

// Item pairs a finding with its id.
type Item struct {
	ID string
	Finding
}

// Sorted returns the findings ordered by file then offset.
func (m *Manifest) Sorted() []Item {
	items := make([]Item, 0, len(m.Findings))
	for id, f := range m.Findings {
		items = append(items, Item{ID: id, Finding: f})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.FileName != b.FileName {
			return a.FileName < b.FileName
		}
		if a.CaptureStart != b.CaptureStart {
			return a.CaptureStart < b.CaptureStart
		}
		return a.ID < b.ID
	})
	return items
}

// Marshal encodes the manifest as indented JSON.
func Marshal(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// WriteJSON writes the indented manifest followed by a newline.
func WriteJSON(w io.Writer, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
