package tables

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// XML shapes of the authoritative tables release. Only the elements the
// store consumes are declared; everything else is ignored by the decoder.
type tablesDoc struct {
	Tables []tableXML `xml:"pcsTable"`
}

type tableXML struct {
	Axes []axisXML `xml:"axis"`
	Rows []rowXML  `xml:"pcsRow"`
}

type rowXML struct {
	Axes []axisXML `xml:"axis"`
}

type axisXML struct {
	Pos        string     `xml:"pos,attr"`
	Title      string     `xml:"title"`
	Definition string     `xml:"definition"`
	Labels     []labelXML `xml:"label"`
}

type labelXML struct {
	Code string `xml:"code,attr"`
	Text string `xml:",chardata"`
}

// Load reads and parses a tables source file into a Store.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Source = path
		}
		return nil, err
	}
	return s, nil
}

// Parse decodes a tables source into a Store. Tables whose header does not
// carry exactly one label per axis 1-3 are skipped with a report notice, as
// are rows with no axis content. Duplicate root keys keep the first table
// seen. A row axis position outside 4-7 fails the whole load.
func Parse(r io.Reader) (*Store, error) {
	var doc tablesDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &LoadError{Source: "stream", Err: err}
	}
	if len(doc.Tables) == 0 {
		return nil, &LoadError{Source: "stream", Err: fmt.Errorf("no pcsTable elements found")}
	}

	s := newStore()
	for _, pt := range doc.Tables {
		t, err := buildTable(pt, &s.report)
		if err != nil {
			return nil, &LoadError{Source: "stream", Err: err}
		}
		if t == nil {
			continue
		}
		key := t.Key()
		if _, dup := s.tables[key]; dup {
			// First occurrence wins; the conflict is reported, not
			// silently overwritten.
			s.report.DuplicateRoots = append(s.report.DuplicateRoots, key)
			continue
		}
		s.tables[key] = t
		s.order = append(s.order, key)
		s.report.Tables++
	}
	return s, nil
}

// buildTable converts one pcsTable element. It returns (nil, nil) when the
// entry is malformed in a skippable way.
func buildTable(pt tableXML, report *LoadReport) (*Table, error) {
	var header [3]*axisXML
	for i := range pt.Axes {
		ax := &pt.Axes[i]
		switch ax.Pos {
		case "1":
			header[0] = ax
		case "2":
			header[1] = ax
		case "3":
			header[2] = ax
		}
	}
	for _, ax := range header {
		// Header axes must each carry exactly one label; multiplicity
		// signals a malformed entry.
		if ax == nil || len(ax.Labels) != 1 {
			report.SkippedTables++
			return nil, nil
		}
	}

	t := &Table{
		Section:    newLabel(header[0].Labels[0]),
		BodySystem: newLabel(header[1].Labels[0]),
		Operation:  newLabel(header[2].Labels[0]),
		Definition: strings.TrimSpace(header[2].Definition),
	}
	if t.Section.Code == "" || t.BodySystem.Code == "" || t.Operation.Code == "" {
		report.SkippedTables++
		return nil, nil
	}

	for _, rx := range pt.Rows {
		row := Row{}
		for _, ax := range rx.Axes {
			pos, err := strconv.Atoi(ax.Pos)
			if err != nil || pos < 4 || pos > 7 {
				return nil, fmt.Errorf("row axis position %q out of range 4-7", ax.Pos)
			}
			labels := make([]AxisLabel, 0, len(ax.Labels))
			for _, l := range ax.Labels {
				labels = append(labels, newLabel(l))
			}
			switch pos {
			case 4:
				row.BodyParts = labels
			case 5:
				row.Approaches = labels
			case 6:
				row.Devices = labels
			case 7:
				row.Qualifiers = labels
			}
		}
		if row.empty() {
			report.SkippedRows++
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func newLabel(l labelXML) AxisLabel {
	return AxisLabel{Code: strings.TrimSpace(l.Code), Text: strings.TrimSpace(l.Text)}
}
