package tables

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTablesXML = `<?xml version="1.0" encoding="UTF-8"?>
<ICD10PCS.tabular>
  <pcsTable>
    <axis pos="1" values="1">
      <title>Section</title>
      <label code="0">Medical and Surgical</label>
    </axis>
    <axis pos="2" values="1">
      <title>Body System</title>
      <label code="F">Hepatobiliary System and Pancreas</label>
    </axis>
    <axis pos="3" values="1">
      <title>Operation</title>
      <definition>Cutting out or off, without replacement, all of a body part</definition>
      <label code="T">Resection</label>
    </axis>
    <pcsRow codes="8">
      <axis pos="4" values="1">
        <title>Body Part</title>
        <label code="4">Gallbladder</label>
      </axis>
      <axis pos="5" values="2">
        <title>Approach</title>
        <label code="0">Open</label>
        <label code="4">Percutaneous Endoscopic</label>
      </axis>
      <axis pos="6" values="1">
        <title>Device</title>
        <label code="Z">No Device</label>
      </axis>
      <axis pos="7" values="1">
        <title>Qualifier</title>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
    <pcsRow codes="4">
      <axis pos="4" values="2">
        <title>Body Part</title>
        <label code="0">Liver</label>
        <label code="1">Liver, Right Lobe</label>
      </axis>
      <axis pos="5" values="1">
        <title>Approach</title>
        <label code="0">Open</label>
      </axis>
      <axis pos="6" values="1">
        <title>Device</title>
        <label code="Z">No Device</label>
      </axis>
      <axis pos="7" values="1">
        <title>Qualifier</title>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
  </pcsTable>
  <pcsTable>
    <axis pos="1" values="1">
      <title>Section</title>
      <label code="0">Medical and Surgical</label>
    </axis>
    <axis pos="2" values="1">
      <title>Body System</title>
      <label code="F">Hepatobiliary System and Pancreas</label>
    </axis>
    <axis pos="3" values="1">
      <title>Operation</title>
      <label code="B">Excision</label>
    </axis>
    <pcsRow codes="6">
      <axis pos="4" values="1">
        <title>Body Part</title>
        <label code="4">Gallbladder</label>
      </axis>
      <axis pos="5" values="3">
        <title>Approach</title>
        <label code="0">Open</label>
        <label code="3">Percutaneous</label>
        <label code="4">Percutaneous Endoscopic</label>
      </axis>
      <axis pos="6" values="1">
        <title>Device</title>
        <label code="Z">No Device</label>
      </axis>
      <axis pos="7" values="2">
        <title>Qualifier</title>
        <label code="X">Diagnostic</label>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
  </pcsTable>
  <pcsTable>
    <axis pos="1" values="1">
      <title>Section</title>
      <label code="B">Imaging</label>
    </axis>
    <axis pos="2" values="1">
      <title>Body System</title>
      <label code="F">Hepatobiliary System and Pancreas</label>
    </axis>
    <axis pos="3" values="1">
      <title>Type</title>
      <label code="0">Plain Radiography</label>
    </axis>
    <pcsRow codes="1">
      <axis pos="4" values="1">
        <title>Body Part</title>
        <label code="C">Hepatobiliary System, All</label>
      </axis>
      <axis pos="5" values="1">
        <title>Contrast</title>
        <label code="Z">None</label>
      </axis>
      <axis pos="6" values="1">
        <title>Qualifier</title>
        <label code="Z">None</label>
      </axis>
      <axis pos="7" values="1">
        <title>Qualifier</title>
        <label code="Z">None</label>
      </axis>
    </pcsRow>
  </pcsTable>
</ICD10PCS.tabular>`

func mustParse(t *testing.T, src string) *Store {
	t.Helper()
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return s
}

func TestParse_BuildsStore(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	if s.Len() != 3 {
		t.Fatalf("expected 3 tables, got %d", s.Len())
	}

	tbl, ok := s.Get("0FT")
	if !ok {
		t.Fatal("expected table 0FT to be present")
	}
	if tbl.Section.Text != "Medical and Surgical" {
		t.Errorf("unexpected section text %q", tbl.Section.Text)
	}
	if tbl.BodySystem.Code != "F" || tbl.BodySystem.Text != "Hepatobiliary System and Pancreas" {
		t.Errorf("unexpected body system %+v", tbl.BodySystem)
	}
	if tbl.Operation.Text != "Resection" {
		t.Errorf("unexpected operation %+v", tbl.Operation)
	}
	if !strings.Contains(tbl.Definition, "without replacement") {
		t.Errorf("expected operation definition to be captured, got %q", tbl.Definition)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if len(tbl.Rows[0].Approaches) != 2 {
		t.Errorf("expected 2 approach options in first row, got %d", len(tbl.Rows[0].Approaches))
	}
}

func TestParse_KeepsLoadOrder(t *testing.T) {
	s := mustParse(t, sampleTablesXML)
	keys := s.Keys()
	want := []string{"0FT", "0FB", "BF0"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key[%d]: expected %s, got %s", i, k, keys[i])
		}
	}
}

func TestParse_DuplicateRootKeepsFirst(t *testing.T) {
	dup := strings.Replace(sampleTablesXML,
		`<label code="B">Excision</label>`,
		`<label code="T">Resection</label>`, 1)

	s := mustParse(t, dup)
	if s.Len() != 2 {
		t.Fatalf("expected 2 tables after duplicate rejection, got %d", s.Len())
	}

	report := s.Report()
	if len(report.DuplicateRoots) != 1 || report.DuplicateRoots[0] != "0FT" {
		t.Fatalf("expected duplicate root 0FT reported, got %v", report.DuplicateRoots)
	}

	// First occurrence wins: 0FT keeps the two-row Resection table.
	tbl, _ := s.Get("0FT")
	if len(tbl.Rows) != 2 {
		t.Errorf("expected first 0FT table to win, got %d rows", len(tbl.Rows))
	}
}

func TestParse_HeaderMultiplicitySkipsTable(t *testing.T) {
	bad := strings.Replace(sampleTablesXML,
		`<label code="B">Imaging</label>`,
		`<label code="B">Imaging</label><label code="C">Nuclear Medicine</label>`, 1)

	s := mustParse(t, bad)
	if s.Len() != 2 {
		t.Fatalf("expected malformed header table to be skipped, got %d tables", s.Len())
	}
	if s.Report().SkippedTables != 1 {
		t.Errorf("expected 1 skipped table in report, got %d", s.Report().SkippedTables)
	}
	if s.Has("BF0") {
		t.Error("table with multi-label header should not be loaded")
	}
}

func TestParse_RowAxisOutOfRangeFailsLoad(t *testing.T) {
	bad := strings.Replace(sampleTablesXML, `<axis pos="7" values="1">
        <title>Qualifier</title>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
    <pcsRow codes="4">`, `<axis pos="9" values="1">
        <title>Qualifier</title>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
    <pcsRow codes="4">`, 1)

	_, err := Parse(strings.NewReader(bad))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for out-of-range axis position, got %v", err)
	}
}

func TestParse_NoTablesIsMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<?xml version="1.0"?><ICD10PCS.tabular></ICD10PCS.tabular>`))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for empty source, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xml"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for missing file, got %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.xml")
	if err := os.WriteFile(path, []byte(sampleTablesXML), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 tables, got %d", s.Len())
	}
}
