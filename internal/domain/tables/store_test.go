package tables

import (
	"strings"
	"testing"
)

func TestFindRoots_SectionFilter(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	roots := s.FindRoots("0", "", "")
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots in section 0, got %v", roots)
	}
	if roots[0] != "0FT" || roots[1] != "0FB" {
		t.Errorf("expected store order [0FT 0FB], got %v", roots)
	}

	roots = s.FindRoots("B", "", "")
	if len(roots) != 1 || roots[0] != "BF0" {
		t.Errorf("expected [BF0], got %v", roots)
	}

	if roots := s.FindRoots("X", "", ""); len(roots) != 0 {
		t.Errorf("expected no roots for unknown section, got %v", roots)
	}
}

func TestFindRoots_NameFiltersAreCaseInsensitive(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	roots := s.FindRoots("0", "hepatobiliary system and pancreas", "RESECTION")
	if len(roots) != 1 || roots[0] != "0FT" {
		t.Fatalf("expected [0FT], got %v", roots)
	}

	roots = s.FindRoots("0", "Hepatobiliary System and Pancreas", "")
	if len(roots) != 2 {
		t.Errorf("expected omitted operation filter to match any, got %v", roots)
	}

	if roots := s.FindRoots("0", "Respiratory System", ""); len(roots) != 0 {
		t.Errorf("expected no roots for wrong body system, got %v", roots)
	}
}

func TestBestMatchRow_ExactMatchScoresThree(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	best, alts, ok := s.BestMatchRow("0FT", "Gallbladder", "Percutaneous Endoscopic", "", "")
	if !ok {
		t.Fatal("expected known root")
	}
	if best.Code != "0FT44ZZ" {
		t.Errorf("expected code 0FT44ZZ, got %q", best.Code)
	}
	// body part 3 + approach 3 + No Device default 1 + No Qualifier default 1
	if best.Score != 8 {
		t.Errorf("expected score 8, got %d", best.Score)
	}
	if len(alts) != 2 {
		t.Errorf("expected one alternate per row, got %d", len(alts))
	}
}

func TestBestMatchRow_SubstringScoresTwo(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	best, _, _ := s.BestMatchRow("0FT", "Liver, Right Lobe", "", "", "")
	if best.BodyPart == nil || best.BodyPart.Code != "1" {
		t.Fatalf("expected exact match on right lobe, got %+v", best.BodyPart)
	}

	// "Liver" is a substring of "Liver, Right Lobe" but an exact match on
	// the first option, so exact wins at 3.
	best, _, _ = s.BestMatchRow("0FT", "Liver", "", "", "")
	if best.BodyPart == nil || best.BodyPart.Code != "0" {
		t.Fatalf("expected exact liver match, got %+v", best.BodyPart)
	}

	// "Right Lobe" only matches by substring (score 2).
	best, alts, _ := s.BestMatchRow("0FT", "Right Lobe", "", "", "")
	if best.BodyPart == nil || best.BodyPart.Code != "1" {
		t.Fatalf("expected substring match on right lobe, got %+v", best.BodyPart)
	}
	// substring 2 + first-approach fallback 0 + defaults 1 + 1
	if alts[1].Score != 4 {
		t.Errorf("expected second row score 4, got %d", alts[1].Score)
	}
}

func TestBestMatchRow_DefaultPrefersNoDevice(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	best, _, _ := s.BestMatchRow("0FB", "Gallbladder", "Open", "", "")
	if best.Device == nil || best.Device.Text != "No Device" {
		t.Errorf("expected No Device default, got %+v", best.Device)
	}
	if best.Qualifier == nil || best.Qualifier.Text != "No Qualifier" {
		t.Errorf("expected No Qualifier default over Diagnostic, got %+v", best.Qualifier)
	}
	if best.Code != "0FB40ZZ" {
		t.Errorf("expected 0FB40ZZ, got %q", best.Code)
	}
}

func TestBestMatchRow_TieKeepsFirstRow(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	// No names supplied: both 0FT rows score the defaults identically, so
	// the first row must win.
	best, _, _ := s.BestMatchRow("0FT", "", "", "", "")
	if best.BodyPart == nil || best.BodyPart.Text != "Gallbladder" {
		t.Errorf("expected first row to win the tie, got %+v", best.BodyPart)
	}
}

func TestBestMatchRow_IncompleteRowYieldsNoCode(t *testing.T) {
	src := strings.Replace(sampleTablesXML, `      <axis pos="6" values="1">
        <title>Device</title>
        <label code="Z">No Device</label>
      </axis>
      <axis pos="7" values="1">
        <title>Qualifier</title>
        <label code="Z">No Qualifier</label>
      </axis>
    </pcsRow>
    <pcsRow codes="4">`, `    </pcsRow>
    <pcsRow codes="4">`, 1)

	s := mustParse(t, src)
	best, _, _ := s.BestMatchRow("0FT", "Gallbladder", "Percutaneous Endoscopic", "", "")
	// The gallbladder row scores highest (3+3) but has no device or
	// qualifier options, so no code may be emitted from it.
	if best.BodyPart == nil || best.BodyPart.Text != "Gallbladder" {
		t.Fatalf("expected gallbladder row to score best, got %+v", best.BodyPart)
	}
	if best.Code != "" {
		t.Errorf("expected no code from an incomplete row, got %q", best.Code)
	}
}

func TestBestMatchRow_UnknownRoot(t *testing.T) {
	s := mustParse(t, sampleTablesXML)
	if _, _, ok := s.BestMatchRow("ZZZ", "", "", "", ""); ok {
		t.Error("expected ok=false for unknown root")
	}
}

func TestBestMatchRow_NeverMixesRows(t *testing.T) {
	s := mustParse(t, sampleTablesXML)

	// Gallbladder only exists in row 0; Percutaneous approach only in the
	// 0FB table. Asking 0FT for Gallbladder + Percutaneous must not borrow
	// the approach from another row or table: it falls back within row 0.
	best, _, _ := s.BestMatchRow("0FT", "Gallbladder", "Percutaneous", "", "")
	if best.Code == "" {
		t.Fatal("expected a complete code")
	}
	if !strings.HasPrefix(best.Code, "0FT4") {
		t.Errorf("expected code from the gallbladder row, got %q", best.Code)
	}
	// Substring match: "Percutaneous" is contained in "Percutaneous
	// Endoscopic" within the same row.
	if best.Approach == nil || best.Approach.Code != "4" {
		t.Errorf("expected in-row approach pick, got %+v", best.Approach)
	}
}
