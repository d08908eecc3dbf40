package synonyms

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBodyPartKey_Lookup(t *testing.T) {
	k := NewBodyPartKey(map[string][]string{
		"GB":           {"Gallbladder"},
		"knee ":        {"Knee Joint, Right", "Knee Joint, Left"},
		"hepatic duct": {"Hepatic Duct, Right"},
	})

	got := k.Lookup("gb")
	if len(got) != 1 || got[0] != "Gallbladder" {
		t.Errorf("expected case-insensitive hit, got %v", got)
	}

	got = k.Lookup("Knee")
	if len(got) != 2 || got[0] != "Knee Joint, Right" {
		t.Errorf("expected ordered preferred names, got %v", got)
	}

	// Unknown names are already authoritative.
	got = k.Lookup("Gallbladder")
	if len(got) != 1 || got[0] != "Gallbladder" {
		t.Errorf("expected identity for unknown name, got %v", got)
	}

	if got := k.Lookup(""); got != nil {
		t.Errorf("expected nothing for empty name, got %v", got)
	}
}

func TestDeviceCandidates_SynonymsBeforeGeneralizations(t *testing.T) {
	dev := NewDeviceKey(map[string][]string{
		"jp drain": {"Drainage Device"},
		"mesh":     {"Synthetic Substitute"},
	})
	agg := NewDeviceAggregation([]AggregationRecord{
		{SpecificDevice: "Drainage Device", GeneralDevice: "Drainage Device, Generic"},
		{SpecificDevice: "Synthetic Substitute", GeneralDevice: "Synthetic Substitute, Other"},
		{SpecificDevice: "Synthetic Substitute", GeneralDevice: "Nonautologous Tissue Substitute"},
		{SpecificDevice: "Synthetic Substitute", GeneralDevice: "Synthetic Substitute, Other"},
	})
	r := NewResolver(nil, dev, agg)

	got := r.DeviceCandidates("mesh")
	want := []string{"Synthetic Substitute", "Synthetic Substitute, Other", "Nonautologous Tissue Substitute"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDeviceCandidates_IdentityWithoutDictionaries(t *testing.T) {
	var r *Resolver

	got := r.DeviceCandidates("Drainage Device")
	if len(got) != 1 || got[0] != "Drainage Device" {
		t.Errorf("expected identity expansion on nil resolver, got %v", got)
	}
	if got := r.BodyPartCandidates("Gallbladder"); len(got) != 1 || got[0] != "Gallbladder" {
		t.Errorf("expected identity expansion on nil resolver, got %v", got)
	}
	if got := r.BodyPartCandidates(""); got != nil {
		t.Errorf("expected nothing for empty name, got %v", got)
	}
}

func TestDeviceAggregation_NeverNarrows(t *testing.T) {
	agg := NewDeviceAggregation([]AggregationRecord{
		{SpecificDevice: "Drainage Device", GeneralDevice: "Drainage Device, Generic"},
		{SpecificDevice: " ", GeneralDevice: "Ignored"},
	})

	if got := agg.Generalize("Unknown Device"); len(got) != 0 {
		t.Errorf("expected no generalizations for unknown device, got %v", got)
	}
	if got := agg.Generalize(""); got != nil {
		t.Errorf("expected nothing for empty name, got %v", got)
	}
	got := agg.Generalize("Drainage Device")
	if len(got) != 1 || got[0] != "Drainage Device, Generic" {
		t.Errorf("unexpected generalizations %v", got)
	}
}

func TestLoadKeyFiles(t *testing.T) {
	dir := t.TempDir()

	bpPath := filepath.Join(dir, "body_part_key.json")
	if err := os.WriteFile(bpPath, []byte(`{"data":{"GB":["Gallbladder"]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	bp, err := LoadBodyPartKey(bpPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bp.Lookup("gb"); len(got) != 1 || got[0] != "Gallbladder" {
		t.Errorf("unexpected lookup result %v", got)
	}

	aggPath := filepath.Join(dir, "device_aggregation.json")
	if err := os.WriteFile(aggPath, []byte(`{"records":[{"specific_device":"Stent","general_device":"Intraluminal Device"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	agg, err := LoadDeviceAggregation(aggPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := agg.Generalize("Stent"); len(got) != 1 || got[0] != "Intraluminal Device" {
		t.Errorf("unexpected generalization %v", got)
	}

	if _, err := LoadDeviceKey(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"data":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDeviceKey(bad); err == nil {
		t.Error("expected error for malformed json")
	}
}
