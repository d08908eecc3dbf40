// Package synonyms holds the three auxiliary dictionaries that normalize
// free-form body-part and device names into the authoritative table
// vocabulary. Each dictionary is independently optional; a missing one
// degrades to identity lookup so resolution still works on raw names.
package synonyms

import "strings"

// BodyPartKey maps a lower-cased free-form body-part name to its preferred
// authoritative names, in preference order.
type BodyPartKey struct {
	m map[string][]string
}

// NewBodyPartKey builds a key from synonym → preferred-names data. Keys are
// trimmed and lower-cased; values are trimmed.
func NewBodyPartKey(data map[string][]string) *BodyPartKey {
	return &BodyPartKey{m: normalizeMap(data)}
}

// Lookup returns the preferred names for a synonym. An unknown name is
// treated as already authoritative and returned unchanged. An empty name
// returns nothing.
func (k *BodyPartKey) Lookup(name string) []string {
	return lookup(k.m, name)
}

// DeviceKey maps a lower-cased device synonym or brand name to the PCS
// device values it denotes.
type DeviceKey struct {
	m map[string][]string
}

// NewDeviceKey builds a device key from synonym → device-values data.
func NewDeviceKey(data map[string][]string) *DeviceKey {
	return &DeviceKey{m: normalizeMap(data)}
}

// Lookup returns the device values for a synonym, or the name unchanged
// when it is not a known synonym.
func (k *DeviceKey) Lookup(name string) []string {
	return lookup(k.m, name)
}

// AggregationRecord widens one specific device name to a more general one.
type AggregationRecord struct {
	SpecificDevice string `json:"specific_device"`
	GeneralDevice  string `json:"general_device"`
}

// DeviceAggregation maps specific device names to the general device names
// they can stand in for. It only ever widens a candidate set, never narrows
// it. Record order is preserved so generalization output is deterministic.
type DeviceAggregation struct {
	toGeneral map[string][]string
}

// NewDeviceAggregation builds an aggregation from its records, dropping
// blanks and duplicate specific/general pairs.
func NewDeviceAggregation(records []AggregationRecord) *DeviceAggregation {
	a := &DeviceAggregation{toGeneral: make(map[string][]string)}
	for _, r := range records {
		spec := strings.TrimSpace(r.SpecificDevice)
		gen := strings.TrimSpace(r.GeneralDevice)
		if spec == "" || gen == "" {
			continue
		}
		if !containsString(a.toGeneral[spec], gen) {
			a.toGeneral[spec] = append(a.toGeneral[spec], gen)
		}
	}
	return a
}

// Generalize returns the general device names a specific name may stand in
// for, in record order. Unknown names generalize to nothing.
func (a *DeviceAggregation) Generalize(name string) []string {
	if name == "" {
		return nil
	}
	gens := a.toGeneral[name]
	out := make([]string, len(gens))
	copy(out, gens)
	return out
}

// Resolver bundles the loaded dictionaries. All methods are safe on a nil
// receiver and with nil dictionaries, falling back to identity expansion,
// so the code resolver never has to care which sources were present.
type Resolver struct {
	bodyParts *BodyPartKey
	devices   *DeviceKey
	agg       *DeviceAggregation
}

// NewResolver assembles a Resolver; any argument may be nil.
func NewResolver(bodyParts *BodyPartKey, devices *DeviceKey, agg *DeviceAggregation) *Resolver {
	return &Resolver{bodyParts: bodyParts, devices: devices, agg: agg}
}

// BodyPartCandidates expands a body-part name into the ordered candidate
// names to try against axis 4. An empty name yields nothing.
func (r *Resolver) BodyPartCandidates(name string) []string {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if r == nil || r.bodyParts == nil {
		return []string{name}
	}
	return r.bodyParts.Lookup(name)
}

// DeviceCandidates expands a device name: synonym lookups first, then the
// generalizations of every candidate found so far. Specific names stay
// ahead of general ones so they are trialled first; duplicates keep their
// first position.
func (r *Resolver) DeviceCandidates(name string) []string {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	base := []string{name}
	if r != nil && r.devices != nil {
		base = r.devices.Lookup(name)
	}
	var widened []string
	if r != nil && r.agg != nil {
		for _, c := range base {
			widened = append(widened, r.agg.Generalize(c)...)
		}
	}

	var out []string
	for _, v := range append(base, widened...) {
		if v != "" && !containsString(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func normalizeMap(data map[string][]string) map[string][]string {
	m := make(map[string][]string, len(data))
	for syn, vals := range data {
		key := strings.ToLower(strings.TrimSpace(syn))
		if key == "" {
			continue
		}
		trimmed := make([]string, 0, len(vals))
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				trimmed = append(trimmed, v)
			}
		}
		m[key] = trimmed
	}
	return m
}

func lookup(m map[string][]string, name string) []string {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if vals, ok := m[strings.ToLower(strings.TrimSpace(name))]; ok && len(vals) > 0 {
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	}
	return []string{name}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
