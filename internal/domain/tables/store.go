package tables

import "strings"

// Store indexes the authoritative classification tables by their 3-character
// root key. It is built once by Load/Parse and read-only afterwards, so
// lookups may run concurrently without locking.
type Store struct {
	tables map[string]*Table
	order  []string
	report LoadReport
}

func newStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Len returns the number of loaded tables.
func (s *Store) Len() int { return len(s.order) }

// Report returns the load-phase notices recorded while building the store.
func (s *Store) Report() LoadReport { return s.report }

// Get returns the table for the given root key.
func (s *Store) Get(rootKey string) (*Table, bool) {
	t, ok := s.tables[rootKey]
	return t, ok
}

// Has reports whether the store holds a table for the given root key.
func (s *Store) Has(rootKey string) bool {
	_, ok := s.tables[rootKey]
	return ok
}

// Keys returns all root keys in load order.
func (s *Store) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// FindRoots returns the root keys whose section code matches exactly and
// whose body-system / operation display text matches case-insensitively
// when the corresponding filter is non-empty. Results follow the store's
// load order, so output is stable across calls.
func (s *Store) FindRoots(sectionCode, bodySystemName, operationName string) []string {
	var roots []string
	for _, key := range s.order {
		t := s.tables[key]
		if t.Section.Code != sectionCode {
			continue
		}
		if bodySystemName != "" && !eqFold(t.BodySystem.Text, bodySystemName) {
			continue
		}
		if operationName != "" && !eqFold(t.Operation.Text, operationName) {
			continue
		}
		roots = append(roots, key)
	}
	return roots
}

// BestMatchRow scores every row of the root's table against the requested
// axis names and returns the best row's match, plus one Match per row for
// caller-side inspection. The best row is the strictly highest scoring one;
// ties keep the first row encountered. The returned Match carries a code
// only when all four axes produced a pick. ok is false when the root key is
// unknown.
func (s *Store) BestMatchRow(rootKey, bodyPartName, approachName, deviceName, qualifierName string) (best Match, alts []Match, ok bool) {
	t, ok := s.tables[rootKey]
	if !ok {
		return Match{}, nil, false
	}

	bestScore := -1
	for i := range t.Rows {
		row := &t.Rows[i]
		m := Match{}
		var s4, s5, s6, s7 int
		m.BodyPart, s4 = pick(row.BodyParts, bodyPartName)
		m.Approach, s5 = pick(row.Approaches, approachName)
		m.Device, s6 = pick(row.Devices, deviceName)
		m.Qualifier, s7 = pick(row.Qualifiers, qualifierName)
		m.Score = s4 + s5 + s6 + s7
		if m.complete() {
			m.Code = t.Key() + m.BodyPart.Code + m.Approach.Code + m.Device.Code + m.Qualifier.Code
		}
		alts = append(alts, m)
		if m.Score > bestScore {
			bestScore = m.Score
			best = m
		}
	}

	if !best.complete() {
		best.Code = ""
	}
	return best, alts, true
}

// pick selects the best label from one axis's options. With no target name
// the domain convention is to prefer the explicit "none" labels over an
// arbitrary first option: an unspecified device or qualifier means the
// procedure used none, not whichever the table lists first.
func pick(options []AxisLabel, want string) (*AxisLabel, int) {
	if len(options) == 0 {
		return nil, 0
	}
	if strings.TrimSpace(want) == "" {
		for i := range options {
			if eqFold(options[i].Text, "No Device") {
				return &options[i], 1
			}
		}
		for i := range options {
			if eqFold(options[i].Text, "No Qualifier") {
				return &options[i], 1
			}
		}
		return &options[0], 0
	}
	for i := range options {
		if eqFold(options[i].Text, want) {
			return &options[i], 3
		}
	}
	for i := range options {
		if containsFold(options[i].Text, want) || containsFold(want, options[i].Text) {
			return &options[i], 2
		}
	}
	return &options[0], 0
}

func eqFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// containsFold reports whether b occurs inside a, case-insensitively.
func containsFold(a, b string) bool {
	return strings.Contains(
		strings.ToLower(strings.TrimSpace(a)),
		strings.ToLower(strings.TrimSpace(b)),
	)
}
