package tables

// AxisLabel is a single code/text option on one classification axis.
// Identity is the (code, text) pair; labels are never mutated after load.
type AxisLabel struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Row holds the valid label options for axes 4-7 of one table row. A
// resolved code must draw all four of its trailing characters from the same
// row; combining options across rows is never valid.
type Row struct {
	BodyParts  []AxisLabel `json:"body_parts"`
	Approaches []AxisLabel `json:"approaches"`
	Devices    []AxisLabel `json:"devices"`
	Qualifiers []AxisLabel `json:"qualifiers"`
}

// empty reports whether the row carries no options on any axis.
func (r *Row) empty() bool {
	return len(r.BodyParts) == 0 && len(r.Approaches) == 0 &&
		len(r.Devices) == 0 && len(r.Qualifiers) == 0
}

// Table is one PCS table: a fixed three-axis header (Section, Body System,
// Root Operation) plus the rows enumerating valid axis 4-7 combinations.
type Table struct {
	Section    AxisLabel `json:"section"`
	BodySystem AxisLabel `json:"body_system"`
	Operation  AxisLabel `json:"operation"`
	Definition string    `json:"definition,omitempty"`
	Rows       []Row     `json:"rows"`
}

// Key returns the 3-character root key identifying this table.
func (t *Table) Key() string {
	return t.Section.Code + t.BodySystem.Code + t.Operation.Code
}

// Match is the outcome of scoring one row (or the best row) of a table
// against the requested axis names. Code is empty unless every one of the
// four axes produced a pick. Score is the sum of the per-axis match scores
// (exact 3, substring 2, "No Device"/"No Qualifier" default 1, fallback 0).
type Match struct {
	Code      string     `json:"code,omitempty"`
	BodyPart  *AxisLabel `json:"body_part"`
	Approach  *AxisLabel `json:"approach"`
	Device    *AxisLabel `json:"device"`
	Qualifier *AxisLabel `json:"qualifier"`
	Score     int        `json:"score"`
}

// Picks returns how many of the four axes produced a pick.
func (m *Match) Picks() int {
	n := 0
	for _, l := range []*AxisLabel{m.BodyPart, m.Approach, m.Device, m.Qualifier} {
		if l != nil {
			n++
		}
	}
	return n
}

// complete reports whether all four axes picked a label.
func (m *Match) complete() bool {
	return m.BodyPart != nil && m.Approach != nil && m.Device != nil && m.Qualifier != nil
}
