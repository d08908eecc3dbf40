package resolver

import "strings"

// Request is the resolver call contract: plain axis display names plus
// optional free text and externally computed override hints.
type Request struct {
	Section       string `json:"section,omitempty"`
	BodySystem    string `json:"body_system,omitempty"`
	RootOperation string `json:"root_operation,omitempty"`
	BodyPart      string `json:"body_part,omitempty"`
	Approach      string `json:"approach,omitempty"`
	Device        string `json:"device,omitempty"`
	Qualifier     string `json:"qualifier,omitempty"`
	NoteText      string `json:"note_text,omitempty"`

	Overrides *Overrides `json:"overrides,omitempty"`
}

// Overrides carries the rules-engine collaborator's per-axis hints. The
// precedence and suppression logic that produces them lives outside this
// core; here they are just layered onto the request before resolution.
// Hint-shaped fields fill a blank selection, override-shaped fields replace
// the caller's selection. Values of the form "a|b" take the first
// alternative.
type Overrides struct {
	BodySystemBias    []string `json:"body_system_bias,omitempty"`
	RootOperationHint string   `json:"root_operation_hint,omitempty"`
	ApproachOverride  string   `json:"approach_override,omitempty"`
	DeviceOverride    string   `json:"device_override,omitempty"`
	QualifierHints    []string `json:"qualifier_hints,omitempty"`
}

// Components holds one value per axis, used both for the single code
// characters and for the display labels of a candidate.
type Components struct {
	Section       string `json:"section"`
	BodySystem    string `json:"body_system"`
	RootOperation string `json:"root_operation"`
	BodyPart      string `json:"body_part,omitempty"`
	Approach      string `json:"approach,omitempty"`
	Device        string `json:"device,omitempty"`
	Qualifier     string `json:"qualifier,omitempty"`
}

// Candidate is one fully resolved 7-character code with its provenance.
// Candidates are built fresh per call and never persisted.
type Candidate struct {
	Code       string     `json:"pcs_code"`
	Components Components `json:"components"`
	Labels     Components `json:"labels"`
	Score      int        `json:"score"`
	RootKey    string     `json:"root_key"`
}

// applyOverrides layers the hint payload onto a copy of the request.
func applyOverrides(req Request) Request {
	o := req.Overrides
	if o == nil {
		return req
	}
	if req.BodySystem == "" && len(o.BodySystemBias) > 0 {
		req.BodySystem = firstAlternative(o.BodySystemBias[0])
	}
	if req.RootOperation == "" && o.RootOperationHint != "" {
		req.RootOperation = firstAlternative(o.RootOperationHint)
	}
	if o.ApproachOverride != "" {
		req.Approach = firstAlternative(o.ApproachOverride)
	}
	if o.DeviceOverride != "" {
		req.Device = firstAlternative(o.DeviceOverride)
	}
	if req.Qualifier == "" && len(o.QualifierHints) > 0 {
		req.Qualifier = firstAlternative(o.QualifierHints[0])
	}
	return req
}

// firstAlternative collapses multi-valued hint strings like
// "Open|Percutaneous Endoscopic" to their first alternative.
func firstAlternative(s string) string {
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// sectionCode reduces a section selection to its single code character.
// Callers sometimes send display forms like "0 (Medical & Surgical)"; the
// leading character is the code. An empty selection defaults to the
// Medical and Surgical section.
func sectionCode(section string) string {
	s := strings.TrimSpace(section)
	if s == "" {
		return "0"
	}
	return s[:1]
}
