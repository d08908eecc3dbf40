package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pcs/pcs/internal/domain/synonyms"
	"github.com/pcs/pcs/internal/domain/tables"
	"github.com/pcs/pcs/internal/domain/termindex"
)

// ErrNotLoaded is returned when resolution is attempted without a loaded
// table store. It is fatal per call; "no match" is not.
var ErrNotLoaded = errors.New("pcs tables not loaded")

// MaxCandidates is the contract surface of Resolve: only the head of the
// ranked list is returned to callers.
const MaxCandidates = 5

// leadLimit bounds how many index leads the fallback consults.
const leadLimit = 10

// Service resolves procedure classification codes against the loaded
// reference stores. All fields are immutable after construction, so a
// single Service may serve concurrent calls.
type Service struct {
	store    *tables.Store
	index    *termindex.Index
	synonyms *synonyms.Resolver
	logger   zerolog.Logger
}

// NewService creates a resolver service. index and syn may be nil: the
// index fallback and synonym expansion then degrade gracefully.
func NewService(store *tables.Store, index *termindex.Index, syn *synonyms.Resolver, logger zerolog.Logger) *Service {
	return &Service{store: store, index: index, synonyms: syn, logger: logger}
}

// Loaded reports whether the service has table data to resolve against.
func (s *Service) Loaded() bool {
	return s.store != nil && s.store.Len() > 0
}

// TableCount returns the number of loaded tables, for health reporting.
func (s *Service) TableCount() int {
	if s.store == nil {
		return 0
	}
	return s.store.Len()
}

// Resolve finds the best-ranked fully qualified codes for the request.
// A nil error with an empty slice means "loaded but no match" — a valid
// outcome the caller must handle, not a failure.
func (s *Service) Resolve(_ context.Context, req Request) ([]Candidate, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	req = applyOverrides(req)
	section := sectionCode(req.Section)

	roots := s.store.FindRoots(section, req.BodySystem, req.RootOperation)
	if len(roots) == 0 {
		roots = s.leadRoots(section, req.NoteText)
	}

	candidates := make([]Candidate, 0, len(roots))
	for _, root := range roots {
		if c, ok := s.resolveRoot(root, req); ok {
			candidates = append(candidates, c)
		}
	}

	// Score is primary; the code string is the deterministic secondary
	// tie-break so output order does not depend on root discovery order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Code < candidates[j].Code
	})

	s.logger.Debug().
		Int("roots", len(roots)).
		Int("candidates", len(candidates)).
		Str("section", section).
		Msg("resolution complete")

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates, nil
}

// leadRoots derives fallback roots from the term index when header-based
// search found nothing. Leads pointing at sections or roots the store does
// not hold are noise and silently dropped.
func (s *Service) leadRoots(section, noteText string) []string {
	if noteText == "" || s.index == nil {
		return nil
	}
	var roots []string
	seen := make(map[string]struct{})
	for _, lead := range s.index.FindLeads(noteText, leadLimit) {
		if len(lead) < 3 {
			continue
		}
		root := lead[:3]
		if root[:1] != section || !s.store.Has(root) {
			continue
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

// resolveRoot trials every combination of normalized body-part and device
// names against one root's table and keeps the best trial. Trials are
// ranked by how many axes produced a pick; ties keep the first trial in
// candidate-list order, which tries specific device names before
// generalized ones.
func (s *Service) resolveRoot(root string, req Request) (Candidate, bool) {
	bodyParts := s.synonyms.BodyPartCandidates(req.BodyPart)
	if len(bodyParts) == 0 {
		bodyParts = []string{""}
	}
	devices := s.synonyms.DeviceCandidates(req.Device)
	if len(devices) == 0 {
		devices = []string{""}
	}

	var best *tables.Match
	bestPicks := -1
	for _, bp := range bodyParts {
		for _, dev := range devices {
			m, _, ok := s.store.BestMatchRow(root, bp, req.Approach, dev, req.Qualifier)
			if !ok || m.Code == "" {
				continue
			}
			if picks := m.Picks(); picks > bestPicks {
				bestPicks = picks
				match := m
				best = &match
			}
		}
	}
	if best == nil {
		return Candidate{}, false
	}

	t, ok := s.store.Get(root)
	if !ok {
		return Candidate{}, false
	}
	return newCandidate(root, t, best), true
}

func newCandidate(root string, t *tables.Table, m *tables.Match) Candidate {
	c := Candidate{
		Code:    m.Code,
		Score:   m.Score,
		RootKey: root,
		Components: Components{
			Section:       t.Section.Code,
			BodySystem:    t.BodySystem.Code,
			RootOperation: t.Operation.Code,
		},
		Labels: Components{
			Section:       t.Section.Text,
			BodySystem:    t.BodySystem.Text,
			RootOperation: t.Operation.Text,
		},
	}
	if m.BodyPart != nil {
		c.Components.BodyPart = m.BodyPart.Code
		c.Labels.BodyPart = m.BodyPart.Text
	}
	if m.Approach != nil {
		c.Components.Approach = m.Approach.Code
		c.Labels.Approach = m.Approach.Text
	}
	if m.Device != nil {
		c.Components.Device = m.Device.Code
		c.Labels.Device = m.Device.Text
	}
	if m.Qualifier != nil {
		c.Components.Qualifier = m.Qualifier.Code
		c.Labels.Qualifier = m.Qualifier.Text
	}
	return c
}

// RootInfo describes one table header for the roots listing endpoint.
type RootInfo struct {
	Key        string           `json:"key"`
	Section    tables.AxisLabel `json:"section"`
	BodySystem tables.AxisLabel `json:"body_system"`
	Operation  tables.AxisLabel `json:"operation"`
}

// Roots lists the root keys matching the header filters, with their labels.
func (s *Service) Roots(section, bodySystem, operation string) ([]RootInfo, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	keys := s.store.FindRoots(sectionCode(section), bodySystem, operation)
	infos := make([]RootInfo, 0, len(keys))
	for _, k := range keys {
		t, _ := s.store.Get(k)
		infos = append(infos, RootInfo{
			Key:        k,
			Section:    t.Section,
			BodySystem: t.BodySystem,
			Operation:  t.Operation,
		})
	}
	return infos, nil
}

// Table returns one table's full header and rows for inspection.
func (s *Service) Table(rootKey string) (*tables.Table, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	t, ok := s.store.Get(rootKey)
	if !ok {
		return nil, fmt.Errorf("unknown root key %q", rootKey)
	}
	return t, nil
}

// Leads exposes the raw term-index lookup. Without a loaded index it
// returns nothing.
func (s *Service) Leads(text string, limit int) []string {
	if s.index == nil {
		return nil
	}
	return s.index.FindLeads(text, limit)
}
