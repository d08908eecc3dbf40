// Package termindex parses the alphabetic index release and surfaces
// term-to-code leads. The index is a recall-maximizing fallback only: leads
// are returned in term-encounter order, unranked, and the resolver consults
// them solely when structured header matching finds nothing.
package termindex

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultLeadLimit caps lead collection when the caller does not say how
// many it wants.
const DefaultLeadLimit = 10

// Term is one indexed main term: its display title and every code lead
// found anywhere beneath it.
type Term struct {
	Title string
	Codes []string
}

// Index is the loaded term index. Immutable after load.
type Index struct {
	terms []Term
}

type indexDoc struct {
	Letters []letterXML `xml:"letter"`
	// Some releases nest mainTerm directly under the document element.
	MainTerms []mainTermXML `xml:"mainTerm"`
}

type letterXML struct {
	MainTerms []mainTermXML `xml:"mainTerm"`
}

type mainTermXML struct {
	Title string        `xml:"title"`
	Codes []string      `xml:"codes"`
	Terms []mainTermXML `xml:"term"`
}

// Load reads and parses an index source file.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load pcs index %s: %w", path, err)
	}
	defer f.Close()

	ix, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load pcs index %s: %w", path, err)
	}
	return ix, nil
}

// Parse decodes an index source.
func Parse(r io.Reader) (*Index, error) {
	var doc indexDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse pcs index: %w", err)
	}

	ix := &Index{}
	for _, l := range doc.Letters {
		for _, mt := range l.MainTerms {
			ix.addTerm(mt)
		}
	}
	for _, mt := range doc.MainTerms {
		ix.addTerm(mt)
	}
	if len(ix.terms) == 0 {
		return nil, fmt.Errorf("parse pcs index: no mainTerm elements found")
	}
	return ix, nil
}

func (ix *Index) addTerm(mt mainTermXML) {
	t := Term{Title: strings.TrimSpace(mt.Title)}
	collectCodes(mt, &t.Codes)
	ix.terms = append(ix.terms, t)
}

// collectCodes gathers codes from a term and all of its sub-terms, in
// document order.
func collectCodes(mt mainTermXML, out *[]string) {
	for _, c := range mt.Codes {
		c = strings.TrimSpace(c)
		if c != "" {
			*out = append(*out, c)
		}
	}
	for _, sub := range mt.Terms {
		collectCodes(sub, out)
	}
}

// Len returns the number of indexed main terms.
func (ix *Index) Len() int { return len(ix.terms) }

// FindLeads scans the indexed terms in order and, whenever a term's title
// appears as a substring of the lowercased input text, appends that term's
// codes until limit is reached. Duplicate codes are suppressed. The result
// is deliberately unranked.
func (ix *Index) FindLeads(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLeadLimit
	}
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return nil
	}

	var leads []string
	seen := make(map[string]struct{})
	for _, term := range ix.terms {
		if term.Title == "" {
			continue
		}
		if !strings.Contains(t, strings.ToLower(term.Title)) {
			continue
		}
		for _, c := range term.Codes {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			leads = append(leads, c)
			if len(leads) >= limit {
				return leads
			}
		}
	}
	return leads
}
