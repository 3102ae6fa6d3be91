// Package paper defines the shared paper types exchanged between the scoring
// core and its collaborators. The types here are transport-neutral: the CRUD
// layer, enrichment sources, and evaluators all speak in terms of them.
package paper

import (
	"regexp"
	"strings"
	"time"
)

// doiPattern is the canonical DOI shape accepted by the scoring core. The
// registrant prefix is 4-9 digits per the DOI handbook; the suffix is any
// non-whitespace run.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Paper is the unit of scoring. Only the fields the scoring core reads are
// declared; the persistence layer owns the full record.
type Paper struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	DOI             string    `json:"doi,omitempty"`
	Authors         []string  `json:"authors,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	PublicationDate time.Time `json:"publication_date,omitempty"`
	Venue           string    `json:"venue,omitempty"`
}

// Summary is the compact representation of a related paper produced by the
// similar-papers collaborator: enough to format a context section, nothing
// more.
type Summary struct {
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	DOI             string    `json:"doi,omitempty"`
	PublicationDate time.Time `json:"publication_date,omitempty"`
	Similarity      float64   `json:"similarity,omitempty"`
}

// NormalizeDOI lowercases and trims a DOI and reports whether the result is
// well-formed. Callers that receive ok == false must treat the paper as
// having no usable DOI; the empty string is returned in that case.
func NormalizeDOI(doi string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = strings.TrimPrefix(d, "https://doi.org/")
	d = strings.TrimPrefix(d, "http://doi.org/")
	d = strings.TrimPrefix(d, "doi:")
	if !doiPattern.MatchString(d) {
		return "", false
	}
	return d, true
}
