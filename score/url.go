package score

import (
	"fmt"
	"math"
	"net/url"
)

// DefaultPenalty is the decay penalty used by Score when none is given.
const DefaultPenalty = 0.5

const (
	hostPenaltyFactor   = 0.6
	reverseHostDiscount = 0.85
	hostOnlyFactor      = 0.85
	extraPathFactor     = 0.8
	pathTargetFactor    = 0.7
	pathPenaltyFactor   = 1.5
	pathWeight          = 0.2
)

// URL is an immutable parsed URL as far as matching is concerned.
// An empty Host means the URL has none (mailto:, file:///, ...).
type URL struct {
	Scheme   string
	Opaque   string
	Host     string
	Port     string
	Path     string
	RawQuery string
	Fragment string

	forceQuery bool
}

// Parse parses raw into a URL.
func Parse(raw string) (URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("parsing url: %w", err)
	}
	return FromStdURL(u), nil
}

// FromStdURL converts a net/url URL. A nil u yields the zero URL.
func FromStdURL(u *url.URL) URL {
	if u == nil {
		return URL{}
	}
	return URL{
		Scheme:     u.Scheme,
		Opaque:     u.Opaque,
		Host:       u.Hostname(),
		Port:       u.Port(),
		Path:       u.EscapedPath(),
		RawQuery:   u.RawQuery,
		Fragment:   u.EscapedFragment(),
		forceQuery: u.ForceQuery,
	}
}

// HasHost reports whether the URL carries a host.
func (u URL) HasHost() bool {
	return u.Host != ""
}

// RelativeReference returns path, query and fragment concatenated verbatim.
func (u URL) RelativeReference() string {
	ref := u.Path
	if u.RawQuery != "" || u.forceQuery {
		ref += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		ref += "#" + u.Fragment
	}
	return ref
}

// Equal reports exact structural equality.
func (u URL) Equal(o URL) bool {
	return u == o
}

// String reassembles the URL.
func (u URL) String() string {
	std := url.URL{
		Scheme:     u.Scheme,
		Opaque:     u.Opaque,
		Host:       u.Host,
		RawQuery:   u.RawQuery,
		ForceQuery: u.forceQuery,
	}
	if u.Port != "" {
		std.Host += ":" + u.Port
	}
	if p, err := url.PathUnescape(u.Path); err == nil {
		std.Path = p
		std.RawPath = u.Path
	} else {
		std.Path = u.Path
	}
	if f, err := url.PathUnescape(u.Fragment); err == nil {
		std.Fragment = f
		std.RawFragment = u.Fragment
	} else {
		std.Fragment = u.Fragment
	}
	return std.String()
}

// Score rates how well candidate (a stored URL) matches target (the visited URL).
//
// Identical URLs score 1 and URLs without a host score 0. Otherwise normalized
// hosts are compared in both directions, the reverse direction discounted so a
// superset match never outranks a forward one, and the result is weighted by how
// the relative references line up.
func Score(candidate, target URL, opts ...Option) float64 {
	o := newOptions(opts)

	if candidate.Equal(target) {
		return 1
	}
	if !candidate.HasHost() || !target.HasHost() {
		return 0
	}

	host := NormalizeHost(candidate.Host)
	searchHost := NormalizeHost(target.Host)

	hostScore := String(host, searchHost, o.penalty*hostPenaltyFactor)
	reversedHostScore := String(searchHost, host, o.penalty*hostPenaltyFactor) * reverseHostDiscount
	s := math.Max(hostScore, reversedHostScore)

	targetRef := target.RelativeReference()
	candidateRef := candidate.RelativeReference()
	if targetRef == "" {
		if candidateRef == "" {
			s *= hostOnlyFactor
		} else {
			// The candidate points somewhere the target didn't ask for.
			s *= extraPathFactor
		}
	} else {
		s *= pathTargetFactor
		s += String(candidateRef, targetRef, o.penalty*pathPenaltyFactor) * pathWeight
	}

	return clamp(s)
}

// ScoreString parses both URLs and scores them. Unparsable input scores 0.
func ScoreString(candidate, target string, opts ...Option) float64 {
	c, err := Parse(candidate)
	if err != nil {
		return 0
	}
	t, err := Parse(target)
	if err != nil {
		return 0
	}
	return Score(c, t, opts...)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
