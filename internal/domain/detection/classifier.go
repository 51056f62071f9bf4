package detection

import (
	"sort"
	"strings"

	"github.com/oshokin/zone-intrusion/internal/domain/zone"
)

// IdentitySet is the set of track identities found inside a zone in one frame.
// All untracked detections collapse into the single Untracked member.
type IdentitySet map[TrackID]struct{}

// Has reports whether the identity is a member.
func (s IdentitySet) Has(id TrackID) bool {
	_, ok := s[id]

	return ok
}

// Len returns the number of distinct identities.
func (s IdentitySet) Len() int {
	return len(s)
}

// HasUntracked reports whether an untracked detection intruded.
func (s IdentitySet) HasUntracked() bool {
	return s.Has(Untracked)
}

// Sorted returns tracked identities in ascending order followed by Untracked, if present.
func (s IdentitySet) Sorted() []TrackID {
	result := make([]TrackID, 0, len(s))

	for id := range s {
		if id.Valid {
			result = append(result, id)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	if s.HasUntracked() {
		result = append(result, Untracked)
	}

	return result
}

// String renders the set as "1,4,untracked", or "none" when empty.
func (s IdentitySet) String() string {
	sorted := s.Sorted()
	if len(sorted) == 0 {
		return "none"
	}

	parts := make([]string, 0, len(sorted))
	for _, id := range sorted {
		parts = append(parts, id.String())
	}

	return strings.Join(parts, ",")
}

// Classify returns the identities of detections whose box center lies inside the zone.
// It has no side effects and keeps no state between frames.
func Classify(z *zone.Zone, detections []Detection) IdentitySet {
	intruders := make(IdentitySet)
	if z == nil {
		return intruders
	}

	for _, d := range detections {
		if z.Contains(d.Center()) {
			intruders[d.TrackID] = struct{}{}
		}
	}

	return intruders
}
