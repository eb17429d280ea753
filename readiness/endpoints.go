package readiness

import (
	"maps"
	"slices"
)

type endpointSet map[string]struct{}

func newEndpointSet(endpoints ...string) endpointSet {
	s := make(endpointSet, len(endpoints))
	for _, e := range endpoints {
		s.add(e)
	}
	return s
}

func (s endpointSet) add(endpoint string)      { s[endpoint] = struct{}{} }
func (s endpointSet) remove(endpoint string)   { delete(s, endpoint) }
func (s endpointSet) has(endpoint string) bool { _, ok := s[endpoint]; return ok }

// next returns the smallest endpoint so probe order is reproducible
func (s endpointSet) next() (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	return slices.Min(slices.Collect(maps.Keys(s))), true
}

func (s endpointSet) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
