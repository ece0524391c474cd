package graph

import (
	"strings"
)

// SearchMatches returns the set of node IDs whose id, name, or type contains
// the query as a case-insensitive substring. An empty query matches every
// node; callers treat that as "restore full opacity".
func (s *Spec) SearchMatches(query string) map[string]bool {
	matches := make(map[string]bool, len(s.Nodes))
	q := strings.ToLower(strings.TrimSpace(query))

	if q == "" {
		for i := range s.Nodes {
			matches[s.Nodes[i].ID] = true
		}
		return matches
	}

	for i := range s.Nodes {
		node := &s.Nodes[i]
		if strings.Contains(node.ID, q) ||
			strings.Contains(strings.ToLower(node.Name), q) ||
			strings.Contains(strings.ToLower(node.Type), q) {
			matches[node.ID] = true
		}
	}

	return matches
}

// Neighborhood returns the closed 1-hop set around a node: the node itself
// plus every node sharing a link with it. Unknown IDs return an empty set.
func (s *Spec) Neighborhood(id string) map[string]bool {
	set := make(map[string]bool)
	if s.NodeByID(id) == nil {
		return set
	}

	set[id] = true
	for i := range s.Links {
		link := &s.Links[i]
		if link.Source == id {
			set[link.Target] = true
		}
		if link.Target == id {
			set[link.Source] = true
		}
	}

	return set
}
