package utils

import (
	"fmt"
	"sort"
	"strings"
)

// MembersKeySeparator joins the two sorted member ids of a direct conversation.
// Identifiers containing it cannot form a collision-free key and are rejected.
const MembersKeySeparator = "|"

// MembersKey builds the canonical key for a direct conversation between a and b.
// The result does not depend on argument order.
func MembersKey(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", fmt.Errorf("member ids cannot be empty")
	}
	if strings.Contains(a, MembersKeySeparator) || strings.Contains(b, MembersKeySeparator) {
		return "", fmt.Errorf("member ids cannot contain %q", MembersKeySeparator)
	}
	pair := SortedMembers([]string{a, b})
	return strings.Join(pair, MembersKeySeparator), nil
}

// SortedMembers returns a sorted copy of ids.
func SortedMembers(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// UnionMembers returns first followed by every id in rest not seen before.
// Blank ids are dropped. First-seen order is kept.
func UnionMembers(first string, rest []string) []string {
	seen := make(map[string]struct{}, len(rest)+1)
	out := make([]string, 0, len(rest)+1)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(first)
	for _, id := range rest {
		add(id)
	}
	return out
}
