package model

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MinClaimLength is the shortest trimmed text (in characters) accepted as a claim
const MinClaimLength = 10

// Claim is a short, standalone, verifiable factual statement
type Claim string

// NewClaim trims the candidate and reports whether it qualifies as a claim.
// Empty, whitespace-only and too-short candidates are rejected.
func NewClaim(candidate string) (Claim, bool) {
	text := strings.TrimSpace(candidate)
	if text == "" || utf8.RuneCountInString(text) < MinClaimLength {
		return "", false
	}
	return Claim(text), true
}

// String returns the claim text
func (c Claim) String() string {
	return string(c)
}

// ClaimSet is an unordered collection of distinct claims
type ClaimSet map[Claim]struct{}

// NewClaimSet builds a set from the given claims
func NewClaimSet(claims ...Claim) ClaimSet {
	set := make(ClaimSet, len(claims))
	for _, c := range claims {
		set.Add(c)
	}
	return set
}

// Add inserts a claim; duplicates collapse by exact string equality
func (s ClaimSet) Add(c Claim) {
	s[c] = struct{}{}
}

// Contains reports whether the set holds the claim
func (s ClaimSet) Contains(c Claim) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of claims
func (s ClaimSet) Len() int {
	return len(s)
}

// Strings returns the claims in unspecified order
func (s ClaimSet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	return out
}

// Sorted returns the claims in lexical order, for display only
func (s ClaimSet) Sorted() []string {
	out := s.Strings()
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold exactly the same claims
func (s ClaimSet) Equal(other ClaimSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}
