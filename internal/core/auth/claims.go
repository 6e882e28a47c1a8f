package auth

import (
	"slices"
	"strings"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ClaimSet is the verified identity of a caller. NewClaimSet trims, sorts and
// de-duplicates Roles so two sets with the same members compare equal; role
// names keep their case.
type ClaimSet struct {
	SubjectID string
	Username  string
	Email     string
	Roles     []string
}

func NewClaimSet(subjectID, username, email string, roles ...string) ClaimSet {
	return ClaimSet{
		SubjectID: subjectID,
		Username:  username,
		Email:     email,
		Roles:     normalizeRoles(roles),
	}
}

func (c ClaimSet) Authenticated() bool { return strings.TrimSpace(c.SubjectID) != "" }

func (c ClaimSet) HasRole(role string) bool {
	_, ok := slices.BinarySearch(c.Roles, role)
	return ok
}

func normalizeRoles(in []string) []string {
	var out []string
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}
