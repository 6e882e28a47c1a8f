package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"obituary-service/internal/core/auth"
)

func claims(id string, roles ...string) *auth.ClaimSet {
	c := auth.NewClaimSet(id, id, id+"@example.com", roles...)
	return &c
}

func TestDecide_Table(t *testing.T) {
	t.Parallel()

	const ownerX = "user-x"
	anon := (*auth.ClaimSet)(nil)
	blank := &auth.ClaimSet{}
	userX := claims(ownerX, auth.RoleUser)
	userY := claims("user-y", auth.RoleUser)
	admin := claims("root", auth.RoleAdmin)

	cases := []struct {
		name   string
		caller *auth.ClaimSet
		action Action
		owner  string
		want   Decision
	}{
		{"anon read", anon, ActionRead, ownerX, Decision{Allowed: true}},
		{"anon create", anon, ActionCreate, "", Decision{Reason: ReasonUnauthenticated}},
		{"anon update", anon, ActionUpdate, ownerX, Decision{Reason: ReasonUnauthenticated}},
		{"anon delete", anon, ActionDelete, ownerX, Decision{Reason: ReasonUnauthenticated}},
		{"blank subject delete", blank, ActionDelete, ownerX, Decision{Reason: ReasonUnauthenticated}},
		{"user create", userY, ActionCreate, "", Decision{Allowed: true}},
		{"role-less user create", claims("plain"), ActionCreate, "", Decision{Allowed: true}},
		{"other user delete", userY, ActionDelete, ownerX, Decision{Reason: ReasonForbidden}},
		{"other user update", userY, ActionUpdate, ownerX, Decision{Reason: ReasonForbidden}},
		{"owner delete", userX, ActionDelete, ownerX, Decision{Allowed: true}},
		{"owner update", userX, ActionUpdate, ownerX, Decision{Allowed: true}},
		{"admin delete", admin, ActionDelete, ownerX, Decision{Allowed: true}},
		{"admin update", admin, ActionUpdate, ownerX, Decision{Allowed: true}},
		{"no owner recorded", userX, ActionUpdate, "", Decision{Reason: ReasonForbidden}},
		{"unknown action", userX, Action("publish"), ownerX, Decision{Reason: ReasonForbidden}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Decide(tc.caller, tc.action, tc.owner), tc.name)
	}
}

func TestDecide_DeleteHoldsForManyOwners(t *testing.T) {
	t.Parallel()

	ids := []string{"a", "b", "c", "0b9e6d4a-5f4e-4d8e-9c41-3a1f2b7c8d90"}
	admin := claims("root", auth.RoleAdmin)
	for _, x := range ids {
		require.Equal(t, Decision{Reason: ReasonUnauthenticated}, Decide(nil, ActionDelete, x))
		require.True(t, Decide(claims(x), ActionDelete, x).Allowed)
		require.True(t, Decide(admin, ActionDelete, x).Allowed)
		for _, y := range ids {
			if y == x {
				continue
			}
			require.Equal(t, Decision{Reason: ReasonForbidden}, Decide(claims(y, auth.RoleUser), ActionDelete, x))
		}
	}
}
