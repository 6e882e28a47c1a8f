package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClaimSet_RolesAreASet(t *testing.T) {
	t.Parallel()

	a := NewClaimSet("id", "n", "e", "user", " admin ", "admin", "")
	b := NewClaimSet("id", "n", "e", "admin", "user")

	require.Equal(t, a, b)
	require.Equal(t, []string{"admin", "user"}, a.Roles)
	require.True(t, a.HasRole(RoleAdmin))
	require.False(t, a.HasRole("owner"))
	require.Nil(t, NewClaimSet("id", "", "").Roles)

	mixed := NewClaimSet("id", "n", "e", "Admin")
	require.Equal(t, []string{"Admin"}, mixed.Roles)
	require.False(t, mixed.HasRole(RoleAdmin))
}

func TestClaimSet_Authenticated(t *testing.T) {
	t.Parallel()

	require.False(t, ClaimSet{}.Authenticated())
	require.False(t, ClaimSet{SubjectID: "  "}.Authenticated())
	require.True(t, NewClaimSet("u-1", "", "").Authenticated())
}
