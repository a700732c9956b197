package webserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/storefront/pkg/common"
)

func TestIssueAndParseToken(t *testing.T) {
	user := CurrentUser{ID: 1234567890123, Email: "a@example.com", Role: common.RoleAdmin}
	tok, err := IssueToken("s3cret", user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, common.RoleAdmin, claims.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	user := CurrentUser{ID: 1, Email: "a@example.com", Role: common.RoleCustomer}

	tok, err := IssueToken("s3cret", user, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("other", tok)
	assert.Error(t, err, "wrong secret")

	expired, err := IssueToken("s3cret", user, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", expired)
	assert.Error(t, err, "expired")

	noUser, err := IssueToken("s3cret", CurrentUser{}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", noUser)
	assert.Error(t, err, "missing uid")
}
