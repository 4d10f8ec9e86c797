package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testSubject() Subject {
	return Subject{UserID: uuid.New(), Email: "u@x.com", Role: "user", ProjectID: uuid.New()}
}

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("access", "refresh", 15*time.Minute, 168*time.Hour)
	sub := testSubject()

	access, exp, err := iss.IssueAccess(sub)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := iss.ParseAccess(access)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, uid)
	assert.Equal(t, sub.ProjectID.String(), claims.ProjectID)
	assert.Equal(t, "u@x.com", claims.Email)

	refresh, _, err := iss.IssueRefresh(sub)
	require.NoError(t, err)
	_, err = iss.ParseRefresh(refresh)
	require.NoError(t, err)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	iss := NewIssuer("access", "refresh", 15*time.Minute, time.Hour)
	sub := testSubject()

	access, _, err := iss.IssueAccess(sub)
	require.NoError(t, err)
	refresh, _, err := iss.IssueRefresh(sub)
	require.NoError(t, err)

	_, err = iss.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Same secret for both still fails on the type claim.
	shared := NewIssuer("same", "same", time.Minute, time.Hour)
	tok, _, err := shared.IssueRefresh(sub)
	require.NoError(t, err)
	_, err = shared.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	iss := NewIssuer("access", "refresh", 15*time.Minute, time.Hour).WithClock(func() time.Time { return now })
	tok, _, err := iss.IssueAccess(testSubject())
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = iss.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Minute, time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := iss.ParseAccess(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	iss := NewIssuer("access", "refresh", time.Minute, time.Hour)
	sub := testSubject()
	a, _, err := iss.IssueRefresh(sub)
	require.NoError(t, err)
	b, _, err := iss.IssueRefresh(sub)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
}

func TestRefreshHash(t *testing.T) {
	token := strings.Repeat("x", 300)
	hash, err := HashRefresh(token, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckRefresh(&hash, token))
	// Differs only past bcrypt's 72-byte window.
	assert.False(t, CheckRefresh(&hash, strings.Repeat("x", 299)+"y"))
	assert.False(t, CheckRefresh(nil, token))
	empty := ""
	assert.False(t, CheckRefresh(&empty, token))
}
