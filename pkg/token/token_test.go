package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", "taskhub", time.Minute, time.Hour)

	raw, issued, err := m.Issue(42, Access)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Parse(raw, Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "taskhub", claims.Issuer)

	_, err = m.Parse(raw, Refresh)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestManager_RejectsForeignSignatureAndExpiry(t *testing.T) {
	m := NewManager("secret", "taskhub", time.Minute, time.Hour)
	other := NewManager("other", "taskhub", time.Minute, time.Hour)

	raw, _, err := other.Issue(1, Access)
	require.NoError(t, err)
	_, err = m.Parse(raw, Access)
	assert.ErrorIs(t, err, ErrInvalid)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err = m.Issue(1, Refresh)
	require.NoError(t, err)
	_, err = m.Parse(raw, Refresh)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.Parse("not-a-token", Access)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewManager("secret", "taskhub", time.Minute, time.Hour)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1, TokenType: Access}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Parse(raw, Access)
	assert.ErrorIs(t, err, ErrInvalid)
}
