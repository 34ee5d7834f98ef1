package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReactionType(t *testing.T) {
	_, err := ParseReactionType("")
	assert.ErrorIs(t, err, ErrInvalidReaction)

	got, err := ParseReactionType("haha")
	require.NoError(t, err)
	assert.Equal(t, ReactionHaha, got)
	assert.Equal(t, "😂", got.Display())

	_, err = ParseReactionType("meh")
	assert.ErrorIs(t, err, ErrInvalidReaction)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestReactionOutcome_Message(t *testing.T) {
	assert.Equal(t, "like reaction added", ReactionOutcome{Action: ReactionAdded, Type: ReactionLike}.Message())
	assert.Equal(t, "like reaction removed", ReactionOutcome{Action: ReactionRemoved, Type: ReactionLike}.Message())
	assert.Equal(t, "reaction updated to love", ReactionOutcome{Action: ReactionUpdated, Type: ReactionLove}.Message())
}

func TestValidationError_KeepsOrder(t *testing.T) {
	v := NewValidationError()
	require.NoError(t, v.Err())

	v.Add("title", "This field is required.")
	v.Add("status", "\"x\" is not a valid choice.")
	v.Add("title", "second")

	require.Error(t, v.Err())
	fields := v.Fields()
	first := fields.Oldest()
	require.NotNil(t, first)
	assert.Equal(t, "title", first.Key)
	assert.Equal(t, []string{"This field is required.", "second"}, first.Value)
	assert.Equal(t, "status", first.Next().Key)

	got, ok := AsValidationError(v.Err())
	require.True(t, ok)
	assert.True(t, got.Has("status"))
}

func TestProfile_Derived(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	country, city := "FR", "Lyon"
	p := &Profile{DateOfBirth: &dob, Country: &country, City: &city}

	require.NotNil(t, p.Age(now))
	assert.Equal(t, 16, *p.Age(now))
	assert.False(t, *p.IsAdult(now))
	assert.Equal(t, "FR | Lyon", p.FullAddress())
	assert.Equal(t, DefaultProfilePicture, p.ProfilePicturePath())
	assert.Equal(t, DefaultCoverPicture, p.CoverPicturePath())

	var missing *Profile
	assert.Nil(t, missing.Age(now))
	assert.Equal(t, DefaultProfilePicture, missing.ProfilePicturePath())
}
