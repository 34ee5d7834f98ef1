package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/pkg/media"
)

func TestNewCommentView_NestedRepliesAndLikes(t *testing.T) {
	base := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	a, b := int64(1), int64(2)
	author := domain.UserRef{ID: 5, Username: "ada", FirstName: "Ada", LastName: "Lovelace"}
	comments := []domain.Comment{
		{ID: 1, TaskID: 3, Author: author, Content: "A", CreatedAt: base},
		{ID: 2, TaskID: 3, ParentID: &a, Author: author, Content: "B", CreatedAt: base.Add(time.Minute)},
		{ID: 3, TaskID: 3, ParentID: &b, Author: author, Content: "C", CreatedAt: base.Add(2 * time.Minute)},
	}
	reactions := []domain.Reaction{
		{ID: 9, CommentID: 2, Type: domain.ReactionLove, User: domain.UserRef{ID: 6, Username: "bob", ProfilePicture: "/media/users/profile_pictures/bob.png"}},
		{ID: 10, CommentID: 2, Type: domain.ReactionLike, User: domain.UserRef{ID: 7, Username: "eve"}},
	}
	urls := media.NewResolver("", "https", "api.example.com")

	node, ok := domain.NewThread(comments, reactions, 0).Node(1)
	require.True(t, ok)
	view := NewCommentView(node, urls)

	assert.False(t, view.IsReply)
	assert.Equal(t, 0, view.LikeCount)
	assert.Empty(t, view.Likes)
	assert.Equal(t, "Ada Lovelace", view.CreatedBy.Profile.FullName)
	assert.Equal(t, "https://api.example.com/static/default_images/default_profile_picture.jpg", view.CreatedBy.Profile.ProfilePicture)

	require.Len(t, view.Replies, 1)
	reply := view.Replies[0]
	assert.True(t, reply.IsReply)
	assert.Equal(t, &a, reply.Parent)
	assert.Equal(t, 2, reply.LikeCount)
	require.Len(t, reply.Likes, 2)
	assert.Equal(t, LikeView{
		UserID:          6,
		Username:        "bob",
		Image:           "https://api.example.com/media/users/profile_pictures/bob.png",
		ReactionType:    "love",
		ReactionDisplay: "❤️",
	}, reply.Likes[0])
	assert.Equal(t, "https://api.example.com/static/default_images/default_profile_picture.jpg", reply.Likes[1].Image)

	require.Len(t, reply.Replies, 1)
	assert.Equal(t, "C", reply.Replies[0].Content)
	assert.NotNil(t, reply.Replies[0].Replies)
	assert.Empty(t, reply.Replies[0].Replies)
}

func TestNewUserView_ProfileDerivedFields(t *testing.T) {
	dob := time.Date(2000, 7, 1, 0, 0, 0, 0, time.UTC)
	country, city := "France", "Lyon"
	user := &domain.User{
		ID: 1, FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@example.com",
		Source: domain.SourceLocal,
		Profile: &domain.Profile{
			ID: 4, Country: &country, City: &city, DateOfBirth: &dob,
			CoverPicture: "/media/users/cover_pictures/c.jpg",
		},
	}

	view := NewUserView(user, media.NewResolver("https://cdn.example.com/", "", ""), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, view.Profile)
	assert.Equal(t, "Ada Lovelace", view.Profile.FullName)
	assert.Equal(t, "France | Lyon", view.Profile.FullAddress)
	require.NotNil(t, view.Profile.Age)
	assert.Equal(t, 26, *view.Profile.Age)
	require.NotNil(t, view.Profile.IsAdult)
	assert.True(t, *view.Profile.IsAdult)
	assert.Equal(t, "2000-07-01", *view.Profile.DateOfBirth)
	assert.Equal(t, "https://cdn.example.com/static/default_images/default_profile_picture.jpg", view.Profile.ProfilePicture)
	assert.Equal(t, "https://cdn.example.com/media/users/cover_pictures/c.jpg", view.Profile.CoverPicture)
}

func TestTaskRequest_Patch(t *testing.T) {
	title, status := "Ship it", "later"

	_, err := (&TaskRequest{}).Patch(false)
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("title"))

	_, err = (&TaskRequest{Title: &title, Status: &status}).Patch(false)
	vErr, ok = domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, `status: "later" is not a valid choice.`, vErr.Error())

	done := "done"
	patch, err := (&TaskRequest{Status: &done}).Patch(true)
	require.NoError(t, err)
	assert.Nil(t, patch.Title)
	assert.Equal(t, domain.TaskStatusDone, *patch.Status)
}

func TestRegisterRequest_PasswordsMustMatch(t *testing.T) {
	req := RegisterRequest{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "a", Password2: "b"}
	err := req.Validate()
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Passwords must match.", NewResponse(vErr.Fields(), 400, "", nil).Message)

	bad := RegisterRequest{FirstName: "Ada", LastName: "L", Email: "not-an-email", Password: "a", Password2: "a"}
	vErr, ok = domain.AsValidationError(bad.Validate())
	require.True(t, ok)
	assert.True(t, vErr.Has("email"))
}
