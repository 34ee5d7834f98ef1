package transport

import (
	"time"

	"github.com/fastygo/taskhub/domain"
)

// URLResolver builds absolute URLs for stored media paths.
type URLResolver interface {
	Absolute(path string) string
}

type AuthorProfileView struct {
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
}

type AuthorView struct {
	ID      int64             `json:"id"`
	Profile AuthorProfileView `json:"profile"`
}

// LikeView is one reaction as listed under a comment.
type LikeView struct {
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	Image           string `json:"image"`
	ReactionType    string `json:"reaction_type"`
	ReactionDisplay string `json:"reaction_display"`
}

type CommentView struct {
	ID        int64         `json:"id"`
	CreatedBy AuthorView    `json:"created_by"`
	Task      int64         `json:"task"`
	Parent    *int64        `json:"parent"`
	Content   string        `json:"content"`
	IsReply   bool          `json:"is_reply"`
	Replies   []CommentView `json:"replies"`
	Likes     []LikeView    `json:"likes"`
	LikeCount int           `json:"like_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewAuthorView(ref domain.UserRef, urls URLResolver) AuthorView {
	return AuthorView{
		ID: ref.ID,
		Profile: AuthorProfileView{
			FullName:       ref.FullName(),
			ProfilePicture: urls.Absolute(ref.ProfilePicturePath()),
		},
	}
}

// NewCommentView serializes node and all of its replies.
func NewCommentView(node *domain.CommentNode, urls URLResolver) CommentView {
	view := CommentView{
		ID:        node.ID,
		CreatedBy: NewAuthorView(node.Author, urls),
		Task:      node.TaskID,
		Parent:    node.ParentID,
		Content:   node.Content,
		IsReply:   node.IsReply(),
		Replies:   NewCommentViews(node.Replies, urls),
		Likes:     make([]LikeView, 0, len(node.Reactions)),
		LikeCount: node.LikeCount(),
		CreatedAt: node.CreatedAt,
		UpdatedAt: node.UpdatedAt,
	}
	for _, r := range node.Reactions {
		view.Likes = append(view.Likes, LikeView{
			UserID:          r.User.ID,
			Username:        r.User.Username,
			Image:           urls.Absolute(r.User.ProfilePicturePath()),
			ReactionType:    string(r.Type),
			ReactionDisplay: r.Type.Display(),
		})
	}
	return view
}

func NewCommentViews(nodes []*domain.CommentNode, urls URLResolver) []CommentView {
	views := make([]CommentView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NewCommentView(n, urls))
	}
	return views
}
