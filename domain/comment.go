package domain

import (
	"fmt"
	"time"
)

// Comment is a message on a task; ParentID makes it a reply to another comment of the same task.
type Comment struct {
	ID        int64
	TaskID    int64
	ParentID  *int64
	Author    UserRef
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Comment) IsReply() bool {
	return c != nil && c.ParentID != nil
}

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

var reactionDisplay = map[ReactionType]string{
	ReactionLike:  "👍",
	ReactionLove:  "❤️",
	ReactionHaha:  "😂",
	ReactionWow:   "😮",
	ReactionSad:   "😢",
	ReactionAngry: "😡",
}

// ParseReactionType validates raw. An empty value is not a reaction.
func ParseReactionType(raw string) (ReactionType, error) {
	t := ReactionType(raw)
	if !t.Valid() {
		return "", ErrInvalidReaction
	}
	return t, nil
}

func (t ReactionType) Valid() bool {
	_, ok := reactionDisplay[t]
	return ok
}

// Display returns the emoji shown for the reaction.
func (t ReactionType) Display() string {
	return reactionDisplay[t]
}

// Reaction is the single typed like a user holds on a comment.
type Reaction struct {
	ID        int64
	CommentID int64
	User      UserRef
	Type      ReactionType
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ReactionAction string

const (
	ReactionAdded   ReactionAction = "added"
	ReactionRemoved ReactionAction = "removed"
	ReactionUpdated ReactionAction = "updated"
)

// ReactionOutcome reports which toggle transition a reaction request took.
type ReactionOutcome struct {
	Action   ReactionAction
	Type     ReactionType
	Reaction *Reaction
}

func (o ReactionOutcome) Message() string {
	switch o.Action {
	case ReactionAdded:
		return fmt.Sprintf("%s reaction added", o.Type)
	case ReactionRemoved:
		return fmt.Sprintf("%s reaction removed", o.Type)
	default:
		return fmt.Sprintf("reaction updated to %s", o.Type)
	}
}
