package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskhub/domain"
	sqliteinfra "github.com/fastygo/taskhub/internal/infrastructure/sqlite"
	"github.com/fastygo/taskhub/repository"
	"github.com/fastygo/taskhub/repository/sqlite"
)

type fixture struct {
	db        *sqlx.DB
	users     *sqlite.UserRepository
	tasks     *sqlite.TaskRepository
	comments  *sqlite.CommentRepository
	reactions *sqlite.ReactionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, sqliteinfra.MemoryPath)
}

func newFixtureAt(t *testing.T, path string) *fixture {
	t.Helper()

	db, err := sqliteinfra.Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		db:        db,
		users:     sqlite.NewUserRepository(db),
		tasks:     sqlite.NewTaskRepository(db),
		comments:  sqlite.NewCommentRepository(db),
		reactions: sqlite.NewReactionRepository(db),
	}
}

func (f *fixture) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  username,
		Email:     username + "@example.com",
		Source:    domain.SourceLocal,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) task(t *testing.T, owner int64, title string) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), &domain.Task{
		OwnerID:  owner,
		Title:    title,
		Status:   domain.TaskStatusTodo,
		Priority: domain.TaskPriorityMedium,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) comment(t *testing.T, author, taskID int64, parent *int64, content string) *domain.Comment {
	t.Helper()
	c := &domain.Comment{TaskID: taskID, ParentID: parent, Author: domain.UserRef{ID: author}, Content: content}
	require.NoError(t, f.comments.Create(context.Background(), c))
	return c
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")

	got, err := f.users.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Profile)
	assert.Equal(t, domain.DefaultProfilePicture, got.Profile.ProfilePicturePath())

	_, err = f.users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_UniqueConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ada")

	err := f.users.Create(ctx, &domain.User{Username: "other", Email: "ada@example.com", Source: domain.SourceLocal})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	err = f.users.Create(ctx, &domain.User{Username: "ada", Email: "fresh@example.com", Source: domain.SourceLocal})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestUserRepository_OTPAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")

	otp := "1234"
	require.NoError(t, f.users.SetOTP(ctx, u.ID, &otp))
	require.NoError(t, f.users.Activate(ctx, u.ID))

	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.OTP)

	city := "Paris"
	born := time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.users.UpdateProfile(ctx, u.ID, repository.ProfilePatch{City: &city, DateOfBirth: &born}))

	got, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile.City)
	assert.Equal(t, "Paris", *got.Profile.City)
	require.NotNil(t, got.Profile.DateOfBirth)
	assert.True(t, born.Equal(*got.Profile.DateOfBirth))
	assert.Equal(t, "Ada", got.FirstName)

	exists, err := f.users.UsernameExists(ctx, "ada", u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = f.users.UsernameExists(ctx, "ada", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTaskRepository_OwnerScopeAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	other := f.user(t, "other")

	first := f.task(t, owner.ID, "first")
	second := f.task(t, owner.ID, "second")
	second.Status = domain.TaskStatusDone
	require.NoError(t, f.tasks.Update(ctx, second))

	_, err := f.tasks.GetOwned(ctx, first.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	done, err := f.tasks.List(ctx, repository.TaskFilter{OwnerID: owner.ID, Status: "done", Limit: 10})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, second.ID, done[0].ID)

	count, err := f.tasks.Count(ctx, repository.TaskFilter{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.ErrorIs(t, f.tasks.Delete(ctx, first.ID, other.ID), domain.ErrTaskNotFound)
}

func TestCommentRepository_Subtree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	task := f.task(t, u.ID, "thread")

	a := f.comment(t, u.ID, task.ID, nil, "A")
	b := f.comment(t, u.ID, task.ID, &a.ID, "B")
	c := f.comment(t, u.ID, task.ID, &b.ID, "C")
	f.comment(t, u.ID, task.ID, nil, "unrelated")

	subtree, err := f.comments.Subtree(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, subtree, 3)

	node, ok := domain.NewThread(subtree, nil, 0).Node(a.ID)
	require.True(t, ok)
	require.Len(t, node.Replies, 1)
	assert.Equal(t, b.ID, node.Replies[0].ID)
	require.Len(t, node.Replies[0].Replies, 1)
	assert.Equal(t, c.ID, node.Replies[0].Replies[0].ID)
	assert.Equal(t, "ada", node.Author.Username)

	_, err = f.comments.Subtree(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestCommentRepository_CreateOnMissingTask(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ada")

	err := f.comments.Create(context.Background(), &domain.Comment{TaskID: 404, Author: domain.UserRef{ID: u.ID}, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestReactionRepository_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	task := f.task(t, u.ID, "react")
	c := f.comment(t, u.ID, task.ID, nil, "hello")

	added, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionAdded, added.Action)
	require.NotNil(t, added.Reaction)

	switched, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionUpdated, switched.Action)
	assert.Equal(t, added.Reaction.ID, switched.Reaction.ID)

	reactions, err := f.reactions.ListForComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, domain.ReactionLove, reactions[0].Type)
	assert.Equal(t, "ada", reactions[0].User.Username)

	removed, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionRemoved, removed.Action)
	assert.Equal(t, "love reaction removed", removed.Message())

	reactions, err = f.reactions.ListForComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	assert.Empty(t, reactions)

	_, err = f.reactions.Toggle(ctx, u.ID, 9999, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestReactionRepository_ToggleRetriesWhenRowVanishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	c := f.comment(t, u.ID, f.task(t, u.ID, "react").ID, nil, "hello")

	_, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)

	conflicts := 0
	sqlite.SetToggleHook(f.reactions, func(ctx context.Context, tx *sqlx.Tx, step string) error {
		if step != sqlite.ToggleStepConflict {
			return nil
		}
		conflicts++
		if conflicts > 1 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE user_id = ? AND comment_id = ?`, u.ID, c.ID)
		return err
	})

	outcome, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, domain.ReactionRemoved, outcome.Action)

	reactions, err := f.reactions.ListForComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestReactionRepository_ToggleSeesChangedType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	c := f.comment(t, u.ID, f.task(t, u.ID, "react").ID, nil, "hello")

	_, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)

	sqlite.SetToggleHook(f.reactions, func(ctx context.Context, tx *sqlx.Tx, step string) error {
		if step != sqlite.ToggleStepConflict {
			return nil
		}
		_, err := tx.ExecContext(ctx, `UPDATE comment_likes SET reaction_type = 'wow' WHERE user_id = ? AND comment_id = ?`, u.ID, c.ID)
		return err
	})

	outcome, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionUpdated, outcome.Action)
	assert.Equal(t, domain.ReactionLike, outcome.Type)
}

func TestReactionRepository_ToggleGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	c := f.comment(t, u.ID, f.task(t, u.ID, "react").ID, nil, "hello")

	_, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	require.NoError(t, err)

	conflicts := 0
	sqlite.SetToggleHook(f.reactions, func(ctx context.Context, tx *sqlx.Tx, step string) error {
		if step != sqlite.ToggleStepConflict {
			return nil
		}
		conflicts++
		_, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE user_id = ? AND comment_id = ?`, u.ID, c.ID)
		return err
	})

	_, err = f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrReactionConflict)
	assert.Equal(t, 3, conflicts)

	// Every attempt rolled back, so the original reaction is intact.
	reactions, err := f.reactions.ListForComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, domain.ReactionLike, reactions[0].Type)
}

func TestReactionRepository_ConcurrentToggles(t *testing.T) {
	f := newFixtureAt(t, filepath.Join(t.TempDir(), "taskhub.db"))
	f.db.SetMaxOpenConns(4)
	ctx := context.Background()
	u := f.user(t, "ada")
	c := f.comment(t, u.ID, f.task(t, u.ID, "react").ID, nil, "hello")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		added    int
		removed  int
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.reactions.Toggle(ctx, u.ID, c.ID, domain.ReactionLike)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures = append(failures, err)
			case outcome.Action == domain.ReactionAdded:
				added++
			case outcome.Action == domain.ReactionRemoved:
				removed++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, workers, added+removed)

	reactions, err := f.reactions.ListForComments(ctx, []int64{c.ID})
	require.NoError(t, err)
	assert.Len(t, reactions, added-removed)
}

func TestTaskDelete_CascadesToCommentsAndReactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada")
	task := f.task(t, u.ID, "doomed")
	root := f.comment(t, u.ID, task.ID, nil, "root")
	reply := f.comment(t, u.ID, task.ID, &root.ID, "reply")
	_, err := f.reactions.Toggle(ctx, u.ID, reply.ID, domain.ReactionWow)
	require.NoError(t, err)

	require.NoError(t, f.tasks.Delete(ctx, task.ID, u.ID))

	var comments, likes int
	require.NoError(t, f.db.GetContext(ctx, &comments, `SELECT COUNT(*) FROM comments`))
	require.NoError(t, f.db.GetContext(ctx, &likes, `SELECT COUNT(*) FROM comment_likes`))
	assert.Zero(t, comments)
	assert.Zero(t, likes)
}
