package service

import (
	"context"
	"errors"
	"testing"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	author := env.createUser(t, "author")
	fan := env.createUser(t, "fan")
	post := env.createPost(t, author.ID, models.PostStatusPublished, "likeable")

	liked, count, err := ss.ToggleLike(ctx, fan.ID, post.ID)
	if err != nil || !liked || count != 1 {
		t.Fatalf("first toggle = %v, %d, %v; want true, 1", liked, count, err)
	}
	liked, count, err = ss.ToggleLike(ctx, fan.ID, post.ID)
	if err != nil || liked || count != 0 {
		t.Fatalf("second toggle = %v, %d, %v; want false, 0", liked, count, err)
	}

	if _, _, err := ss.ToggleLike(ctx, fan.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post err = %v, want not found", err)
	}

	draft := env.createPost(t, author.ID, models.PostStatusDraft, "hidden")
	if _, _, err := ss.ToggleLike(ctx, fan.ID, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft like err = %v, want not found", err)
	}
	// Owners can interact with their own drafts.
	if _, _, err := ss.ToggleLike(ctx, author.ID, draft.ID); err != nil {
		t.Errorf("owner draft like: %v", err)
	}
}

func TestToggleWatchlist(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	author := env.createUser(t, "author")
	fan := env.createUser(t, "fan")
	post := env.createPost(t, author.ID, models.PostStatusPublished, "later")

	on, err := ss.ToggleWatchlist(ctx, fan.ID, post.ID)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v; want true", on, err)
	}
	on, err = ss.ToggleWatchlist(ctx, fan.ID, post.ID)
	if err != nil || on {
		t.Fatalf("second toggle = %v, %v; want false", on, err)
	}
}

func TestRecordView(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	author := env.createUser(t, "author")
	fan := env.createUser(t, "fan")
	post := env.createPost(t, author.ID, models.PostStatusPublished, "watched")

	if err := ss.RecordView(ctx, fan.ID, post.ID); err != nil {
		t.Fatalf("record: %v", err)
	}
	list, err := env.store.Posts.List(ctx, &repository.PostListOptions{HistoryOf: fan.ID})
	if err != nil || len(list) != 1 || list[0].ID != post.ID {
		t.Fatalf("history = %d posts, err %v", len(list), err)
	}

	draft := env.createPost(t, author.ID, models.PostStatusDraft, "hidden")
	if err := ss.RecordView(ctx, fan.ID, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft view err = %v, want not found", err)
	}
	if err := ss.RecordView(ctx, author.ID, draft.ID); err != nil {
		t.Errorf("owner draft view: %v", err)
	}
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	author := env.createUser(t, "author")
	fan := env.createUser(t, "fan")
	post := env.createPost(t, author.ID, models.PostStatusPublished, "discussable")

	comment, err := ss.AddComment(ctx, fan.ID, post.ID, "  great shot  ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if comment.Content != "great shot" {
		t.Errorf("content = %q, want trimmed", comment.Content)
	}
	if comment.Author.ID != fan.ID || comment.Author.Name != "fan" {
		t.Errorf("author = %+v", comment.Author)
	}

	if _, err := ss.AddComment(ctx, fan.ID, post.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank comment err = %v, want invalid input", err)
	}

	draft := env.createPost(t, author.ID, models.PostStatusDraft, "hidden")
	if _, err := ss.AddComment(ctx, fan.ID, draft.ID, "hello?"); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft comment err = %v, want not found", err)
	}

	list, err := ss.ListComments(ctx, post.ID, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d comments, err %v", len(list), err)
	}
	if _, err := ss.ListComments(ctx, draft.ID, fan.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft comment list err = %v, want not found", err)
	}
}

func TestRemoveComment(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	author := env.createUser(t, "author")
	fan := env.createUser(t, "fan")
	stranger := env.createUser(t, "stranger")
	post := env.createPost(t, author.ID, models.PostStatusPublished, "discussable")

	add := func() int64 {
		t.Helper()
		c, err := ss.AddComment(ctx, fan.ID, post.ID, "hi")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		return c.ID
	}

	if err := ss.RemoveComment(ctx, stranger.ID, add(), false); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger remove err = %v, want forbidden", err)
	}
	if err := ss.RemoveComment(ctx, fan.ID, add(), false); err != nil {
		t.Errorf("author remove: %v", err)
	}
	if err := ss.RemoveComment(ctx, author.ID, add(), false); err != nil {
		t.Errorf("post owner remove: %v", err)
	}
	if err := ss.RemoveComment(ctx, stranger.ID, add(), true); err != nil {
		t.Errorf("admin remove: %v", err)
	}
	if err := ss.RemoveComment(ctx, fan.ID, 9999, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing comment err = %v, want not found", err)
	}
}

func TestToggleFollow(t *testing.T) {
	env := newTestEnv(t)
	ss := env.socialService()
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	if _, _, err := ss.ToggleFollow(ctx, alice.ID, alice.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self follow err = %v, want invalid input", err)
	}
	if _, _, err := ss.ToggleFollow(ctx, alice.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing followee err = %v, want not found", err)
	}

	following, followers, err := ss.ToggleFollow(ctx, bob.ID, alice.ID)
	if err != nil || !following || followers != 1 {
		t.Fatalf("follow = %v, %d, %v; want true, 1", following, followers, err)
	}
	following, followers, err = ss.ToggleFollow(ctx, bob.ID, alice.ID)
	if err != nil || following || followers != 0 {
		t.Fatalf("unfollow = %v, %d, %v; want false, 0", following, followers, err)
	}
}
