package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beardedvibes/beardedvibes/internal/models"
)

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	us := env.userService()
	ss := env.socialService()
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.createPost(t, alice.ID, models.PostStatusPublished, "one")
	env.createPost(t, alice.ID, models.PostStatusDraft, "wip")
	if _, _, err := ss.ToggleFollow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	profile, err := us.Profile(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Name != "alice" || profile.PostCount != 1 {
		t.Errorf("profile = %+v, want 1 published post", profile)
	}
	if profile.FollowerCount != 1 || !profile.ViewerFollows {
		t.Errorf("follower state = %d/%v, want 1/true", profile.FollowerCount, profile.ViewerFollows)
	}

	own, err := us.Profile(ctx, alice.ID, alice.ID)
	if err != nil || own.ViewerFollows {
		t.Errorf("own profile = %+v, %v", own, err)
	}

	if _, err := us.Profile(ctx, 9999, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing profile err = %v, want not found", err)
	}
}

func TestUpdateName(t *testing.T) {
	env := newTestEnv(t)
	us := env.userService()
	ctx := context.Background()
	user := env.createUser(t, "rex")

	if err := us.UpdateName(ctx, user.ID, "  Rex Prime  "); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _, _ := env.store.Users.GetByID(ctx, user.ID)
	if got.Name != "Rex Prime" {
		t.Errorf("name = %q, want trimmed", got.Name)
	}

	if err := us.UpdateName(ctx, user.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name err = %v, want invalid input", err)
	}
	if err := us.UpdateName(ctx, user.ID, strings.Repeat("x", maxNameLen+1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("long name err = %v, want invalid input", err)
	}
	if err := us.UpdateName(ctx, 9999, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v, want not found", err)
	}
}

func TestUpdateAvatar(t *testing.T) {
	env := newTestEnv(t)
	us := env.userService()
	ctx := context.Background()
	user := env.createUser(t, "rex")

	url, err := us.UpdateAvatar(ctx, user.ID, fileHeader(t, "avatar.png", pngBytes))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _, _ := env.store.Users.GetByID(ctx, user.ID)
	if got.AvatarURL != url || url == "" {
		t.Errorf("avatar url = %q, stored %q", url, got.AvatarURL)
	}
	if len(env.fs.saves) != 1 {
		t.Errorf("storage saves = %v", env.fs.saves)
	}

	cases := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
	}{
		{"video extension", "avatar.mp4", mp4Bytes, ErrUnsupportedFile},
		{"mismatched content", "avatar.png", jpgBytes, ErrUnsupportedFile},
		{"unrecognized content", "avatar.png", make([]byte, 300), ErrUnsupportedFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := us.UpdateAvatar(ctx, user.ID, fileHeader(t, tc.filename, tc.content)); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := us.UpdateAvatar(ctx, user.ID, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil file err = %v, want invalid input", err)
	}
}

func TestRemoveUserCleansStorage(t *testing.T) {
	env := newTestEnv(t)
	us := env.userService()
	ctx := context.Background()
	user := env.createUser(t, "rex")

	posts := []*models.Post{
		{UserID: user.ID, FileName: "a.png", FileURL: "/media/a.png", Kind: models.KindImage, Format: models.FormatPhoto, Status: models.PostStatusPublished},
		{UserID: user.ID, FileName: "b.mp4", FileURL: "/media/b.mp4", ThumbnailName: "b-thumb.jpg", ThumbnailURL: "/media/b-thumb.jpg", Kind: models.KindVideo, Format: models.FormatLong, Status: models.PostStatusDraft},
	}
	for _, p := range posts {
		if _, err := env.store.Posts.Create(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	if err := us.RemoveUser(ctx, user.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, found, _ := env.store.Users.GetByID(ctx, user.ID); found {
		t.Error("user still present")
	}
	for _, key := range []string{"a.png", "b.mp4", "b-thumb.jpg"} {
		if !env.fs.deleted(key) {
			t.Errorf("media %q not discarded: %v", key, env.fs.deletes)
		}
	}
	if got, _ := env.store.Posts.GetByID(ctx, posts[0].ID); got != nil {
		t.Error("posts survived account removal")
	}
}
