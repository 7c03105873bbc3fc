package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	config "github.com/beardedvibes/beardedvibes/configs"
)

func TestEnsureDiscordUser(t *testing.T) {
	env := newTestEnv(t)
	as := NewAuthService(config.Config{}, env.store.Users)
	ctx := context.Background()

	if _, err := as.EnsureDiscordUser(ctx, "", "rex", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty discord id err = %v, want invalid input", err)
	}

	id, err := as.EnsureDiscordUser(ctx, "d-100", "rex", "https://cdn.discordapp.com/rex.png")
	if err != nil {
		t.Fatalf("first contact: %v", err)
	}
	user, found, err := env.store.Users.GetByDiscordID(ctx, "d-100")
	if err != nil || !found {
		t.Fatalf("user not created: found=%v err=%v", found, err)
	}
	if user.ID != id || user.Name != "rex" {
		t.Errorf("created user = %+v", user)
	}

	// Same author again resolves to the same account and picks up the new
	// display name.
	again, err := as.EnsureDiscordUser(ctx, "d-100", "rex the great", "https://cdn.discordapp.com/rex2.png")
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}
	if again != id {
		t.Errorf("second contact id = %d, want %d", again, id)
	}
	user, _, _ = env.store.Users.GetByID(ctx, id)
	if user.Name != "rex the great" || user.AvatarURL != "https://cdn.discordapp.com/rex2.png" {
		t.Errorf("profile not refreshed: %+v", user)
	}

	anon, err := as.EnsureDiscordUser(ctx, "d-200", "", "")
	if err != nil {
		t.Fatalf("nameless contact: %v", err)
	}
	user, _, _ = env.store.Users.GetByID(ctx, anon)
	if user.Name != "member-d-200" {
		t.Errorf("fallback name = %q", user.Name)
	}

	env.ban(t, id)
	if _, err := as.EnsureDiscordUser(ctx, "d-100", "rex", ""); !errors.Is(err, ErrBanned) {
		t.Errorf("banned uploader err = %v, want banned", err)
	}
}

func TestSessionUser(t *testing.T) {
	env := newTestEnv(t)
	as := NewAuthService(config.Config{}, env.store.Users)
	ctx := context.Background()
	user := env.createUser(t, "rex")

	got, err := as.SessionUser(ctx, user.ID)
	if err != nil || got.ID != user.ID {
		t.Fatalf("session user = %+v, %v", got, err)
	}

	if _, err := as.SessionUser(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user err = %v, want not found", err)
	}

	// A ban takes effect on the next request even while the cookie is valid.
	env.ban(t, user.ID)
	if _, err := as.SessionUser(ctx, user.ID); !errors.Is(err, ErrBanned) {
		t.Errorf("banned user err = %v, want banned", err)
	}
}

func TestAuthURLs(t *testing.T) {
	cfg := config.Config{
		Discord: config.OAuthProvider{ClientID: "disc-client", RedirectURI: "http://localhost:3000/api/auth/discord/callback"},
		Google:  config.OAuthProvider{ClientID: "goog-client", RedirectURI: "http://localhost:3000/api/auth/google/callback"},
	}
	env := newTestEnv(t)
	as := NewAuthService(cfg, env.store.Users)

	url := as.DiscordAuthURL("state-abc")
	if !strings.Contains(url, "client_id=disc-client") || !strings.Contains(url, "state=state-abc") {
		t.Errorf("discord auth url = %q", url)
	}
	if !strings.Contains(url, "discord.com") {
		t.Errorf("discord auth url host = %q", url)
	}

	url = as.GoogleAuthURL("state-xyz")
	if !strings.Contains(url, "client_id=goog-client") || !strings.Contains(url, "state=state-xyz") {
		t.Errorf("google auth url = %q", url)
	}
}

func TestOAuthCallbackRequiresCode(t *testing.T) {
	env := newTestEnv(t)
	as := NewAuthService(config.Config{}, env.store.Users)
	ctx := context.Background()

	if _, err := as.DiscordCallback(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("discord empty code err = %v, want invalid input", err)
	}
	if _, err := as.GoogleCallback(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("google empty code err = %v, want invalid input", err)
	}
}
