package bot

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bwmarrin/discordgo"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestRelayable(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"pic.png", true},
		{"PIC.PNG", true},
		{"photo.jpeg", true},
		{"clip.webm", true},
		{"clip.mp4", true},
		{"archive.zip", false},
		{"notes.txt", false},
		{"README", false},
		{"trailingdot.", false},
	}
	for _, tt := range tests {
		if got := relayable(tt.filename); got != tt.want {
			t.Errorf("relayable(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestAuthorName(t *testing.T) {
	u := &discordgo.User{Username: "rex#legacy", GlobalName: "Rex"}
	if got := authorName(u); got != "Rex" {
		t.Errorf("authorName = %q, want display name", got)
	}
	u.GlobalName = ""
	if got := authorName(u); got != "rex#legacy" {
		t.Errorf("authorName = %q, want username fallback", got)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.Config{}
	if _, err := New(cfg); err == nil {
		t.Error("expected error for empty bot token")
	}
	cfg.Bot.Token = "tok"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for empty channel id")
	}
	cfg.Bot.ChannelID = "chan-1"
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.session == nil {
		t.Error("session not initialized")
	}
}

func TestRelayRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

	mux := http.NewServeMux()
	mux.HandleFunc("/cdn/pic.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-Service-Key"); key != "svc-key" {
			t.Errorf("service key = %q", key)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("discord_id"); got != "42" {
			t.Errorf("discord_id = %q", got)
		}
		if got := r.FormValue("discord_name"); got != "Rex" {
			t.Errorf("discord_name = %q", got)
		}
		if got := r.FormValue("title"); got != "sunset over harbor" {
			t.Errorf("title = %q, want message text trimmed", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "pic.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if !bytes.Equal(body, payload) {
			t.Errorf("relayed %d bytes, want %d", len(body), len(payload))
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(transfer.PostCreatedResponse{
			ID:      7,
			Status:  "draft",
			EditURL: "http://localhost:3000/edit/7?token=tok",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Config{ServiceKey: "svc-key"}
	cfg.Bot.APIURL = srv.URL
	b := &Bot{cfg: cfg, client: srv.Client()}

	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "chan-1",
		Content:   "  sunset over harbor  ",
		Author:    &discordgo.User{ID: "42", Username: "rex", GlobalName: "Rex"},
	}}
	att := &discordgo.MessageAttachment{URL: srv.URL + "/cdn/pic.png", Filename: "pic.png"}

	created, err := b.relay(m, att)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if created.ID != 7 || created.EditURL == "" {
		t.Errorf("created = %+v", created)
	}
}

func TestRelayReportsIngestFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cdn/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not really a video"))
	})
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"file content does not match its extension"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Config{ServiceKey: "svc-key"}
	cfg.Bot.APIURL = srv.URL
	b := &Bot{cfg: cfg, client: srv.Client()}

	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		Author: &discordgo.User{ID: "42", Username: "rex"},
	}}
	att := &discordgo.MessageAttachment{URL: srv.URL + "/cdn/clip.mp4", Filename: "clip.mp4"}

	if _, err := b.relay(m, att); err == nil {
		t.Fatal("expected error from rejected ingest")
	}
}
