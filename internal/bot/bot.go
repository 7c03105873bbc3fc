package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

const (
	reactionUploaded = "✅"
	reactionFailed   = "❌"
)

// Attachments with other extensions are ignored rather than relayed, so the
// channel can still be used for regular chatter.
var relayedExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "webp": {}, "mp4": {}, "webm": {},
}

// Bot watches a single Discord channel and relays media attachments to the
// ingest endpoint, then DMs the author a link to finish the draft.
type Bot struct {
	cfg     config.Config
	session *discordgo.Session
	client  *http.Client
}

func New(cfg config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, errors.New("discord bot token is empty")
	}
	if cfg.Bot.ChannelID == "" {
		return nil, errors.New("discord channel id is empty")
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		cfg:     cfg,
		session: session,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening discord session: %w", err)
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.ChannelID != b.cfg.Bot.ChannelID {
		return
	}

	var (
		created []*transfer.PostCreatedResponse
		failed  bool
	)
	for _, att := range m.Attachments {
		if !relayable(att.Filename) {
			continue
		}
		post, err := b.relay(m, att)
		if err != nil {
			slog.Info(err.Error())
			failed = true
			continue
		}
		created = append(created, post)
	}

	if failed {
		b.react(m, reactionFailed)
	}
	if len(created) > 0 {
		b.react(m, reactionUploaded)
		b.sendEditLinks(m.Author.ID, created)
	}
}

// relay downloads the attachment from Discord's CDN and re-uploads it to the
// ingest endpoint together with the uploader's identity and the message text
// as the draft title.
func (b *Bot) relay(m *discordgo.MessageCreate, att *discordgo.MessageAttachment) (*transfer.PostCreatedResponse, error) {
	resp, err := b.client.Get(att.URL)
	if err != nil {
		return nil, fmt.Errorf("error downloading attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download returned status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", att.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, resp.Body); err != nil {
		return nil, fmt.Errorf("error reading attachment: %w", err)
	}

	w.WriteField("discord_id", m.Author.ID)
	w.WriteField("discord_name", authorName(m.Author))
	w.WriteField("avatar_url", m.Author.AvatarURL(""))
	w.WriteField("title", strings.TrimSpace(m.Content))
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", b.cfg.Bot.APIURL+"/api/ingest", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Service-Key", b.cfg.ServiceKey)

	res, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("ingest returned status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var created transfer.PostCreatedResponse
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("error decoding ingest response: %w", err)
	}
	return &created, nil
}

func (b *Bot) sendEditLinks(userID string, posts []*transfer.PostCreatedResponse) {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	for _, post := range posts {
		msg := fmt.Sprintf("Your upload is in! Add a title and publish it here: %s", post.EditURL)
		if _, err := b.session.ChannelMessageSend(ch.ID, msg); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (b *Bot) react(m *discordgo.MessageCreate, emoji string) {
	if err := b.session.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
		slog.Info(err.Error())
	}
}

func relayable(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	_, ok := relayedExtensions[ext]
	return ok
}

func authorName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
