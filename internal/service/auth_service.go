package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

const discordUserURL = "https://discord.com/api/users/@me"

type AuthService interface {
	DiscordAuthURL(state string) string
	GoogleAuthURL(state string) string
	DiscordCallback(ctx context.Context, code string) (int64, error)
	GoogleCallback(ctx context.Context, code string) (int64, error)
	EnsureDiscordUser(ctx context.Context, discordID, name, avatarURL string) (int64, error)
	SessionUser(ctx context.Context, userID int64) (*models.User, error)
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

func (s *authService) discordConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.Discord.ClientID,
		ClientSecret: s.cfg.Discord.ClientSecret,
		RedirectURL:  s.cfg.Discord.RedirectURI,
		Scopes:       []string{"identify", "email"},
		Endpoint:     endpoints.Discord,
	}
}

func (s *authService) googleConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.Google.ClientID,
		ClientSecret: s.cfg.Google.ClientSecret,
		RedirectURL:  s.cfg.Google.RedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func (s *authService) DiscordAuthURL(state string) string {
	return s.discordConfig().AuthCodeURL(state)
}

func (s *authService) GoogleAuthURL(state string) string {
	return s.googleConfig().AuthCodeURL(state)
}

func (s *authService) DiscordCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	conf := s.discordConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	client := conf.Client(ctx, token)
	du, err := fetchDiscordUser(client)
	if err != nil {
		return 0, err
	}

	user, exists, err := s.u.GetByDiscordID(ctx, du.ID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return s.u.Create(ctx, &models.User{
			DiscordID: du.ID,
			Email:     du.Email,
			Name:      du.DisplayName(),
			AvatarURL: du.AvatarURL(),
		})
	}
	if user.IsBanned {
		return 0, ErrBanned
	}

	return user.ID, s.refreshProfile(ctx, user, du.DisplayName(), du.AvatarURL())
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	conf := s.googleConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	client := conf.Client(ctx, token)
	svc, err := goauth2.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		slog.Info(err.Error())
		return 0, fmt.Errorf("error fetching user info: %w", err)
	}

	user, exists, err := s.u.GetByGoogleID(ctx, info.Id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return s.u.Create(ctx, &models.User{
			GoogleID:  info.Id,
			Email:     info.Email,
			Name:      info.Name,
			AvatarURL: info.Picture,
		})
	}
	if user.IsBanned {
		return 0, ErrBanned
	}

	return user.ID, s.refreshProfile(ctx, user, info.Name, info.Picture)
}

// EnsureDiscordUser resolves an uploader relayed by the bot, creating the
// account on first contact. The bot never holds a session; identity comes
// from the Discord message author.
func (s *authService) EnsureDiscordUser(ctx context.Context, discordID, name, avatarURL string) (int64, error) {
	if discordID == "" {
		return 0, fmt.Errorf("%w: discord id is empty", ErrInvalidInput)
	}
	if name == "" {
		name = "member-" + discordID
	}

	user, exists, err := s.u.GetByDiscordID(ctx, discordID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return s.u.Create(ctx, &models.User{
			DiscordID: discordID,
			Name:      name,
			AvatarURL: avatarURL,
		})
	}
	if user.IsBanned {
		return 0, ErrBanned
	}

	return user.ID, s.refreshProfile(ctx, user, name, avatarURL)
}

// refreshProfile picks up display name and avatar changes from the provider
// on each login.
func (s *authService) refreshProfile(ctx context.Context, user *models.User, name, avatarURL string) error {
	if user.Name == name && user.AvatarURL == avatarURL {
		return nil
	}
	user.Name = name
	user.AvatarURL = avatarURL
	return s.u.Update(ctx, user)
}

func (s *authService) SessionUser(ctx context.Context, userID int64) (*models.User, error) {
	user, exists, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if user.IsBanned {
		return nil, ErrBanned
	}
	return user, nil
}

func fetchDiscordUser(client *http.Client) (*transfer.DiscordUser, error) {
	response, err := client.Get(discordUserURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var du transfer.DiscordUser
	if err := json.NewDecoder(response.Body).Decode(&du); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &du, nil
}
