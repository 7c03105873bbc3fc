package transfer

import "fmt"

type DiscordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

func (d *DiscordUser) DisplayName() string {
	if d.GlobalName != "" {
		return d.GlobalName
	}
	return d.Username
}

func (d *DiscordUser) AvatarURL() string {
	if d.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", d.ID, d.Avatar)
}
