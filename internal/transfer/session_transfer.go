package transfer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims carries enough profile data to render the signed-in shell
// without a user lookup. Authorization-sensitive checks still re-read the
// user row on every request.
type SessionClaims struct {
	UserID    int64  `json:"uid"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}
