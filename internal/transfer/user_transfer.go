package transfer

type ProfileResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	IsVerified     bool   `json:"is_verified"`
	IsStaff        bool   `json:"is_staff"`
	PostCount      int64  `json:"post_count"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	ViewerFollows  bool   `json:"viewer_follows"`
}

type NameUpdateRequest struct {
	Name string `json:"name"`
}
