package transfer

type PostUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Format      string `json:"format"`
}

// PostCreatedResponse is what the upload endpoint hands back to the bot. The
// edit URL embeds the one-time token that lets the uploader finish the draft
// in a browser without being signed in.
type PostCreatedResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	FileURL   string `json:"file_url"`
	EditToken string `json:"edit_token"`
	EditURL   string `json:"edit_url"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
