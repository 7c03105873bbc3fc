package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/api/middleware"
	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/repository/sqlite"
	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
	"github.com/beardedvibes/beardedvibes/pkg/utils"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var testConfig = config.Config{
	SecretKey:       "test-secret",
	CookieName:      "bv_session",
	ServiceKey:      "svc-key",
	FrontendURL:     "http://localhost:3000",
	SessionTTLHours: 168,
	DraftTTLHours:   168,
}

var (
	pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	mp4Bytes = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, make([]byte, 12)...)
)

type fakeStorage struct {
	saves   []string
	deletes []string
}

func (f *fakeStorage) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.saves = append(f.saves, key)
	return "https://cdn.test/media/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

type testServer struct {
	app   *fiber.App
	store *repository.Store
	fs    *fakeStorage
}

// newTestServer wires the handlers onto the same route map the server binary
// registers.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlite.NewStore(db)
	fs := &fakeStorage{}

	postSvc := service.NewPostService(store.Posts, fs)
	authSvc := service.NewAuthService(testConfig, store.Users)
	socialSvc := service.NewSocialService(store.Posts, store.Likes, store.Comments,
		store.History, store.Watchlist, store.Follows, store.Users)
	userSvc := service.NewUserService(store.Users, store.Posts, store.Follows, fs)
	adminSvc := service.NewAdminService(store.Users, userSvc)

	authMW := middleware.NewAuthMiddleware(testConfig, store.Users)
	authH := NewAuthHandler(testConfig, authSvc)
	postH := NewPostHandler(testConfig, postSvc, authSvc, nil)
	socialH := NewSocialHandler(socialSvc)
	userH := NewUserHandler(testConfig, userSvc, socialSvc)
	adminH := NewAdminHandler(adminSvc, postSvc)

	app := fiber.New()
	api := app.Group("/api", authMW.OptionalAuth())

	api.Get("/posts", postH.ListPosts)
	api.Get("/post/:id", postH.GetPost)
	api.Patch("/post/:id", postH.UpdatePost)
	api.Post("/post/:id/publish", postH.PublishPost)
	api.Delete("/post/:id", postH.RemovePost)
	api.Get("/post/:id/comments", socialH.ListComments)
	api.Get("/user/:id", userH.Profile)
	api.Get("/user/:id/posts", postH.ListByUser)
	api.Post("/ingest", authMW.RequireServiceKey(), postH.IngestPost)

	authed := api.Group("", authMW.RequireUser())
	authed.Get("/auth/me", authH.Me)
	authed.Post("/auth/logout", authH.Logout)
	authed.Post("/posts", postH.CreatePost)
	authed.Get("/posts/mine", postH.ListMine)
	authed.Post("/post/:id/like", socialH.ToggleLike)
	authed.Post("/post/:id/watchlist", socialH.ToggleWatchlist)
	authed.Post("/post/:id/view", socialH.RecordView)
	authed.Post("/post/:id/comments", socialH.AddComment)
	authed.Post("/user/:id/follow", userH.ToggleFollow)

	admin := authed.Group("/admin", authMW.RequireAdmin())
	admin.Get("/users", adminH.ListUsers)

	return &testServer{app: app, store: store, fs: fs}
}

func (ts *testServer) login(t *testing.T, name string, flags repository.UserFlags) (*models.User, string) {
	t.Helper()
	ctx := context.Background()
	id, err := ts.store.Users.Create(ctx, &models.User{Name: name})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := ts.store.Users.SetFlags(ctx, id, flags); err != nil {
		t.Fatalf("set flags: %v", err)
	}
	u, _, err := ts.store.Users.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	token, err := utils.GenerateToken(testConfig.SecretKey, u, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return u, token
}

func (ts *testServer) do(t *testing.T, req *http.Request, cookie string) *http.Response {
	t.Helper()
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testConfig.CookieName, Value: cookie})
	}
	resp, err := ts.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	return resp
}

func (ts *testServer) get(t *testing.T, target, cookie string) *http.Response {
	t.Helper()
	return ts.do(t, httptest.NewRequest("GET", target, nil), cookie)
}

func (ts *testServer) postJSON(t *testing.T, method, target, cookie string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, cookie)
}

// upload builds the multipart request a browser or the bot sends.
func (ts *testServer) upload(t *testing.T, target, cookie, serviceKey string, fields map[string]string, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if serviceKey != "" {
		req.Header.Set("X-Service-Key", serviceKey)
	}
	return ts.do(t, req, cookie)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestUploadAndPublishFlow(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t, "rex", repository.UserFlags{})

	resp := ts.upload(t, "/api/posts", cookie, "", map[string]string{"description": "first light"}, "pic.png", pngBytes)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var created transfer.PostCreatedResponse
	decodeJSON(t, resp, &created)
	if created.Status != models.PostStatusDraft || created.ID == 0 {
		t.Fatalf("created = %+v", created)
	}
	if created.EditToken == "" || !strings.Contains(created.EditURL, "token="+created.EditToken) {
		t.Errorf("edit url = %q", created.EditURL)
	}
	if !strings.HasPrefix(created.EditURL, "http://localhost:3000/edit/") {
		t.Errorf("edit url = %q", created.EditURL)
	}

	postURL := "/api/post/" + itoa(created.ID)

	// Drafts are invisible to everyone but the owner and token holders.
	if resp := ts.get(t, postURL, ""); resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("anonymous draft status = %d, want 404", resp.StatusCode)
	}
	if resp := ts.get(t, postURL+"?token="+created.EditToken, ""); resp.StatusCode != fiber.StatusOK {
		t.Errorf("token draft status = %d, want 200", resp.StatusCode)
	}
	if resp := ts.get(t, postURL, cookie); resp.StatusCode != fiber.StatusOK {
		t.Errorf("owner draft status = %d, want 200", resp.StatusCode)
	}

	// The draft shows up under /posts/mine but not in the public feed.
	var mine []*models.FeedPost
	resp = ts.get(t, "/api/posts/mine", cookie)
	decodeJSON(t, resp, &mine)
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("mine = %d posts", len(mine))
	}
	var feed []*models.FeedPost
	resp = ts.get(t, "/api/posts", "")
	decodeJSON(t, resp, &feed)
	if len(feed) != 0 {
		t.Errorf("public feed = %d posts, want empty before publish", len(feed))
	}

	// Publishing needs a title.
	if resp := ts.postJSON(t, "POST", postURL+"/publish", cookie, nil); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("untitled publish status = %d, want 400", resp.StatusCode)
	}

	// The DM'd edit link works without a session: the token alone authorizes
	// the edit and the publish.
	tokenQuery := "?token=" + created.EditToken
	resp = ts.postJSON(t, "PATCH", postURL+tokenQuery, "", transfer.PostUpdateRequest{Title: "sunrise", Description: "first light"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("token update status = %d", resp.StatusCode)
	}
	resp = ts.postJSON(t, "POST", postURL+"/publish"+tokenQuery, "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("token publish status = %d", resp.StatusCode)
	}
	var published models.Post
	decodeJSON(t, resp, &published)
	if published.Status != models.PostStatusPublished {
		t.Errorf("status = %q", published.Status)
	}

	// Publishing burned the token; the owner session still edits.
	resp = ts.postJSON(t, "PATCH", postURL+tokenQuery, "", transfer.PostUpdateRequest{Title: "sunrise"})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("burned token update status = %d, want 403", resp.StatusCode)
	}
	resp = ts.postJSON(t, "PATCH", postURL, cookie, transfer.PostUpdateRequest{Title: "sunrise", Description: "golden hour"})
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("owner update status = %d", resp.StatusCode)
	}

	// Now the whole world sees it.
	if resp := ts.get(t, postURL, ""); resp.StatusCode != fiber.StatusOK {
		t.Errorf("anonymous published status = %d, want 200", resp.StatusCode)
	}
	resp = ts.get(t, "/api/posts?sort=trending", "")
	decodeJSON(t, resp, &feed)
	if len(feed) != 1 || feed[0].Title != "sunrise" {
		t.Errorf("public feed = %+v", feed)
	}
}

func TestUploadRejections(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t, "rex", repository.UserFlags{})

	if resp := ts.upload(t, "/api/posts", "", "", nil, "pic.png", pngBytes); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("anonymous upload status = %d, want 401", resp.StatusCode)
	}
	if resp := ts.upload(t, "/api/posts", cookie, "", nil, "notes.txt", pngBytes); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad extension status = %d, want 400", resp.StatusCode)
	}
	if resp := ts.upload(t, "/api/posts", cookie, "", nil, "pic.png", mp4Bytes); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("mismatched content status = %d, want 400", resp.StatusCode)
	}
	if resp := ts.upload(t, "/api/posts", cookie, "", nil, "", nil); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}
	if len(ts.fs.saves) != 0 {
		t.Errorf("rejected uploads reached storage: %v", ts.fs.saves)
	}
}

func TestIngestFlow(t *testing.T) {
	ts := newTestServer(t)
	fields := map[string]string{
		"discord_id":   "d-500",
		"discord_name": "uploader",
		"title":        "from the channel",
	}

	if resp := ts.upload(t, "/api/ingest", "", "", fields, "clip.mp4", mp4Bytes); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no service key status = %d, want 401", resp.StatusCode)
	}

	resp := ts.upload(t, "/api/ingest", "", "svc-key", fields, "clip.mp4", mp4Bytes)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
	var created transfer.PostCreatedResponse
	decodeJSON(t, resp, &created)
	if created.Status != models.PostStatusDraft || created.EditToken == "" {
		t.Errorf("created = %+v", created)
	}

	// The message author got an account on first contact.
	user, found, err := ts.store.Users.GetByDiscordID(context.Background(), "d-500")
	if err != nil || !found {
		t.Fatalf("uploader not created: found=%v err=%v", found, err)
	}
	if user.Name != "uploader" {
		t.Errorf("uploader name = %q", user.Name)
	}

	// A second relay from the same author reuses the account.
	resp = ts.upload(t, "/api/ingest", "", "svc-key", fields, "clip.mp4", mp4Bytes)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("second ingest status = %d", resp.StatusCode)
	}
	users, err := ts.store.Users.List(context.Background(), "", 10, 0)
	if err != nil || len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
}

func TestSocialEndpoints(t *testing.T) {
	ts := newTestServer(t)
	author, authorCookie := ts.login(t, "author", repository.UserFlags{})
	_, fanCookie := ts.login(t, "fan", repository.UserFlags{})

	post := &models.Post{
		UserID: author.ID, FileName: "f.png", FileURL: "/media/f.png",
		Kind: models.KindImage, Format: models.FormatPhoto,
		Title: "likeable", Status: models.PostStatusPublished,
	}
	if _, err := ts.store.Posts.Create(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	postURL := "/api/post/" + itoa(post.ID)

	var likeResp struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	resp := ts.postJSON(t, "POST", postURL+"/like", fanCookie, nil)
	decodeJSON(t, resp, &likeResp)
	if !likeResp.Liked || likeResp.LikeCount != 1 {
		t.Errorf("like = %+v", likeResp)
	}
	resp = ts.postJSON(t, "POST", postURL+"/like", fanCookie, nil)
	decodeJSON(t, resp, &likeResp)
	if likeResp.Liked || likeResp.LikeCount != 0 {
		t.Errorf("unlike = %+v", likeResp)
	}

	var watchResp struct {
		Watchlisted bool `json:"watchlisted"`
	}
	resp = ts.postJSON(t, "POST", postURL+"/watchlist", fanCookie, nil)
	decodeJSON(t, resp, &watchResp)
	if !watchResp.Watchlisted {
		t.Errorf("watchlist = %+v", watchResp)
	}

	if resp := ts.postJSON(t, "POST", postURL+"/view", fanCookie, nil); resp.StatusCode != fiber.StatusOK {
		t.Errorf("view status = %d", resp.StatusCode)
	}

	resp = ts.postJSON(t, "POST", postURL+"/comments", fanCookie, transfer.CommentRequest{Content: "nice"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("comment status = %d", resp.StatusCode)
	}
	var comment models.Comment
	decodeJSON(t, resp, &comment)
	if comment.Content != "nice" || comment.Author.Name != "fan" {
		t.Errorf("comment = %+v", comment)
	}

	var comments []*models.Comment
	resp = ts.get(t, postURL+"/comments", "")
	decodeJSON(t, resp, &comments)
	if len(comments) != 1 {
		t.Errorf("comments = %d, want 1", len(comments))
	}

	// Follow from the profile page.
	var followResp struct {
		Following bool  `json:"following"`
		Followers int64 `json:"followers"`
	}
	resp = ts.postJSON(t, "POST", "/api/user/"+itoa(author.ID)+"/follow", fanCookie, nil)
	decodeJSON(t, resp, &followResp)
	if !followResp.Following || followResp.Followers != 1 {
		t.Errorf("follow = %+v", followResp)
	}
	if resp := ts.postJSON(t, "POST", "/api/user/"+itoa(author.ID)+"/follow", authorCookie, nil); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("self follow status = %d, want 400", resp.StatusCode)
	}
}

func TestMeAndLogout(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t, "rex", repository.UserFlags{})

	resp := ts.get(t, "/api/auth/me", cookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var me models.User
	decodeJSON(t, resp, &me)
	if me.Name != "rex" {
		t.Errorf("me = %+v", me)
	}

	resp = ts.postJSON(t, "POST", "/api/auth/logout", cookie, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == testConfig.CookieName && c.Value != "" {
			t.Errorf("logout left cookie value %q", c.Value)
		}
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	_, userCookie := ts.login(t, "pleb", repository.UserFlags{})
	_, adminCookie := ts.login(t, "boss", repository.UserFlags{Admin: true})

	if resp := ts.get(t, "/api/admin/users", userCookie); resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", resp.StatusCode)
	}

	resp := ts.get(t, "/api/admin/users", adminCookie)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin status = %d", resp.StatusCode)
	}
	var users []*models.User
	decodeJSON(t, resp, &users)
	if len(users) != 2 {
		t.Errorf("users = %d, want 2", len(users))
	}
}

func TestBadIDsReturn400(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t, "rex", repository.UserFlags{})

	if resp := ts.get(t, "/api/post/abc", ""); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad post id status = %d, want 400", resp.StatusCode)
	}
	if resp := ts.postJSON(t, "POST", "/api/post/-1/like", cookie, nil); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("negative post id status = %d, want 400", resp.StatusCode)
	}
	if resp := ts.get(t, "/api/user/zero", ""); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad user id status = %d, want 400", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
