package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
)

const postColumns = `id, user_id, file_name, file_url, thumbnail_name, thumbnail_url, kind, format,
	title, description, status, edit_token, created_at, updated_at`

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &postRepository{db: db}
}

// feedQuery collects args in the order placeholders appear in the assembled
// statement. The viewer id is appended once per personalization flag.
type feedQuery struct {
	args []any
}

func (q *feedQuery) arg(v any) string {
	q.args = append(q.args, v)
	return "?"
}

func feedColumns(q *feedQuery, viewerID int64) string {
	return `SELECT p.id, p.user_id, p.file_name, p.file_url, p.thumbnail_name, p.thumbnail_url, p.kind, p.format,
	p.title, p.description, p.status, p.created_at, p.updated_at,
	u.id, u.name, u.avatar_url, u.is_verified,
	COUNT(DISTINCT l.user_id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
	EXISTS(SELECT 1 FROM likes vl WHERE vl.post_id = p.id AND vl.user_id = ` + q.arg(viewerID) + `) AS viewer_liked,
	EXISTS(SELECT 1 FROM watchlist vw WHERE vw.post_id = p.id AND vw.user_id = ` + q.arg(viewerID) + `) AS viewer_watchlisted,
	EXISTS(SELECT 1 FROM history vh WHERE vh.post_id = p.id AND vh.user_id = ` + q.arg(viewerID) + `) AS viewer_watched,
	EXISTS(SELECT 1 FROM follows vf WHERE vf.followee_id = p.user_id AND vf.follower_id = ` + q.arg(viewerID) + `) AS viewer_follows`
}

const feedJoins = ` FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN likes l ON l.post_id = p.id`

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `INSERT INTO posts (user_id, file_name, file_url, thumbnail_name, thumbnail_url, kind, format, title, description, status, edit_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		post.UserID,
		post.FileName,
		post.FileURL,
		post.ThumbnailName,
		post.ThumbnailURL,
		post.Kind,
		post.Format,
		post.Title,
		post.Description,
		post.Status,
		post.EditToken,
	)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	post.ID = id

	err = r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM posts WHERE id = ?`, id).
		Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	p, err := repository.ScanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return p, nil
}

func (r *postRepository) GetFeedByID(ctx context.Context, id, viewerID int64) (*models.FeedPost, error) {
	q := &feedQuery{}
	query := feedColumns(q, viewerID) + feedJoins +
		` WHERE p.id = ` + q.arg(id) +
		` GROUP BY p.id, u.id`

	fp, err := repository.ScanFeedPost(r.db.QueryRowContext(ctx, query, q.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return fp, nil
}

func (r *postRepository) List(ctx context.Context, opts *repository.PostListOptions) ([]*models.FeedPost, error) {
	opts.Clamp()
	q := &feedQuery{}

	query := feedColumns(q, opts.ViewerID) + feedJoins

	group := []string{"p.id", "u.id"}
	order := ""

	switch {
	case opts.LikedBy != 0:
		query += ` JOIN likes lb ON lb.post_id = p.id AND lb.user_id = ` + q.arg(opts.LikedBy)
		group = append(group, "lb.created_at")
		order = "lb.created_at DESC, p.id DESC"
	case opts.WatchlistOf != 0:
		query += ` JOIN watchlist wl ON wl.post_id = p.id AND wl.user_id = ` + q.arg(opts.WatchlistOf)
		group = append(group, "wl.created_at")
		order = "wl.created_at DESC, p.id DESC"
	case opts.HistoryOf != 0:
		query += ` JOIN history hv ON hv.post_id = p.id AND hv.user_id = ` + q.arg(opts.HistoryOf)
		group = append(group, "hv.viewed_at")
		order = "hv.viewed_at DESC, p.id DESC"
	case opts.FollowedBy != 0:
		query += ` JOIN follows fw ON fw.followee_id = p.user_id AND fw.follower_id = ` + q.arg(opts.FollowedBy)
	}

	where := []string{}
	switch opts.Status {
	case repository.StatusAny:
	case "":
		where = append(where, `p.status = '`+models.PostStatusPublished+`'`)
	default:
		where = append(where, `p.status = `+q.arg(opts.Status))
	}
	if opts.AuthorID != 0 {
		where = append(where, `p.user_id = `+q.arg(opts.AuthorID))
	}
	if opts.Format != "" {
		where = append(where, `p.format = `+q.arg(opts.Format))
	}
	if opts.Kind != "" {
		where = append(where, `p.kind = `+q.arg(opts.Kind))
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		where = append(where, `(p.title LIKE `+q.arg(pattern)+` OR p.description LIKE `+q.arg(pattern)+`)`)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	query += ` GROUP BY ` + strings.Join(group, ", ")

	if order == "" {
		if opts.Sort == models.SortTrending {
			order = "like_count DESC, p.created_at DESC, p.id DESC"
		} else {
			order = "p.created_at DESC, p.id DESC"
		}
	}
	query += ` ORDER BY ` + order
	query += ` LIMIT ` + q.arg(opts.Limit) + ` OFFSET ` + q.arg(opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.FeedPost{}
	for rows.Next() {
		fp, err := repository.ScanFeedPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, fp)
	}
	return posts, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `UPDATE posts
		SET title = ?, description = ?, format = ?, thumbnail_name = ?, thumbnail_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Description,
		post.Format,
		post.ThumbnailName,
		post.ThumbnailURL,
		post.ID,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Publish(ctx context.Context, id int64) error {
	query := `UPDATE posts SET status = ?, edit_token = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = ? AND created_at < ?`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusDraft, formatTime(cutoff))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := repository.ScanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
