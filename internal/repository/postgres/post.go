package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// feedQuery accumulates positional arguments while the statement is being
// assembled, keeping placeholder numbers and the args slice in sync.
type feedQuery struct {
	args []any
}

func (q *feedQuery) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// feedColumns is the SELECT list shared by List and GetFeedByID. The viewer
// id parameterizes the four personalization flags; for anonymous requests it
// is zero and every flag comes back false.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
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
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
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

	// At most one driving relation join; its timestamp orders the list.
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
		where = append(where, `(p.title ILIKE `+q.arg(pattern)+` OR p.description ILIKE `+q.arg(pattern)+`)`)
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
		SET title = $2, description = $3, format = $4, thumbnail_name = $5, thumbnail_url = $6, updated_at = $7
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Description,
		post.Format,
		post.ThumbnailName,
		post.ThumbnailURL,
		time.Now().UTC(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Publish flips the post to the published state and burns its edit token.
func (r *postRepository) Publish(ctx context.Context, id int64) error {
	query := `UPDATE posts SET status = $2, edit_token = '', updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublished, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND created_at < $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusDraft, cutoff)
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
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
