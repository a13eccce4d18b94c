package feed

import (
	"context"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrPostNotFound = errors.New("post not found")

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// anonymousAuthor fills in for posts whose author profile is missing or whose
// lookup failed; a broken profile must not hide the post itself.
var anonymousAuthor = AuthorSummary{DisplayName: "Anonymous User"}

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

func (s *Service) CreatePost(ctx context.Context, input Post) (Post, error) {
	if input.UserID == "" || (input.Caption == "" && len(input.ImageURLs) == 0) {
		return Post{}, errors.New("caption or images required")
	}
	input.ID = uuid.NewString()
	if input.Visibility == "" {
		input.Visibility = "public"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, caption, image_urls, visibility)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.UserID, input.Caption, input.ImageURLs, input.Visibility)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Post{}, err
	}
	return input, nil
}

func (s *Service) GetPost(ctx context.Context, id, viewerID string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, caption, image_urls, visibility, created_at
		FROM posts WHERE id=$1
	`, id)
	var p Post
	err := row.Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURLs, &p.Visibility, &p.CreatedAt)
	if db.IsNotFound(err) {
		return Post{}, ErrPostNotFound
	}
	if err != nil {
		return Post{}, err
	}
	// a private post is visible to its owner only
	if p.Visibility != "public" && p.UserID != viewerID {
		return Post{}, ErrPostNotFound
	}
	return p, nil
}

// Page assembles one reverse-chronological page of public posts. Pagination
// is plain offset/limit: a post inserted between page fetches can shift
// offsets, so callers accumulating pages dedupe with DedupePosts.
func (s *Service) Page(ctx context.Context, opts PageOptions) ([]FeedItem, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageLimit
	}
	if opts.Limit > maxPageLimit {
		opts.Limit = maxPageLimit
	}

	q := psql.Select("id", "user_id", "caption", "image_urls", "visibility", "created_at").
		From("posts").
		Where(sq.Eq{"visibility": "public"}).
		OrderBy("created_at DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset))
	if opts.AuthorID != "" {
		q = q.Where(sq.Eq{"user_id": opts.AuthorID})
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	var ids, authorIDs []string
	seenAuthor := map[string]bool{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURLs, &p.Visibility, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
		if !seenAuthor[p.UserID] {
			seenAuthor[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// author enrichment is best-effort: on failure every post falls back to
	// the anonymous placeholder instead of failing the page
	authors, err := s.loadAuthors(ctx, authorIDs)
	if err != nil {
		log.Warn().Err(err).Msg("feed author lookup failed")
		authors = map[string]AuthorSummary{}
	}

	likeCounts, err := s.loadCounts(ctx, `SELECT post_id, COUNT(*) FROM post_likes WHERE post_id = ANY($1) GROUP BY post_id`, ids)
	if err != nil {
		return nil, err
	}
	commentCounts, err := s.loadCounts(ctx, `SELECT post_id, COUNT(*) FROM post_comments WHERE post_id = ANY($1) GROUP BY post_id`, ids)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			author = anonymousAuthor
		}
		items = append(items, FeedItem{
			Post:         p,
			Author:       author,
			LikeCount:    likeCounts[p.ID],
			CommentCount: commentCounts[p.ID],
		})
	}
	return items, nil
}

func (s *Service) loadAuthors(ctx context.Context, userIDs []string) (map[string]AuthorSummary, error) {
	if len(userIDs) == 0 {
		return map[string]AuthorSummary{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, display_name, avatar_url
		FROM profiles WHERE user_id = ANY($1)
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := map[string]AuthorSummary{}
	for rows.Next() {
		var a AuthorSummary
		if err := rows.Scan(&a.UserID, &a.Username, &a.DisplayName, &a.AvatarURL); err != nil {
			return nil, err
		}
		authors[a.UserID] = a
	}
	return authors, rows.Err()
}

func (s *Service) loadCounts(ctx context.Context, sqlStr string, postIDs []string) (map[string]int, error) {
	if len(postIDs) == 0 {
		return map[string]int{}, nil
	}
	rows, err := s.db.Query(ctx, sqlStr, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// DedupePosts drops repeated post ids while preserving order. Needed when
// accumulating offset-paginated pages, where an insert between fetches can
// repeat an item.
func DedupePosts(items []FeedItem) []FeedItem {
	seen := map[string]bool{}
	out := items[:0]
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

// ToggleLike is a check-then-act sequence per (user, post): two concurrent
// toggles from the same user can race. Accepted; the exact count query keeps
// displayed numbers honest either way.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id=$1 AND user_id=$2)
	`, postID, userID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, 0, err
	}

	if exists {
		if _, err := s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID); err != nil {
			return false, 0, err
		}
	} else {
		if _, err := s.db.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1,$2)`, postID, userID); err != nil {
			return false, 0, err
		}
	}

	count, err := s.LikeCount(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	return !exists, count, nil
}

// LikeCount is always an exact count over the edge table, never a stored
// counter column.
func (s *Service) LikeCount(ctx context.Context, postID string) (int, error) {
	row := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id=$1`, postID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) AddComment(ctx context.Context, input Comment) (Comment, error) {
	if input.Content == "" {
		return Comment{}, errors.New("content required")
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, content)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, input.ID, input.PostID, input.UserID, input.Content)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Comment{}, err
	}
	return input, nil
}

func (s *Service) Comments(ctx context.Context, postID string, limit, offset int) ([]Comment, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM post_comments WHERE post_id=$1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}
