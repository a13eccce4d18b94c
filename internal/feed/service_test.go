package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var errQuery = errors.New("query failed")

func postRows(rows ...[]any) *pgxmock.Rows {
	r := pgxmock.NewRows([]string{"id", "user_id", "caption", "image_urls", "visibility", "created_at"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

func TestCreatePostDefaultsPublic(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-1", "sunset ride", []string{"a.jpg"}, "public").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock)
	post, err := svc.CreatePost(context.Background(), Post{UserID: "user-1", Caption: "sunset ride", ImageURLs: []string{"a.jpg"}})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Visibility != "public" || post.ID == "" {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestCreatePostEmpty(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.CreatePost(context.Background(), Post{UserID: "user-1"}); err == nil {
		t.Fatalf("expected error for empty post")
	}
}

func TestGetPrivatePostHiddenFromOthers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	private := []any{"post-1", "alice", "secret ride", []string{}, "private", time.Now()}
	mock.ExpectQuery(`FROM posts WHERE id=\$1`).
		WithArgs("post-1").
		WillReturnRows(postRows(private))
	mock.ExpectQuery(`FROM posts WHERE id=\$1`).
		WithArgs("post-1").
		WillReturnRows(postRows(private))
	mock.ExpectQuery(`FROM posts WHERE id=\$1`).
		WithArgs("post-1").
		WillReturnRows(postRows(private))

	svc := NewService(mock)
	if _, err := svc.GetPost(context.Background(), "post-1", "bob"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for another user, got %v", err)
	}
	if _, err := svc.GetPost(context.Background(), "post-1", ""); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for anonymous viewer, got %v", err)
	}
	post, err := svc.GetPost(context.Background(), "post-1", "alice")
	if err != nil || post.ID != "post-1" {
		t.Fatalf("owner should see their private post: %v", err)
	}
}

func TestPageOnlyPublicPosts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM posts WHERE visibility = \$1 ORDER BY created_at DESC`).
		WithArgs("public").
		WillReturnRows(postRows(
			[]any{"post-2", "bob", "second", []string{}, "public", now},
			[]any{"post-1", "alice", "first", []string{}, "public", now.Add(-time.Hour)},
		))

	mock.ExpectQuery(`FROM profiles WHERE user_id = ANY`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "display_name", "avatar_url"}).
			AddRow("bob", "bob", "Bob", ""))

	mock.ExpectQuery(`SELECT post_id, COUNT\(\*\) FROM post_likes`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"post_id", "count"}).AddRow("post-2", 3))
	mock.ExpectQuery(`SELECT post_id, COUNT\(\*\) FROM post_comments`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"post_id", "count"}))

	svc := NewService(mock)
	items, err := svc.Page(context.Background(), PageOptions{})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Author.DisplayName != "Bob" || items[0].LikeCount != 3 {
		t.Fatalf("unexpected enriched item: %+v", items[0])
	}
	// alice's profile lookup returned nothing: placeholder, not a dropped post
	if items[1].Author.DisplayName != "Anonymous User" {
		t.Fatalf("expected anonymous placeholder, got %+v", items[1].Author)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPageAuthorLookupFailureFallsBack(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM posts WHERE visibility = \$1`).
		WithArgs("public").
		WillReturnRows(postRows([]any{"post-1", "alice", "hello", []string{}, "public", time.Now()}))

	mock.ExpectQuery(`FROM profiles WHERE user_id = ANY`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errQuery)

	mock.ExpectQuery(`SELECT post_id, COUNT\(\*\) FROM post_likes`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"post_id", "count"}))
	mock.ExpectQuery(`SELECT post_id, COUNT\(\*\) FROM post_comments`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"post_id", "count"}))

	svc := NewService(mock)
	items, err := svc.Page(context.Background(), PageOptions{})
	if err != nil {
		t.Fatalf("page should survive author failure: %v", err)
	}
	if len(items) != 1 || items[0].Author.DisplayName != "Anonymous User" {
		t.Fatalf("expected anonymous fallback, got %+v", items)
	}
}

func TestPageAuthorFilter(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`WHERE visibility = \$1 AND user_id = \$2`).
		WithArgs("public", "alice").
		WillReturnRows(postRows())

	svc := NewService(mock)
	items, err := svc.Page(context.Background(), PageOptions{AuthorID: "alice"})
	if err != nil || len(items) != 0 {
		t.Fatalf("filtered page: %v", err)
	}
}

func TestDedupePosts(t *testing.T) {
	items := []FeedItem{
		{Post: Post{ID: "a"}},
		{Post: Post{ID: "b"}},
		{Post: Post{ID: "a"}},
		{Post: Post{ID: "c"}},
		{Post: Post{ID: "b"}},
	}
	out := DedupePosts(items)
	if len(out) != 3 || out[0].ID != "a" || out[1].ID != "b" || out[2].ID != "c" {
		t.Fatalf("unexpected dedupe result: %+v", out)
	}
}

func expectToggle(mock pgxmock.PgxPoolIface, exists bool, countAfter int) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("post-1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(exists))
	if exists {
		mock.ExpectExec(`DELETE FROM post_likes`).
			WithArgs("post-1", "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
	} else {
		mock.ExpectExec(`INSERT INTO post_likes`).
			WithArgs("post-1", "user-1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM post_likes`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(countAfter))
}

func TestToggleLikeTwiceReturnsToOriginal(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectToggle(mock, false, 1)
	expectToggle(mock, true, 0)

	svc := NewService(mock)
	liked, count, err := svc.ToggleLike(context.Background(), "post-1", "user-1")
	if err != nil || !liked || count != 1 {
		t.Fatalf("first toggle: liked=%v count=%d err=%v", liked, count, err)
	}
	liked, count, err = svc.ToggleLike(context.Background(), "post-1", "user-1")
	if err != nil || liked || count != 0 {
		t.Fatalf("second toggle: liked=%v count=%d err=%v", liked, count, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddAndListComments(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO post_comments`).
		WithArgs(pgxmock.AnyArg(), "post-1", "user-1", "nice ride").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock)
	cm, err := svc.AddComment(context.Background(), Comment{PostID: "post-1", UserID: "user-1", Content: "nice ride"})
	if err != nil || cm.ID == "" {
		t.Fatalf("add comment: %v", err)
	}

	mock.ExpectQuery(`FROM post_comments WHERE post_id`).
		WithArgs("post-1", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "user_id", "content", "created_at"}).
			AddRow(cm.ID, "post-1", "user-1", "nice ride", time.Now()))

	comments, err := svc.Comments(context.Background(), "post-1", 0, 0)
	if err != nil || len(comments) != 1 {
		t.Fatalf("comments: %v", err)
	}

	if _, err := svc.AddComment(context.Background(), Comment{PostID: "post-1", UserID: "user-1"}); err == nil {
		t.Fatalf("expected error for empty comment")
	}
}
