package feed

import "time"

type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Caption    string    `json:"caption"`
	ImageURLs  []string  `json:"image_urls"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuthorSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type FeedItem struct {
	Post
	Author       AuthorSummary `json:"author"`
	LikeCount    int           `json:"like_count"`
	CommentCount int           `json:"comment_count"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PageOptions struct {
	Limit    int
	Offset   int
	AuthorID string
}
