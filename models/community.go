package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Post is a community forum post
type Post struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	AuthorName    string         `json:"author_name" db:"author_name"`
	Title         string         `json:"title" db:"title"`
	Body          string         `json:"body" db:"body"`
	ImageUploadID *uuid.UUID     `json:"image_upload_id,omitempty" db:"image_upload_id"`
	Tags          pq.StringArray `json:"tags" db:"tags"`
	LikeCount     int            `json:"like_count" db:"like_count"`
	CommentCount  int            `json:"comment_count" db:"comment_count"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// PostWithComments is a post plus its comment thread, oldest first
type PostWithComments struct {
	*Post
	Comments []*Comment `json:"comments"`
}

// Comment is a reply on a post
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PostID     uuid.UUID `json:"post_id" db:"post_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	AuthorName string    `json:"author_name" db:"author_name"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreatePostRequest is the payload for a new post
type CreatePostRequest struct {
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	ImageUploadID *uuid.UUID `json:"image_upload_id,omitempty"`
	Tags          []string   `json:"tags"`
}

// Validate checks and normalizes the post payload
func (r *CreatePostRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	if r.Title == "" {
		return validationErr("title is required")
	}
	if len(r.Title) > 200 {
		return validationErr("title must be at most 200 characters")
	}
	if r.Body == "" {
		return validationErr("body is required")
	}
	if len(r.Body) > 10000 {
		return validationErr("body must be at most 10000 characters")
	}
	if len(r.Tags) > 10 {
		return validationErr("at most 10 tags are allowed")
	}
	r.Tags = NormalizeTags(r.Tags)
	return nil
}

// CreateCommentRequest is the payload for a new comment
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// Validate checks the comment payload
func (r *CreateCommentRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return validationErr("comment body is required")
	}
	if len(r.Body) > 2000 {
		return validationErr("comment must be at most 2000 characters")
	}
	return nil
}

// PostFilter narrows post listings
type PostFilter struct {
	Tag    string
	Limit  int
	Offset int
}

// NormalizeTags lowercases, trims and de-duplicates tags preserving order
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.TrimPrefix(tag, "#")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
