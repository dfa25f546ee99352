package ports

import (
	"context"

	"kisanrakshak/models"

	"github.com/google/uuid"
)

// PostRepository stores community posts, comments and likes
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error)

	// ListPosts returns posts newest first
	ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error

	// LikePost records a like; it reports false when the user already liked the post
	LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	// ListComments returns a post's comments oldest first
	ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}
