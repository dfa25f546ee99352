package app

import (
	"context"
	"time"

	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPostLimit = 20
	maxPostLimit     = 100
)

// CommunityService manages the farmer forum
type CommunityService struct {
	posts  ports.PostRepository
	blobs  ports.BlobStore
	logger *zap.Logger
}

// NewCommunityService creates a new community service
func NewCommunityService(posts ports.PostRepository, blobs ports.BlobStore, logger *zap.Logger) *CommunityService {
	return &CommunityService{posts: posts, blobs: blobs, logger: logger.Named("community")}
}

// CreatePost publishes a post. An attached image must be the author's own upload.
func (s *CommunityService) CreatePost(ctx context.Context, userID uuid.UUID, req *models.CreatePostRequest) (*models.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkOwnUpload(ctx, s.blobs, userID, req.ImageUploadID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         req.Title,
		Body:          req.Body,
		ImageUploadID: req.ImageUploadID,
		Tags:          req.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, errors.Wrap(err, "failed to create post")
	}
	// reload for author name and counters
	return s.posts.GetPost(ctx, post.ID)
}

// ListPosts returns posts newest first
func (s *CommunityService) ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPostLimit
	}
	if filter.Limit > maxPostLimit {
		filter.Limit = maxPostLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	tags := models.NormalizeTags([]string{filter.Tag})
	filter.Tag = ""
	if len(tags) == 1 {
		filter.Tag = tags[0]
	}
	return s.posts.ListPosts(ctx, filter)
}

// GetPost returns a post with its comments oldest first
func (s *CommunityService) GetPost(ctx context.Context, postID uuid.UUID) (*models.PostWithComments, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list comments")
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &models.PostWithComments{Post: post, Comments: comments}, nil
}

// LikePost likes a post once per user; repeat likes are no-ops
func (s *CommunityService) LikePost(ctx context.Context, userID, postID uuid.UUID) (*models.Post, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.posts.LikePost(ctx, postID, userID); err != nil {
		return nil, errors.Wrap(err, "failed to like post")
	}
	return s.posts.GetPost(ctx, postID)
}

// DeletePost removes the caller's own post
func (s *CommunityService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return errors.Forbidden("only the author can delete a post")
	}
	return s.posts.DeletePost(ctx, postID)
}

// AddComment replies to a post
func (s *CommunityService) AddComment(ctx context.Context, userID, postID uuid.UUID, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, errors.Wrap(err, "failed to add comment")
	}
	return s.posts.GetComment(ctx, comment.ID)
}

// ListComments returns a post's comments oldest first
func (s *CommunityService) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	return s.posts.ListComments(ctx, postID)
}

// DeleteComment removes the caller's own comment
func (s *CommunityService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	comment, err := s.posts.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return errors.Forbidden("only the author can delete a comment")
	}
	return s.posts.DeleteComment(ctx, commentID)
}

func checkOwnUpload(ctx context.Context, blobs ports.BlobStore, userID uuid.UUID, uploadID *uuid.UUID) error {
	if uploadID == nil {
		return nil
	}
	upload, err := blobs.Get(ctx, *uploadID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return errors.InvalidInput("referenced upload does not exist")
		}
		return err
	}
	if upload.UserID != userID {
		return errors.Forbidden("upload belongs to another user")
	}
	return nil
}
