package app

import (
	"context"
	"testing"
	"time"

	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommunity() (*CommunityService, *memPosts, *memBlobs) {
	posts, blobs := newMemPosts(), newMemBlobs()
	return NewCommunityService(posts, blobs, zap.NewNop()), posts, blobs
}

func TestCreateAndListPosts(t *testing.T) {
	svc, posts, _ := newCommunity()
	ctx := context.Background()
	author := uuid.New()

	first, err := svc.CreatePost(ctx, author, &models.CreatePostRequest{Title: "Whitefly on cotton", Body: "Any remedy?", Tags: []string{"#Cotton", "pests", "cotton"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cotton", "pests"}, []string(first.Tags))

	// make ordering deterministic
	posts.posts[first.ID].CreatedAt = time.Now().Add(-time.Hour)
	second, err := svc.CreatePost(ctx, author, &models.CreatePostRequest{Title: "Rain in Vidarbha", Body: "Sowing delayed"})
	require.NoError(t, err)

	all, err := svc.ListPosts(ctx, models.PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	tagged, err := svc.ListPosts(ctx, models.PostFilter{Tag: "#COTTON"})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, first.ID, tagged[0].ID)

	page, err := svc.ListPosts(ctx, models.PostFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestCreatePostChecksImageOwner(t *testing.T) {
	svc, _, blobs := newCommunity()
	ctx := context.Background()
	upload, err := blobs.Put(ctx, uuid.New(), "image/png", []byte("x"))
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, uuid.New(), &models.CreatePostRequest{Title: "t", Body: "b", ImageUploadID: &upload.ID})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	missing := uuid.New()
	_, err = svc.CreatePost(ctx, uuid.New(), &models.CreatePostRequest{Title: "t", Body: "b", ImageUploadID: &missing})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLikeIsIdempotent(t *testing.T) {
	svc, _, _ := newCommunity()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, uuid.New(), &models.CreatePostRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	fan := uuid.New()
	liked, err := svc.LikePost(ctx, fan, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	liked, err = svc.LikePost(ctx, fan, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	_, err = svc.LikePost(ctx, fan, uuid.New())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestCommentsAndOwnership(t *testing.T) {
	svc, posts, _ := newCommunity()
	ctx := context.Background()
	author, other := uuid.New(), uuid.New()
	post, err := svc.CreatePost(ctx, author, &models.CreatePostRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	c1, err := svc.AddComment(ctx, other, post.ID, &models.CreateCommentRequest{Body: "first"})
	require.NoError(t, err)
	posts.comments[c1.ID].CreatedAt = time.Now().Add(-time.Minute)
	_, err = svc.AddComment(ctx, author, post.ID, &models.CreateCommentRequest{Body: "second"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, author, post.ID, &models.CreateCommentRequest{Body: "  "})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	thread, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, "first", thread.Comments[0].Body)
	assert.Equal(t, 2, thread.CommentCount)

	assert.Equal(t, errors.CodeForbidden, errors.GetCode(svc.DeleteComment(ctx, author, c1.ID)))
	assert.NoError(t, svc.DeleteComment(ctx, other, c1.ID))

	assert.Equal(t, errors.CodeForbidden, errors.GetCode(svc.DeletePost(ctx, other, post.ID)))
	assert.NoError(t, svc.DeletePost(ctx, author, post.ID))
	_, err = svc.GetPost(ctx, post.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
