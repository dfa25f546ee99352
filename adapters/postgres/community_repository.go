package postgres

import (
	"context"
	"time"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const postSelect = `
	SELECT p.id, p.user_id, u.name AS author_name, p.title, p.body, p.image_upload_id, p.tags,
	       p.created_at, p.updated_at,
	       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.user_id`

const commentSelect = `
	SELECT c.id, c.post_id, c.user_id, u.name AS author_name, c.body, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id`

// PostRepositoryImpl implements PostRepository for PostgreSQL
type PostRepositoryImpl struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sqlx.DB) ports.PostRepository {
	return &PostRepositoryImpl{db: db}
}

// CreatePost inserts a post
func (r *PostRepositoryImpl) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO posts (id, user_id, title, body, image_upload_id, tags, created_at, updated_at)
		VALUES (:id, :user_id, :title, :body, :image_upload_id, :tags, :created_at, :updated_at)
	`, post)
	return translate(err, "post")
}

// GetPost retrieves a post with its like and comment counts
func (r *PostRepositoryImpl) GetPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = $1`, postID); err != nil {
		return nil, translate(err, "post")
	}
	return &post, nil
}

// ListPosts returns posts newest first, optionally filtered by tag
func (r *PostRepositoryImpl) ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	query := postSelect
	args := []interface{}{}
	if filter.Tag != "" {
		query += ` WHERE $1 = ANY(p.tags)`
		args = append(args, filter.Tag)
	}
	query += ` ORDER BY p.created_at DESC, p.id`
	query += ` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, translate(err, "post")
	}
	return posts, nil
}

// DeletePost removes a post; comments and likes cascade
func (r *PostRepositoryImpl) DeletePost(ctx context.Context, postID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	return expectOne(res, err, "post")
}

// LikePost records a like once per user
func (r *PostRepositoryImpl) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID)
	if err != nil {
		return false, translate(err, "post")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "post")
	}
	return n > 0, nil
}

// CreateComment inserts a comment
func (r *PostRepositoryImpl) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO comments (id, post_id, user_id, body, created_at)
		VALUES (:id, :post_id, :user_id, :body, :created_at)
	`, comment)
	return translate(err, "comment")
}

// GetComment retrieves a comment
func (r *PostRepositoryImpl) GetComment(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.GetContext(ctx, &c, commentSelect+` WHERE c.id = $1`, commentID); err != nil {
		return nil, translate(err, "comment")
	}
	return &c, nil
}

// ListComments returns a post's comments oldest first
func (r *PostRepositoryImpl) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.SelectContext(ctx, &comments, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at ASC, c.id`, postID)
	if err != nil {
		return nil, translate(err, "comment")
	}
	return comments, nil
}

// DeleteComment removes a comment
func (r *PostRepositoryImpl) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	return expectOne(res, err, "comment")
}
