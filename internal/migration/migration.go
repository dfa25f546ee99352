package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"kisanrakshak/internal/errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Step is one idempotent schema change
type Step struct {
	Name string
	SQL  string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	logger *zap.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *zap.Logger) *MigrationRunner {
	return &MigrationRunner{logger: logger.Named("migration")}
}

type appliedStep struct {
	Version  string `db:"version"`
	Checksum string `db:"checksum"`
}

// Run applies every step not yet recorded in schema_migrations, in order.
// A recorded step whose SQL has since changed fails the run.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`); err != nil {
		return errors.Wrap(err, "failed to create schema_migrations table")
	}

	var rows []appliedStep
	if err := db.SelectContext(ctx, &rows, `SELECT version, checksum FROM schema_migrations`); err != nil {
		return errors.Wrap(err, "failed to read applied migrations")
	}
	applied := make(map[string]string, len(rows))
	for _, row := range rows {
		applied[row.Version] = row.Checksum
	}

	steps := Steps()
	if err := CheckDrift(steps, applied); err != nil {
		return err
	}
	for _, step := range steps {
		if _, done := applied[step.Name]; done {
			continue
		}
		if err := r.apply(ctx, db, step); err != nil {
			return errors.Wrapf(err, "failed to run migration %s", step.Name)
		}
		r.logger.Info("applied migration", zap.String("version", step.Name))
	}
	return nil
}

func (r *MigrationRunner) apply(ctx context.Context, db *sqlx.DB, step Step) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`,
		step.Name, Checksum(step.SQL)); err != nil {
		return err
	}
	return tx.Commit()
}

// CheckDrift compares applied checksums, keyed by step name, with the current steps
func CheckDrift(steps []Step, applied map[string]string) error {
	for _, step := range steps {
		recorded, ok := applied[step.Name]
		if !ok {
			continue
		}
		if recorded != Checksum(step.SQL) {
			return errors.New(errors.CodeConfigInvalid,
				"migration "+step.Name+" was changed after it was applied; add a new step instead")
		}
	}
	return nil
}

// Checksum fingerprints a migration statement
func Checksum(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}

// Steps returns the schema in application order
func Steps() []Step {
	return []Step{
		{"001_users", `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				phone VARCHAR(20) UNIQUE NOT NULL,
				name VARCHAR(200) NOT NULL,
				language VARCHAR(8) NOT NULL DEFAULT 'en',
				state VARCHAR(100) NOT NULL DEFAULT '',
				district VARCHAR(100) NOT NULL DEFAULT '',
				token_hash CHAR(64) UNIQUE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)`},
		{"002_uploads", `
			CREATE TABLE IF NOT EXISTS uploads (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				content_type VARCHAR(100) NOT NULL,
				size_bytes BIGINT NOT NULL,
				path TEXT NOT NULL,
				sha256 CHAR(64) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_uploads_user_id ON uploads(user_id)`},
		{"003_community", `
			CREATE TABLE IF NOT EXISTS posts (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title VARCHAR(200) NOT NULL,
				body TEXT NOT NULL,
				image_upload_id UUID REFERENCES uploads(id) ON DELETE SET NULL,
				tags TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS comments (
				id UUID PRIMARY KEY,
				post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				body TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS post_likes (
				post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (post_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_posts_tags ON posts USING GIN(tags);
			CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id, created_at)`},
		{"004_insurance", `
			CREATE TABLE IF NOT EXISTS policies (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				policy_number VARCHAR(100) UNIQUE NOT NULL,
				scheme VARCHAR(100) NOT NULL DEFAULT 'PMFBY',
				crop_name VARCHAR(100) NOT NULL,
				season VARCHAR(20) NOT NULL,
				area_acres DOUBLE PRECISION NOT NULL,
				sum_insured DOUBLE PRECISION NOT NULL,
				premium DOUBLE PRECISION NOT NULL DEFAULT 0,
				start_date TIMESTAMP WITH TIME ZONE NOT NULL,
				end_date TIMESTAMP WITH TIME ZONE NOT NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'active',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS claims (
				id UUID PRIMARY KEY,
				policy_id UUID NOT NULL REFERENCES policies(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				cause VARCHAR(50) NOT NULL,
				loss_date TIMESTAMP WITH TIME ZONE NOT NULL,
				estimated_loss DOUBLE PRECISION NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				photo_upload_id UUID REFERENCES uploads(id) ON DELETE SET NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'submitted',
				review_note TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_policies_user_id ON policies(user_id);
			CREATE INDEX IF NOT EXISTS idx_claims_user_id ON claims(user_id);
			CREATE INDEX IF NOT EXISTS idx_claims_policy_id ON claims(policy_id)`},
		{"005_crops", `
			CREATE TABLE IF NOT EXISTS crops (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				crop_name VARCHAR(100) NOT NULL,
				variety VARCHAR(100) NOT NULL DEFAULT '',
				sowing_date TIMESTAMP WITH TIME ZONE NOT NULL,
				area_acres DOUBLE PRECISION NOT NULL DEFAULT 0,
				location TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS snaps (
				id UUID PRIMARY KEY,
				crop_id UUID NOT NULL REFERENCES crops(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				taken_on TIMESTAMP WITH TIME ZONE NOT NULL,
				height_cm DOUBLE PRECISION NOT NULL,
				leaf_color VARCHAR(20) NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				image_upload_id UUID REFERENCES uploads(id) ON DELETE SET NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_crops_user_id ON crops(user_id);
			CREATE INDEX IF NOT EXISTS idx_snaps_crop_taken ON snaps(crop_id, taken_on)`},
		{"006_llm_usage", `
			CREATE TABLE IF NOT EXISTS llm_usage (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				provider VARCHAR(50) NOT NULL,
				model VARCHAR(100) NOT NULL,
				operation_type VARCHAR(50) NOT NULL,
				prompt_tokens INTEGER NOT NULL DEFAULT 0,
				completion_tokens INTEGER NOT NULL DEFAULT 0,
				total_tokens INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_llm_usage_user_created ON llm_usage(user_id, created_at DESC)`},
		{"007_user_roles", `
			ALTER TABLE users ADD COLUMN IF NOT EXISTS role VARCHAR(20) NOT NULL DEFAULT 'farmer';
			CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status, created_at)`},
	}
}
