package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/ragvault/internal/domain"
)

func EnsureExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp extension: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	return nil
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := EnsureExtensions(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureSearchIndexes(db)
}

// EnsureSearchIndexes creates the indexes the search paths depend on. All
// statements are idempotent.
func EnsureSearchIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_chunk_fts", `
		CREATE INDEX IF NOT EXISTS idx_chunk_fts
		ON chunk
		USING GIN (to_tsvector('english', content));
		`},
		{"idx_chunk_embedding_hnsw", `
		CREATE INDEX IF NOT EXISTS idx_chunk_embedding_hnsw
		ON chunk
		USING hnsw (embedding vector_cosine_ops);
		`},
		{"idx_chunk_workspace_seq", `
		CREATE INDEX IF NOT EXISTS idx_chunk_workspace_seq
		ON chunk(workspace_id, seq);
		`},
		{"idx_document_workspace_created", `
		CREATE INDEX IF NOT EXISTS idx_document_workspace_created
		ON document(workspace_id, created_at DESC);
		`},
		{"idx_api_key_workspace_active", `
		CREATE INDEX IF NOT EXISTS idx_api_key_workspace_active
		ON api_key(workspace_id, is_active);
		`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
