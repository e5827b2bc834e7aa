package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/ragvault/internal/data/db"
	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/domain/documents"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens TEST_POSTGRES_DSN once per package and migrates it. Tests are
// skipped when the variable is unset. The database needs the pgvector
// extension available.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		var err error
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}
		dbErr = db.AutoMigrateAll(gdb)
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// SeedWorkspace creates an organization and one workspace inside tx.
func SeedWorkspace(tb testing.TB, tx *gorm.DB, name string) *types.Workspace {
	tb.Helper()
	org := &types.Organization{Name: name, Slug: name + "-" + uuid.NewString()[:8], PlanTier: "free"}
	if err := tx.Create(org).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	ws := &types.Workspace{OrganizationID: org.ID, Name: name, Slug: name}
	if err := tx.Create(ws).Error; err != nil {
		tb.Fatalf("seed workspace: %v", err)
	}
	return ws
}

// SeedDocument creates a document with one chunk per text. Embeddings are
// unit vectors along axis i of the chunk's position, so vector order is
// predictable in tests.
func SeedDocument(tb testing.TB, tx *gorm.DB, ws *types.Workspace, title string, texts ...string) (*types.Document, []*types.Chunk) {
	tb.Helper()
	doc := &types.Document{WorkspaceID: ws.ID, Title: title, Source: title + ".md"}
	if err := tx.Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	var chunks []*types.Chunk
	for i, text := range texts {
		v := pgvector.NewVector(AxisVector(i))
		c := &types.Chunk{
			DocumentID:  doc.ID,
			WorkspaceID: ws.ID,
			ChunkIndex:  i,
			Content:     text,
			Embedding:   &v,
		}
		if err := tx.Omit("seq").Create(c).Error; err != nil {
			tb.Fatalf("seed chunk: %v", err)
		}
		chunks = append(chunks, c)
	}
	return doc, chunks
}

// AxisVector is a unit vector of the stored width pointing along axis i.
func AxisVector(i int) []float32 {
	v := make([]float32, documents.EmbeddingDimensions)
	v[i%len(v)] = 1
	return v
}
