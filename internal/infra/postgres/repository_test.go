package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/postgres/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a migrated GORM DB
//
// Prerequisites:
//   - Docker must be running
//
// OR
//   - Skip tests with: go test -short
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf(`Failed to start PostgreSQL container: %v

Docker Prerequisites:
1. Ensure Docker is running
2. OR skip integration tests: go test -short

`, err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, migrations.Run(db), "Failed to run migrations")

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// createTestContent is a factory function for creating test content
func createTestContent(i int, submittedAt time.Time, tags ...string) *domain.Content {
	c := domain.NewContent(
		"urn:discord:message:10:"+fmt.Sprint(i),
		"urn:twitter:tweet:"+fmt.Sprint(i),
		"urn:twitter:user:artist",
		"https://example.com/"+fmt.Sprint(i)+".jpeg",
		tags,
	)
	c.SubmittedAt = submittedAt

	return c
}

func viewWith(pageIndex, pageSize int, tags map[string]domain.TagClass) domain.ViewSettings {
	v := domain.DefaultViewSettings()
	v.PageIndex = pageIndex
	v.PageSize = pageSize
	if tags != nil {
		v.Tags = tags
	}

	return v
}

// TestInsertBatch verifies all rows are inserted and IDs are written back
func TestInsertBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	contents := []*domain.Content{
		createTestContent(1, now, "cat"),
		createTestContent(2, now, "cat", "dog"),
		createTestContent(3, now),
	}

	affected, err := repo.InsertBatch(ctx, contents)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	for i, c := range contents {
		assert.NotZero(t, c.ID, "Content %d ID should be assigned", i)
	}

	var model ContentModel
	require.NoError(t, db.Where("id = ?", contents[1].ID).First(&model).Error)
	assert.JSONEq(t, `["cat","dog"]`, string(model.Tags))
	assert.Nil(t, model.ThumbnailURL)

	affected, err = repo.InsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

// TestQuery_TagFilter pins the required and blocked tag semantics
func TestQuery_TagFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	_, err := repo.InsertBatch(ctx, []*domain.Content{
		createTestContent(1, base.Add(1*time.Minute), "cat"),
		createTestContent(2, base.Add(2*time.Minute), "cat", "dog"),
		createTestContent(3, base.Add(3*time.Minute), "dog"),
		createTestContent(4, base.Add(4*time.Minute)),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		tags map[string]domain.TagClass
		want []string
	}{
		{
			name: "no tags matches everything",
			want: []string{"4", "3", "2", "1"},
		},
		{
			name: "single required",
			tags: map[string]domain.TagClass{"cat": domain.TagRequired},
			want: []string{"2", "1"},
		},
		{
			name: "required tags are conjunctive",
			tags: map[string]domain.TagClass{"cat": domain.TagRequired, "dog": domain.TagRequired},
			want: []string{"2"},
		},
		{
			name: "single blocked",
			tags: map[string]domain.TagClass{"dog": domain.TagBlocked},
			want: []string{"4", "1"},
		},
		{
			name: "blocked tags exclude only rows carrying all of them",
			tags: map[string]domain.TagClass{"cat": domain.TagBlocked, "dog": domain.TagBlocked},
			want: []string{"4", "3", "1"},
		},
		{
			name: "required and blocked",
			tags: map[string]domain.TagClass{"cat": domain.TagRequired, "dog": domain.TagBlocked},
			want: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.Query(ctx, viewWith(1, 10, tt.tags))
			require.NoError(t, err)

			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.SourceURN[len("urn:twitter:tweet:"):]
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestQuery_Pagination verifies the page_size+1 sentinel over 11 rows
func TestQuery_Pagination(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	contents := make([]*domain.Content, 11)
	for i := range contents {
		contents[i] = createTestContent(i, base.Add(time.Duration(i)*time.Minute), "page")
	}
	_, err := repo.InsertBatch(ctx, contents)
	require.NoError(t, err)

	rows, err := repo.Query(ctx, viewWith(1, 10, nil))
	require.NoError(t, err)
	first := domain.NewViewResult(rows, 10)
	assert.Len(t, first.Results, 10)
	assert.True(t, first.HasMore)
	assert.Equal(t, contents[10].ID, first.Results[0].ID, "Newest row comes first")

	rows, err = repo.Query(ctx, viewWith(2, 10, nil))
	require.NoError(t, err)
	second := domain.NewViewResult(rows, 10)
	require.Len(t, second.Results, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, contents[0].ID, second.Results[0].ID)

	asc := viewWith(1, 5, nil)
	asc.OrderBy = domain.SortOrderAsc
	rows, err = repo.Query(ctx, asc)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, contents[0].ID, rows[0].ID)
}

// TestQuery_InvalidView verifies a negative offset never reaches the store
func TestQuery_InvalidView(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContentRepository(db)

	_, err := repo.Query(context.Background(), viewWith(0, 10, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidView)
}

// TestExternalData_UpsertAndFind verifies the batched lookup and the upsert by URN
func TestExternalData_UpsertAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewExternalDataRepository(db)
	ctx := context.Background()

	err := repo.UpsertBatch(ctx, []domain.StoredExternalData{
		{URN: "urn:pixiv:artwork:1", Payload: []byte(`{"artwork_id":"1"}`)},
		{URN: "urn:pixiv:user:2", Payload: []byte(`{"user_id":"2"}`)},
	})
	require.NoError(t, err)

	rows, err := repo.FindByURNs(ctx, []string{"urn:pixiv:artwork:1", "urn:pixiv:artwork:404"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "urn:pixiv:artwork:1", rows[0].URN)
	assert.JSONEq(t, `{"artwork_id":"1"}`, string(rows[0].Payload))

	// Same URN again replaces the payload
	err = repo.UpsertBatch(ctx, []domain.StoredExternalData{
		{URN: "urn:pixiv:artwork:1", Payload: []byte(`{"artwork_id":"1","artwork_title":"new"}`)},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&ExternalDataModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count, "Upsert should not duplicate rows")

	rows, err = repo.FindByURNs(ctx, []string{"urn:pixiv:artwork:1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"artwork_id":"1","artwork_title":"new"}`, string(rows[0].Payload))
}

// TestExternalData_ListStale verifies stale rows are listed oldest first
func TestExternalData_ListStale(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewExternalDataRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.StoredExternalData{
		{URN: "urn:pixiv:artwork:1", Payload: []byte(`{}`)},
		{URN: "urn:pixiv:artwork:2", Payload: []byte(`{}`)},
		{URN: "urn:pixiv:artwork:3", Payload: []byte(`{}`)},
	}))

	now := time.Now().UTC()
	require.NoError(t, db.Model(&ExternalDataModel{}).
		Where("urn = ?", "urn:pixiv:artwork:1").
		UpdateColumn("updated_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, db.Model(&ExternalDataModel{}).
		Where("urn = ?", "urn:pixiv:artwork:2").
		UpdateColumn("updated_at", now.Add(-72*time.Hour)).Error)

	urns, err := repo.ListStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:pixiv:artwork:2", "urn:pixiv:artwork:1"}, urns)

	urns, err = repo.ListStale(ctx, now.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:pixiv:artwork:2"}, urns)

	require.NoError(t, repo.Touch(ctx, []string{"urn:pixiv:artwork:2"}))

	urns, err = repo.ListStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:pixiv:artwork:1"}, urns, "Touched rows leave the stale set")

	rows, err := repo.FindByURNs(ctx, []string{"urn:pixiv:artwork:2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{}`, string(rows[0].Payload), "Touch keeps the payload")
}

func TestMigrations_Rollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, HealthCheck(db))
	assert.True(t, db.Migrator().HasTable("external_data"))

	require.NoError(t, migrations.Rollback(db))
	assert.False(t, db.Migrator().HasTable("external_data"))
	assert.True(t, db.Migrator().HasTable("contents"))

	require.NoError(t, migrations.Run(db))
	assert.True(t, db.Migrator().HasTable("external_data"))
}
