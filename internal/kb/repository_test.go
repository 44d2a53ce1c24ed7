package kb

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/db"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	conn, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "articles.db")})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(conn); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	if err := Migrate(context.Background(), conn, silentLogger()); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(conn, silentLogger())
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetByRemoteIDReturnsNilForMissingArticle(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	article, err := repo.GetByRemoteID(context.Background(), "999")
	if err != nil {
		t.Fatalf("GetByRemoteID returned error: %v", err)
	}
	if article != nil {
		t.Fatalf("expected nil article for unknown remote id, got %#v", article)
	}
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	original := &Article{
		RemoteID: " 360001 ",
		Title:    "Retiros",
		Body:     "Texto limpio.",
		RawBody:  "<p>Texto limpio.</p>",
		HTMLURL:  "https://support.example.com/articles/360001",
	}
	if err := repo.Upsert(ctx, original); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if original.RemoteID != "360001" {
		t.Fatalf("expected remote id trimmed to '360001', got %q", original.RemoteID)
	}

	updated := &Article{
		RemoteID: "360001",
		Title:    "Retiros actualizados",
		Body:     "Texto nuevo.",
		RawBody:  "<p>Texto nuevo.</p>",
		HTMLURL:  "https://support.example.com/articles/360001",
	}
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}

	count, err := repo.CountArticles(ctx)
	if err != nil {
		t.Fatalf("CountArticles returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stored article after upsert, got %d", count)
	}

	stored, err := repo.GetByRemoteID(ctx, "360001")
	if err != nil {
		t.Fatalf("GetByRemoteID returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored article to be present")
	}
	if stored.Title != "Retiros actualizados" {
		t.Fatalf("expected updated title, got %q", stored.Title)
	}
	if stored.Body != "Texto nuevo." {
		t.Fatalf("expected updated body, got %q", stored.Body)
	}
}

func TestUpsertRequiresRemoteID(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	if err := repo.Upsert(context.Background(), &Article{Title: "sin id"}); err == nil {
		t.Fatalf("expected error when remote id is missing")
	}
}

func TestListArticlesOrdersByRemoteID(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	articles := []Article{
		{RemoteID: "300", Title: "c"},
		{RemoteID: "100", Title: "a"},
		{RemoteID: "200", Title: "b"},
	}

	for _, article := range articles {
		a := article
		if err := repo.Upsert(ctx, &a); err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
	}

	listed, err := repo.ListArticles(ctx)
	if err != nil {
		t.Fatalf("ListArticles returned error: %v", err)
	}

	expectedOrder := []string{"100", "200", "300"}
	if len(listed) != len(expectedOrder) {
		t.Fatalf("expected %d articles, got %d", len(expectedOrder), len(listed))
	}
	for i, remoteID := range expectedOrder {
		if listed[i].RemoteID != remoteID {
			t.Fatalf("expected article %d to have remote id %q, got %q", i, remoteID, listed[i].RemoteID)
		}
	}
}

func TestMostRecentArticleEmptyTable(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	article, err := repo.MostRecentArticle(context.Background())
	if err != nil {
		t.Fatalf("MostRecentArticle returned error: %v", err)
	}
	if article != nil {
		t.Fatalf("expected nil article for empty table, got %#v", article)
	}
}
