package annotation

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Shivam-2310/ShortAI/internal/db"
	"github.com/Shivam-2310/ShortAI/internal/models"
)

func testStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, 7*24*time.Hour), database
}

func sample(hash string, expiresAt time.Time) *models.Annotation {
	return &models.Annotation{
		URLHash:     hash,
		OriginalURL: "https://example.com",
		Summary:     "An example page",
		Category:    "Technology",
		Tags:        "example,testing",
		SafetyScore: 0.95,
		IsSafe:      true,
		AnalyzedAt:  time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
}

func TestPutGet(t *testing.T) {
	s, _ := testStore(t)
	a := sample("hash1", time.Now().UTC().Add(time.Hour))

	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get("hash1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Summary != "An example page" || got.Category != "Technology" {
		t.Errorf("got %+v", got)
	}
}

func TestGet_Miss(t *testing.T) {
	s, _ := testStore(t)
	if _, ok := s.Get("nope"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestGet_ExpiredIsDeleted(t *testing.T) {
	s, database := testStore(t)
	a := sample("hash1", time.Now().UTC().Add(-time.Minute))
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get("hash1"); ok {
		t.Fatal("expired annotation returned")
	}

	// The expired row must be gone after the lazy delete
	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM ai_annotations WHERE url_hash = 'hash1'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expired row still present")
	}
}

func TestPut_Replaces(t *testing.T) {
	s, _ := testStore(t)
	if err := s.Put(sample("hash1", time.Now().UTC().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	updated := sample("hash1", time.Now().UTC().Add(time.Hour))
	updated.Summary = "A newer summary"
	if err := s.Put(updated); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get("hash1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Summary != "A newer summary" {
		t.Errorf("Summary = %q, want replacement", got.Summary)
	}
}

func TestSweep(t *testing.T) {
	s, _ := testStore(t)
	s.Put(sample("old", time.Now().UTC().Add(-time.Hour)))
	s.Put(sample("fresh", time.Now().UTC().Add(time.Hour)))

	n, err := s.Sweep(time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Sweep removed %d rows, want 1", n)
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh annotation swept away")
	}
}
