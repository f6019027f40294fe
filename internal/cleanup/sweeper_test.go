package cleanup

import (
	"testing"
	"time"

	"github.com/Shivam-2310/ShortAI/internal/annotation"
	"github.com/Shivam-2310/ShortAI/internal/db"
	"github.com/Shivam-2310/ShortAI/internal/models"
)

func TestSweep_MarksExpiredAndDropsAnnotations(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	annotations := annotation.NewStore(database, 7*24*time.Hour)

	past := time.Now().UTC().Add(-time.Hour)
	m := &models.Mapping{OriginalURL: "https://old.test", ExpiresAt: &past}
	if err := models.InsertMapping(database, m); err != nil {
		t.Fatal(err)
	}
	if err := models.AssignShortKey(database, m.ID, "old111"); err != nil {
		t.Fatal(err)
	}

	if err := models.UpsertAnnotation(database, &models.Annotation{
		URLHash:     "stale",
		OriginalURL: "https://old.test",
		AnalyzedAt:  past.Add(-7 * 24 * time.Hour),
		ExpiresAt:   past,
	}); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(database, annotations)
	s.sweep()
	s.Shutdown()

	got, err := models.GetMappingByKey(database, "old111")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Error("expired mapping still active after sweep")
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM ai_annotations`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("stale annotations remaining = %d, want 0", count)
	}
}
