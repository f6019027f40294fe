package analytics

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/geo"
	"github.com/Shivam-2310/ShortAI/internal/metrics"
	"github.com/Shivam-2310/ShortAI/internal/models"
	"github.com/Shivam-2310/ShortAI/internal/uaparse"
)

// Snapshot is the immutable request data captured synchronously before
// dispatch. Workers never see the live request.
type Snapshot struct {
	ClientIP  string
	UserAgent string
	Referer   string
}

type job struct {
	effectiveKey string
	clickedAt    time.Time
	snapshot     Snapshot
}

// Tracker enriches and persists click events on a bounded worker pool.
// Clicks are best-effort: a full queue drops the oldest pending event.
type Tracker struct {
	db  *sql.DB
	geo *geo.Resolver

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewTracker(db *sql.DB, geoResolver *geo.Resolver, workers, queueSize int) *Tracker {
	t := &Tracker{
		db:   db,
		geo:  geoResolver,
		jobs: make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

// Track enqueues a click and returns immediately. The caller has already
// written its redirect; nothing here may block or fail it.
func (t *Tracker) Track(effectiveKey string, snapshot Snapshot) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	j := job{effectiveKey: effectiveKey, clickedAt: time.Now().UTC(), snapshot: snapshot}

	select {
	case t.jobs <- j:
	default:
		// Saturated: evict the oldest enqueued click to make room
		select {
		case dropped := <-t.jobs:
			log.Warn().Str("key", dropped.effectiveKey).Msg("tracker queue full, dropping oldest click")
			metrics.ClicksDropped.Inc()
		default:
		}
		select {
		case t.jobs <- j:
		default:
			log.Warn().Str("key", j.effectiveKey).Msg("tracker queue full, dropping click")
			metrics.ClicksDropped.Inc()
		}
	}
}

// Shutdown stops intake and drains the queue.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.jobs)
	t.wg.Wait()
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for j := range t.jobs {
		t.process(j)
	}
}

func (t *Tracker) process(j job) {
	mapping, err := models.GetMappingByKey(t.db, j.effectiveKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("key", j.effectiveKey).Msg("cannot track click, mapping not found")
		} else {
			log.Error().Err(err).Str("key", j.effectiveKey).Msg("click tracking lookup failed")
		}
		return
	}

	// The counter lives on the mapping's own short key, regardless of which
	// key form the click arrived on.
	if err := models.IncrementClickCount(t.db, mapping.ShortKey); err != nil {
		log.Error().Err(err).Str("key", mapping.ShortKey).Msg("click count increment failed")
	}

	ua := uaparse.Parse(j.snapshot.UserAgent)

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	location := t.geo.Lookup(ctx, j.snapshot.ClientIP)
	cancel()

	event := &models.ClickEvent{
		URLMappingID:   mapping.ID,
		ClickedAt:      j.clickedAt,
		ClientIP:       j.snapshot.ClientIP,
		UserAgent:      j.snapshot.UserAgent,
		Referer:        j.snapshot.Referer,
		BrowserName:    ua.BrowserName,
		BrowserVersion: ua.BrowserVersion,
		OSName:         ua.OSName,
		OSVersion:      ua.OSVersion,
		DeviceType:     ua.DeviceType,
		CountryCode:    location.CountryCode,
		CountryName:    location.CountryName,
		City:           location.City,
		Region:         location.Region,
		Timezone:       location.Timezone,
	}

	if err := models.InsertClickEvent(t.db, event); err != nil {
		log.Error().Err(err).Str("key", j.effectiveKey).Msg("click event persist failed")
		return
	}
	metrics.ClicksRecorded.Inc()

	log.Debug().
		Str("key", j.effectiveKey).
		Str("device", event.DeviceType).
		Str("browser", event.BrowserName).
		Str("country", event.CountryCode).
		Msg("click tracked")
}
