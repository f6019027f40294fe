package cleanup

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/annotation"
	"github.com/Shivam-2310/ShortAI/internal/models"
)

// Sweeper marks expired mappings inactive and drops stale annotations on an
// hourly tick. Rows are never deleted from url_mappings.
type Sweeper struct {
	db          *sql.DB
	annotations *annotation.Store
	interval    time.Duration
	stop        chan struct{}
	done        chan struct{}
}

func NewSweeper(db *sql.DB, annotations *annotation.Store) *Sweeper {
	s := &Sweeper{
		db:          db,
		annotations: annotations,
		interval:    time.Hour,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sweeper) Shutdown() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	now := time.Now().UTC()

	marked, err := models.MarkExpired(s.db, now)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
	} else if marked > 0 {
		log.Info().Int64("count", marked).Msg("marked expired mappings inactive")
	}

	dropped, err := s.annotations.Sweep(now)
	if err != nil {
		log.Error().Err(err).Msg("annotation sweep failed")
	} else if dropped > 0 {
		log.Info().Int64("count", dropped).Msg("dropped expired annotations")
	}
}
