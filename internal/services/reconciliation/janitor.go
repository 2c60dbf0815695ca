package reconciliation

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically evicts finished tasks from the in-memory registry so
// suggestion sets do not outlive their task beyond the retention window.
type Janitor struct {
	tasks     *TaskManager
	retention time.Duration
	cron      *cron.Cron
	log       zerolog.Logger
}

func NewJanitor(tasks *TaskManager, retention time.Duration) *Janitor {
	return &Janitor{
		tasks:     tasks,
		retention: retention,
		cron:      cron.New(),
		log:       zerolog.Nop(),
	}
}

func (j *Janitor) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("component", "task_janitor").Logger()
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 10m", j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info().Dur("retention", j.retention).Msg("task janitor started")
	return nil
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

func (j *Janitor) sweep() {
	evicted := j.tasks.Expire(time.Now().Add(-j.retention))
	if evicted > 0 {
		j.log.Info().Int("evicted", evicted).Msg("expired finished tasks")
	}
}
