package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quantbr/indexa/pkg/logger"
)

// Job is a named batch task with its own cron schedule.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler drives registered jobs on their cron schedules in the
// exchange's timezone.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	jobs   []Job
}

// New creates a scheduler anchored to the given location.
func New(location *time.Location, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		logger: log,
	}
}

// Register adds a job to the schedule.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, job)
	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return ErrJobNotFound
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name())
	}
	return names
}

// Start launches the cron loop. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
}

// Stop halts scheduling and waits for running jobs up to the context
// deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	log := s.logger.WithField("job", job.Name())
	log.Info("Job started")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Job panicked")
		}
	}()

	if err := job.Run(context.Background()); err != nil {
		log.WithError(err).Error("Job failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Info("Job finished")
}
