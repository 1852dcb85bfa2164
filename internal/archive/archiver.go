package archive

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"meeting-tracker/internal/storage"
)

// Archiver uploads exported meeting reports to object storage off the
// request path. Failures are logged, never surfaced to the caller.
type Archiver interface {
	Start(ctx context.Context)
	Enqueue(job Job)
	Shutdown()
}

// Job is one export to archive.
type Job struct {
	MeetingID int64
	Data      []byte
}

type Config struct {
	Bucket        string
	KeyPrefix     string
	MaxConcurrent int
	UploadTimeout time.Duration
	Logger        *logrus.Logger
}

type archiver struct {
	cfg     Config
	storage storage.Service

	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewArchiver(cfg Config, store storage.Service) Archiver {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &archiver{
		cfg:     cfg,
		storage: store,
		jobs:    make(chan Job, 16),
	}
}

func (a *archiver) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	for i := 0; i < a.cfg.MaxConcurrent; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	a.cfg.Logger.Infof("export archiver started, bucket %s", a.cfg.Bucket)
}

// Shutdown stops accepting jobs and drains those already queued.
func (a *archiver) Shutdown() {
	close(a.jobs)
	a.wg.Wait()
	if a.cancel != nil {
		a.cancel()
	}
	a.cfg.Logger.Info("export archiver stopped")
}

func (a *archiver) Enqueue(job Job) {
	select {
	case a.jobs <- job:
	default:
		// queue full; archiving is best effort
		a.cfg.Logger.Warnf("archive queue full, dropping export for meeting %d", job.MeetingID)
	}
}

func (a *archiver) worker() {
	defer a.wg.Done()
	for job := range a.jobs {
		a.upload(job)
	}
}

func (a *archiver) upload(job Job) {
	key := a.objectKey(job.MeetingID)

	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.UploadTimeout)
	defer cancel()

	location, err := a.storage.PutObject(ctx, a.cfg.Bucket, key, job.Data, "application/pdf")
	if err != nil {
		a.cfg.Logger.Warnf("archive export for meeting %d: %v", job.MeetingID, err)
		return
	}
	a.cfg.Logger.Infof("archived export for meeting %d at %s", job.MeetingID, location)
}

func (a *archiver) objectKey(meetingID int64) string {
	prefix := strings.Trim(a.cfg.KeyPrefix, "/")
	name := fmt.Sprintf("meeting_%d_%s.pdf", meetingID, uuid.NewString())
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
