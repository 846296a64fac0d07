package workers

import (
	"context"
	"sync"

	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/realtime"
	"go.uber.org/zap"
)

// ThumbnailJob asks for a thumbnail of a person's profile image.
type ThumbnailJob struct {
	PersonID             uint
	OriginalRelativePath string
	// PreviousThumbnail is removed once the new thumbnail is recorded.
	PreviousThumbnail string
}

// ThumbnailRecorder stores a finished thumbnail. It reports false when the person's
// profile image changed since the job was queued.
type ThumbnailRecorder interface {
	SetThumbnail(ctx context.Context, personID uint, originalPath, thumbnailPath string) (bool, error)
}

// ThumbnailMaker turns a stored original into a stored thumbnail.
type ThumbnailMaker interface {
	ThumbnailFor(originalRelPath string, maxSize int) (string, error)
}

type ThumbnailGenerator struct {
	JobQueue chan ThumbnailJob
	MaxSize  int
	Maker    ThumbnailMaker
	Store    media.Store
	Recorder ThumbnailRecorder
	Events   realtime.Publisher
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex

	stopOnce sync.Once
	log      *zap.Logger
}

func NewThumbnailGenerator(maker ThumbnailMaker, store media.Store, recorder ThumbnailRecorder, events realtime.Publisher, maxSize, queueSize, numWorkers int) *ThumbnailGenerator {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if events == nil {
		events = realtime.Discard{}
	}

	gen := &ThumbnailGenerator{
		JobQueue: make(chan ThumbnailJob, queueSize),
		MaxSize:  maxSize,
		Maker:    maker,
		Store:    store,
		Recorder: recorder,
		Events:   events,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
		log:      logging.Named("workers.thumbnail"),
	}

	gen.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go gen.worker(i)
	}
	gen.log.Info("started thumbnail workers", zap.Int("workers", numWorkers), zap.Int("queue_size", queueSize))

	return gen
}

func (tg *ThumbnailGenerator) worker(id int) {
	defer tg.Wg.Done()
	for {
		select {
		case job := <-tg.JobQueue:
			tg.processJob(job)
			tg.Mutex.Lock()
			delete(tg.Pending, job.OriginalRelativePath)
			tg.Mutex.Unlock()

		case <-tg.StopChan:
			tg.log.Debug("thumbnail worker stopping", zap.Int("worker", id))
			return
		}
	}
}

func (tg *ThumbnailGenerator) processJob(job ThumbnailJob) {
	log := tg.log.With(zap.Uint("person_id", job.PersonID), zap.String("original", job.OriginalRelativePath))

	thumbPath, err := tg.Maker.ThumbnailFor(job.OriginalRelativePath, tg.MaxSize)
	if err != nil {
		log.Error("failed to generate thumbnail", zap.Error(err))
		tg.Events.Broadcast(realtime.Event{
			Type:     realtime.EventPersonThumbnail,
			PersonID: job.PersonID,
			Path:     job.OriginalRelativePath,
			Error:    err.Error(),
		})
		return
	}

	applied, err := tg.Recorder.SetThumbnail(context.Background(), job.PersonID, job.OriginalRelativePath, thumbPath)
	if err != nil || !applied {
		if err != nil {
			log.Error("failed to record thumbnail", zap.Error(err))
		} else {
			log.Info("profile image changed while thumbnailing, discarding result")
		}
		if delErr := tg.Store.Delete(thumbPath); delErr != nil {
			log.Warn("failed to remove unused thumbnail", zap.String("thumbnail", thumbPath), zap.Error(delErr))
		}
		return
	}

	if job.PreviousThumbnail != "" && job.PreviousThumbnail != thumbPath {
		if err := tg.Store.Delete(job.PreviousThumbnail); err != nil {
			log.Warn("failed to remove previous thumbnail", zap.String("thumbnail", job.PreviousThumbnail), zap.Error(err))
		}
	}

	log.Info("generated thumbnail", zap.String("thumbnail", thumbPath))
	tg.Events.Broadcast(realtime.Event{
		Type:     realtime.EventPersonThumbnail,
		PersonID: job.PersonID,
		Path:     thumbPath,
	})
}

// QueueJob enqueues job unless the same original is already pending or the queue is full.
func (tg *ThumbnailGenerator) QueueJob(job ThumbnailJob) bool {
	tg.Mutex.Lock()
	if tg.Pending[job.OriginalRelativePath] {
		tg.Mutex.Unlock()
		tg.log.Debug("thumbnail already pending", zap.String("original", job.OriginalRelativePath))
		return false
	}

	tg.Pending[job.OriginalRelativePath] = true
	tg.Mutex.Unlock()

	select {
	case tg.JobQueue <- job:
		return true
	default:
		tg.log.Warn("thumbnail job queue full", zap.String("original", job.OriginalRelativePath))
		tg.Mutex.Lock()
		delete(tg.Pending, job.OriginalRelativePath)
		tg.Mutex.Unlock()
		return false
	}
}

func (tg *ThumbnailGenerator) Stop() {
	tg.stopOnce.Do(func() {
		close(tg.StopChan)
		tg.Wg.Wait()
		tg.log.Info("all thumbnail workers stopped")
	})
}
