package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const (
	// coolingPeriod spaces out bulk drops so the LLM endpoint is not
	// hammered by a directory copy.
	coolingPeriod = 30 * time.Second

	// settleDelay waits for a newly created file to finish being written.
	settleDelay = 2 * time.Second
)

// Watcher ingests files dropped into a directory.
type Watcher struct {
	orchestrator *Orchestrator
	dir          string
	modules      string

	// runID tags every log line of one watch session so bulk drops can be
	// traced end to end.
	runID string
}

func NewWatcher(orchestrator *Orchestrator, dir, modules string) *Watcher {
	return &Watcher{
		orchestrator: orchestrator,
		dir:          dir,
		modules:      modules,
		runID:        uuid.NewString(),
	}
}

// Run ingests any files already present, then watches for new ones until
// the context is cancelled. Files are processed one at a time with a
// cooling period between them.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.orchestrator.log

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	queue := make(chan string, 256)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	var backlog []string
	for _, entry := range entries {
		if !entry.IsDir() && AllowedExtension(entry.Name()) {
			backlog = append(backlog, filepath.Join(w.dir, entry.Name()))
		}
	}

	// The backlog can exceed the queue capacity; feed it from the side so a
	// full channel never blocks cancellation.
	go func() {
		for _, path := range backlog {
			select {
			case queue <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Watching directory", "dir", w.dir, "run_id", w.runID, "backlog", len(backlog))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) && AllowedExtension(event.Name) {
				select {
				case queue <- event.Name:
				default:
					log.Warn("Watch queue full, dropping file", "path", event.Name)
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", "error", err)

		case path := <-queue:
			w.ingestOne(ctx, path)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(coolingPeriod):
			}
		}
	}
}

func (w *Watcher) ingestOne(ctx context.Context, path string) {
	log := w.orchestrator.log

	// Let the writer finish; fsnotify fires on create, not close.
	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Failed to read dropped file", "path", path, "error", err)
		return
	}

	outcome, err := w.orchestrator.Ingest(ctx, data, filepath.Base(path), Options{Modules: w.modules})
	if err != nil {
		log.Error("Ingestion failed", "path", path, "error", err)
		return
	}
	log.Info("Ingested file", "path", path, "run_id", w.runID,
		"resume_id", outcome.ResumeID, "status", outcome.Status)
}
