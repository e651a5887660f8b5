// Package ingest runs the resume pipeline: validate, extract, classify,
// field-extract, persist, then chunk and index into the vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/talentvec/talentvec/pkg/classify"
	"github.com/talentvec/talentvec/pkg/config"
	"github.com/talentvec/talentvec/pkg/embedder"
	"github.com/talentvec/talentvec/pkg/extract"
	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/store"
	"github.com/talentvec/talentvec/pkg/vector"
)

// allowedExtensions is the ingestion allow-list.
var allowedExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true, ".txt": true,
	".jpg": true, ".jpeg": true, ".png": true, ".html": true, ".htm": true,
}

// AllowedExtension reports whether a filename passes the type check.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Options tune one ingestion run.
type Options struct {
	// Modules is the module-selection expression; empty runs all nine.
	Modules string
	// ForceOCR makes extraction skip text-layer shortcuts. Set by the
	// retry path.
	ForceOCR bool
}

// Outcome reports what happened to one file.
type Outcome struct {
	ResumeID int64
	Status   string
	Reused   bool
}

// Orchestrator owns the ingestion pipeline.
type Orchestrator struct {
	cfg        config.IngestConfig
	store      *store.Store
	extractor  *extract.Extractor
	classifier *classify.Classifier
	deps       *fields.Deps
	embed      *embedder.Embedder
	vec        *vector.Client
	chunker    *Chunker
	log        *slog.Logger
}

func NewOrchestrator(cfg config.IngestConfig, st *store.Store, extractor *extract.Extractor,
	classifier *classify.Classifier, deps *fields.Deps, embed *embedder.Embedder,
	vec *vector.Client) (*Orchestrator, error) {

	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		extractor:  extractor,
		classifier: classifier,
		deps:       deps,
		embed:      embed,
		vec:        vec,
		chunker:    chunker,
		log:        logger.GetLogger(),
	}, nil
}

// Ingest runs the full pipeline for one file. Validation failures produce a
// terminal record and a nil error; the Outcome carries the status.
func (o *Orchestrator) Ingest(ctx context.Context, data []byte, filename string, opts Options) (*Outcome, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("filename is required")
	}

	if reason := o.validate(data, filename); reason != "" {
		id, reused, err := o.upsertRecord(ctx, filename, store.FailedStatus(reason))
		if err != nil {
			return nil, err
		}
		o.log.Warn("Rejected file", "filename", filename, "reason", reason)
		return &Outcome{ResumeID: id, Status: store.FailedStatus(reason), Reused: reused}, nil
	}

	id, reused, err := o.upsertRecord(ctx, filename, store.StatusProcessing)
	if err != nil {
		return nil, err
	}

	status := o.process(ctx, id, data, filename, opts)
	return &Outcome{ResumeID: id, Status: status, Reused: reused}, nil
}

// validate returns a failure reason, or "" when the file is acceptable.
func (o *Orchestrator) validate(data []byte, filename string) string {
	if !AllowedExtension(filename) {
		return store.ReasonInvalidFileType
	}
	if len(data) == 0 {
		return store.ReasonEmptyFile
	}
	if max := o.cfg.MaxFileSizeMB * 1024 * 1024; max > 0 && len(data) > max {
		return store.ReasonFileTooLarge
	}
	return ""
}

// upsertRecord reuses an existing record for the filename or creates one,
// and moves it to the given status. Reingestion is idempotent on filename.
func (o *Orchestrator) upsertRecord(ctx context.Context, filename, status string) (int64, bool, error) {
	existing, err := o.store.GetResumeByFilename(ctx, filename)
	if err == nil {
		if err := o.store.SetStatus(ctx, existing.ID, status); err != nil {
			return 0, false, err
		}
		return existing.ID, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, false, err
	}

	id, err := o.store.CreateResume(ctx, filename, status)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// process runs extraction through indexing for an existing record and
// returns the final status. Panics and database errors become terminal
// failure statuses.
func (o *Orchestrator) process(ctx context.Context, id int64, data []byte, filename string, opts Options) (status string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Ingestion panicked", "resume_id", id, "panic", r)
			status = o.fail(ctx, id, store.ReasonUnknownError)
		}
	}()

	text, err := o.extractor.Extract(ctx, data, filename, extract.Options{ForceOCR: opts.ForceOCR})
	if err != nil {
		reason := store.ReasonExtractionError
		var exErr *extract.Error
		if errors.As(err, &exErr) && exErr.Reason == "insufficient_text" {
			reason = store.ReasonInsufficientText
		}
		o.log.Warn("Extraction failed", "resume_id", id, "filename", filename, "error", err)
		return o.fail(ctx, id, reason)
	}

	if max := o.cfg.MaxResumeTextLength; max > 0 && len(text) > max {
		text = text[:max]
	}
	if err := o.store.UpdateField(ctx, id, "resume_text", text); err != nil {
		o.log.Error("Failed to persist resume text", "resume_id", id, "error", err)
		return o.fail(ctx, id, store.ReasonDatabaseError)
	}

	o.classify(ctx, id, text)
	o.runModules(ctx, id, text, filename, opts.Modules)

	if err := o.store.SetStatus(ctx, id, store.StatusCompleted); err != nil {
		o.log.Error("Failed to set completed status", "resume_id", id, "error", err)
		return o.fail(ctx, id, store.ReasonDatabaseError)
	}

	o.indexVectors(ctx, id)
	return store.StatusCompleted
}

func (o *Orchestrator) fail(ctx context.Context, id int64, reason string) string {
	status := store.FailedStatus(reason)
	if err := o.store.SetStatus(ctx, id, status); err != nil {
		o.log.Error("Failed to record failure status", "resume_id", id, "error", err)
	}
	return status
}

// classify writes mastercategory and category. Either call failing leaves
// its field null and the pipeline moving.
func (o *Orchestrator) classify(ctx context.Context, id int64, text string) {
	master, err := o.classifier.MasterCategory(ctx, text)
	if err != nil {
		o.log.Warn("Mastercategory classification failed", "resume_id", id, "error", err)
		return
	}
	if err := o.store.UpdateField(ctx, id, "mastercategory", master); err != nil {
		o.log.Warn("Failed to persist mastercategory", "resume_id", id, "error", err)
		return
	}

	category, err := o.classifier.Category(ctx, text, master)
	if err != nil {
		o.log.Warn("Category classification failed", "resume_id", id, "error", err)
		return
	}
	if err := o.store.UpdateField(ctx, id, "category", category); err != nil {
		o.log.Warn("Failed to persist category", "resume_id", id, "error", err)
	}
}

// runModules executes the selected extractors strictly in order, each in
// its own failure boundary.
func (o *Orchestrator) runModules(ctx context.Context, id int64, text, filename, expr string) {
	in := fields.Input{Text: text, ResumeID: id, Filename: filename}
	for _, module := range SelectModules(expr) {
		value, err := o.runModule(ctx, module, in)
		if err != nil {
			o.log.Warn("Field extractor failed", "resume_id", id, "module", module.Name, "error", err)
			continue
		}
		if err := o.store.UpdateField(ctx, id, module.Column, value); err != nil {
			o.log.Warn("Failed to persist field", "resume_id", id, "column", module.Column, "error", err)
		}
	}
}

func (o *Orchestrator) runModule(ctx context.Context, module fields.Extractor, in fields.Input) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor %s panicked: %v", module.Name, r)
		}
	}()
	return module.Run(ctx, o.deps, in)
}

// indexVectors chunks, embeds, and upserts a completed resume. Failures
// are logged and leave pinecone_status at 0; the resume stays searchable
// by name.
func (o *Orchestrator) indexVectors(ctx context.Context, id int64) {
	resume, err := o.store.GetResume(ctx, id)
	if err != nil {
		o.log.Warn("Failed to reload resume for indexing", "resume_id", id, "error", err)
		return
	}
	if resume.ResumeText == "" {
		return
	}

	category := resume.Category
	if category == "" && resume.MasterCategory != "" {
		// A resume can complete with a null category when classification
		// partially failed; take one more shot before routing.
		if c, err := o.classifier.Category(ctx, resume.ResumeText, resume.MasterCategory); err == nil {
			category = c
		}
	}

	chunks := o.chunker.Chunk(resume.ResumeText)
	if len(chunks) == 0 {
		return
	}
	vectors, err := o.embed.EmbedBatch(ctx, chunks)
	if err != nil {
		o.log.Warn("Failed to embed resume chunks", "resume_id", id, "error", err)
		return
	}

	namespace := vector.Namespace(category)
	years := fields.ParseYears(resume.Experience)
	skills := fields.NormalizeSkillList(fields.SplitSkillSet(resume.SkillSet))

	items := make([]vector.Item, 0, len(chunks))
	for i, values := range vectors {
		metadata := map[string]interface{}{
			"resume_id":      resume.ID,
			"filename":       resume.Filename,
			"chunk":          i,
			"mastercategory": resume.MasterCategory,
			"category":       category,
			"namespace":      namespace,
		}
		if resume.CandidateName != "" {
			metadata["candidate_name"] = resume.CandidateName
		}
		if resume.Designation != "" {
			metadata["designation"] = resume.Designation
		}
		if resume.Location != "" {
			metadata["location"] = strings.ToLower(resume.Location)
		}
		if years >= 0 {
			metadata["experience_years"] = years
		}
		if len(skills) > 0 {
			metadata["skills"] = toInterfaceSlice(skills)
		}
		items = append(items, vector.Item{
			ID:       ChunkID(resume.ID, i),
			Values:   values,
			Metadata: metadata,
		})
	}

	if err := o.vec.Upsert(ctx, resume.MasterCategory, category, items); err != nil {
		o.log.Warn("Vector upsert failed", "resume_id", id, "error", err)
		return
	}
	if err := o.store.SetPineconeStatus(ctx, id, 1); err != nil {
		o.log.Warn("Failed to set pinecone status", "resume_id", id, "error", err)
		return
	}
	o.log.Info("Indexed resume", "resume_id", id, "namespace", namespace, "chunks", len(chunks))
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RetryWithOCR re-runs a failed:insufficient_text resume with OCR forced.
// The file is located by walking searchDirs in order for the stored
// filename.
func (o *Orchestrator) RetryWithOCR(ctx context.Context, resumeID int64, searchDirs []string, modules string) (*Outcome, error) {
	resume, err := o.store.GetResume(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("resume %d: %w", resumeID, err)
	}
	if !store.IsRetryable(resume.Status) {
		return nil, fmt.Errorf("resume %d has status %q, only %s is retryable",
			resumeID, resume.Status, store.FailedStatus(store.ReasonInsufficientText))
	}

	path, err := findFile(searchDirs, resume.Filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	o.log.Info("Retrying with OCR", "resume_id", resumeID, "path", path)
	return o.Ingest(ctx, data, resume.Filename, Options{Modules: modules, ForceOCR: true})
}

// findFile returns the first existing path of filename under the ordered
// search directories.
func findFile(dirs []string, filename string) (string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, filename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("file %s not found in search path %v", filename, dirs)
}
