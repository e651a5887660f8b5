// Command talentvec runs the resume ingestion and search service.
//
// Usage:
//
//	talentvec serve --port 8080
//	talentvec ingest ./resumes --modules all
//	talentvec retry 42 --search-dir ./resumes
//	talentvec init-vectors
//	talentvec watch ./inbox
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/talentvec/talentvec/pkg/classify"
	"github.com/talentvec/talentvec/pkg/config"
	"github.com/talentvec/talentvec/pkg/embedder"
	"github.com/talentvec/talentvec/pkg/extract"
	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/ingest"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/ollama"
	"github.com/talentvec/talentvec/pkg/search"
	"github.com/talentvec/talentvec/pkg/server"
	"github.com/talentvec/talentvec/pkg/store"
	"github.com/talentvec/talentvec/pkg/vector"
)

// CLI defines the command-line interface.
type CLI struct {
	Version     VersionCmd     `cmd:"" help:"Show version information."`
	Serve       ServeCmd       `cmd:"" help:"Start the HTTP API server."`
	Ingest      IngestCmd      `cmd:"" help:"Ingest a resume file or directory."`
	Retry       RetryCmd       `cmd:"" help:"Retry a failed resume with OCR forced."`
	InitVectors InitVectorsCmd `cmd:"" name:"init-vectors" help:"Create indexes and seed namespaces."`
	Watch       WatchCmd       `cmd:"" help:"Watch a directory and ingest new files."`
	Search      SearchCmd      `cmd:"" help:"Run a search from the command line."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("talentvec version %s\n", version)
	return nil
}

// app bundles the wired components shared by the commands.
type app struct {
	cfg          *config.Config
	store        *store.Store
	llm          *ollama.Client
	embed        *embedder.Embedder
	vec          *vector.Client
	classifier   *classify.Classifier
	orchestrator *ingest.Orchestrator
	engine       *search.Engine
}

func buildApp(ctx context.Context) (*app, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	st, err := store.Open(&cfg.MySQL)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	cleanup := func() { st.Close() }

	llm := ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.APIKey, cfg.Ollama.Model)
	embed := embedder.New(llm, cfg.Ollama.EmbedModel, cfg.Embed.Dimension)

	vec, err := vector.New(cfg.Pinecone, cfg.Embed.Dimension)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("vector store: %w", err)
	}

	classifier := classify.New(llm)
	orchestrator, err := ingest.NewOrchestrator(cfg.Ingest, st, extract.New(),
		classifier, &fields.Deps{LLM: llm}, embed, vec)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine := search.NewEngine(st, vec, embed, search.NewParser(llm),
		search.NewDesignationMatcher(llm), cfg.Search)

	return &app{
		cfg:          cfg,
		store:        st,
		llm:          llm,
		embed:        embed,
		vec:          vec,
		classifier:   classifier,
		orchestrator: orchestrator,
		engine:       engine,
	}, cleanup, nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.GetLogger().Info("Shutting down...")
		cancel()
	}()
	return ctx, cancel
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct {
	Port       int      `help:"Port to listen on." default:"8080"`
	SearchDirs []string `name:"search-dir" help:"Directories searched for original files on retry." type:"path"`
}

func (c *ServeCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	app, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.vec.EnsureIndexes(ctx); err != nil {
		return err
	}

	srv := server.New(fmt.Sprintf(":%d", c.Port), app.orchestrator, app.engine,
		app.store, app.llm, app.vec, c.SearchDirs)
	return srv.Start(ctx)
}

// IngestCmd ingests one file or every allowed file in a directory.
type IngestCmd struct {
	Path    string `arg:"" help:"Resume file or directory." type:"path"`
	Modules string `help:"Module selection: all, or comma-separated names/indexes (1-9)." default:"all"`
}

func (c *IngestCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	app, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := os.Stat(c.Path)
	if err != nil {
		return err
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(c.Path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() && ingest.AllowedExtension(entry.Name()) {
				paths = append(paths, filepath.Join(c.Path, entry.Name()))
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no ingestable files in %s", c.Path)
		}
	} else {
		paths = []string{c.Path}
	}

	log := logger.GetLogger()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Failed to read file", "path", path, "error", err)
			continue
		}
		outcome, err := app.orchestrator.Ingest(ctx, data, filepath.Base(path), ingest.Options{Modules: c.Modules})
		if err != nil {
			log.Error("Ingestion failed", "path", path, "error", err)
			continue
		}
		fmt.Printf("%s\tresume_id=%d\tstatus=%s\n", filepath.Base(path), outcome.ResumeID, outcome.Status)
	}
	return nil
}

// RetryCmd retries a failed:insufficient_text resume with OCR forced.
type RetryCmd struct {
	ResumeID   int64    `arg:"" help:"Resume id to retry."`
	SearchDirs []string `name:"search-dir" help:"Directories searched for the original file." type:"path" default:"."`
	Modules    string   `help:"Module selection expression." default:"all"`
}

func (c *RetryCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	app, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := app.orchestrator.RetryWithOCR(ctx, c.ResumeID, c.SearchDirs, c.Modules)
	if err != nil {
		return err
	}
	fmt.Printf("resume_id=%d\tstatus=%s\n", outcome.ResumeID, outcome.Status)
	return nil
}

// InitVectorsCmd creates both indexes and seeds every category namespace.
type InitVectorsCmd struct{}

func (c *InitVectorsCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	vec, err := vector.New(cfg.Pinecone, cfg.Embed.Dimension)
	if err != nil {
		return err
	}
	if err := vec.EnsureIndexes(ctx); err != nil {
		return err
	}
	return vec.SeedNamespaces(ctx)
}

// WatchCmd watches a directory and ingests dropped files.
type WatchCmd struct {
	Dir     string `arg:"" help:"Directory to watch." type:"path"`
	Modules string `help:"Module selection expression." default:"all"`
}

func (c *WatchCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	app, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.vec.EnsureIndexes(ctx); err != nil {
		return err
	}

	err = ingest.NewWatcher(app.orchestrator, c.Dir, c.Modules).Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// SearchCmd runs one query and prints the results.
type SearchCmd struct {
	Query          string `arg:"" help:"Free-text search query."`
	MasterCategory string `help:"Explicit mastercategory (IT or NON_IT)."`
	Category       string `help:"Explicit category label."`
	TopK           int    `name:"top-k" help:"Result count." default:"20"`
}

func (c *SearchCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	app, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := app.engine.Search(ctx, c.Query, c.MasterCategory, c.Category, c.TopK)
	if err != nil {
		return err
	}

	fmt.Printf("type=%s total=%d\n", resp.SearchType, resp.Total)
	for _, r := range resp.Results {
		fmt.Printf("%5d  %-30s  %-30s  %-12s  score=%.3f  %s\n",
			r.ResumeID, truncate(r.CandidateName, 30), truncate(r.Designation, 30),
			r.Experience, r.Score, r.Fit)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("talentvec"),
		kong.Description("Resume ingestion and semantic search service"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(level, output, strings.ToLower(cli.LogFormat))

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
