// Package app implements the pipeline orchestrator.
package app

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/docmill/internal/adapters/ark"
	"go.trai.ch/docmill/internal/adapters/cache"
	"go.trai.ch/docmill/internal/adapters/extract"
	"go.trai.ch/docmill/internal/adapters/fs"
	"go.trai.ch/docmill/internal/adapters/ocr"
	"go.trai.ch/docmill/internal/adapters/snapshot"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/docmill/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App sequences the pipeline: snapshot compare, conditional extraction,
// merge, cache-gated generation, output persistence. It is the only
// component that writes the cache and snapshot documents.
type App struct {
	loader    ports.ConfigLoader
	renderer  ports.DocumentRenderer
	logger    ports.Logger
	telemetry ports.Telemetry

	newOCR        func(cfg domain.OCRConfig, creds domain.Credentials, logger ports.Logger) (ports.OCRService, error)
	newCompletion func(creds domain.Credentials, logger ports.Logger) (ports.CompletionService, error)
	newExtractor  func(svc ports.OCRService, pool *scheduler.Pool, logger ports.Logger) ports.PageExtractor
}

// Option overrides one of the app's collaborator factories.
type Option func(*App)

// WithOCRFactory replaces the OCR client factory.
func WithOCRFactory(fn func(domain.OCRConfig, domain.Credentials, ports.Logger) (ports.OCRService, error)) Option {
	return func(a *App) { a.newOCR = fn }
}

// WithCompletionFactory replaces the completion client factory.
func WithCompletionFactory(fn func(domain.Credentials, ports.Logger) (ports.CompletionService, error)) Option {
	return func(a *App) { a.newCompletion = fn }
}

// WithExtractorFactory replaces the page extractor factory.
func WithExtractorFactory(fn func(ports.OCRService, *scheduler.Pool, ports.Logger) ports.PageExtractor) Option {
	return func(a *App) { a.newExtractor = fn }
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, renderer ports.DocumentRenderer, logger ports.Logger, telemetry ports.Telemetry, opts ...Option) *App {
	a := &App{
		loader:    loader,
		renderer:  renderer,
		logger:    logger,
		telemetry: telemetry,
		newOCR: func(cfg domain.OCRConfig, creds domain.Credentials, logger ports.Logger) (ports.OCRService, error) {
			client, err := ocr.NewClient(cfg, creds, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		newCompletion: func(creds domain.Credentials, logger ports.Logger) (ports.CompletionService, error) {
			client, err := ark.NewClient(creds, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		newExtractor: func(svc ports.OCRService, pool *scheduler.Pool, logger ports.Logger) ports.PageExtractor {
			return extract.New(svc, pool, logger)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetConfigFile points the loader at a different configuration file when
// the loader supports it.
func (a *App) SetConfigFile(name string) {
	if setter, ok := a.loader.(interface{ SetFilename(string) }); ok {
		setter.SetFilename(name)
	}
}

// Run executes one pipeline pass rooted at cwd.
func (a *App) Run(ctx context.Context, cwd string) error {
	cfg, err := a.loader.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	resolvePaths(cfg, cwd)

	snapStore := snapshot.NewStore(cfg.Workspace.SnapshotFile, a.logger)

	bucketFiles, err := a.listBuckets(cfg)
	if err != nil {
		return err
	}
	current := domain.NewSnapshot(bucketFiles, cfg.PromptValues())
	previous := snapStore.Load()

	if snapshot.Changed(current, previous) || !exists(cfg.Workspace.MergedFile) {
		a.logger.Info("input set changed, extracting",
			"fingerprint", snapshot.Fingerprint(current))
		if err := a.extractAll(ctx, cfg, bucketFiles); err != nil {
			return err
		}
		// The snapshot replaces its predecessor only once the stage it
		// triggered has fully completed.
		if err := snapStore.Save(current); err != nil {
			return err
		}
	} else {
		a.logger.Info("input set unchanged, skipping extraction",
			"fingerprint", snapshot.Fingerprint(current))
	}

	return a.generateAll(ctx, cfg)
}

// Clean resets the result cache and removes the persisted snapshot.
func (a *App) Clean(cwd string) error {
	cfg, err := a.loader.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	resolvePaths(cfg, cwd)

	if err := cache.NewStore(cfg.Workspace.CacheFile, a.logger).Reset(); err != nil {
		return err
	}
	if err := os.Remove(cfg.Workspace.SnapshotFile); err != nil && !os.IsNotExist(err) {
		return zerr.Wrap(err, "failed to remove snapshot")
	}
	a.logger.Info("cache and snapshot reset")
	return nil
}

// listBuckets lists every configured bucket's source files by name.
func (a *App) listBuckets(cfg *domain.Config) (map[string][]string, error) {
	buckets := make(map[string][]string, len(cfg.Buckets))
	for name, bucket := range cfg.Buckets {
		files, err := fs.ListSources(bucket.Dir, bucket.Extensions)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			a.logger.Warn("bucket has no source files", "bucket", name, "dir", bucket.Dir)
		}
		buckets[name] = files
	}
	return buckets, nil
}

// extractAll re-extracts every source document and rewrites the merged
// file. An unreadable document contributes an empty section instead of
// failing its siblings.
func (a *App) extractAll(ctx context.Context, cfg *domain.Config, bucketFiles map[string][]string) error {
	_, vtx := a.telemetry.Record(ctx, "extract")

	ocrPool := scheduler.NewPool(scheduler.Options{
		Workers:    cfg.OCR.Workers,
		MaxRetries: uint64(max(cfg.Scheduler.MaxRetries, 0)),
		BaseDelay:  cfg.Scheduler.BaseDelay,
	}, a.logger, a.telemetry)

	svc, err := a.newOCR(cfg.OCR, cfg.Credentials, a.logger)
	if err != nil {
		// A missing credential skips OCR, not the whole stage.
		a.logger.Warn("OCR unavailable, scanned sources will be empty", "error", err)
		svc = nil
	}
	extractor := a.newExtractor(svc, ocrPool, a.logger)

	type source struct {
		name   string
		path   string
		bucket string
	}
	var sources []source
	for bucket, files := range bucketFiles {
		for _, file := range files {
			sources = append(sources, source{name: file, path: filepath.Join(cfg.Buckets[bucket].Dir, file), bucket: bucket})
		}
	}
	// Merged sections are ordered by source name so the document is
	// deterministic across runs and buckets.
	slices.SortFunc(sources, func(x, y source) int {
		return strings.Compare(strings.ToLower(x.name), strings.ToLower(y.name))
	})

	used := make(map[string]bool, len(sources))
	sections := make([]fs.Section, 0, len(sources))
	for _, src := range sources {
		extraction, err := extractor.Extract(ctx, src.path)
		if err != nil {
			a.logger.Warn("extraction failed, treating as empty",
				"source", src.name, "bucket", src.bucket, "error", err)
			extraction = domain.Extraction{}
		}

		textDir := fs.ResolveTextDir(cfg.Workspace.TextDir, src.name, used)
		if err := fs.WritePages(textDir, extraction.Pages, extraction.Language); err != nil {
			vtx.Complete(err)
			return err
		}
		text := strings.Join(fs.ReadPages(textDir), "\n")
		if text == "" {
			a.logger.Warn("no text extracted, omitting from merged document",
				"source", src.name, "bucket", src.bucket)
			continue
		}
		sections = append(sections, fs.Section{Title: src.name, Text: text})
		a.logger.Info("extracted source",
			"source", src.name, "pages", len(extraction.Pages), "language", extraction.Language)
	}

	err = fs.WriteMerged(cfg.Workspace.MergedFile, sections)
	vtx.Complete(err)
	return err
}

// artifact is one pending generation: its cache identity, the payload the
// identity hashes, and the outputs the cache entry declares.
type artifact struct {
	name    string
	format  domain.DocFormat
	key     string
	payload []byte
	rawPath string
	docPath string
}

func (art artifact) outputs() []string {
	return []string{art.rawPath, art.docPath}
}

// generateAll gates each configured artifact through the result cache and
// runs the still-needed completion calls as one work unit each.
func (a *App) generateAll(ctx context.Context, cfg *domain.Config) error {
	merged, err := os.ReadFile(cfg.Workspace.MergedFile)
	if err != nil {
		return zerr.Wrap(err, "failed to read merged document")
	}
	if len(strings.TrimSpace(string(merged))) == 0 {
		// Empty source text means nothing to generate; it is never a
		// cacheable result.
		a.logger.Warn("merged document is empty, skipping generation")
		return nil
	}
	if len(cfg.Artifacts) == 0 {
		a.logger.Info("no artifacts configured")
		return nil
	}

	store := cache.NewStore(cfg.Workspace.CacheFile, a.logger)
	modelSig := cache.ModelSignature(cfg.Model)

	svc, err := a.newCompletion(cfg.Credentials, a.logger)
	if err != nil {
		a.logger.Warn("completion service unavailable, skipping generation", "error", err)
		return nil
	}

	var pending []artifact
	cached := 0
	for _, name := range slices.Sorted(maps.Keys(cfg.Artifacts)) {
		art := a.planArtifact(cfg, name, merged, modelSig)
		if store.ShouldSkip(art.key, art.payload, art.outputs()) {
			_, vtx := a.telemetry.Record(ctx, "generate:"+name)
			vtx.Cached()
			a.logger.Info("artifact up to date", "artifact", name)
			cached++
			continue
		}
		pending = append(pending, art)
	}

	if len(pending) == 0 {
		a.logger.Info("all artifacts up to date", "cached", cached)
		return nil
	}

	pool := scheduler.NewPool(scheduler.Options{
		Workers:    cfg.Scheduler.Workers,
		MaxRetries: uint64(max(cfg.Scheduler.MaxRetries, 0)),
		BaseDelay:  cfg.Scheduler.BaseDelay,
	}, a.logger, a.telemetry)

	units := make([]domain.Unit, len(pending))
	for i, art := range pending {
		prompt := cfg.Artifacts[art.name].Prompt
		units[i] = domain.Unit{
			ID: "generate:" + art.name,
			Produce: func(ctx context.Context) (string, error) {
				return svc.Complete(ctx, []domain.Message{
					{Role: "user", Content: prompt + "\n\n" + string(merged)},
				}, cfg.Model)
			},
		}
	}

	start := time.Now()
	results := pool.RunAll(ctx, units)

	completed, failed := 0, 0
	for i, result := range results {
		art := pending[i]
		if result.Err != nil {
			a.logger.Error(result.Err, "artifact", art.name, "attempts", result.Attempts)
			failed++
			continue
		}
		if err := a.persistArtifact(store, art, result.Value); err != nil {
			a.logger.Error(err, "artifact", art.name)
			failed++
			continue
		}
		completed++
	}

	a.logger.Info("generation finished",
		"completed", completed,
		"failed", failed,
		"cached", cached,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (a *App) planArtifact(cfg *domain.Config, name string, merged []byte, modelSig string) artifact {
	art := cfg.Artifacts[name]
	payload := []byte(art.Prompt + "\n\n" + string(merged))
	ext := ".md"
	if art.Format == domain.FormatText {
		ext = ".doc.txt"
	}
	return artifact{
		name:    name,
		format:  art.Format,
		key:     cache.Key(payload, modelSig),
		payload: payload,
		rawPath: filepath.Join(cfg.Workspace.OutputDir, name+".txt"),
		docPath: filepath.Join(cfg.Workspace.OutputDir, name+ext),
	}
}

// persistArtifact writes both outputs, then records the cache entry. The
// entry exists only when every declared output landed on disk.
func (a *App) persistArtifact(store *cache.Store, art artifact, text string) error {
	if a.renderer == nil {
		return domain.ErrRendererUnavailable
	}
	doc, err := a.renderer.Render(text, art.format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(art.rawPath), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(art.rawPath, []byte(text), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write artifact text"), "path", art.rawPath)
	}
	if err := os.WriteFile(art.docPath, doc, 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write artifact document"), "path", art.docPath)
	}
	return store.Record(art.key, art.payload)
}

func resolvePaths(cfg *domain.Config, cwd string) {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cwd, p)
	}
	cfg.Workspace.TextDir = join(cfg.Workspace.TextDir)
	cfg.Workspace.OutputDir = join(cfg.Workspace.OutputDir)
	cfg.Workspace.MergedFile = join(cfg.Workspace.MergedFile)
	cfg.Workspace.CacheFile = join(cfg.Workspace.CacheFile)
	cfg.Workspace.SnapshotFile = join(cfg.Workspace.SnapshotFile)
	for name, bucket := range cfg.Buckets {
		bucket.Dir = join(bucket.Dir)
		cfg.Buckets[name] = bucket
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
