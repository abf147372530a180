package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/thesis-checker/internal/async"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
	"github.com/joseph-ayodele/thesis-checker/internal/llm/eino"
	"github.com/joseph-ayodele/thesis-checker/internal/llm/openai"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
	"github.com/joseph-ayodele/thesis-checker/internal/report"
	"github.com/joseph-ayodele/thesis-checker/internal/repository"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
	"github.com/joseph-ayodele/thesis-checker/internal/server"
	"github.com/joseph-ayodele/thesis-checker/internal/services/validation"
	"github.com/joseph-ayodele/thesis-checker/internal/storage"
)

// app holds the wired service graph for the serve command.
type app struct {
	jobs    repository.JobRepository
	pinger  server.Pinger
	queue   *async.ProcessorQueue
	http    *server.HTTPServer
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func loadCatalog(path string, logger *slog.Logger) (*rules.Catalog, error) {
	if path == "" {
		return rules.Default(), nil
	}
	c, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Info("rules.loaded", "path", path, "rules", len(c.Rules()))
	return c, nil
}

func buildCompleter(ctx context.Context, cfg common.LLMConfig, o *options, logger *slog.Logger) (llm.Completer, error) {
	if o != nil && o.completer != nil {
		return o.completer, nil
	}
	if cfg.APIKey == "" {
		logger.Warn("llm.config.no_api_key", "backend", cfg.Backend)
	}
	switch cfg.Backend {
	case common.BackendEino:
		return eino.NewClient(ctx, eino.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	default:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	}
}

func buildEngine(ctx context.Context, cfg *common.Config, catalog *rules.Catalog, o *options, logger *slog.Logger) (*llm.Engine, error) {
	completer, err := buildCompleter(ctx, cfg.LLM, o, logger)
	if err != nil {
		return nil, err
	}
	return llm.NewEngine(completer, catalog, llm.EngineConfig{
		Model:     cfg.LLM.Model,
		Mode:      cfg.LLM.Mode,
		MaxTokens: cfg.LLM.MaxOutputTokens,
	}, logger), nil
}

func buildRenderer(cfg common.ReportConfig, logger *slog.Logger) report.Renderer {
	return report.Select(report.NewPDFRenderer(cfg.Rich, logger), report.TextRenderer{}, logger)
}

func openJobs(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (repository.JobRepository, server.Pinger, func() error, error) {
	if cfg.JobStore == common.JobStoreSQLite {
		r, err := repository.OpenSQLite(ctx, repository.Config{Path: cfg.JobDBPath}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return r, r, r.Close, nil
	}
	return repository.NewMemoryJobRepository(logger), nil, func() error { return nil }, nil
}

func buildApp(ctx context.Context, cfg *common.Config, o *options, logger *slog.Logger) (*app, error) {
	a := &app{}
	catalog, err := loadCatalog(cfg.Rules.File, logger)
	if err != nil {
		return nil, err
	}

	jobs, pinger, closeJobs, err := openJobs(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.jobs, a.pinger = jobs, pinger
	a.closers = append(a.closers, closeJobs)

	files, err := storage.NewFileStore(cfg.Storage.UploadDir, cfg.Storage.OutputDir, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	engine, err := buildEngine(ctx, cfg, catalog, o, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	proc := pipeline.NewProcessor(logger, jobs, files, engine, buildRenderer(cfg.Report, logger), catalog)
	a.queue = async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.PipelineTimeout),
	)

	svc := validation.NewService(jobs, files, a.queue, catalog, validation.Config{MaxUploadBytes: cfg.Server.MaxUploadBytes}, logger)
	a.http = server.NewHTTPServer(cfg.Server.HTTPAddr, svc, cfg.Server.MaxUploadBytes, logger)
	return a, nil
}
