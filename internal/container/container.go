package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/visual-pipeline-go/internal/codec"
	"github.com/anime-shed/visual-pipeline-go/internal/config"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
	"github.com/anime-shed/visual-pipeline-go/internal/logger"
	"github.com/anime-shed/visual-pipeline-go/internal/observer"
	"github.com/anime-shed/visual-pipeline-go/internal/pipeline"
	"github.com/anime-shed/visual-pipeline-go/internal/service"
	"github.com/anime-shed/visual-pipeline-go/internal/storage"
	"github.com/anime-shed/visual-pipeline-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	fetcher         storage.SourceFetcher
	artifactStore   storage.ArtifactStore
	orchestrator    *pipeline.Orchestrator
	analysisService service.AnalysisService
	publisher       *observer.EventPublisher
	metrics         *observer.MetricsObserver
	handler         http.Handler
}

// NewContainer builds the dependency graph from configuration
func NewContainer(cfg *config.Config) (*Container, error) {
	artifactStore, err := newArtifactStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build artifact store: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	fetcher := storage.NewHTTPSourceFetcher(cfg.MaxRequestBodySize)
	orchestrator := pipeline.New(
		imaging.NewNormalizer(cfg.MaxRawSide),
		codec.NewEncoder(cfg.ArtifactBudget),
	)

	defaults := pipeline.DefaultOptions()
	defaults.BinarizeThreshold = cfg.BinarizeThreshold
	defaults.MaxSide = cfg.MaxWorkingSide
	defaults.ClusterTarget = cfg.ClusterTarget

	analysisService := service.NewAnalysisService(fetcher, artifactStore, orchestrator, publisher, defaults)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	return &Container{
		config:          cfg,
		fetcher:         fetcher,
		artifactStore:   artifactStore,
		orchestrator:    orchestrator,
		analysisService: analysisService,
		publisher:       publisher,
		metrics:         metrics,
		handler:         handler,
	}, nil
}

func newArtifactStore(cfg *config.Config) (storage.ArtifactStore, error) {
	if cfg.UseAzureArtifacts() {
		return storage.NewAzureArtifactStore(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer)
	}
	return storage.NewLocalArtifactStore(cfg.ArtifactDir), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.AnalysisService {
	return c.analysisService
}
