// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package distill

import (
	"log/slog"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/ai/openai"
	"github.com/poiesic/distill/insight"
	"github.com/poiesic/distill/knowledge"
	"github.com/poiesic/distill/pipeline"
	"github.com/poiesic/distill/queue"
	"github.com/poiesic/distill/storage"
	"github.com/poiesic/distill/storage/badger"
)

// Database bundles the storage backend, the entity repositories, the job
// store and the AI provider behind one lifecycle. It is the composition root
// the CLI builds services from.
type Database struct {
	backend  *badger.Backend
	repos    *badger.Repositories
	jobs     *queue.Store
	provider ai.Provider
	config   *ai.Config
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing config-based
// construction. Used by tests to run against ai/mock.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// NewDatabase opens the badger store at filePath and wires up repositories,
// the job store and the AI provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	jobs, err := queue.NewStore(backend)
	if err != nil {
		repos.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		repos:    repos,
		jobs:     jobs,
		provider: provider,
		config:   options.aiConfig,
		logger:   slog.Default(),
	}, nil
}

// Close releases the AI provider, the repositories and the backend.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing repositories", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Documents returns the document repository.
func (db *Database) Documents() storage.DocumentRepository {
	return db.repos.Documents
}

// Segments returns the segment repository.
func (db *Database) Segments() storage.SegmentRepository {
	return db.repos.Segments
}

// KnowledgePoints returns the knowledge point repository.
func (db *Database) KnowledgePoints() storage.KnowledgePointRepository {
	return db.repos.Knowledge
}

// Insights returns the insight repository.
func (db *Database) Insights() storage.InsightRepository {
	return db.repos.Insights
}

// Jobs returns the durable job store.
func (db *Database) Jobs() *queue.Store {
	return db.jobs
}

// Provider returns the AI provider.
func (db *Database) Provider() ai.Provider {
	return db.provider
}

// NewKnowledgeService builds the knowledge extraction service on this
// database's repositories and provider. The configured model context window
// sets the truncation budget; explicit options override it.
func (db *Database) NewKnowledgeService(opts ...knowledge.Option) (*knowledge.Service, error) {
	return knowledge.NewService(
		db.provider.KnowledgeExtractor(),
		db.repos.Segments,
		db.repos.Knowledge,
		append([]knowledge.Option{knowledge.WithContextWindow(db.config.ContextWindow)}, opts...)...,
	)
}

// NewInsightService builds the insight generation service on this database's
// repositories and provider. The configured model context window sets the
// truncation budget; explicit options override it.
func (db *Database) NewInsightService(opts ...insight.ServiceOption) (*insight.Service, error) {
	return insight.NewService(
		db.provider.InsightGenerator(),
		db.repos.Knowledge,
		db.repos.Insights,
		db.repos.Segments,
		append([]insight.ServiceOption{insight.WithContextWindow(db.config.ContextWindow)}, opts...)...,
	)
}

// NewOrchestrator builds the ingestion stage orchestrator. The transcript
// fluency formatter is wired in by default; a transcript acquirer for video
// ingestion comes in through pipeline.WithAcquirer.
func (db *Database) NewOrchestrator(opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	knowledgeService, err := db.NewKnowledgeService()
	if err != nil {
		return nil, err
	}

	defaults := []pipeline.Option{
		pipeline.WithFormatter(db.provider.TranscriptFormatter()),
	}
	return pipeline.NewOrchestrator(
		db.repos.Documents,
		db.repos.Segments,
		knowledgeService,
		db.jobs,
		append(defaults, opts...)...,
	)
}
