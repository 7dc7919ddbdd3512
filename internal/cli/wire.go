package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/onestep/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/onestep/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/onestep/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/onestep/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/config"
	"github.com/PabloGalante/onestep/internal/domain"
	"github.com/PabloGalante/onestep/internal/observability"
)

var errNoDirectModel = errors.New("step generation needs a direct model backend (mock, vertex or openai)")

// buildLLMClient returns the model client for cfg, or nil for the remote backend.
func buildLLMClient(ctx context.Context, cfg *config.Config) (domain.LLMClient, error) {
	log := observability.Logger()

	switch cfg.LLM.Backend {
	case "vertex":
		log.Info("using Vertex LLM client", "project", cfg.LLM.GCPProjectID, "model", cfg.LLM.ModelName)
		return llm.NewVertexClient(ctx, cfg.LLM.GCPProjectID, cfg.LLM.GCPLocation, cfg.LLM.ModelName)
	case "openai":
		log.Info("using OpenAI LLM client", "model", cfg.LLM.OpenAIModel)
		return llm.NewOpenAIClient(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel, cfg.LLM.OpenAIURL)
	case "remote":
		return nil, nil
	default:
		log.Info("using mock LLM client")
		return llm.NewMockLLM(), nil
	}
}

// buildGenerator returns the response generator and, when there is one, the
// model client behind it.
func buildGenerator(ctx context.Context, cfg *config.Config) (domain.ResponseGenerator, domain.LLMClient, error) {
	if cfg.LLM.Backend == "remote" {
		observability.Logger().Info("using remote generator", "url", cfg.LLM.RemoteURL)
		return llm.NewRemoteGenerator(cfg.LLM.RemoteURL, nil), nil, nil
	}

	client, err := buildLLMClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing LLM client: %w", err)
	}
	return llm.NewGenerator(client), client, nil
}

type stores struct {
	journal domain.JournalStore
	usage   domain.UsageStore
	close   func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	log := observability.WithFields("component", "storage")

	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlitestore.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		log.Info("using sqlite storage", "path", s.Path())
		return &stores{journal: s, usage: s, close: s.Close}, nil

	case "firestore":
		s, err := firestorestore.NewStore(ctx, cfg.Storage.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore store: %w", err)
		}
		log.Info("using firestore storage", "project", cfg.Storage.GCPProjectID)
		// 1 store, implements 2 interfaces
		return &stores{journal: s, usage: s, close: s.Close}, nil

	default:
		log.Info("using in-memory storage")
		return &stores{
			journal: memstore.NewJournalStore(),
			usage:   memstore.NewUsageStore(),
			close:   func() error { return nil },
		}, nil
	}
}

func (s *stores) journalService() *journal.Service {
	return journal.NewService(s.journal, s.usage)
}

func sessionOptions(cfg *config.Config) session.Options {
	return session.Options{
		CheckinDelay:      cfg.Session.CheckinDelay,
		CheckinDeferral:   cfg.Session.CheckinDeferral,
		CelebrateDecay:    cfg.Session.CelebrateDecay,
		CompletionDecay:   cfg.Session.CompletionDecay,
		RecentWindow:      cfg.Session.RecentWindow,
		GenerationTimeout: cfg.Session.GenerationTimeout,
		RoadblockRouting:  cfg.Session.RoadblockRouting,
	}
}
