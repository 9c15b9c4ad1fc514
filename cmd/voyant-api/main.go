package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/voyantlabs/voyant-agent/internal/adapters/http"
	"github.com/voyantlabs/voyant-agent/internal/adapters/llm"
	"github.com/voyantlabs/voyant-agent/internal/adapters/search"
	filestore "github.com/voyantlabs/voyant-agent/internal/adapters/storage/file"
	memstore "github.com/voyantlabs/voyant-agent/internal/adapters/storage/memory"
	"github.com/voyantlabs/voyant-agent/internal/app/flow"
	"github.com/voyantlabs/voyant-agent/internal/app/session"
	"github.com/voyantlabs/voyant-agent/internal/config"
	"github.com/voyantlabs/voyant-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM backend by ENV (mock is useful for dev)
	var (
		llmClient domain.LLMClient
		err       error
	)
	switch cfg.LLMBackend {
	case config.BackendGemini:
		log.Println("[LLM] Using Gemini client")
		llmClient, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	case config.BackendGroq:
		log.Println("[LLM] Using Groq client")
		llmClient, err = llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
		if err != nil {
			log.Fatalf("error initializing Groq client: %v", err)
		}
	default:
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockLLM()
	}

	// Search backend
	var searchClient domain.SearchClient
	if cfg.UseMockSearch {
		log.Println("[SEARCH] Using MOCK search client")
		searchClient = search.NewMockSearch()
	} else {
		log.Println("[SEARCH] Using Serper search client")
		searchClient = search.NewSerperClient(cfg.SerperAPIKey)
	}

	// Stage graph
	engine, err := flow.NewTravelGraph(llmClient, searchClient, flow.Config{
		MaxClarificationRounds: cfg.MaxClarificationRounds,
		MaxPlanRevisions:       cfg.MaxPlanRevisions,
		Workers:                cfg.ResearchWorkers,
		Retries:                cfg.LLMRetries,
	})
	if err != nil {
		log.Fatalf("invalid stage graph: %v", err)
	}

	// Session controller
	ctrl := session.NewController(
		memstore.NewSessionStore(),
		engine,
		filestore.NewTripArchive(cfg.TripsDir),
		session.Options{QueueWhileBusy: cfg.QueueWhileBusy},
	)

	// HTTP server
	handler := httpadapter.NewServer(ctrl)

	addr := ":" + cfg.Port
	log.Println("Voyant API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
