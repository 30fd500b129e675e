// README: Entry point; loads config, wires providers, pipelines, and optional stores, then serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dulich/internal/ai"
	"dulich/internal/config"
	httptransport "dulich/internal/http"
	"dulich/internal/http/handlers"
	"dulich/internal/infra"
	"dulich/internal/maps"
	"dulich/internal/modules/research"
	"dulich/internal/modules/researchlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func()
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	track := func(g ai.Generator) {
		if c, ok := g.(interface{ Close() }); ok {
			closers = append(closers, c.Close)
		}
	}

	textGen, err := ai.NewGenerator(ctx, textProviderConfig(cfg.AI))
	if err != nil {
		log.Fatalf("text provider %q: %v", cfg.AI.Text, err)
	}
	track(textGen)
	log.Printf("research: text provider %s", textGen.Name())

	vision := map[string]*research.Pipeline{}
	ollamaVision, err := ai.NewGenerator(ctx, visionProviderConfig(cfg.AI, ai.KindOllama))
	if err != nil {
		log.Fatalf("ollama vision provider: %v", err)
	}
	vision["ollama"] = research.NewPipeline(ollamaVision, cfg.AI.Timeout)
	if cfg.AI.GeminiKey != "" {
		geminiVision, err := ai.NewGenerator(ctx, visionProviderConfig(cfg.AI, ai.KindGemini))
		if err != nil {
			log.Fatalf("gemini vision provider: %v", err)
		}
		track(geminiVision)
		vision["gemini"] = research.NewPipeline(geminiVision, cfg.AI.Timeout)
	} else {
		log.Println("research: GEMINI_API_KEY not set, /api/gemini/image-analyze disabled")
	}

	deps := research.ServiceDeps{
		Text:   research.NewPipeline(textGen, cfg.AI.Timeout),
		Vision: vision,
	}

	var recent handlers.RecentLister
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer dbPool.Close()
		logSvc := researchlog.NewService(researchlog.NewStore(dbPool))
		deps.Journal = logSvc
		recent = logSvc
	} else {
		log.Println("research: DULICH_DB_DSN not set, research log disabled")
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
		deps.Cache = research.NewStore(redisClient, cfg.Cache.TTL)
	} else {
		log.Println("research: DULICH_REDIS_ADDR not set, record cache disabled")
	}

	if cfg.Maps.APIKey != "" {
		places, err := maps.NewPlacesService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal(err)
		}
		deps.Nearby = places
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Research:    research.NewService(deps),
		Log:         recent,
		Timeout:     cfg.AI.Timeout + 10*time.Second,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("http: shutdown: %v", err)
		}
	}()

	log.Printf("http: listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func textProviderConfig(c config.ProviderConfig) ai.ProviderConfig {
	pc := ai.ProviderConfig{
		Kind:        ai.Kind(c.Text),
		Temperature: research.TextTemperature,
		TopP:        research.TextTopP,
		MaxTokens:   research.TextMaxTokens,
		Timeout:     c.Timeout,
	}
	switch pc.Kind {
	case ai.KindGemini:
		pc.Model, pc.APIKey = c.GeminiModel, c.GeminiKey
	default:
		pc.BaseURL, pc.Model = c.OllamaURL, c.OllamaModel
	}
	return pc
}

func visionProviderConfig(c config.ProviderConfig, kind ai.Kind) ai.ProviderConfig {
	pc := ai.ProviderConfig{
		Kind:        kind,
		Temperature: research.VisionTemperature,
		TopP:        research.VisionTopP,
		MaxTokens:   research.VisionMaxTokens,
		Timeout:     c.Timeout,
	}
	if kind == ai.KindGemini {
		pc.Model, pc.APIKey = c.GeminiModel, c.GeminiKey
	} else {
		pc.BaseURL, pc.Model = c.OllamaURL, c.VisionModel
	}
	return pc
}
