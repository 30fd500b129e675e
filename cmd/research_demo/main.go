// README: CLI demo; runs one research pipeline call against a local provider and prints the JSON outcome.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"dulich/internal/ai"
	"dulich/internal/config"
	"dulich/internal/modules/research"
)

func main() {
	term := flag.String("term", "Hội An", "location to research")
	mode := flag.String("mode", "search", "search, history or image")
	provider := flag.String("provider", "", "ollama or gemini (defaults to DULICH_TEXT_PROVIDER)")
	imagePath := flag.String("image", "", "image file for -mode=image")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	kind := ai.Kind(cfg.AI.Text)
	if *provider != "" {
		kind = ai.Kind(*provider)
	}

	m := research.Mode(*mode)
	pc := ai.ProviderConfig{
		Kind:        kind,
		Temperature: research.TextTemperature,
		TopP:        research.TextTopP,
		MaxTokens:   research.TextMaxTokens,
		Timeout:     cfg.AI.Timeout,
	}
	model := cfg.AI.OllamaModel
	if m == research.ModeImageAnalysis {
		pc.Temperature, pc.TopP, pc.MaxTokens = research.VisionTemperature, research.VisionTopP, research.VisionMaxTokens
		model = cfg.AI.VisionModel
	}
	if kind == ai.KindGemini {
		pc.Model, pc.APIKey = cfg.AI.GeminiModel, cfg.AI.GeminiKey
	} else {
		pc.BaseURL, pc.Model = cfg.AI.OllamaURL, model
	}

	ctx := context.Background()
	gen, err := ai.NewGenerator(ctx, pc)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	if c, ok := gen.(interface{ Close() }); ok {
		defer c.Close()
	}

	req := research.Request{Mode: m, SearchTerm: *term}
	if m == research.ModeImageAnalysis {
		if *imagePath == "" {
			log.Fatal("-image is required for -mode=image")
		}
		raw, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatal(err)
		}
		req.Image, err = ai.NewMedia(base64.StdEncoding.EncodeToString(raw))
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Provider: %s\n", gen.Name())
	out, err := research.NewPipeline(gen, cfg.AI.Timeout).Produce(ctx, req)
	if err != nil {
		log.Fatalf("Error producing record: %v", err)
	}

	fmt.Printf("Fallback: %v", out.Fallback)
	if out.Fallback {
		fmt.Printf(" (%s)", out.Reason)
	}
	fmt.Printf("\nElapsed: %s\n", out.Elapsed.Round(time.Millisecond))
	if m == research.ModeHistoryOnly && !out.Fallback {
		fmt.Println(out.History)
		return
	}
	b, _ := json.MarshalIndent(out.Record, "", "  ")
	fmt.Println(string(b))
}
