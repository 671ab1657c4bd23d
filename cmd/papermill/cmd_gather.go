// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papermill-ai/papermill/pkg/logging"
	"github.com/papermill-ai/papermill/pkg/validation"
	"github.com/papermill-ai/papermill/services/gather"
	"github.com/papermill-ai/papermill/services/llm"
	"github.com/papermill-ai/papermill/services/sources"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "papermill",
		Short: "A CLI for the Papermill reference gathering pipeline",
		Long: `Papermill finds and ranks academic references for the sections
of a document draft, querying scholarly metadata providers directly.`,
	}

	gatherCmd = &cobra.Command{
		Use:   "gather [title]",
		Short: "Gather ranked references for one section of a document",
		Long: `Expands the document title and section into search queries, fans out
to the scholarly metadata providers, and prints the ranked references.`,
		Args: cobra.ExactArgs(1),
		Run:  runGatherCommand,
	}

	sectionKey  string
	outlinePath string
	need        int
	topicLock   bool
	modelExpand bool
	modelRerank bool
	language    string
	fromYear    int
	toYear      int
	asJSON      bool
)

func init() {
	gatherCmd.Flags().StringVarP(&sectionKey, "section", "s", "", "section heading to gather for (required)")
	gatherCmd.Flags().StringVar(&outlinePath, "outline", "", "path to a file with the document outline, one entry per line")
	gatherCmd.Flags().IntVarP(&need, "need", "n", 0, "number of references to return")
	gatherCmd.Flags().BoolVar(&topicLock, "topic-lock", false, "constrain results to AI/ML topics")
	gatherCmd.Flags().BoolVar(&modelExpand, "model-expand", false, "use the model backend to widen the query set")
	gatherCmd.Flags().BoolVar(&modelRerank, "model-rerank", false, "use the model backend to rerank results")
	gatherCmd.Flags().StringVar(&language, "language", "", "target language filter, e.g. English")
	gatherCmd.Flags().IntVar(&fromYear, "from-year", 0, "earliest publication year")
	gatherCmd.Flags().IntVar(&toYear, "to-year", 0, "latest publication year")
	gatherCmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	_ = gatherCmd.MarkFlagRequired("section")

	rootCmd.AddCommand(gatherCmd)
}

// buildCLIBackend mirrors the service's backend selection, driven by the
// config file instead of the environment.
func buildCLIBackend() llm.LLMClient {
	switch config.LLMBackend {
	case "openai":
		client, err := llm.NewOpenAIClientFromEnv()
		if err != nil {
			log.Printf("OpenAI backend unavailable, model steps disabled: %v", err)
			return nil
		}
		return client
	case "ollama":
		client, err := llm.NewOllamaClient()
		if err != nil {
			log.Printf("Ollama backend unavailable, model steps disabled: %v", err)
			return nil
		}
		return client
	default:
		return nil
	}
}

func runGatherCommand(cmd *cobra.Command, args []string) {
	title := validation.SanitizeSeed(args[0])
	if err := validation.ValidateSectionKey(sectionKey); err != nil {
		log.Fatalf("Invalid section: %v", err)
	}

	logger := logging.New(config.Logging)

	outline := ""
	if outlinePath != "" {
		raw, err := os.ReadFile(outlinePath)
		if err != nil {
			log.Fatalf("Error reading outline file: %v", err)
		}
		outline = string(raw)
	}

	providerNames := config.Sources
	if len(providerNames) == 0 {
		providerNames = sources.AllNames()
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	llmClient := buildCLIBackend()

	svc := gather.NewService(
		sources.Build(providerNames, httpClient),
		gather.NewExpander(llmClient, logger),
		gather.NewScorer(llmClient, logger),
		logger,
	)
	if config.FetchTimeoutSeconds > 0 {
		svc.SetFetchTimeout(time.Duration(config.FetchTimeoutSeconds) * time.Second)
	}

	references := svc.GatherForSection(context.Background(), title, outline, sectionKey, gather.Options{
		Need:              need,
		Sources:           providerNames,
		UseModelExpansion: modelExpand,
		UseModelRerank:    modelRerank,
		TopicLock:         topicLock,
		Language:          language,
		FromYear:          fromYear,
		ToYear:            toYear,
	})

	if asJSON {
		out, err := json.MarshalIndent(references, "", "  ")
		if err != nil {
			log.Fatalf("Error rendering JSON: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	if len(references) == 0 {
		fmt.Println("No references found.")
		return
	}
	for i, ref := range references {
		year := "n.d."
		if ref.Year > 0 {
			year = fmt.Sprintf("%d", ref.Year)
		}
		fmt.Printf("%2d. %s (%s)\n", i+1, ref.Title, year)
		if ref.Authors != "" {
			fmt.Printf("    %s\n", ref.Authors)
		}
		detail := ref.URL
		if ref.DOI != "" {
			detail = "doi:" + ref.DOI
		}
		fmt.Printf("    %s [credibility %d]\n", detail, ref.Credibility)
		if ref.Source != "" {
			fmt.Printf("    %s\n", ref.Source)
		}
	}
}
