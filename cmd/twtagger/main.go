// Command twtagger runs one batch-tagging pass over a Talkwalker
// mention export: new rows are classified against the tag taxonomy,
// the processed-URL ledger is extended, and a tagged copy of the
// workbook is written when anything was tagged.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cureanalytics/twtagger/internal/dataset"
	"github.com/cureanalytics/twtagger/internal/gemini"
	"github.com/cureanalytics/twtagger/internal/youtube"
	"github.com/cureanalytics/twtagger/pkg/tagging"
	"github.com/cureanalytics/twtagger/pkg/tagging/config"
	"github.com/cureanalytics/twtagger/pkg/tagging/ledger"
)

const apiKeyEnv = "GEMINI_API_KEY"

func main() {
	configPath := flag.String("config", "twtagger.yaml", "Path to config YAML")
	flag.Parse()

	// .env is optional; the environment may already be populated.
	_ = godotenv.Load()

	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv))
	if apiKey == "" {
		log.Fatalf("%s missing, check .env", apiKeyEnv)
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	instructions, version, err := conf.LoadInstructions()
	if err != nil {
		log.Fatalf("load instructions: %v", err)
	}

	ds, err := dataset.Load(conf.Input)
	if err != nil {
		log.Fatalf("load input: %v", err)
	}

	ctx := context.Background()

	fetcher := &youtube.Fetcher{}
	if conf.TranscriptCache != "" {
		cache, err := youtube.OpenCache(ctx, conf.TranscriptCache)
		if err != nil {
			log.Printf("transcript cache unavailable, fetching uncached: %v", err)
		} else {
			defer cache.Close()
			fetcher.Cache = cache
		}
	}

	orch := tagging.New(tagging.Options{
		Dataset: ds,
		Classifier: &gemini.Client{
			APIKey:      apiKey,
			Model:       conf.Model,
			Temperature: *conf.Temperature,
		},
		Selector: &tagging.Selector{
			Transcripts:        fetcher,
			MaxTranscriptChars: conf.MaxTranscriptChars,
		},
		Validator:          tagging.NewValidator(conf.AllowedTags, conf.TagPrefix),
		Ledger:             &ledger.Ledger{Path: conf.Ledger},
		SystemInstruction:  conf.SystemInstruction(instructions),
		InstructionVersion: version,
		Model:              conf.Model,
		BatchSize:          conf.BatchSize,
		MaxAttempts:        conf.MaxAttempts,
		RetryWait:          conf.RetryWait(),
		BatchPause:         conf.BatchPause(),
		OutputDir:          conf.OutputDir,
		OutputPrefix:       conf.OutputPrefix,
	})

	report, err := orch.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	log.Printf("run %s finished: %d tagged, %d skipped, %d failed batches",
		report.RunID, report.Tagged, report.Skipped, report.FailedBatches)
}
