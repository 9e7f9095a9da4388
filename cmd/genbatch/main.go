package main

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"questionforge"

	"github.com/google/uuid"
)

func main() {
	var (
		product    = flag.String("product", "vic-selective", "Product/test identifier")
		section    = flag.String("section", "verbal-reasoning", "Section name")
		subSkills  = flag.String("subskills", "", "Comma-separated sub-skill keys (required)")
		count      = flag.Int("count", 5, "Questions to generate per sub-skill")
		difficulty = flag.Int("difficulty", 2, "Difficulty tier (1-3)")
		yearLevel  = flag.Int("year", 6, "Target year level")
		delay      = flag.Duration("delay", 2*time.Second, "Pause between requests (service rate ceiling)")
		logDir     = flag.String("llm-log", "log", "Directory for the LLM transcript log")
	)
	flag.Parse()

	cfg := questionforge.LoadConfig()
	log := questionforge.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if *subSkills == "" {
		log.Fatal().Msg("-subskills is required")
	}
	if *difficulty < 1 || *difficulty > 3 {
		log.Fatal().Int("difficulty", *difficulty).Msg("difficulty must be 1-3")
	}
	if cfg.APIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY environment variable is required")
	}

	store, err := questionforge.OpenItemStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open item store")
	}
	defer store.Close()
	if err := store.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	client := questionforge.NewOpenAIClient(cfg.APIKey, cfg.GenModel)
	registry := questionforge.NewTemplateRegistry()
	tracker := questionforge.NewDiversityTracker()
	generator := questionforge.NewGenerator(client, registry, tracker, cfg, log)
	if cfg.VerifyModel != cfg.GenModel {
		generator.SetVerifierClient(questionforge.NewOpenAIClient(cfg.APIKey, cfg.VerifyModel))
	}

	skills := splitSkills(*subSkills)
	batchID := uuid.NewString()

	if llmLog, err := questionforge.NewLLMLogger(*logDir, batchID); err != nil {
		log.Warn().Err(err).Msg("continuing without LLM transcript log")
	} else {
		generator.SetLLMLogger(llmLog)
		defer llmLog.Close()
	}

	batch := &questionforge.BatchRecord{
		ID:        batchID,
		Product:   *product,
		StartedAt: time.Now(),
		Requested: len(skills) * *count,
	}
	if err := store.CreateBatch(batch); err != nil {
		log.Fatal().Err(err).Msg("failed to record batch")
	}

	log.Info().
		Str("batch_id", batchID).
		Strs("sub_skills", skills).
		Int("per_skill", *count).
		Int("difficulty", *difficulty).
		Msg("starting batch")

	ctx := context.Background()
	start := time.Now()
	var accepted, failed int
	var totalCost float64

	for _, skill := range skills {
		for i := 0; i < *count; i++ {
			req := questionforge.GenerationRequest{
				Product:    *product,
				Section:    *section,
				SubSkill:   skill,
				Difficulty: *difficulty,
				YearLevel:  *yearLevel,
			}

			result, err := generator.GenerateQuestion(ctx, req)
			if err != nil {
				// Only template resolution fails this way; skip the sub-skill.
				if errors.Is(err, questionforge.ErrTemplateNotFound) {
					log.Error().Err(err).Str("sub_skill", skill).Msg("skipping sub-skill")
					failed += *count - i
					break
				}
				log.Error().Err(err).Str("sub_skill", skill).Msg("request failed")
				failed++
				continue
			}

			totalCost += result.Cost
			if !result.Success {
				// A failed request never halts the batch.
				log.Warn().
					Str("sub_skill", skill).
					Int("attempts", result.Attempts).
					Str("error", result.Error).
					Msg("request exhausted all attempts")
				failed++
			} else {
				if err := store.InsertItem(result.Question); err != nil {
					log.Error().Err(err).Str("question_id", result.Question.ID).Msg("failed to store item")
					failed++
				} else {
					accepted++
				}
			}

			time.Sleep(*delay)
		}
	}

	if err := store.FinishBatch(batchID, accepted, failed, totalCost); err != nil {
		log.Error().Err(err).Msg("failed to finalize batch record")
	}

	log.Info().
		Str("batch_id", batchID).
		Int("accepted", accepted).
		Int("failed", failed).
		Float64("cost_usd", totalCost).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")
}

func splitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
