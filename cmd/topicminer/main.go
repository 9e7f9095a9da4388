package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"time"

	"questionforge"
)

// topicSuggestion is one proposed reading-passage topic.
type topicSuggestion struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Setting     string `json:"setting"`
}

func main() {
	var (
		count   = flag.Int("count", 10, "Number of fresh topics to suggest")
		timeout = flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	)
	flag.Parse()

	cfg := questionforge.LoadConfig()
	log := questionforge.SetupLogger(cfg.LogLevel, cfg.LogFormat)

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

	existing, err := store.ListTopics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list existing topics")
	}
	log.Info().Int("existing", len(existing)).Int("requested", *count).Msg("mining fresh topics")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := questionforge.NewOpenAIClient(cfg.APIKey, cfg.GenModel)
	suggestions, err := mineTopics(ctx, client, cfg, existing, *count)
	if err != nil {
		log.Fatal().Err(err).Msg("topic mining failed")
	}

	out, err := json.MarshalIndent(suggestions, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal suggestions")
	}
	fmt.Println(string(out))
}

func mineTopics(ctx context.Context, client questionforge.CompletionClient, cfg *questionforge.Config, existing []string, count int) ([]topicSuggestion, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Suggest %d fresh topics for short reading-comprehension passages aimed at Year 5-7 students.\n\n", count)

	if len(existing) > 0 {
		sb.WriteString("The topics must be completely different from these already used:\n")
		for _, t := range existing {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Each topic names a concrete scene or situation, two or three words\n")
	sb.WriteString("- Rotate across settings, cultures and subject areas\n")
	sb.WriteString("- Suitable for an 80-120 word narrative or informative passage\n")
	sb.WriteString("- Use Australian English spelling\n\n")
	sb.WriteString(`Respond with a single JSON object and nothing else:` + "\n")
	sb.WriteString(`{"topics": [{"topic": "...", "description": "...", "setting": "..."}]}`)

	comp, err := client.Complete(ctx, sb.String(), 0.9, 1200)
	if err != nil {
		return nil, fmt.Errorf("failed to mine topics: %w", err)
	}

	raw, err := questionforge.ExtractJSONObject(comp.Text)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Topics []topicSuggestion `json:"topics"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if len(payload.Topics) == 0 {
		return nil, fmt.Errorf("no topics in response")
	}
	return payload.Topics, nil
}
