package reasoning

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"swarm/internal/gateway"
)

// Score asks the model to rate one token. A malformed reply degrades to the
// neutral sentinel {score:0, signal:SKIP}; only transport failures return an
// error.
func (c *Client) Score(ctx context.Context, prompt string) (gateway.ScoreResult, error) {
	raw, err := c.complete(ctx, scoreSystemPrompt, prompt)
	if err != nil {
		return gateway.ScoreResult{}, err
	}
	return parseScore(raw), nil
}

func parseScore(raw string) gateway.ScoreResult {
	sentinel := gateway.ScoreResult{Score: 0, Signal: gateway.SignalSkip, Reasoning: "unparseable model output"}

	var out struct {
		Score     float64 `json:"score"`
		Signal    string  `json:"signal"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return sentinel
	}
	sig := gateway.Signal(strings.ToUpper(strings.TrimSpace(out.Signal)))
	switch sig {
	case gateway.SignalBuy, gateway.SignalWatch, gateway.SignalSkip, gateway.SignalRisky:
	default:
		return sentinel
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 100 {
		out.Score = 100
	}
	return gateway.ScoreResult{
		Score:     out.Score,
		Signal:    sig,
		Reasoning: strings.TrimSpace(out.Reasoning),
	}
}

// NarrativeAnalysis clusters the summarized market into named narratives,
// ranked by score, capped at 8. Malformed output yields an empty set.
func (c *Client) NarrativeAnalysis(ctx context.Context, summary string) ([]gateway.NarrativeResult, error) {
	raw, err := c.complete(ctx, narrativeSystemPrompt, summary)
	if err != nil {
		return nil, err
	}
	return parseNarratives(raw), nil
}

func parseNarratives(raw string) []gateway.NarrativeResult {
	var out struct {
		Narratives []gateway.NarrativeResult `json:"narratives"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil
	}
	items := out.Narratives[:0]
	for _, n := range out.Narratives {
		n.Name = strings.TrimSpace(n.Name)
		if n.Name == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(n.Trend)) {
		case "rising":
			n.Trend = "rising"
		case "falling":
			n.Trend = "falling"
		default:
			n.Trend = "stable"
		}
		items = append(items, n)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > maxNarratives {
		items = items[:maxNarratives]
	}
	return items
}
