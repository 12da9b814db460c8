package agent

import (
	"context"
	"strings"
	"testing"

	"swarm/internal/gateway"
	"swarm/internal/models"
)

func TestNarrativeScanReplacesWholeTable(t *testing.T) {
	repo := newStubRepo()
	repo.narratives = []models.Narrative{{Name: "Old Theme", Score: 40}}
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{narratives: []gateway.NarrativeResult{
		{Name: "AI Agents", Score: 90, Trend: models.TrendRising, Tokens: []string{"TokA"}},
		{Name: "Dog Coins", Score: 62, Trend: models.TrendStable},
	}}
	s := &NarrativeScanner{Repo: repo, Market: market, Reasoning: reason}

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if repo.replaces != 1 {
		t.Fatalf("replaces=%d want 1", repo.replaces)
	}
	if len(repo.narratives) != 2 || repo.narratives[0].Name != "AI Agents" {
		t.Fatalf("narratives=%+v want fresh set, old theme gone", repo.narratives)
	}
}

func TestNarrativeScanKeepsPreviousSetOnEmptyResult(t *testing.T) {
	repo := newStubRepo()
	repo.narratives = []models.Narrative{{Name: "Old Theme", Score: 40}}
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{narratives: nil}
	s := &NarrativeScanner{Repo: repo, Market: market, Reasoning: reason}

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if repo.replaces != 0 {
		t.Fatalf("replaces=%d want 0 on empty analysis", repo.replaces)
	}
	if len(repo.narratives) != 1 || repo.narratives[0].Name != "Old Theme" {
		t.Fatalf("narratives=%+v want previous set kept", repo.narratives)
	}
}

func TestNarrativeScanFailsWithNoTokens(t *testing.T) {
	s := &NarrativeScanner{Repo: newStubRepo(), Market: &stubMarket{}, Reasoning: &stubReasoning{}}
	if err := s.Scan(context.Background()); err == nil {
		t.Fatal("want error when the market returns nothing")
	}
}

func TestBuildMarketSummaryCapsAndSorts(t *testing.T) {
	tokens := make([]gateway.Token, 0, 40)
	for i := 0; i < 40; i++ {
		tok := goodToken("a")
		tok.Symbol = "TOK"
		tok.Volume24h = float64(i * 1000)
		tokens = append(tokens, tok)
	}
	summary := buildMarketSummary(tokens)
	lines := strings.Count(summary, "\n")
	// Header line plus at most summaryTokenCap token lines.
	if lines != summaryTokenCap+1 {
		t.Fatalf("lines=%d want %d", lines, summaryTokenCap+1)
	}
	if !strings.Contains(summary, "$39000") {
		t.Fatalf("summary must keep the highest-volume token:\n%s", summary)
	}
}

func TestDedupeByAddress(t *testing.T) {
	tokens := []gateway.Token{
		goodToken("a"), goodToken("b"), goodToken("a"), {Address: ""},
	}
	out := dedupeByAddress(tokens)
	if len(out) != 2 {
		t.Fatalf("len=%d want 2", len(out))
	}
}
