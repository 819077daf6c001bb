package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"positionScope/internal/model"
)

func readEnvelopes(t *testing.T, path string) []envelope {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var out []envelope
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record envelope
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		out = append(out, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}
	return out
}

func TestJsonlSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.jsonl")
	sink := NewJsonlSink(path)
	ctx := context.Background()

	positions := []model.Position{
		{ID: "1", Platform: "uniswap-v3", Liquidity: "1000"},
		{ID: "2", Platform: "pancake-v3", Liquidity: "5"},
	}
	if err := sink.PutPositions(ctx, positions); err != nil {
		t.Fatalf("PutPositions: %v", err)
	}

	metrics := model.VaultMetrics{
		VaultAddress: "vault-a",
		PositionsTVL: "2001.00",
		IdleTVL:      "0.00",
		LastUpdate:   time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	if err := sink.PutVaultMetrics(ctx, metrics); err != nil {
		t.Fatalf("PutVaultMetrics: %v", err)
	}

	records := readEnvelopes(t, path)
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].Kind != "position" || records[1].Kind != "position" {
		t.Fatalf("kinds = %s, %s, want position", records[0].Kind, records[1].Kind)
	}
	if records[2].Kind != "vault_metrics" {
		t.Fatalf("kind = %s, want vault_metrics", records[2].Kind)
	}

	// A second write appends, never truncates.
	if err := sink.PutPositions(ctx, positions[:1]); err != nil {
		t.Fatalf("second PutPositions: %v", err)
	}
	if records := readEnvelopes(t, path); len(records) != 4 {
		t.Fatalf("records after append = %d, want 4", len(records))
	}
}

func TestJsonlSinkEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	sink := NewJsonlSink(path)

	if err := sink.PutPositions(context.Background(), nil); err != nil {
		t.Fatalf("PutPositions: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty batch created the output file")
	}
}
