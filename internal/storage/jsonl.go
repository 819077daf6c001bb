package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"positionScope/internal/model"
)

// JsonlSink appends pass results to a JSONL file, one envelope per line.
type JsonlSink struct {
	path string
	mu   sync.Mutex
}

type envelope struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path}
}

// PutPositions appends one line per position.
func (s *JsonlSink) PutPositions(ctx context.Context, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}
	lines := make([]envelope, 0, len(positions))
	for _, pos := range positions {
		lines = append(lines, envelope{Kind: "position", Payload: pos})
	}
	return s.append(lines)
}

// PutVaultMetrics appends one metrics line.
func (s *JsonlSink) PutVaultMetrics(ctx context.Context, metrics model.VaultMetrics) error {
	return s.append([]envelope{{Kind: "vault_metrics", Payload: metrics}})
}

func (s *JsonlSink) append(lines []envelope) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range lines {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
