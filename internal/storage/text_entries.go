// ABOUTME: Persists the user inputs of text entries as one JSON list
// ABOUTME: Vectors and fetch state are never stored; they are refetched on load
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/embedding-playground/internal/models"
)

// TextEmbeddingsKey is the single key holding every saved text entry
const TextEmbeddingsKey = "playground:text-embeddings"

type textRecord struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	Text        string `json:"text"`
}

// TextEntryStore saves and loads text entries through a KV
type TextEntryStore struct {
	kv KV
}

// NewTextEntryStore creates a store over kv
func NewTextEntryStore(kv KV) *TextEntryStore {
	return &TextEntryStore{kv: kv}
}

// LoadTextEmbeddings returns the saved entries in their saved order.
// Nothing saved yields an empty list. Records without a name are skipped.
func (s *TextEntryStore) LoadTextEmbeddings(ctx context.Context) ([]models.TextEmbedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.kv.Get(TextEmbeddingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TextEmbeddingsKey, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []textRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", TextEmbeddingsKey, err)
	}

	entries := make([]models.TextEmbedding, 0, len(records))
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		entries = append(entries, models.TextEmbedding{
			Name:        r.Name,
			Instruction: r.Instruction,
			Text:        r.Text,
		})
	}
	return entries, nil
}

// SaveTextEmbeddings overwrites the saved list with entries
func (s *TextEntryStore) SaveTextEmbeddings(ctx context.Context, entries []models.TextEmbedding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	records := make([]textRecord, len(entries))
	for i, e := range entries {
		records[i] = textRecord{Name: e.Name, Instruction: e.Instruction, Text: e.Text}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode text embeddings: %w", err)
	}
	if err := s.kv.Set(TextEmbeddingsKey, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", TextEmbeddingsKey, err)
	}
	return nil
}

// Clear removes every saved entry
func (s *TextEntryStore) Clear() error {
	return s.kv.Delete(TextEmbeddingsKey)
}
