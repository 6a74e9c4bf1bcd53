package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/lexigo/pkg/models"
)

// Keys of the persisted blobs
const (
	NotebookKey     = "lexigo_notebook_v4"
	StatsKey        = "lexigo_stats_v4"
	ProfileKey      = "lexigo_user_v4"
	LastCategoryKey = "lexigo_last_level"
)

var (
	// ErrCorruptBlob is returned when a stored document cannot be decoded
	ErrCorruptBlob = errors.New("corrupt stored document")
	// ErrEmptyWord is returned when a record without a word is written to the notebook
	ErrEmptyWord = errors.New("word is empty")
)

// NotebookRepository keeps the set of word records, one per normalized word
type NotebookRepository struct {
	store BlobStore
	// serializes writers in this process; the store serializes across processes
	mu sync.Mutex
}

// NewNotebookRepository creates a new repository instance
func NewNotebookRepository(store BlobStore) *NotebookRepository {
	return &NotebookRepository{store: store}
}

// All returns every record in storage order
func (r *NotebookRepository) All(ctx context.Context) ([]models.WordRecord, error) {
	data, found, err := r.store.Load(ctx, NotebookKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.WordRecord{}, nil
	}
	return decodeNotebook(data)
}

// Find returns the record of word, or nil when the word was never seen
func (r *NotebookRepository) Find(ctx context.Context, word string) (*models.WordRecord, error) {
	records, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	key := models.NormalizeWord(word)
	for i := range records {
		if records[i].Key() == key {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Upsert replaces the record with the same normalized word, or adds it
func (r *NotebookRepository) Upsert(ctx context.Context, record models.WordRecord) error {
	return r.UpsertMany(ctx, record)
}

// UpsertMany writes several records in one update. Written records move to the end of the notebook.
func (r *NotebookRepository) UpsertMany(ctx context.Context, records ...models.WordRecord) error {
	for _, rec := range records {
		if rec.Key() == "" {
			return ErrEmptyWord
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.Update(ctx, NotebookKey, func(current []byte, found bool) ([]byte, error) {
		notebook := []models.WordRecord{}
		if found {
			var err error
			if notebook, err = decodeNotebook(current); err != nil {
				return nil, err
			}
		}
		return json.Marshal(upsert(notebook, records))
	})
}

// AddMissing appends the records whose word is not yet in the notebook and returns them.
// Existing records are left untouched.
func (r *NotebookRepository) AddMissing(ctx context.Context, records ...models.WordRecord) ([]models.WordRecord, error) {
	for _, rec := range records {
		if rec.Key() == "" {
			return nil, ErrEmptyWord
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var added []models.WordRecord
	err := r.store.Update(ctx, NotebookKey, func(current []byte, found bool) ([]byte, error) {
		notebook := []models.WordRecord{}
		if found {
			var err error
			if notebook, err = decodeNotebook(current); err != nil {
				return nil, err
			}
		}

		seen := make(map[string]bool, len(notebook)+len(records))
		for _, rec := range notebook {
			seen[rec.Key()] = true
		}
		added = added[:0]
		for _, rec := range records {
			if seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			added = append(added, rec)
		}
		return json.Marshal(append(notebook, added...))
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Modify applies fn to the current record of word as a single read-modify-write.
// fn receives found=false and a zero record when the word is new.
func (r *NotebookRepository) Modify(ctx context.Context, word string, fn func(current models.WordRecord, found bool) models.WordRecord) (models.WordRecord, error) {
	key := models.NormalizeWord(word)
	if key == "" {
		return models.WordRecord{}, ErrEmptyWord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result models.WordRecord
	err := r.store.Update(ctx, NotebookKey, func(current []byte, found bool) ([]byte, error) {
		notebook := []models.WordRecord{}
		if found {
			var err error
			if notebook, err = decodeNotebook(current); err != nil {
				return nil, err
			}
		}

		var existing models.WordRecord
		exists := false
		for _, rec := range notebook {
			if rec.Key() == key {
				existing, exists = rec, true
				break
			}
		}

		result = fn(existing, exists)
		if result.Key() != key {
			return nil, fmt.Errorf("modify %q: record key changed to %q", word, result.Key())
		}
		return json.Marshal(upsert(notebook, []models.WordRecord{result}))
	})
	if err != nil {
		return models.WordRecord{}, err
	}
	return result, nil
}

// upsert removes every record sharing a key with records, then appends records
func upsert(notebook, records []models.WordRecord) []models.WordRecord {
	incoming := make(map[string]int, len(records))
	for i, rec := range records {
		incoming[rec.Key()] = i
	}

	result := make([]models.WordRecord, 0, len(notebook)+len(records))
	for _, rec := range notebook {
		if _, replaced := incoming[rec.Key()]; !replaced {
			result = append(result, rec)
		}
	}
	for i, rec := range records {
		// a key repeated within records keeps its last version
		if incoming[rec.Key()] == i {
			result = append(result, rec)
		}
	}
	return result
}

// decodeNotebook parses a stored notebook, keeping the last occurrence of a duplicated word
func decodeNotebook(data []byte) ([]models.WordRecord, error) {
	var records []models.WordRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: notebook: %v", ErrCorruptBlob, err)
	}

	seen := make(map[string]bool, len(records))
	kept := make([]models.WordRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		key := records[i].Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, records[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept, nil
}
