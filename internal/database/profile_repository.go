package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/lexigo/pkg/models"
)

// ErrNoProfile is returned before the user has logged in
var ErrNoProfile = errors.New("no user profile")

// ProfileRepository handles the user profile and preferences
type ProfileRepository struct {
	store BlobStore
}

// NewProfileRepository creates a new repository instance
func NewProfileRepository(store BlobStore) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// Get returns the stored profile
func (r *ProfileRepository) Get(ctx context.Context) (*models.UserProfile, error) {
	data, found, err := r.store.Load(ctx, ProfileKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoProfile
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%w: profile: %v", ErrCorruptBlob, err)
	}
	if profile.Medals == nil {
		profile.Medals = []string{}
	}
	return &profile, nil
}

// Save replaces the stored profile
func (r *ProfileRepository) Save(ctx context.Context, profile *models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return r.store.Save(ctx, ProfileKey, data)
}

// LastCategory returns the most recently selected study category
func (r *ProfileRepository) LastCategory(ctx context.Context) (string, error) {
	data, found, err := r.store.Load(ctx, LastCategoryKey)
	if err != nil {
		return "", err
	}
	if !found {
		return models.DefaultCategory, nil
	}

	var category string
	if err := json.Unmarshal(data, &category); err != nil || category == "" {
		return models.DefaultCategory, nil
	}
	return category, nil
}

// SetLastCategory remembers the selected study category
func (r *ProfileRepository) SetLastCategory(ctx context.Context, category string) error {
	data, err := json.Marshal(category)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, LastCategoryKey, data)
}
