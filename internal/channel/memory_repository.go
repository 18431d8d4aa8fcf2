package channel

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu         sync.Mutex
	privKeyHex string
	channelID  string
	phonePub   string
	lastGUID   string
	lastLogout time.Time
}

// NewMemoryRepository builds an in-memory identity store for testing and
// cache-less development runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) CreateIdentity(_ context.Context, privKeyHex, channelID string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.privKeyHex != "" && r.channelID != "" {
		return r.privKeyHex, r.channelID, nil
	}
	r.privKeyHex = privKeyHex
	r.channelID = channelID
	return privKeyHex, channelID, nil
}

func (r *memoryRepository) Identity(_ context.Context) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.privKeyHex, r.channelID, nil
}

func (r *memoryRepository) PhonePubKey(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phonePub, nil
}

func (r *memoryRepository) SetPhonePubKey(_ context.Context, pubKeyHex string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phonePub = pubKeyHex
	return nil
}

func (r *memoryRepository) ClearPhonePubKey(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phonePub = ""
	return nil
}

func (r *memoryRepository) LastGUID(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastGUID, nil
}

func (r *memoryRepository) SetLastGUID(_ context.Context, guid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastGUID = guid
	return nil
}

func (r *memoryRepository) LastLogout(_ context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLogout, nil
}

func (r *memoryRepository) SetLastLogout(_ context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogout = at
	return nil
}
