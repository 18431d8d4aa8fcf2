package channel

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chain-pair/chain_pair/internal/crypto"
)

// Service manages the channel identity lifecycle. A single Service instance
// owns writes to the underlying repository within a process; GetOrCreate is
// serialized so concurrent opens cannot race to create two identities.
type Service struct {
	repo Repository

	mu sync.Mutex
}

// NewService creates a channel identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetOrCreate returns the cached identity, generating and persisting a fresh
// 32-byte private scalar and channel identifier if none exist. Idempotent:
// an existing identity is never regenerated, otherwise in-flight phone
// pairings would become permanently unreachable.
func (s *Service) GetOrCreate(ctx context.Context) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	privHex, channelID, err := s.repo.Identity(ctx)
	if err != nil {
		return Identity{}, err
	}

	if privHex == "" || channelID == "" {
		priv, err := crypto.GeneratePrivateKey()
		if err != nil {
			return Identity{}, err
		}
		privHex, channelID, err = s.repo.CreateIdentity(ctx, hex.EncodeToString(priv), uuid.NewString())
		if err != nil {
			return Identity{}, err
		}
	}

	return s.snapshot(ctx, privHex, channelID)
}

// Snapshot returns the current identity without creating one. The returned
// identity has empty key material when no channel was opened yet.
func (s *Service) Snapshot(ctx context.Context) (Identity, error) {
	privHex, channelID, err := s.repo.Identity(ctx)
	if err != nil {
		return Identity{}, err
	}
	return s.snapshot(ctx, privHex, channelID)
}

func (s *Service) snapshot(ctx context.Context, privHex, channelID string) (Identity, error) {
	phonePub, err := s.repo.PhonePubKey(ctx)
	if err != nil {
		return Identity{}, err
	}
	guid, err := s.repo.LastGUID(ctx)
	if err != nil {
		return Identity{}, err
	}
	lastLogout, err := s.repo.LastLogout(ctx)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		ChannelID:   channelID,
		PrivKeyHex:  privHex,
		PhonePubKey: phonePub,
		LastGUID:    guid,
		LastLogout:  lastLogout,
	}, nil
}

// RecordPairedPhone remembers the phone public key for future fast pings.
func (s *Service) RecordPairedPhone(ctx context.Context, pubKeyHex string) error {
	if _, err := hex.DecodeString(pubKeyHex); err != nil {
		return fmt.Errorf("phone public key is not hex: %w", err)
	}
	return s.repo.SetPhonePubKey(ctx, pubKeyHex)
}

// ClearPairedPhone forgets the remembered phone.
func (s *Service) ClearPairedPhone(ctx context.Context) error {
	return s.repo.ClearPhonePubKey(ctx)
}

// RecordLastGUID remembers the credential identifier used on this device.
func (s *Service) RecordLastGUID(ctx context.Context, guid string) error {
	return s.repo.SetLastGUID(ctx, guid)
}

// RecordLogout stores the logout instant used to gate proactive pings.
func (s *Service) RecordLogout(ctx context.Context, at time.Time) error {
	return s.repo.SetLastLogout(ctx, at)
}
