package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	identityKey   = "secure_channel:identity"
	phonePubKey   = "secure_channel:phone_pubkey"
	lastGUIDKey   = "secure_channel:last_guid"
	lastLogoutKey = "secure_channel:last_logout"
)

// Repository persists channel identity fields. Mutations are last-write-wins
// per field; identity creation must be atomic so concurrent opens cannot
// produce two different channel identifiers.
type Repository interface {
	// CreateIdentity stores the key pair and channel identifier if none
	// exist yet and returns the stored pair. When an identity already
	// exists the existing pair wins and is returned unchanged.
	CreateIdentity(ctx context.Context, privKeyHex, channelID string) (string, string, error)
	// Identity returns the stored key pair, or empty strings when absent.
	Identity(ctx context.Context) (privKeyHex, channelID string, err error)
	PhonePubKey(ctx context.Context) (string, error)
	SetPhonePubKey(ctx context.Context, pubKeyHex string) error
	ClearPhonePubKey(ctx context.Context) error
	LastGUID(ctx context.Context) (string, error)
	SetLastGUID(ctx context.Context, guid string) error
	LastLogout(ctx context.Context) (time.Time, error)
	SetLastLogout(ctx context.Context, at time.Time) error
}

type storedIdentity struct {
	PrivKeyHex string `json:"priv"`
	ChannelID  string `json:"channelId"`
}

// RedisRepository implements Repository on the shared Redis cache.
type RedisRepository struct {
	cache *redis.Client
}

// NewRedisRepository builds a Redis-backed channel identity repository.
func NewRedisRepository(cache *redis.Client) *RedisRepository {
	return &RedisRepository{cache: cache}
}

// CreateIdentity reserves the identity with SET NX so concurrent agents
// against the same cache agree on a single channel identifier.
func (r *RedisRepository) CreateIdentity(ctx context.Context, privKeyHex, channelID string) (string, string, error) {
	payload, err := json.Marshal(storedIdentity{PrivKeyHex: privKeyHex, ChannelID: channelID})
	if err != nil {
		return "", "", err
	}

	ok, err := r.cache.SetNX(ctx, identityKey, payload, 0).Result()
	if err != nil {
		return "", "", fmt.Errorf("reserve channel identity: %w", err)
	}
	if ok {
		return privKeyHex, channelID, nil
	}
	// Lost the race; the first writer's identity stands.
	return r.Identity(ctx)
}

func (r *RedisRepository) Identity(ctx context.Context) (string, string, error) {
	raw, err := r.cache.Get(ctx, identityKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("read channel identity: %w", err)
	}
	var stored storedIdentity
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return "", "", fmt.Errorf("decode channel identity: %w", err)
	}
	return stored.PrivKeyHex, stored.ChannelID, nil
}

func (r *RedisRepository) PhonePubKey(ctx context.Context) (string, error) {
	return r.getString(ctx, phonePubKey)
}

func (r *RedisRepository) SetPhonePubKey(ctx context.Context, pubKeyHex string) error {
	return r.cache.Set(ctx, phonePubKey, pubKeyHex, 0).Err()
}

func (r *RedisRepository) ClearPhonePubKey(ctx context.Context) error {
	return r.cache.Del(ctx, phonePubKey).Err()
}

func (r *RedisRepository) LastGUID(ctx context.Context) (string, error) {
	return r.getString(ctx, lastGUIDKey)
}

func (r *RedisRepository) SetLastGUID(ctx context.Context, guid string) error {
	return r.cache.Set(ctx, lastGUIDKey, guid, 0).Err()
}

func (r *RedisRepository) LastLogout(ctx context.Context) (time.Time, error) {
	raw, err := r.getString(ctx, lastLogoutKey)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode last logout: %w", err)
	}
	return time.UnixMilli(millis).UTC(), nil
}

func (r *RedisRepository) SetLastLogout(ctx context.Context, at time.Time) error {
	return r.cache.Set(ctx, lastLogoutKey, strconv.FormatInt(at.UnixMilli(), 10), 0).Err()
}

func (r *RedisRepository) getString(ctx context.Context, key string) (string, error) {
	val, err := r.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return val, nil
}
