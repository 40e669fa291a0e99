// Package session keeps browser sessions: the signed-in user and one-shot
// flash messages shown on the next page.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultTTL = 24 * time.Hour
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

type FlashKind string

const (
	FlashInfo  FlashKind = "info"
	FlashError FlashKind = "error"
)

// Flash is a message displayed once.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Store persists sessions. Anonymous sessions have an empty user id; they
// only carry flashes.
type Store interface {
	Create(ctx context.Context, userID string) (string, error)
	// UserID returns ErrNotFound for unknown sessions.
	UserID(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	AddFlash(ctx context.Context, id string, f Flash) error
	// PopFlashes returns and clears the pending flashes.
	PopFlashes(ctx context.Context, id string) ([]Flash, error)
}

func newSessionID() (string, error) {
	id, err := cryptox.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}
