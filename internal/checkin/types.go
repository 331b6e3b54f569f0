// Package checkin implements the periodic daily-reward check-in: the reset
// aligned scheduler, the per-account workflow with its idempotency markers
// and retry policy, and the per-owner notification batch.
package checkin

import (
	"context"
	"time"

	"github.com/flemzord/dailyclaim/pkg/message"
)

// TaskKind names a kind of periodic work tracked by markers.
type TaskKind string

// KindDailyCheckin is the only task kind the scheduler performs today.
const KindDailyCheckin TaskKind = "daily_checkin"

// Account is one rewards-service identity linked to an owner.
// An empty Token means the account is unregistered.
type Account struct {
	OwnerID     string
	AccountID   string
	Token       string
	SubProfiles []string
}

// Registered reports whether the account has a credential to use.
func (a Account) Registered() bool {
	return a.Token != ""
}

// Marker records that a task was handled for the period starting at
// ScheduledAt. Keyed by (AccountID, Kind).
type Marker struct {
	AccountID   string
	Kind        TaskKind
	ScheduledAt time.Time
	Done        bool
}

// Reward is what a fresh claim yielded.
type Reward struct {
	Amount int
	Name   string
	Icon   string
}

// Expedition is one background task dispatched on a sub-profile.
type Expedition struct {
	CompletedAt time.Time
}

// Notes is the supplementary status of one sub-profile.
type Notes struct {
	ResourceCurrent     int
	ResourceMax         int
	ResourceRecoveredAt time.Time
	Expeditions         []Expedition
	MaxExpeditions      int
}

// ResourceCapped reports whether the resource counter sits exactly at its
// maximum. Overflow above the maximum (refills from items) is not capped:
// the natural regeneration time is still reported.
func (n Notes) ResourceCapped() bool {
	return n.ResourceCurrent == n.ResourceMax
}

// ExpeditionsDone reports whether every dispatched expedition has finished
// at now. False when nothing is dispatched.
func (n Notes) ExpeditionsDone(now time.Time) bool {
	if len(n.Expeditions) == 0 {
		return false
	}
	return !latestCompletion(n.Expeditions).After(now)
}

// AccountSource enumerates owners and their linked accounts.
type AccountSource interface {
	ListOwners(ctx context.Context) ([]string, error)
	ListAccounts(ctx context.Context, ownerID string) ([]Account, error)
}

// Repository is the persistence contract of the check-in workflow.
// Writes are upserts keyed by primary key.
type Repository interface {
	AccountSource

	// GetAccount returns (nil, nil) when the account does not exist.
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	UpsertAccount(ctx context.Context, a Account) error
	DeleteAccount(ctx context.Context, accountID string) error

	// GetMarker returns (nil, nil) when no marker exists.
	GetMarker(ctx context.Context, accountID string, kind TaskKind) (*Marker, error)
	UpsertMarker(ctx context.Context, m Marker) error

	// PruneMarkers deletes markers scheduled before the given instant and
	// returns how many were removed.
	PruneMarkers(ctx context.Context, before time.Time) (int64, error)
}

// RewardClient opens per-account sessions against the rewards service.
type RewardClient interface {
	Open(ctx context.Context, a Account) (Session, error)
}

// Session is a per-account client handle. Errors wrap ErrInvalidCredential
// or ErrAlreadyClaimed where they apply.
type Session interface {
	CheckStatus(ctx context.Context) error
	ClaimDailyReward(ctx context.Context) (Reward, error)
	GetStatus(ctx context.Context, subProfileID string) (Notes, error)
	Close() error
}

// Notifier delivers per-owner messages.
type Notifier interface {
	ResolveDestination(ctx context.Context, ownerID string) (message.Chat, error)
	Send(ctx context.Context, msg message.OutboundMessage) error
}
