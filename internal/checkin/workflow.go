package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/dailyclaim/pkg/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flemzord/dailyclaim/internal/checkin"

// Workflow runs the per-account check-in for the accounts of one owner.
type Workflow struct {
	Repo    Repository
	Client  RewardClient
	Retry   RetryPolicy
	Region  Region
	Kind    TaskKind
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer     // nil = global tracer provider
	Now     func() time.Time // nil = time.Now
}

// OwnerReport is what one owner's sweep produced.
type OwnerReport struct {
	Batch    Batch
	Outcomes map[Outcome]int
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Workflow) tracer() trace.Tracer {
	if w.Tracer != nil {
		return w.Tracer
	}
	return otel.Tracer(tracerName)
}

func (w *Workflow) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// RunOwner processes every account of ownerID in enumeration order.
//
// Account-local outcomes (revoked, exhausted) never produce an error. Any
// other failure aborts the owner and is returned with the report gathered
// so far.
func (w *Workflow) RunOwner(ctx context.Context, ownerID string) (OwnerReport, error) {
	ctx, span := w.tracer().Start(ctx, "checkin.owner",
		trace.WithAttributes(attribute.String("owner", ownerID)))
	defer span.End()

	report := OwnerReport{Outcomes: make(map[Outcome]int)}

	accounts, err := w.Repo.ListAccounts(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list accounts")
		return report, fmt.Errorf("checkin: listing accounts of %s: %w", ownerID, err)
	}

	for _, a := range accounts {
		outcome, err := w.RunAccount(ctx, a, &report.Batch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "account failed")
			return report, err
		}
		report.Outcomes[outcome]++
		w.Metrics.account(outcome)
	}
	return report, nil
}

// RunAccount drives one account through credential check, idempotency
// check, claim, status gathering and marker write. Cards are appended to
// batch.
func (w *Workflow) RunAccount(ctx context.Context, a Account, batch *Batch) (Outcome, error) {
	if !a.Registered() {
		return OutcomeUnregistered, nil
	}

	ctx, span := w.tracer().Start(ctx, "checkin.account",
		trace.WithAttributes(attribute.String("account", a.AccountID)))
	defer span.End()

	log := w.logger().With("owner", a.OwnerID, "account", a.AccountID)

	sess, err := w.Client.Open(ctx, a)
	if err != nil {
		return "", fmt.Errorf("checkin: opening session for %s: %w", a.AccountID, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("closing rewards session failed", "error", err)
		}
	}()

	if err := sess.CheckStatus(ctx); err != nil {
		if Classify(err) == KindInvalidCredential {
			return w.revoke(ctx, log, a, batch)
		}
		span.RecordError(err)
		return "", fmt.Errorf("checkin: probing %s: %w", a.AccountID, err)
	}

	now := w.now()
	boundary := w.Region.DayBeginning(now)

	marker, err := w.Repo.GetMarker(ctx, a.AccountID, w.Kind)
	if err != nil {
		return "", fmt.Errorf("checkin: reading marker for %s: %w", a.AccountID, err)
	}
	if marker != nil && !marker.ScheduledAt.Before(boundary) {
		log.Debug("already handled this period", "scheduled_at", marker.ScheduledAt)
		return OutcomeHandled, nil
	}

	reward, already, err := w.claim(ctx, log, sess, a)
	if err != nil {
		if !errors.Is(err, ErrRetriesExhausted) {
			return "", fmt.Errorf("checkin: claiming for %s: %w", a.AccountID, err)
		}
		log.Error("cannot claim daily reward", "error", err)
		span.RecordError(err)
		return OutcomeExhausted, nil
	}

	outcome := OutcomeAlready
	if !already {
		outcome = OutcomeClaimed
		batch.Successes = append(batch.Successes, w.successCard(ctx, log, sess, a, reward, now))
	}

	if err := w.Repo.UpsertMarker(ctx, Marker{
		AccountID:   a.AccountID,
		Kind:        w.Kind,
		ScheduledAt: boundary,
		Done:        true,
	}); err != nil {
		return "", fmt.Errorf("checkin: writing marker for %s: %w", a.AccountID, err)
	}

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	log.Info("check-in done", "outcome", outcome)
	return outcome, nil
}

// claim runs the claim through the retry policy. An already-claimed reply
// ends the loop with already set.
func (w *Workflow) claim(ctx context.Context, log *slog.Logger, sess Session, a Account) (Reward, bool, error) {
	var (
		reward  Reward
		already bool
	)

	policy := w.Retry
	policy.OnRetry = logRetry(log, a.AccountID)

	err := policy.Run(ctx, func(ctx context.Context) error {
		r, err := sess.ClaimDailyReward(ctx)
		if err == nil {
			reward = r
			return nil
		}
		if Classify(err) == KindAlreadyClaimed {
			log.Info("daily reward already claimed", "error", err)
			already = true
			return nil
		}
		return err
	})
	return reward, already, err
}

// successCard builds the card for a fresh claim. A failing status fetch
// drops the whole status section; the claim line is always kept.
func (w *Workflow) successCard(ctx context.Context, log *slog.Logger, sess Session, a Account, r Reward, now time.Time) message.Card {
	card := claimCard(a.AccountID, r)

	sections := make([]statusSection, 0, len(a.SubProfiles))
	for _, sub := range a.SubProfiles {
		notes, err := sess.GetStatus(ctx, sub)
		if err != nil {
			log.Warn("cannot get status data", "sub_profile", sub, "error", err)
			return card
		}
		sections = append(sections, notesSection(sub, notes, now))
	}

	for _, s := range sections {
		card.AppendLine(s.line)
		card.Fields = append(card.Fields, s.fields...)
	}
	return card
}

// revoke clears the stored token and queues a failure card. No marker is
// written so the account is picked up again once re-registered.
func (w *Workflow) revoke(ctx context.Context, log *slog.Logger, a Account, batch *Batch) (Outcome, error) {
	log.Warn("credential rejected, unregistering account")

	a.Token = ""
	if err := w.Repo.UpsertAccount(ctx, a); err != nil {
		return "", fmt.Errorf("checkin: clearing token of %s: %w", a.AccountID, err)
	}
	batch.Failures = append(batch.Failures, revokedCard(a.AccountID))
	return OutcomeRevoked, nil
}
