package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/listing"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/notification"
	"github.com/fekuna/marine-listing-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockAttempts = 3
	lockRetry    = 100 * time.Millisecond
)

var errListingBusy = errors.New("listing is being moderated by another request")

// Transitioner applies listing status changes one at a time per listing. The redis lock keeps
// concurrent moderators apart; the compare-and-set in the repository is what guarantees two
// changes never both commit from the same state.
type Transitioner struct {
	repo     listing.Repository
	locker   Locker
	notifier notification.Notifier
	indexer  listing.Indexer
	lockTTL  time.Duration
	logger   logger.ZapLogger
}

var _ listing.StatusChanger = (*Transitioner)(nil)

// NewTransitioner builds the status changer. locker and indexer may be nil.
func NewTransitioner(
	repo listing.Repository,
	locker Locker,
	notifier notification.Notifier,
	indexer listing.Indexer,
	lockTTL time.Duration,
	log logger.ZapLogger,
) *Transitioner {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Transitioner{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		indexer:  indexer,
		lockTTL:  lockTTL,
		logger:   log,
	}
}

func (t *Transitioner) Guard(ctx context.Context, id string, fn func() error) error {
	if t.locker == nil {
		return fn()
	}

	lockKey := "lock:listing:" + id
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := t.locker.AcquireLock(ctx, lockKey, lockValue, t.lockTTL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warn("listing lock unavailable, relying on status compare-and-set",
				zap.String("listing_id", id), zap.Error(err))
			return fn()
		}
		if ok {
			acquired = true
			break
		}
		if i == lockAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetry):
		}
	}
	if !acquired {
		return &apperror.TransientStorageError{Op: "lock listing", Err: errListingBusy}
	}

	defer func() {
		if err := t.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
			t.logger.Warn("failed to release listing lock", zap.String("listing_id", id), zap.Error(err))
		}
	}()
	return fn()
}

func (t *Transitioner) Change(ctx context.Context, id string, to model.ListingStatus, actor model.Actor, reason *string) (*model.Listing, error) {
	var (
		l      *model.Listing
		change *model.StatusChange
	)
	err := t.Guard(ctx, id, func() error {
		current, err := t.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NotFound("listing", id)
		}
		if !current.Status.CanTransitionTo(to) {
			return &apperror.InvalidTransitionError{Entity: "listing", ID: id, From: string(current.Status), To: string(to)}
		}

		change = &model.StatusChange{
			ListingID: id,
			From:      current.Status,
			To:        to,
			ActorID:   actor.UserID,
			Reason:    reason,
			At:        time.Now(),
		}
		if err := t.repo.Transition(ctx, change); err != nil {
			return err
		}

		current.Status = to
		current.UpdatedAt = change.At
		switch to {
		case model.ListingRejected:
			current.RejectionReason = reason
		case model.ListingApproved, model.ListingPending:
			current.RejectionReason = nil
		}
		l = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("listing status changed",
		zap.String("listing_id", id),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.String("actor", actor.UserID),
	)
	t.Announce(ctx, l, change)
	return l, nil
}

// Announce notifies the owner and keeps the search index in step. Neither is awaited.
func (t *Transitioner) Announce(ctx context.Context, l *model.Listing, change *model.StatusChange) {
	payload := map[string]any{
		"listing_id": l.ID,
		"title":      l.Title,
		"from":       string(change.From),
		"status":     string(change.To),
	}
	if change.Reason != nil {
		payload["reason"] = *change.Reason
	}
	t.notifier.Notify(ctx, l.OwnerID, notification.ListingEvent(change.To), payload)

	if t.indexer == nil || (change.From != model.ListingApproved && change.To != model.ListingApproved) {
		return
	}
	snapshot := *l
	go func() {
		if err := t.indexer.Sync(context.Background(), &snapshot); err != nil {
			t.logger.Error("failed to sync listing to search", zap.String("listing_id", snapshot.ID), zap.Error(err))
		}
	}()
}
