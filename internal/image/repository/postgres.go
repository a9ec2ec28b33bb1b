package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/image"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB           *sqlx.DB
	readAttempts int
}

func NewPGRepository(db *sqlx.DB, readAttempts int) *PGRepository {
	return &PGRepository{DB: db, readAttempts: readAttempts}
}

func (r *PGRepository) FindByListing(ctx context.Context, listingID string) ([]model.ListingImage, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() ([]model.ListingImage, error) {
		var images []model.ListingImage
		err := r.DB.SelectContext(ctx, &images,
			`SELECT * FROM listing_images WHERE listing_id = $1 ORDER BY position ASC`, listingID)
		return images, postgres.Classify("find listing images", err)
	})
}

func (r *PGRepository) Append(ctx context.Context, listingID string, images []model.ListingImage, limit int, change *model.StatusChange) ([]model.ListingImage, error) {
	var persisted []model.ListingImage
	err := postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT count(*) FROM listing_images WHERE listing_id = $1`, listingID); err != nil {
			return postgres.Classify("count listing images", err)
		}

		room := limit - count
		if room <= 0 || len(images) == 0 {
			return nil
		}
		if room < len(images) {
			images = images[:room]
		}
		if change != nil {
			if err := applyChange(ctx, tx, change); err != nil {
				return err
			}
		}

		query := `
            INSERT INTO listing_images (id, listing_id, url, position, created_at)
            VALUES (:id, :listing_id, :url, :position, :created_at)
        `
		for i := range images {
			images[i].ListingID = listingID
			images[i].Position = count + i
			if _, err := tx.NamedExecContext(ctx, query, images[i]); err != nil {
				return postgres.Classify("insert listing image", err)
			}
		}
		persisted = images
		return nil
	})
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

func (r *PGRepository) Reorder(ctx context.Context, listingID string, order []string) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		var current []model.ListingImage
		if err := tx.SelectContext(ctx, &current,
			`SELECT * FROM listing_images WHERE listing_id = $1 ORDER BY position ASC`, listingID); err != nil {
			return postgres.Classify("find listing images", err)
		}
		if err := image.ValidateOrder(current, order); err != nil {
			return err
		}

		// the position constraint is deferred, so intermediate duplicates are fine
		for pos, id := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE listing_images SET position = $1 WHERE id = $2 AND listing_id = $3`, pos, id, listingID); err != nil {
				return postgres.Classify("reorder listing images", err)
			}
		}
		return nil
	})
}

func (r *PGRepository) Remove(ctx context.Context, listingID, imageID string) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		var position int
		err := tx.GetContext(ctx, &position,
			`DELETE FROM listing_images WHERE id = $1 AND listing_id = $2 RETURNING position`, imageID, listingID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("image", imageID)
		}
		if err != nil {
			return postgres.Classify("remove listing image", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE listing_images SET position = position - 1 WHERE listing_id = $1 AND position > $2`,
			listingID, position); err != nil {
			return postgres.Classify("compact listing images", err)
		}
		return nil
	})
}

// applyChange moves the listing status with a compare-and-set and records the event.
func applyChange(ctx context.Context, tx *sqlx.Tx, change *model.StatusChange) error {
	res, err := tx.ExecContext(ctx, `
        UPDATE listings
        SET status = $1, rejection_reason = NULL, updated_at = $2
        WHERE id = $3 AND status = $4
    `, string(change.To), change.At, change.ListingID, string(change.From))
	if err != nil {
		return postgres.Classify("transition listing", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		var current string
		if err := tx.GetContext(ctx, &current, `SELECT status FROM listings WHERE id = $1`, change.ListingID); err != nil {
			return postgres.Classify("read listing status", err)
		}
		return &apperror.InvalidTransitionError{Entity: "listing", ID: change.ListingID, From: current, To: string(change.To)}
	}

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO listing_status_events (id, listing_id, from_status, to_status, actor_id, reason, created_at)
        VALUES (:id, :listing_id, :from_status, :to_status, :actor_id, :reason, :created_at)
    `, change.Event(uuid.New().String()))
	return postgres.Classify("insert listing status event", err)
}

// lockListing serializes image batches of one listing behind its row lock.
func lockListing(ctx context.Context, tx *sqlx.Tx, listingID string) error {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM listings WHERE id = $1 FOR UPDATE`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("listing", listingID)
	}
	return postgres.Classify("lock listing", err)
}
