package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/listing/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/postgres"
	"github.com/fekuna/marine-listing-service/internal/vertical"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB           *sqlx.DB
	registry     *vertical.Registry
	readAttempts int
}

func NewPGRepository(db *sqlx.DB, registry *vertical.Registry, readAttempts int) *PGRepository {
	return &PGRepository{DB: db, registry: registry, readAttempts: readAttempts}
}

func (r *PGRepository) Create(ctx context.Context, l *model.Listing) error {
	spec, err := r.registry.Lookup(l.Vertical)
	if err != nil {
		return err
	}

	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO listings (
                id, owner_id, vertical, title, description, price, currency, location,
                category_id, status, rejection_reason, view_count, created_at, updated_at
            )
            VALUES (
                :id, :owner_id, :vertical, :title, :description, :price, :currency, :location,
                :category_id, :status, :rejection_reason, :view_count, :created_at, :updated_at
            )
        `
		if _, err := tx.NamedExecContext(ctx, query, l); err != nil {
			return postgres.Classify("insert listing", err)
		}

		if _, err := tx.NamedExecContext(ctx, insertExtensionSQL(spec), l.Extension); err != nil {
			return postgres.Classify("insert "+string(spec.Vertical)+" extension", err)
		}

		for _, img := range l.Images {
			if _, err := tx.NamedExecContext(ctx, insertImageSQL, img); err != nil {
				return postgres.Classify("insert listing image", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET listing_count = listing_count + 1 WHERE id = $1`, l.CategoryID); err != nil {
			return postgres.Classify("credit category listing count", err)
		}
		return nil
	})
}

const insertImageSQL = `
    INSERT INTO listing_images (id, listing_id, url, position, created_at)
    VALUES (:id, :listing_id, :url, :position, :created_at)
`

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() (*model.Listing, error) {
		// one snapshot so the listing, its extension and its images are read consistently
		tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
		if err != nil {
			return nil, postgres.Classify("begin read", err)
		}
		defer tx.Rollback()

		var l model.Listing
		if err := tx.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1 LIMIT 1`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, postgres.Classify("find listing", err)
		}

		spec, err := r.registry.Lookup(l.Vertical)
		if err != nil {
			return nil, err
		}
		ext := spec.New()
		if err := tx.GetContext(ctx, ext, selectExtensionSQL(spec), id); err != nil {
			return nil, postgres.Classify("find "+string(spec.Vertical)+" extension", err)
		}
		l.Extension = ext

		if err := tx.SelectContext(ctx, &l.Images,
			`SELECT * FROM listing_images WHERE listing_id = $1 ORDER BY position ASC`, id); err != nil {
			return nil, postgres.Classify("find listing images", err)
		}
		return &l, nil
	})
}

type listingPage struct {
	items []model.Listing
	total int
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ListingFilters) ([]model.Listing, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = "+arg(f.CategoryID))
	}
	if f.OwnerID != "" {
		conditions = append(conditions, "owner_id = "+arg(f.OwnerID))
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = arg(string(s))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.ViewerID != "" {
		conditions = append(conditions, "(status = 'APPROVED' OR owner_id = "+arg(f.ViewerID)+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM listings" + whereClause
	query := "SELECT * FROM listings" + whereClause + " ORDER BY created_at DESC, id ASC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	page, err := postgres.RetryRead(ctx, r.readAttempts, func() (listingPage, error) {
		var p listingPage
		if err := r.DB.GetContext(ctx, &p.total, countQuery, args...); err != nil {
			return p, postgres.Classify("count listings", err)
		}
		if err := r.DB.SelectContext(ctx, &p.items, query, args...); err != nil {
			return p, postgres.Classify("list listings", err)
		}
		return p, nil
	})
	return page.items, page.total, err
}

func (r *PGRepository) Update(ctx context.Context, l *model.Listing, prevCategoryID string, change *model.StatusChange) error {
	spec, err := r.registry.Lookup(l.Vertical)
	if err != nil {
		return err
	}

	expected := l.Status
	if change != nil {
		expected = change.From
	}

	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
            UPDATE listings
            SET title = :title,
                description = :description,
                price = :price,
                currency = :currency,
                location = :location,
                category_id = :category_id,
                status = :status,
                rejection_reason = :rejection_reason,
                updated_at = :updated_at
            WHERE id = :id AND status = :expected_status
        `, map[string]interface{}{
			"id":               l.ID,
			"title":            l.Title,
			"description":      l.Description,
			"price":            l.Price,
			"currency":         l.Currency,
			"location":         l.Location,
			"category_id":      l.CategoryID,
			"status":           l.Status,
			"rejection_reason": l.RejectionReason,
			"updated_at":       l.UpdatedAt,
			"expected_status":  expected,
		})
		if err != nil {
			return postgres.Classify("update listing", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return casFailure(ctx, tx, l.ID, string(l.Status))
		}

		if _, err := tx.NamedExecContext(ctx, updateExtensionSQL(spec), l.Extension); err != nil {
			return postgres.Classify("update "+string(spec.Vertical)+" extension", err)
		}

		if prevCategoryID != "" && prevCategoryID != l.CategoryID {
			if err := moveCount(ctx, tx, prevCategoryID, l.CategoryID); err != nil {
				return err
			}
		}
		if change != nil {
			return insertEvent(ctx, tx, change)
		}
		return nil
	})
}

func (r *PGRepository) Transition(ctx context.Context, change *model.StatusChange) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE listings
            SET status = $1,
                rejection_reason = CASE
                    WHEN $1 = 'REJECTED' THEN $2
                    WHEN $1 = 'DELETED' THEN rejection_reason
                    ELSE NULL
                END,
                updated_at = $3
            WHERE id = $4 AND status = $5
        `, string(change.To), change.Reason, change.At, change.ListingID, string(change.From))
		if err != nil {
			return postgres.Classify("transition listing", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return casFailure(ctx, tx, change.ListingID, string(change.To))
		}

		if change.To == model.ListingDeleted {
			if _, err := tx.ExecContext(ctx, `
                UPDATE categories SET listing_count = GREATEST(listing_count - 1, 0)
                WHERE id = (SELECT category_id FROM listings WHERE id = $1)
            `, change.ListingID); err != nil {
				return postgres.Classify("debit category listing count", err)
			}
		}
		return insertEvent(ctx, tx, change)
	})
}

func (r *PGRepository) History(ctx context.Context, listingID string) ([]model.StatusEvent, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() ([]model.StatusEvent, error) {
		var events []model.StatusEvent
		err := r.DB.SelectContext(ctx, &events,
			`SELECT * FROM listing_status_events WHERE listing_id = $1 ORDER BY created_at ASC, id ASC`, listingID)
		return events, postgres.Classify("list listing status events", err)
	})
}

func (r *PGRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE listings SET view_count = view_count + 1 WHERE id = $1 AND status = 'APPROVED'`, id)
	return postgres.Classify("increment listing views", err)
}

func (r *PGRepository) Purge(ctx context.Context, id string) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var gone struct {
			CategoryID string              `db:"category_id"`
			Status     model.ListingStatus `db:"status"`
		}
		err := tx.GetContext(ctx, &gone, `DELETE FROM listings WHERE id = $1 RETURNING category_id, status`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("listing", id)
		}
		if err != nil {
			return postgres.Classify("purge listing", err)
		}
		if gone.Status != model.ListingDeleted {
			if _, err := tx.ExecContext(ctx,
				`UPDATE categories SET listing_count = GREATEST(listing_count - 1, 0) WHERE id = $1`, gone.CategoryID); err != nil {
				return postgres.Classify("debit category listing count", err)
			}
		}
		return nil
	})
}

// casFailure explains a status compare-and-set that matched no row.
func casFailure(ctx context.Context, tx *sqlx.Tx, id, to string) error {
	var current string
	err := tx.GetContext(ctx, &current, `SELECT status FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("listing", id)
	}
	if err != nil {
		return postgres.Classify("read listing status", err)
	}
	return &apperror.InvalidTransitionError{Entity: "listing", ID: id, From: current, To: to}
}

func moveCount(ctx context.Context, tx *sqlx.Tx, from, to string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET listing_count = GREATEST(listing_count - 1, 0) WHERE id = $1`, from); err != nil {
		return postgres.Classify("debit category listing count", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET listing_count = listing_count + 1 WHERE id = $1`, to); err != nil {
		return postgres.Classify("credit category listing count", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, change *model.StatusChange) error {
	query := `
        INSERT INTO listing_status_events (id, listing_id, from_status, to_status, actor_id, reason, created_at)
        VALUES (:id, :listing_id, :from_status, :to_status, :actor_id, :reason, :created_at)
    `
	_, err := tx.NamedExecContext(ctx, query, change.Event(uuid.New().String()))
	return postgres.Classify("insert listing status event", err)
}

func quoted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = `"` + c + `"`
	}
	return out
}

func insertExtensionSQL(spec *vertical.Spec) string {
	cols := append([]string{"id", "listing_id"}, spec.Columns...)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		spec.Table, strings.Join(quoted(cols), ", "), strings.Join(cols, ", :"))
}

func selectExtensionSQL(spec *vertical.Spec) string {
	cols := append([]string{"id", "listing_id"}, spec.Columns...)
	return fmt.Sprintf("SELECT %s FROM %s WHERE listing_id = $1", strings.Join(quoted(cols), ", "), spec.Table)
}

func updateExtensionSQL(spec *vertical.Spec) string {
	sets := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		sets[i] = fmt.Sprintf(`"%s" = :%s`, c, c)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE listing_id = :listing_id", spec.Table, strings.Join(sets, ", "))
}
