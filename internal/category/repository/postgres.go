package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

const slugConstraint = "categories_slug_key"

type PGRepository struct {
	DB           *sqlx.DB
	readAttempts int
}

func NewPGRepository(db *sqlx.DB, readAttempts int) *PGRepository {
	return &PGRepository{DB: db, readAttempts: readAttempts}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	return insertCategory(ctx, r.DB, c)
}

func insertCategory(ctx context.Context, db sqlx.ExtContext, c *model.Category) error {
	query := `
        INSERT INTO categories (id, parent_id, name, slug, description, icon_url, listing_count, is_active, created_at, updated_at)
        VALUES (:id, :parent_id, :name, :slug, :description, :icon_url, :listing_count, :is_active, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, db, query, c)
	if postgres.IsUniqueViolation(err, slugConstraint) {
		return &apperror.DuplicateSlugError{Slug: c.Slug}
	}
	return postgres.Classify("insert category", err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() (*model.Category, error) {
		var category model.Category
		err := r.DB.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1 LIMIT 1`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, postgres.Classify("find category", err)
		}
		return &category, nil
	})
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ParentID != nil {
		if *f.ParentID == "" {
			conditions = append(conditions, "parent_id IS NULL")
		} else {
			conditions = append(conditions, "parent_id = :parent_id")
			args["parent_id"] = *f.ParentID
		}
	}
	if !f.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}

	query := "SELECT * FROM categories"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	return postgres.RetryRead(ctx, r.readAttempts, func() ([]model.Category, error) {
		var categories []model.Category
		nstmt, err := r.DB.PrepareNamedContext(ctx, query)
		if err != nil {
			return nil, postgres.Classify("prepare list categories", err)
		}
		defer nstmt.Close()

		if err := nstmt.SelectContext(ctx, &categories, args); err != nil {
			return nil, postgres.Classify("list categories", err)
		}
		return categories, nil
	})
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
        UPDATE categories
        SET parent_id = :parent_id,
            name = :name,
            description = :description,
            icon_url = :icon_url,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		return postgres.Classify("update category", err)
	}
	return expectOne(res, "category", c.ID)
}

func (r *PGRepository) CountActiveChildren(ctx context.Context, id string) (int, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() (int, error) {
		var n int
		err := r.DB.GetContext(ctx, &n,
			`SELECT count(*) FROM categories WHERE parent_id = $1 AND is_active = TRUE`, id)
		return n, postgres.Classify("count child categories", err)
	})
}

func (r *PGRepository) Merge(ctx context.Context, sourceID, targetID string) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var locked []string
		if err := tx.SelectContext(ctx, &locked,
			`SELECT id FROM categories WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`, sourceID, targetID); err != nil {
			return postgres.Classify("lock categories", err)
		}
		if len(locked) != 2 {
			return apperror.NotFound("category", sourceID+" or "+targetID)
		}

		var moved int
		if err := tx.GetContext(ctx, &moved,
			`SELECT count(*) FROM listings WHERE category_id = $1 AND status <> 'DELETED'`, sourceID); err != nil {
			return postgres.Classify("count merged listings", err)
		}

		stmts := []struct {
			op    string
			query string
			args  []interface{}
		}{
			{"move listings", `UPDATE listings SET category_id = $2 WHERE category_id = $1`, []interface{}{sourceID, targetID}},
			{"move child categories", `UPDATE categories SET parent_id = $2, updated_at = now() WHERE parent_id = $1`, []interface{}{sourceID, targetID}},
			{"credit target count", `UPDATE categories SET listing_count = listing_count + $2, updated_at = now() WHERE id = $1`, []interface{}{targetID, moved}},
			{"disable source", `UPDATE categories SET listing_count = 0, is_active = FALSE, updated_at = now() WHERE id = $1`, []interface{}{sourceID}},
		}
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
				return postgres.Classify(s.op, err)
			}
		}
		return nil
	})
}

func (r *PGRepository) CreateSuggestion(ctx context.Context, s *model.CategorySuggestion) error {
	query := `
        INSERT INTO category_suggestions (id, user_id, name, description, parent_id, reason, status, created_at)
        VALUES (:id, :user_id, :name, :description, :parent_id, :reason, :status, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return postgres.Classify("insert category suggestion", err)
}

func (r *PGRepository) FindSuggestionByID(ctx context.Context, id string) (*model.CategorySuggestion, error) {
	return postgres.RetryRead(ctx, r.readAttempts, func() (*model.CategorySuggestion, error) {
		var s model.CategorySuggestion
		err := r.DB.GetContext(ctx, &s, `SELECT * FROM category_suggestions WHERE id = $1 LIMIT 1`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, postgres.Classify("find category suggestion", err)
		}
		return &s, nil
	})
}

type suggestionPage struct {
	items []model.CategorySuggestion
	total int
}

func (r *PGRepository) FindSuggestions(ctx context.Context, f *dto.SuggestionFilters) ([]model.CategorySuggestion, int, error) {
	where := ""
	args := []interface{}{}
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, f.Status)
	}
	query := "SELECT * FROM category_suggestions" + where + " ORDER BY created_at ASC, id ASC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	page, err := postgres.RetryRead(ctx, r.readAttempts, func() (suggestionPage, error) {
		var p suggestionPage
		if err := r.DB.GetContext(ctx, &p.total, "SELECT count(*) FROM category_suggestions"+where, args...); err != nil {
			return p, postgres.Classify("count category suggestions", err)
		}
		if err := r.DB.SelectContext(ctx, &p.items, query, args...); err != nil {
			return p, postgres.Classify("list category suggestions", err)
		}
		return p, nil
	})
	return page.items, page.total, err
}

func (r *PGRepository) ResolveSuggestion(ctx context.Context, s *model.CategorySuggestion, created *model.Category) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if created != nil {
			if err := insertCategory(ctx, tx, created); err != nil {
				return err
			}
		}

		query := `
            UPDATE category_suggestions
            SET status = :status,
                rejection_reason = :rejection_reason,
                merged_into_id = :merged_into_id,
                created_category_id = :created_category_id,
                reviewed_by = :reviewed_by,
                reviewed_at = :reviewed_at
            WHERE id = :id AND status = 'PENDING'
        `
		res, err := tx.NamedExecContext(ctx, query, s)
		if err != nil {
			return postgres.Classify("resolve category suggestion", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}

		var current model.SuggestionStatus
		err = tx.GetContext(ctx, &current, `SELECT status FROM category_suggestions WHERE id = $1`, s.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("category suggestion", s.ID)
		}
		if err != nil {
			return postgres.Classify("read category suggestion status", err)
		}
		return &apperror.AlreadyResolvedError{SuggestionID: s.ID, Status: string(current)}
	})
}

func expectOne(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Classify("rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound(entity, id)
	}
	return nil
}
