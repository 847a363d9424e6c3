package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/notiflex/internal/models"
)

type Repository interface {
	// CreateWithDetail inserts both rows in one transaction; neither is
	// visible unless both succeed.
	CreateWithDetail(ctx context.Context, item *models.Item, detail *models.ItemDetail) error
	GetDetail(ctx context.Context, clientID, id uuid.UUID) (*models.ItemDetail, error)
	// UpdateDetailMetadata replaces the title only while it still equals
	// fallbackTitle, and fills end_date only while it is null. It reports
	// whether a row matched.
	UpdateDetailMetadata(ctx context.Context, clientID, id uuid.UUID, fallbackTitle, title string, endDate *string) (bool, error)
}

type SQLRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) CreateWithDetail(ctx context.Context, item *models.Item, detail *models.ItemDetail) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO items (id, object_id, client_id, name, created_by, location, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		item.ID, item.ObjectID, item.ClientID, item.Name, item.CreatedBy, item.Location, item.Notes,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO item_detail (id, item_id, client_id, name, file_type, file_size, file_url, storage_key, end_date, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		detail.ID, detail.ItemID, detail.ClientID, detail.Name, detail.FileType, detail.FileSize,
		detail.FileURL, detail.StorageKey, detail.EndDate, detail.CreatedBy,
	).Scan(&detail.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert item detail: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetDetail(ctx context.Context, clientID, id uuid.UUID) (*models.ItemDetail, error) {
	var d models.ItemDetail
	err := r.db.QueryRowContext(ctx,
		`SELECT id, item_id, client_id, name, file_type, file_size, file_url, storage_key, end_date, created_by, created_at
		 FROM item_detail WHERE id = $1 AND client_id = $2`,
		id, clientID,
	).Scan(&d.ID, &d.ItemID, &d.ClientID, &d.Name, &d.FileType, &d.FileSize, &d.FileURL, &d.StorageKey, &d.EndDate, &d.CreatedBy, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item detail: %w", err)
	}
	return &d, nil
}

func (r *SQLRepository) UpdateDetailMetadata(ctx context.Context, clientID, id uuid.UUID, fallbackTitle, title string, endDate *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE item_detail
		 SET name = CASE WHEN name = $3 AND $4 <> '' THEN $4 ELSE name END,
		     end_date = COALESCE(end_date, $5)
		 WHERE id = $1 AND client_id = $2`,
		id, clientID, fallbackTitle, title, endDate,
	)
	if err != nil {
		return false, fmt.Errorf("update item detail: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update item detail: %w", err)
	}
	return n > 0, nil
}
