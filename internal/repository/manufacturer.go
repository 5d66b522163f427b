package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/santinisystems/catalog/internal/model"
)

// Common errors for manufacturer repository operations.
var (
	ErrManufacturerNotFound = errors.New("manufacturer not found")
)

// Sort directions accepted by ManufacturerFilter.ListDateOrder.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ManufacturerFilter defines filters for listing manufacturers.
// Empty fields are ignored.
type ManufacturerFilter struct {
	Name          string // partial, case-insensitive
	Description   string // partial, case-insensitive
	CountryCode   string // exact
	ListDateOrder string // SortAsc, SortDesc or ""
}

const manufacturerColumns = `id, name, description, country_code, list_date`

// ListManufacturers returns one page of manufacturers and the total count
// matching the filter.
func (r *Repository) ListManufacturers(ctx context.Context, filter ManufacturerFilter, limit, offset int) ([]*model.Manufacturer, int, error) {
	where, args := filter.whereClause()

	var total int
	countQuery := `SELECT COUNT(*) FROM manufacturers` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count manufacturers: %w", err)
	}

	query := `SELECT ` + manufacturerColumns + ` FROM manufacturers` + where
	switch filter.ListDateOrder {
	case SortAsc:
		query += " ORDER BY list_date ASC, id ASC"
	case SortDesc:
		query += " ORDER BY list_date DESC, id ASC"
	default:
		query += " ORDER BY id ASC"
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list manufacturers: %w", err)
	}
	defer rows.Close()

	manufacturers := []*model.Manufacturer{}
	for rows.Next() {
		m, err := scanManufacturer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan manufacturer: %w", err)
		}
		manufacturers = append(manufacturers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating manufacturers: %w", err)
	}

	if err := r.attachProductIDs(ctx, manufacturers); err != nil {
		return nil, 0, err
	}

	return manufacturers, total, nil
}

func (f ManufacturerFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Name != "" {
		args = append(args, containsPattern(f.Name))
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.Description != "" {
		args = append(args, containsPattern(f.Description))
		conds = append(conds, fmt.Sprintf("description ILIKE $%d", len(args)))
	}
	if f.CountryCode != "" {
		args = append(args, f.CountryCode)
		conds = append(conds, fmt.Sprintf("country_code = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetManufacturer retrieves a manufacturer with the IDs of its products.
func (r *Repository) GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error) {
	query := `SELECT ` + manufacturerColumns + ` FROM manufacturers WHERE id = $1`

	m, err := scanManufacturer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrManufacturerNotFound
		}
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}

	if err := r.attachProductIDs(ctx, []*model.Manufacturer{m}); err != nil {
		return nil, err
	}

	return m, nil
}

// ManufacturerExists checks if a manufacturer with the ID exists.
func (r *Repository) ManufacturerExists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM manufacturers WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check manufacturer existence: %w", err)
	}

	return exists, nil
}

// CreateManufacturer inserts a manufacturer and sets its generated ID.
func (r *Repository) CreateManufacturer(ctx context.Context, m *model.Manufacturer) error {
	query := `
		INSERT INTO manufacturers (name, description, country_code, list_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		m.Name,
		m.Description,
		m.CountryCode,
		m.ListDate,
	).Scan(&m.ID)

	if err != nil {
		return fmt.Errorf("failed to create manufacturer: %w", err)
	}

	return nil
}

// UpdateManufacturer writes all mutable fields of a manufacturer.
func (r *Repository) UpdateManufacturer(ctx context.Context, m *model.Manufacturer) error {
	query := `
		UPDATE manufacturers
		SET name = $2, description = $3, country_code = $4, list_date = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Name,
		m.Description,
		m.CountryCode,
		m.ListDate,
	)

	if err != nil {
		return fmt.Errorf("failed to update manufacturer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrManufacturerNotFound
	}

	return nil
}

// attachProductIDs fills ProductIDs for each manufacturer in one query.
func (r *Repository) attachProductIDs(ctx context.Context, manufacturers []*model.Manufacturer) error {
	if len(manufacturers) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Manufacturer, len(manufacturers))
	ids := make([]int64, 0, len(manufacturers))
	for _, m := range manufacturers {
		m.ProductIDs = []int64{}
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query := `
		SELECT manufacturer_id, id
		FROM products
		WHERE manufacturer_id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to list manufacturer products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var manufacturerID, productID int64
		if err := rows.Scan(&manufacturerID, &productID); err != nil {
			return fmt.Errorf("failed to scan manufacturer product: %w", err)
		}
		if m, ok := byID[manufacturerID]; ok {
			m.ProductIDs = append(m.ProductIDs, productID)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating manufacturer products: %w", err)
	}

	return nil
}

func scanManufacturer(row pgx.Row) (*model.Manufacturer, error) {
	var m model.Manufacturer
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.CountryCode,
		&m.ListDate,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
