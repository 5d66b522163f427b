package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/santinisystems/catalog/internal/model"
)

// Common errors for product repository operations.
var (
	ErrProductNotFound = errors.New("product not found")
)

const productSelect = `
	SELECT p.id, p.mpn, p.name, p.description, p.issue_date, p.manufacturer_id, p.owner_id, m.name
	FROM products p
	LEFT JOIN manufacturers m ON m.id = p.manufacturer_id
`

// ListProducts returns one page of products ordered by ID and the total count.
func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]*model.Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products, err := r.queryProducts(ctx, productSelect+` ORDER BY p.id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListProductsByManufacturer returns one page of a manufacturer's products
// and their total count.
func (r *Repository) ListProductsByManufacturer(ctx context.Context, manufacturerID int64, limit, offset int) ([]*model.Product, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE manufacturer_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, manufacturerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count manufacturer products: %w", err)
	}

	query := productSelect + ` WHERE p.manufacturer_id = $1 ORDER BY p.id ASC LIMIT $2 OFFSET $3`
	products, err := r.queryProducts(ctx, query, manufacturerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetProduct retrieves a product with its manufacturer's name.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// CreateProduct inserts a product and sets its generated ID.
func (r *Repository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (mpn, name, description, issue_date, manufacturer_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		p.MPN,
		p.Name,
		p.Description,
		p.IssueDate,
		p.ManufacturerID,
		p.OwnerID,
	).Scan(&p.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrManufacturerNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// UpdateProduct writes the writable fields of a product. The owner is never
// changed here.
func (r *Repository) UpdateProduct(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET mpn = $2, name = $3, description = $4, issue_date = $5, manufacturer_id = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.MPN,
		p.Name,
		p.Description,
		p.IssueDate,
		p.ManufacturerID,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrManufacturerNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]*model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	var manufacturerName *string

	err := row.Scan(
		&p.ID,
		&p.MPN,
		&p.Name,
		&p.Description,
		&p.IssueDate,
		&p.ManufacturerID,
		&p.OwnerID,
		&manufacturerName,
	)
	if err != nil {
		return nil, err
	}

	if p.ManufacturerID != nil && manufacturerName != nil {
		p.Manufacturer = &model.ManufacturerRef{ID: *p.ManufacturerID, Name: *manufacturerName}
	}
	return &p, nil
}
