package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petshop-plataforma/sales-service/internal/models"
	"github.com/petshop-plataforma/sales-service/internal/utils"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

// CreateProduct inserts the base row plus the satellite row matching the
// product type, in one transaction. A satellite failure rolls back the base
// insert so no base-only product survives.
func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	table, ok := product.Type.SatelliteTable()
	if !ok {
		return fmt.Errorf("unknown product type %q", product.Type)
	}

	return withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		query := `
			INSERT INTO produto (nome, preco, tipo, descricao, data_criacao, data_ultima_modificacao)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id, data_criacao, data_ultima_modificacao
		`

		err := tx.QueryRowContext(dbCtx, query, product.Name, product.Price, product.Type, product.Description).
			Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}

		// table name comes from the closed type enum, never from input
		if _, err := tx.ExecContext(dbCtx, fmt.Sprintf(`INSERT INTO %s (id_produto) VALUES ($1)`, table), product.ID); err != nil {
			return fmt.Errorf("failed to insert %s row: %w", table, err)
		}

		return nil
	})
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
		SELECT id, nome, preco, tipo, descricao, data_criacao, data_ultima_modificacao
		FROM produto
		WHERE id = $1
	`

	var description sql.NullString

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&product.ID, &product.Name, &product.Price, &product.Type, &description, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	product.Description = description.String

	return product, nil
}

// UpdateProduct rewrites the base columns and, when the type tag changed,
// moves the satellite row to the new subtype table inside the same
// transaction. base.tipo and satellite membership never disagree in a
// committed state.
func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	newTable, ok := product.Type.SatelliteTable()
	if !ok {
		return fmt.Errorf("unknown product type %q", product.Type)
	}

	return withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		var currentType models.ProductType

		err := tx.QueryRowContext(dbCtx, `SELECT tipo FROM produto WHERE id = $1 FOR UPDATE`, product.ID).Scan(&currentType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		if currentType != product.Type {
			oldTable, ok := currentType.SatelliteTable()
			if !ok {
				return fmt.Errorf("stored product type %q has no satellite table", currentType)
			}

			if _, err := tx.ExecContext(dbCtx, fmt.Sprintf(`DELETE FROM %s WHERE id_produto = $1`, oldTable), product.ID); err != nil {
				return fmt.Errorf("failed to delete %s row: %w", oldTable, err)
			}

			if _, err := tx.ExecContext(dbCtx, fmt.Sprintf(`INSERT INTO %s (id_produto) VALUES ($1)`, newTable), product.ID); err != nil {
				return fmt.Errorf("failed to insert %s row: %w", newTable, err)
			}
		}

		query := `
			UPDATE produto
			SET nome = $1, preco = $2, tipo = $3, descricao = $4, data_ultima_modificacao = NOW()
			WHERE id = $5
			RETURNING data_criacao, data_ultima_modificacao
		`

		err = tx.QueryRowContext(dbCtx, query, product.Name, product.Price, product.Type, product.Description, product.ID).
			Scan(&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return nil
	})
}

// DeleteProduct removes the satellite row before the base row to respect the
// foreign key ordering.
func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		var currentType models.ProductType

		err := tx.QueryRowContext(dbCtx, `SELECT tipo FROM produto WHERE id = $1 FOR UPDATE`, id).Scan(&currentType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		table, ok := currentType.SatelliteTable()
		if !ok {
			return fmt.Errorf("stored product type %q has no satellite table", currentType)
		}

		if _, err := tx.ExecContext(dbCtx, fmt.Sprintf(`DELETE FROM %s WHERE id_produto = $1`, table), id); err != nil {
			return fmt.Errorf("failed to delete %s row: %w", table, err)
		}

		if _, err := tx.ExecContext(dbCtx, `DELETE FROM produto WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return nil
	})
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, nome, preco, tipo, descricao, data_criacao, data_ultima_modificacao
		FROM produto
		ORDER BY nome ASC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		var description sql.NullString

		err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Type, &description, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return nil, err
		}

		product.Description = description.String
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
