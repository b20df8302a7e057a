package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/petshop-plataforma/sales-service/internal/models"
	"github.com/petshop-plataforma/sales-service/internal/utils"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
)

type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error)
	ClearCart(ctx context.Context, userID int64) (*models.Cart, error)
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

// querier is the subset of *sql.DB / *sql.Tx the snapshot helpers need, so the
// read path can reuse them outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetCartByUserID is the read-only path: a user without a cart gets a
// well-formed empty value, not an error.
func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart, err := r.loadHeaderByUser(dbCtx, r.DB, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmptyCart(userID), nil
		}
		return nil, err
	}

	cart.Items, err = r.loadItems(dbCtx, r.DB, *cart.ID)
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// AddItem resolves (or lazily creates) the user's cart, upserts the line item
// and re-aggregates the total, all inside one transaction. The cart header is
// locked first so concurrent adds to the same cart serialize instead of both
// reading the pre-update item set.
func (r *cartRepository) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var cart *models.Cart

	err := withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		var exists bool
		if err := tx.QueryRowContext(dbCtx, `SELECT EXISTS(SELECT 1 FROM produto WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}

		if !exists {
			return ErrProductNotFound
		}

		cartID, err := r.getOrCreateCart(dbCtx, tx, userID)
		if err != nil {
			return err
		}

		upsert := `
			INSERT INTO item_carrinho (id_carrinho, id_produto, quantidade)
			VALUES ($1, $2, $3)
			ON CONFLICT (id_carrinho, id_produto)
			DO UPDATE SET quantidade = item_carrinho.quantidade + EXCLUDED.quantidade
		`

		if _, err := tx.ExecContext(dbCtx, upsert, cartID, productID, quantity); err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}

		if err := r.recomputeTotal(dbCtx, tx, cartID); err != nil {
			return err
		}

		cart, err = r.snapshot(dbCtx, tx, cartID)

		return err
	})

	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var cart *models.Cart

	err := withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		cartID, err := r.lockCart(dbCtx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartNotFound
			}
			return err
		}

		result, err := tx.ExecContext(dbCtx, `DELETE FROM item_carrinho WHERE id_carrinho = $1 AND id_produto = $2`, cartID, productID)
		if err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get deleted rows: %w", err)
		}

		if deleted == 0 {
			return ErrItemNotFound
		}

		if err := r.recomputeTotal(dbCtx, tx, cartID); err != nil {
			return err
		}

		cart, err = r.snapshot(dbCtx, tx, cartID)

		return err
	})

	if err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart empties the cart and zeroes the total. The cart row itself stays.
func (r *cartRepository) ClearCart(ctx context.Context, userID int64) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var cart *models.Cart

	err := withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		cartID, err := r.lockCart(dbCtx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartNotFound
			}
			return err
		}

		if _, err := tx.ExecContext(dbCtx, `DELETE FROM item_carrinho WHERE id_carrinho = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		if _, err := tx.ExecContext(dbCtx, `UPDATE carrinho SET total = 0, data_ultima_modificacao = NOW() WHERE id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to reset cart total: %w", err)
		}

		cart, err = r.snapshot(dbCtx, tx, cartID)

		return err
	})

	if err != nil {
		return nil, err
	}

	return cart, nil
}

// lockCart takes the row lock every read-modify-write sequence starts from.
func (r *cartRepository) lockCart(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {

	var cartID int64

	err := tx.QueryRowContext(ctx, `SELECT id FROM carrinho WHERE id_usuario = $1 FOR UPDATE`, userID).Scan(&cartID)

	return cartID, err
}

func (r *cartRepository) getOrCreateCart(ctx context.Context, tx *sql.Tx, userID int64) (int64, error) {

	cartID, err := r.lockCart(ctx, tx, userID)
	if err == nil {
		return cartID, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up cart: %w", err)
	}

	// First add for this user. ON CONFLICT covers two first adds racing:
	// the loser gets no row back and falls through to lock the winner's.
	insert := `
		INSERT INTO carrinho (id_usuario, total, data_criacao, data_ultima_modificacao)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (id_usuario) DO NOTHING
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, insert, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to create cart: %w", err)
	}

	cartID, err = r.lockCart(ctx, tx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up cart: %w", err)
	}

	return cartID, nil
}

// recomputeTotal re-aggregates every line item against the live catalog price
// and persists the result. Runs inside the mutating transaction, so the stored
// total can never drift from the stored items.
func (r *cartRepository) recomputeTotal(ctx context.Context, tx *sql.Tx, cartID int64) error {

	aggregate := `
		SELECT COALESCE(SUM(ic.quantidade * p.preco), 0)
		FROM item_carrinho ic
		JOIN produto p ON p.id = ic.id_produto
		WHERE ic.id_carrinho = $1
	`

	var total decimal.Decimal

	if err := tx.QueryRowContext(ctx, aggregate, cartID).Scan(&total); err != nil {
		return fmt.Errorf("failed to aggregate cart total: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE carrinho SET total = $1, data_ultima_modificacao = NOW() WHERE id = $2`, total, cartID); err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}

	return nil
}

func (r *cartRepository) snapshot(ctx context.Context, q querier, cartID int64) (*models.Cart, error) {

	cart, err := r.loadHeader(ctx, q, cartID)
	if err != nil {
		return nil, err
	}

	cart.Items, err = r.loadItems(ctx, q, cartID)
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) loadHeader(ctx context.Context, q querier, cartID int64) (*models.Cart, error) {
	return r.scanHeader(q.QueryRowContext(ctx, `
		SELECT id, id_usuario, total, data_criacao, data_ultima_modificacao
		FROM carrinho
		WHERE id = $1
	`, cartID))
}

func (r *cartRepository) loadHeaderByUser(ctx context.Context, q querier, userID int64) (*models.Cart, error) {
	return r.scanHeader(q.QueryRowContext(ctx, `
		SELECT id, id_usuario, total, data_criacao, data_ultima_modificacao
		FROM carrinho
		WHERE id_usuario = $1
	`, userID))
}

func (r *cartRepository) scanHeader(row *sql.Row) (*models.Cart, error) {

	cart := &models.Cart{}

	err := row.Scan(&cart.ID, &cart.UserID, &cart.Total, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) loadItems(ctx context.Context, q querier, cartID int64) ([]models.CartItem, error) {

	query := `
		SELECT ic.id_produto, p.nome, ic.quantidade, p.preco
		FROM item_carrinho ic
		JOIN produto p ON p.id = ic.id_produto
		WHERE ic.id_carrinho = $1
		ORDER BY p.nome ASC
	`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}

	defer rows.Close()

	items := []models.CartItem{}

	for rows.Next() {
		var item models.CartItem

		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
