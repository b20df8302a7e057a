package service

import (
	"context"
	"errors"

	appErrors "github.com/petshop-plataforma/sales-service/internal/errors"
	"github.com/petshop-plataforma/sales-service/internal/models"
	repository "github.com/petshop-plataforma/sales-service/internal/repositories"
)

type CartService interface {
	GetCart(ctx context.Context, customerID int64) (*models.Cart, error)
	AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID int64) (*models.Cart, error)
	ClearCart(ctx context.Context, customerID int64) (*models.Cart, error)
}

type cartService struct {
	repo repository.CartRepository
}

func NewCartService(repo repository.CartRepository) CartService {
	return &cartService{repo: repo}
}

func (s *cartService) GetCart(ctx context.Context, customerID int64) (*models.Cart, error) {

	cart, err := s.repo.GetCartByUserID(ctx, customerID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Cart, error) {

	if req.Quantity <= 0 {
		return nil, appErrors.ValidationError("Quantity must be a positive integer")
	}

	cart, err := s.repo.AddItem(ctx, req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, productID int64) (*models.Cart, error) {

	cart, err := s.repo.RemoveItem(ctx, customerID, productID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, appErrors.NotFoundError("Cart not found for this customer").WithError(err)
		case errors.Is(err, repository.ErrItemNotFound):
			return nil, appErrors.NotFoundError("Product not found in cart").WithError(err)
		default:
			return nil, appErrors.DatabaseError("Failed to remove item from cart").WithError(err)
		}
	}

	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, customerID int64) (*models.Cart, error) {

	cart, err := s.repo.ClearCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, appErrors.NotFoundError("Cart not found for this customer").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return cart, nil
}
