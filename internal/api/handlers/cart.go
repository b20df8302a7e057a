package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/petshop-plataforma/sales-service/internal/errors"
	"github.com/petshop-plataforma/sales-service/internal/models"
	service "github.com/petshop-plataforma/sales-service/internal/services"
	"github.com/petshop-plataforma/sales-service/internal/utils"
	"github.com/petshop-plataforma/sales-service/internal/utils/response"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

// GET /carrinho/{idCliente}
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		customerID, err := strconv.ParseInt(r.PathValue("idCliente"), 10, 64)
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid customer id in URL"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), customerID)
		if err != nil {
			slog.Error("Failed to fetch cart", slog.Int64("customerId", customerID), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// POST /carrinho/adicionar
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.AddItemRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))
			return
		}

		if err := utils.ValidateStruct(h.validator, req); err != nil {
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				response.ValidationError(w, validationErrs)
				return
			}
			response.Error(w, appErrors.ValidationError("Invalid input data"))
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), &req)
		if err != nil {
			slog.Error("Failed to add item to cart",
				slog.Int64("customerId", req.CustomerID),
				slog.Int64("productId", req.ProductID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("Item added to cart",
			slog.Int64("customerId", req.CustomerID),
			slog.Int64("productId", req.ProductID),
			slog.Int("quantity", req.Quantity))
		response.SuccessWithMessage(w, http.StatusOK, "Item added to cart", cart)
	}
}

// DELETE /carrinho/remover/{idProduto}
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		productID, err := strconv.ParseInt(r.PathValue("idProduto"), 10, 64)
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid product id in URL"))
			return
		}

		var req models.CustomerRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))
			return
		}

		if err := utils.ValidateStruct(h.validator, req); err != nil {
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				response.ValidationError(w, validationErrs)
				return
			}
			response.Error(w, appErrors.ValidationError("Invalid input data"))
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), req.CustomerID, productID)
		if err != nil {
			slog.Error("Failed to remove item from cart",
				slog.Int64("customerId", req.CustomerID),
				slog.Int64("productId", productID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.SuccessWithMessage(w, http.StatusOK, "Item removed from cart", cart)
	}
}

// DELETE /carrinho/esvaziar
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.CustomerRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, appErrors.BadRequestError(err.Error()))
			return
		}

		if err := utils.ValidateStruct(h.validator, req); err != nil {
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				response.ValidationError(w, validationErrs)
				return
			}
			response.Error(w, appErrors.ValidationError("Invalid input data"))
			return
		}

		cart, err := h.cartService.ClearCart(r.Context(), req.CustomerID)
		if err != nil {
			slog.Error("Failed to clear cart", slog.Int64("customerId", req.CustomerID), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.SuccessWithMessage(w, http.StatusOK, "Cart cleared", cart)
	}
}
