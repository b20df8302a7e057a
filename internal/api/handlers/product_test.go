package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/petshop-plataforma/sales-service/internal/api/handlers"
	appErrors "github.com/petshop-plataforma/sales-service/internal/errors"
	"github.com/petshop-plataforma/sales-service/internal/models"
	"github.com/petshop-plataforma/sales-service/internal/services/mocks"
	"github.com/petshop-plataforma/sales-service/internal/testutils"
)

func sampleProduct() *models.Product {
	return &models.Product{
		ID:          7,
		Name:        "Vermifugo",
		Price:       decimal.RequireFromString("10.00"),
		Type:        models.TypeRemedio,
		Description: "Dose unica",
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	mockService := new(mocks.ProductService)
	handler := handlers.NewProductHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService.On("ListProducts", mock.Anything).
			Return([]*models.Product{sampleProduct()}, nil).Once()
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListProducts()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("Success - empty catalog", func(t *testing.T) {
		// Arrange
		mockService.On("ListProducts", mock.Anything).
			Return([]*models.Product{}, nil).Once()
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListProducts()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - database error", func(t *testing.T) {
		// Arrange
		mockService.On("ListProducts", mock.Anything).
			Return(nil, appErrors.DatabaseError("Failed to fetch products")).Once()
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListProducts()(rec, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		mockService.AssertExpectations(t)
	})
}

func TestProductHandler_GetProduct(t *testing.T) {
	mockService := new(mocks.ProductService)
	handler := handlers.NewProductHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService.On("GetProductByID", mock.Anything, int64(7)).Return(sampleProduct(), nil).Once()
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos/7", nil, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "Vermifugo", data["nome"])
		assert.Equal(t, "REMEDIO", data["tipo"])
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - non-numeric id", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos/abc", nil, map[string]string{"id": "abc"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "GetProductByID")
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// Arrange
		mockService.On("GetProductByID", mock.Anything, int64(99)).
			Return(nil, appErrors.NotFoundError("Product not found")).Once()
		req := testutils.CreateTestRequest(http.MethodGet, "/produtos/99", nil, map[string]string{"id": "99"})
		rec := httptest.NewRecorder()

		// Act
		handler.GetProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "Product not found", resp.Message)
		mockService.AssertExpectations(t)
	})
}

func TestProductHandler_CreateProduct(t *testing.T) {
	mockService := new(mocks.ProductService)
	handler := handlers.NewProductHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		body := `{"nome": "Vermifugo", "preco": "10.00", "tipo": "REMEDIO", "descricao": "Dose unica"}`
		mockService.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.CreateProductRequest")).
			Return(sampleProduct(), nil).Once()
		req := testutils.CreateTestRequest(http.MethodPost, "/produtos", strings.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.CreateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - missing name", func(t *testing.T) {
		// Arrange
		body := `{"preco": "10.00", "tipo": "REMEDIO"}`
		req := testutils.CreateTestRequest(http.MethodPost, "/produtos", strings.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.CreateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.Contains(t, resp.Message, "Name")
		mockService.AssertNotCalled(t, "CreateProduct")
	})

	t.Run("Failure - type outside the closed set", func(t *testing.T) {
		// Arrange
		body := `{"nome": "Coleira", "preco": "25.00", "tipo": "ACESSORIO"}`
		req := testutils.CreateTestRequest(http.MethodPost, "/produtos", strings.NewReader(body), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.CreateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.Contains(t, resp.Message, "Type")
		mockService.AssertNotCalled(t, "CreateProduct")
	})

	t.Run("Failure - malformed body", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequest(http.MethodPost, "/produtos", strings.NewReader("{not json"), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.CreateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateProduct")
	})
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	mockService := new(mocks.ProductService)
	handler := handlers.NewProductHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		body := `{"nome": "Racao premium", "preco": "55.90", "tipo": "RACAO"}`
		updated := &models.Product{ID: 7, Name: "Racao premium", Price: decimal.RequireFromString("55.90"), Type: models.TypeRacao}
		mockService.On("UpdateProduct", mock.Anything, int64(7), mock.AnythingOfType("*models.UpdateProductRequest")).
			Return(updated, nil).Once()
		req := testutils.CreateTestRequest(http.MethodPut, "/produtos/7", strings.NewReader(body), map[string]string{"id": "7"})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "RACAO", data["tipo"])
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// Arrange
		body := `{"nome": "Racao premium", "preco": "55.90", "tipo": "RACAO"}`
		mockService.On("UpdateProduct", mock.Anything, int64(99), mock.AnythingOfType("*models.UpdateProductRequest")).
			Return(nil, appErrors.NotFoundError("Product not found")).Once()
		req := testutils.CreateTestRequest(http.MethodPut, "/produtos/99", strings.NewReader(body), map[string]string{"id": "99"})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - non-numeric id", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequest(http.MethodPut, "/produtos/abc", strings.NewReader(`{}`), map[string]string{"id": "abc"})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "UpdateProduct")
	})
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	mockService := new(mocks.ProductService)
	handler := handlers.NewProductHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockService.On("DeleteProduct", mock.Anything, int64(7)).Return(nil).Once()
		req := testutils.CreateTestRequest(http.MethodDelete, "/produtos/7", nil, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()

		// Act
		handler.DeleteProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "Product deleted", resp.Message)
		assert.Nil(t, resp.Data)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - not found", func(t *testing.T) {
		// Arrange
		mockService.On("DeleteProduct", mock.Anything, int64(99)).
			Return(appErrors.NotFoundError("Product not found")).Once()
		req := testutils.CreateTestRequest(http.MethodDelete, "/produtos/99", nil, map[string]string{"id": "99"})
		rec := httptest.NewRecorder()

		// Act
		handler.DeleteProduct()(rec, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeEnvelope(t, rec)
		assert.False(t, resp.Success)
		mockService.AssertExpectations(t)
	})
}
