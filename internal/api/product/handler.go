package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, cmd productservice.CreateProductCommand) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, cmd productservice.UpdateProductCommand) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, term, statusFilter string, page domain.PageRequest) (domain.PageResult[*domain.Product], error)
}

// ProductRequest é o payload de entrada para criação e atualização de produtos.
type ProductRequest struct {
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Status string          `json:"status"`
}

// ProductResponse é a representação pública do produto na API.
// O agregado de domínio nunca é serializado diretamente.
type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func fromDomain(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price(),
		Stock:     p.Stock(),
		Status:    string(p.Status()),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

// PagedResponse é o envelope da busca paginada, com os metadados derivados.
type PagedResponse struct {
	Items         []ProductResponse `json:"items"`
	TotalElements int64             `json:"totalElements"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalPages    int               `json:"totalPages"`
	HasNext       bool              `json:"hasNext"`
	HasPrevious   bool              `json:"hasPrevious"`
}

func pagedFromDomain(result domain.PageResult[*domain.Product]) PagedResponse {
	items := make([]ProductResponse, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, fromDomain(p))
	}
	return PagedResponse{
		Items:         items,
		TotalElements: result.TotalElements,
		Page:          result.Page,
		Size:          result.Size,
		TotalPages:    result.TotalPages(),
		HasNext:       result.HasNext(),
		HasPrevious:   result.HasPrevious(),
	}
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		// Sucesso
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		h.Logger.Debug("Requisição concluída com sucesso.", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	// TRATAMENTO DE ERROS
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		// Erros de cliente (4xx) são registrados como debug
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// extractID extrai o ID do último segmento da URL (/v1/products/{id}).
func extractID(r *http.Request) (string, error) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		return "", apperror.NewValidationError("Formato de URL inválido ou ID ausente.")
	}
	return segments[2], nil
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um novo produto
// @Description Valida e persiste um novo produto no catálogo. Status omitido resulta em ACTIVE.
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Dados do produto"
// @Success 201 {object} ProductResponse "Produto criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Campos inválidos (nome vazio, preço não positivo, estoque negativo, status desconhecido)"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /v1/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	cmd := productservice.CreateProductCommand{
		Name:   request.Name,
		Price:  request.Price,
		Stock:  request.Stock,
		Status: request.Status,
	}

	newProduct, err := h.Service.CreateProduct(ctx, cmd)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, fromDomain(newProduct), nil, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /v1/products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := extractID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	product, err := h.Service.GetProduct(ctx, productID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, fromDomain(product), nil, http.StatusOK)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// Retorna o catálogo inteiro, sem paginação — adequado a catálogos pequenos e
// dumps administrativos; consumidores de volume devem usar /v1/products/paged.
// @Summary Lista todos os produtos
// @Tags products
// @Produce json
// @Success 200 {array} ProductResponse
// @Router /v1/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.Service.ListProducts(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, fromDomain(p))
	}

	h.handleServiceResponse(w, r, responses, nil, http.StatusOK)
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
// @Summary Atualiza um produto
// @Description Aplica nome, preço, estoque e status ao produto. Reativar um produto descontinuado retorna 409.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param product body ProductRequest true "Novos dados do produto"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} domain.ErrorResponse "Campos inválidos"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Transição de status proibida ou conflito de concorrência"
// @Router /v1/products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := extractID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var request ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	cmd := productservice.UpdateProductCommand{
		ID:     productID,
		Name:   request.Name,
		Price:  request.Price,
		Stock:  request.Stock,
		Status: request.Status,
	}

	updated, err := h.Service.UpdateProduct(ctx, cmd)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, fromDomain(updated), nil, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Deleta um produto
// @Tags products
// @Param id path string true "ID do produto"
// @Success 204 "Produto deletado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /v1/products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := extractID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}

	if err := h.Service.DeleteProduct(ctx, productID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// SearchProductsHandler lida com a requisição GET /v1/products/paged.
// @Summary Busca paginada de produtos
// @Description Busca com filtro opcional por termo (substring do nome, sem diferenciar maiúsculas) e status, com paginação e ordenação server-side.
// @Tags products
// @Produce json
// @Param q query string false "Termo de busca (nome)"
// @Param status query string false "Filtro de status (ACTIVE ou DISCONTINUED)"
// @Param page query int false "Índice da página (0-based)" default(0)
// @Param size query int false "Itens por página (1-200)" default(50)
// @Param sort query string false "Ordenação (e.g. 'name,asc;price,desc')" default(id,asc)
// @Success 200 {object} PagedResponse
// @Failure 400 {object} domain.ErrorResponse "Parâmetros de paginação inválidos"
// @Router /v1/products/paged [get]
func (h *Handler) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	page := 0
	if raw := query.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro 'page' deve ser um número inteiro."), http.StatusOK)
			return
		}
		page = parsed
	}

	size := 50
	if raw := query.Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro 'size' deve ser um número inteiro."), http.StatusOK)
			return
		}
		size = parsed
	}

	sort := query.Get("sort")
	if sort == "" {
		sort = "id,asc"
	}

	// O PageRequest é construído (e validado) uma única vez, antes de chegar
	// ao motor de busca — valores fora da faixa falham aqui.
	pageRequest, err := domain.NewPageRequest(page, size, sort)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.Service.SearchProducts(ctx, query.Get("q"), query.Get("status"), pageRequest)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, pagedFromDomain(result), nil, http.StatusOK)
}
