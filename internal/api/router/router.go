package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gocatalog/internal/api/product"
	"gocatalog/internal/api/user"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/middleware"
)

// Options agrupa as dependências transversais do roteador (AuthN, AuthZ e
// limitação de taxa).
type Options struct {
	TokenSvc             middleware.TokenService
	CacheClient          cache.Client
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
//
// Política de acesso: leituras do catálogo exigem role admin ou user;
// escritas (criar, atualizar, deletar) exigem admin.
func NewRouter(productHandler *product.Handler, userHandler *user.Handler, opts Options) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(opts.TokenSvc)
	readAccess := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleUser)
	writeAccess := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas Públicas de Autenticação (v1) ---
	mux.HandleFunc("/v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("/v1/login", userHandler.LoginUserHandler)

	// --- 3. Rotas do Módulo de Produtos (v1) ---

	// GET /v1/products/paged (Busca paginada) — registrado antes do prefixo
	// /v1/products/ para ter precedência no ServeMux.
	mux.HandleFunc("/v1/products/paged", auth(readAccess(productHandler.SearchProductsHandler)))

	// GET /v1/products (Listar) | POST /v1/products (Criar)
	mux.HandleFunc("/v1/products", auth(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			readAccess(productHandler.ListProductsHandler)(w, r)
		case http.MethodPost:
			writeAccess(productHandler.CreateProductHandler)(w, r)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
	}))

	// GET/PUT/DELETE /v1/products/{id}
	mux.HandleFunc("/v1/products/", auth(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			readAccess(productHandler.GetProductByIDHandler)(w, r)
		case http.MethodPut:
			writeAccess(productHandler.UpdateProductHandler)(w, r)
		case http.MethodDelete:
			writeAccess(productHandler.DeleteProductHandler)(w, r)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
	}))

	// --- 4. Middlewares Globais ---
	return middleware.RateLimiter(opts.CacheClient, opts.RateLimitMaxRequests, opts.RateLimitPeriod)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
