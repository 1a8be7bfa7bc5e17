package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
)

// ProductRepository implementa a Porta domain.ProductRepository sobre PostgreSQL,
// com cache-aside via Redis nas leituras por ID.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// productRow é a representação de persistência do agregado (o "entity" do DB).
// O domínio nunca é escaneado diretamente: a tradução passa por toDomain/fromDomain.
type productRow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Status    string          `json:"status"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r productRow) toDomain() (*domain.Product, error) {
	return domain.ReconstructProduct(r.ID, r.Name, r.Price, r.Stock,
		domain.ProductStatus(r.Status), r.Version, r.CreatedAt, r.UpdatedAt)
}

func scanRow(scanner interface{ Scan(dest ...any) error }) (productRow, error) {
	var row productRow
	err := scanner.Scan(
		&row.ID,
		&row.Name,
		&row.Price,
		&row.Stock,
		&row.Status,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}

const selectColumns = `id, name, price, stock, status, version, created_at, updated_at`

// Chave de cache para produtos individuais.
const productCacheKey = "product:%s"

// TTL do cache de produto (cache-aside).
const productCacheTTL = 5 * time.Minute

// Save persiste o produto, distinguindo criação de atualização.
//
// Criação (ID vazio): gera um UUID, versão 1 e timestamps, e insere.
// Atualização (ID presente): UPDATE condicionado ao ID e à versão carregada —
// zero linhas afetadas com o ID existente significa escrita concorrente
// (ConflictError); com o ID inexistente, NotFoundError. Nunca insere em
// silêncio numa atualização.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if product.ID() == "" {
		return r.insert(ctxTimeout, product)
	}
	return r.update(ctxTimeout, product)
}

func (r *ProductRepository) insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	const insertSQL = `INSERT INTO products (id, name, price, stock, status, version, created_at, updated_at)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                       RETURNING ` + selectColumns

	now := time.Now().UTC()
	newID := uuid.NewString()

	row, err := scanRow(r.DB.QueryRowContext(ctx, insertSQL,
		newID,
		product.Name(),
		product.Price(),
		product.Stock(),
		string(product.Status()),
		1,
		now,
		now,
	))
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return nil, apperror.NewDBError("Falha ao inserir produto", err)
	}

	r.logger.Info("Produto inserido no repositório.", map[string]interface{}{"product_id": row.ID})
	return row.toDomain()
}

func (r *ProductRepository) update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	// UPDATE com controle de concorrência otimista: a cláusula de versão
	// garante que a sequência ler-modificar-gravar do caso de uso seja atômica
	// frente a atualizações concorrentes do mesmo ID.
	const updateSQL = `UPDATE products
                       SET name = $1, price = $2, stock = $3, status = $4, version = version + 1, updated_at = $5
                       WHERE id = $6 AND version = $7
                       RETURNING ` + selectColumns

	row, err := scanRow(r.DB.QueryRowContext(ctx, updateSQL,
		product.Name(),
		product.Price(),
		product.Stock(),
		string(product.Status()),
		time.Now().UTC(),
		product.ID(),
		product.Version(),
	))

	if err == sql.ErrNoRows {
		// Decide entre 404 (ID não existe) e 409 (versão desatualizada).
		exists, existsErr := r.ExistsByID(ctx, product.ID())
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID()))
		}
		r.logger.Warn("Falha no controle de concorrência otimista na atualização de produto.", map[string]interface{}{
			"product_id":       product.ID(),
			"expected_version": product.Version(),
		})
		return nil, apperror.NewConflictError("O produto foi modificado por outra operação. Tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return nil, apperror.NewDBError("Falha ao atualizar produto", err)
	}

	// Invalida o cache para que a próxima leitura reflita o novo estado.
	r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, row.ID))

	r.logger.Info("Produto atualizado no repositório.", map[string]interface{}{"product_id": row.ID, "new_version": row.Version})
	return row.toDomain()
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		var row productRow
		if json.Unmarshal([]byte(cachedData), &row) == nil {
			// Cache HIT
			return row.toDomain()
		}
		// Se a desserialização falhar, seguimos para o DB.
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	const query = `SELECT ` + selectColumns + ` FROM products WHERE id = $1`

	row, err := scanRow(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return nil, apperror.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Cache-Aside (WRITE): popula o cache para futuras leituras.
	if rowJSON, marshalErr := json.Marshal(row); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, rowJSON, productCacheTTL)
	}

	return row.toDomain()
}

// FindAll retorna todos os produtos do catálogo, ordenados por ID.
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT ` + selectColumns + ` FROM products ORDER BY id ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear produto", err)
		}
		product, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar produtos", err)
	}

	return products, nil
}

// DeleteByID remove um produto e invalida a entrada de cache correspondente.
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const deleteSQL = `DELETE FROM products WHERE id = $1`

	if _, err := r.DB.ExecContext(ctxTimeout, deleteSQL, id); err != nil {
		r.logger.Error("Falha ao deletar produto no DB.", err)
		return apperror.NewDBError("Falha ao deletar produto", err)
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, id))

	r.logger.Info("Produto deletado do repositório.", map[string]interface{}{"product_id": id})
	return nil
}

// ExistsByID verifica se um produto existe.
func (r *ProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&exists); err != nil {
		r.logger.Error("Falha ao verificar existência de produto no DB.", err)
		return false, apperror.NewDBError("Falha ao verificar existência de produto", err)
	}
	return exists, nil
}

// sortColumns mapeia os campos do whitelist de ordenação para as colunas reais.
// Só nomes vindos deste mapa chegam ao ORDER BY.
var sortColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// buildOrderBy monta a cláusula ORDER BY a partir das cláusulas já validadas
// pelo whitelist (ParseSortSpec), na ordem encontrada (multi-chave estável).
func buildOrderBy(spec string) string {
	parts := make([]string, 0, 2)
	for _, order := range domain.ParseSortSpec(spec) {
		column, ok := sortColumns[order.Field]
		if !ok {
			continue
		}
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		parts = append(parts, column+" "+direction)
	}
	if len(parts) == 0 {
		return "ORDER BY id ASC"
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// Search executa a consulta paginada do catálogo.
//
// O despacho é feito em quatro ramos mutuamente exclusivos (termo+status,
// só termo, só status, nenhum), cada um com seu SQL fixo — deliberadamente
// não é um query-builder dinâmico, para manter cada caminho estaticamente
// seguro junto com o whitelist de ordenação.
func (r *ProductRepository) Search(ctx context.Context, filter domain.SearchFilter, page domain.PageRequest) (domain.PageResult[*domain.Product], error) {
	empty := domain.PageResult[*domain.Product]{}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where string
		args  []any
	)

	hasTerm := filter.Term != ""
	hasStatus := filter.Status != ""

	switch {
	case hasTerm && hasStatus:
		where = `WHERE name ILIKE '%' || $1 || '%' AND status = $2`
		args = []any{filter.Term, string(filter.Status)}
	case hasTerm:
		where = `WHERE name ILIKE '%' || $1 || '%'`
		args = []any{filter.Term}
	case hasStatus:
		where = `WHERE status = $1`
		args = []any{string(filter.Status)}
	default:
		where = ``
		args = []any{}
	}

	// 1. Contagem total (para os metadados da página)
	countSQL := strings.TrimSpace(`SELECT COUNT(*) FROM products ` + where)

	var total int64
	if err := r.DB.QueryRowContext(ctxTimeout, countSQL, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar produtos na busca.", err)
		return empty, apperror.NewDBError("Falha ao contar produtos", err)
	}

	// 2. Página de resultados
	limitPos := len(args) + 1
	querySQL := strings.TrimSpace(fmt.Sprintf(
		`SELECT %s FROM products %s %s LIMIT $%d OFFSET $%d`,
		selectColumns, where, buildOrderBy(page.Sort()), limitPos, limitPos+1))

	queryArgs := append(args, page.Size(), page.Offset())

	rows, err := r.DB.QueryContext(ctxTimeout, querySQL, queryArgs...)
	if err != nil {
		r.logger.Error("Falha na consulta paginada de produtos.", err)
		return empty, apperror.NewDBError("Falha na busca de produtos", err)
	}
	defer rows.Close()

	items := []*domain.Product{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return empty, apperror.NewDBError("Falha ao mapear produto da busca", err)
		}
		product, err := row.toDomain()
		if err != nil {
			return empty, err
		}
		items = append(items, product)
	}
	if err := rows.Err(); err != nil {
		return empty, apperror.NewDBError("Falha ao iterar resultados da busca", err)
	}

	// 3. Metadados preservados exatamente como consultados (não recalculados).
	return domain.NewPageResult(items, total, page.Page(), page.Size()), nil
}
