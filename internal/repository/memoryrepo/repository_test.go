package memoryrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/repository/memoryrepo"
)

func price(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func mustCreate(t *testing.T, repo *memoryrepo.ProductRepository, name, priceStr string, stock int, status domain.ProductStatus) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, price(priceStr), stock, status)
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), p)
	require.NoError(t, err)
	return saved
}

// TestSave_Success_CreateAssignsID testa que a criação atribui ID, versão e timestamps.
func TestSave_Success_CreateAssignsID(t *testing.T) {
	repo := memoryrepo.NewProductRepository()

	saved := mustCreate(t, repo, "Laptop Dell XPS 15", "1299.99", 15, domain.StatusActive)

	assert.NotEmpty(t, saved.ID())
	assert.Equal(t, 1, saved.Version())
	assert.False(t, saved.CreatedAt().IsZero())
	assert.Equal(t, saved.CreatedAt(), saved.UpdatedAt())
}

// TestSave_Fail_UpdateMissingID testa que atualizar um ID inexistente nunca insere em silêncio.
func TestSave_Fail_UpdateMissingID(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	now := time.Now().UTC()
	ghost, err := domain.ReconstructProduct("ghost-id", "Fantasma", price("10.00"), 1,
		domain.StatusActive, 1, now, now)
	require.NoError(t, err)

	_, err = repo.Save(ctx, ghost)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)

	// E o fantasma continua não existindo.
	exists, err := repo.ExistsByID(ctx, "ghost-id")
	assert.NoError(t, err)
	assert.False(t, exists)
}

// TestSave_Success_UpdateBumpsVersion testa a atualização com incremento de versão.
func TestSave_Success_UpdateBumpsVersion(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	saved := mustCreate(t, repo, "Produto", "10.00", 3, domain.StatusActive)

	require.NoError(t, saved.UpdatePrice(price("12.00")))
	updated, err := repo.Save(ctx, saved)

	assert.NoError(t, err)
	assert.Equal(t, 2, updated.Version())
	assert.Equal(t, saved.CreatedAt(), updated.CreatedAt(), "createdAt é preservado na atualização")
	assert.True(t, updated.Price().Equal(price("12.00")))
}

// TestSave_Fail_StaleVersion testa o conflito de concorrência otimista.
func TestSave_Fail_StaleVersion(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	saved := mustCreate(t, repo, "Produto Disputado", "10.00", 3, domain.StatusActive)

	// Dois leitores carregam a mesma versão.
	first, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)

	// O primeiro grava e avança a versão.
	require.NoError(t, first.AdjustStock(10))
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	// A gravação do segundo está desatualizada.
	require.NoError(t, second.AdjustStock(99))
	_, err = repo.Save(ctx, second)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)

	// O estado final é o da primeira gravação.
	current, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, 10, current.Stock())
}

// TestFindByID_Fail_NotFound testa a busca de um ID inexistente.
func TestFindByID_Fail_NotFound(t *testing.T) {
	repo := memoryrepo.NewProductRepository()

	_, err := repo.FindByID(context.Background(), "nope")

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestDeleteByID_Lifecycle testa criar, deletar e buscar de novo (NotFound).
func TestDeleteByID_Lifecycle(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	saved := mustCreate(t, repo, "Produto Temporário", "10.00", 1, domain.StatusActive)

	assert.NoError(t, repo.DeleteByID(ctx, saved.ID()))

	exists, err := repo.ExistsByID(ctx, saved.ID())
	assert.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByID(ctx, saved.ID())
	assert.IsType(t, &apperror.NotFoundError{}, err)

	// Deleção de ID inexistente é um no-op, não um erro.
	assert.NoError(t, repo.DeleteByID(ctx, "nope"))
}

func seedCatalog(t *testing.T, repo *memoryrepo.ProductRepository) {
	t.Helper()
	mustCreate(t, repo, "Laptop Dell XPS 15", "1299.99", 15, domain.StatusActive)
	mustCreate(t, repo, "iPhone 15 Pro", "999.00", 25, domain.StatusActive)
	mustCreate(t, repo, "Sony WH-1000XM5", "349.99", 40, domain.StatusActive)
	mustCreate(t, repo, "iPad Pro 12.9", "1099.00", 10, domain.StatusActive)
	mustCreate(t, repo, "Samsung Galaxy S24", "799.99", 0, domain.StatusDiscontinued)
}

func names(items []*domain.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Name())
	}
	return out
}

// TestSearch_Success_NoFilters testa o ramo sem filtros (catálogo inteiro).
func TestSearch_Success_NoFilters(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)

	page, _ := domain.NewPageRequest(0, 50, "id,asc")
	result, err := repo.Search(context.Background(), domain.SearchFilter{}, page)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), result.TotalElements)
	assert.Len(t, result.Items, 5)
	assert.Equal(t, 1, result.TotalPages())
}

// TestSearch_Success_TermOnly testa o ramo só-termo, sem diferenciar maiúsculas.
func TestSearch_Success_TermOnly(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)

	page, _ := domain.NewPageRequest(0, 50, "name,asc")
	result, err := repo.Search(context.Background(), domain.SearchFilter{Term: "iphone"}, page)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalElements)
	assert.Equal(t, []string{"iPhone 15 Pro"}, names(result.Items))

	// Substring no meio do nome também conta.
	result, err = repo.Search(context.Background(), domain.SearchFilter{Term: "PRO"}, page)
	assert.NoError(t, err)
	assert.Equal(t, []string{"iPad Pro 12.9", "iPhone 15 Pro"}, names(result.Items))
}

// TestSearch_Success_StatusOnly testa o ramo só-status.
func TestSearch_Success_StatusOnly(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)

	page, _ := domain.NewPageRequest(0, 50, "id,asc")
	result, err := repo.Search(context.Background(),
		domain.SearchFilter{Status: domain.StatusDiscontinued}, page)

	assert.NoError(t, err)
	assert.Equal(t, []string{"Samsung Galaxy S24"}, names(result.Items))
}

// TestSearch_Success_TermAndStatus testa o ramo combinado (E lógico).
func TestSearch_Success_TermAndStatus(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)

	page, _ := domain.NewPageRequest(0, 50, "id,asc")

	// "pro" casa com iPad e iPhone, mas nenhum é DISCONTINUED.
	result, err := repo.Search(context.Background(),
		domain.SearchFilter{Term: "pro", Status: domain.StatusDiscontinued}, page)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalElements)
	assert.Len(t, result.Items, 0)

	result, err = repo.Search(context.Background(),
		domain.SearchFilter{Term: "galaxy", Status: domain.StatusDiscontinued}, page)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Samsung Galaxy S24"}, names(result.Items))
}

// TestSearch_Success_SortWhitelist testa a ordenação dinâmica e o descarte de campos inválidos.
func TestSearch_Success_SortWhitelist(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)

	// Campo malicioso é descartado; sobra "price,desc".
	page, _ := domain.NewPageRequest(0, 50, "price,desc;malicious_field,asc")
	result, err := repo.Search(context.Background(), domain.SearchFilter{}, page)

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"Laptop Dell XPS 15",
		"iPad Pro 12.9",
		"iPhone 15 Pro",
		"Samsung Galaxy S24",
		"Sony WH-1000XM5",
	}, names(result.Items))
}

// TestSearch_Success_Pagination testa a janela da página e os metadados.
func TestSearch_Success_Pagination(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	seedCatalog(t, repo)
	ctx := context.Background()

	page, _ := domain.NewPageRequest(0, 2, "name,asc")
	first, err := repo.Search(ctx, domain.SearchFilter{}, page)
	assert.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.Equal(t, int64(5), first.TotalElements)
	assert.Equal(t, 3, first.TotalPages())
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	page, _ = domain.NewPageRequest(2, 2, "name,asc")
	last, err := repo.Search(ctx, domain.SearchFilter{}, page)
	assert.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrevious())

	// Página além do fim: vazia, mas com os mesmos metadados totais.
	page, _ = domain.NewPageRequest(9, 2, "name,asc")
	beyond, err := repo.Search(ctx, domain.SearchFilter{}, page)
	assert.NoError(t, err)
	assert.Len(t, beyond.Items, 0)
	assert.NotNil(t, beyond.Items)
	assert.Equal(t, int64(5), beyond.TotalElements)
}

// TestSearch_Success_EmptyRepo testa a busca num catálogo vazio.
func TestSearch_Success_EmptyRepo(t *testing.T) {
	repo := memoryrepo.NewProductRepository()

	result, err := repo.Search(context.Background(), domain.SearchFilter{}, domain.DefaultPageRequest())

	assert.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Len(t, result.Items, 0)
	assert.Equal(t, int64(0), result.TotalElements)
	assert.Equal(t, 0, result.TotalPages())
}

// TestClone_IsolatesCallerMutations testa que mutar o retorno não afeta o estado armazenado.
func TestClone_IsolatesCallerMutations(t *testing.T) {
	repo := memoryrepo.NewProductRepository()
	ctx := context.Background()

	saved := mustCreate(t, repo, "Produto Imutável", "10.00", 3, domain.StatusActive)

	loaded, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Rename("Hackeado"))

	reloaded, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Produto Imutável", reloaded.Name())
}
