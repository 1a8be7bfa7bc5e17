package memoryrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// ProductRepository é a implementação em memória da Porta domain.ProductRepository.
// Cumpre os mesmos contratos do adaptador PostgreSQL (sem criação silenciosa em
// atualização, concorrência otimista via versão, busca paginada com whitelist de
// ordenação) sem nenhuma infraestrutura — é usada nos testes e como storage
// substituto em execuções locais.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewProductRepository cria um repositório em memória vazio.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

// clone produz uma cópia independente do agregado, para que mutações feitas
// pelo chamador não vazem para o estado armazenado (e vice-versa).
func clone(p *domain.Product) *domain.Product {
	copied, err := domain.ReconstructProduct(
		p.ID(), p.Name(), p.Price(), p.Stock(), p.Status(), p.Version(), p.CreatedAt(), p.UpdatedAt())
	if err != nil {
		// Só alcançável se um agregado inválido tiver sido armazenado, o que as
		// fábricas do domínio impedem.
		panic(err)
	}
	return copied
}

// FindAll retorna todos os produtos, ordenados por ID.
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, clone(p))
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].ID() < products[j].ID()
	})
	return products, nil
}

// FindByID busca um produto pelo ID. Falha com NotFoundError se não existir.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	return clone(p), nil
}

// Save persiste o produto, distinguindo criação (ID vazio) de atualização.
// Atualizar um ID inexistente falha com NotFoundError — nunca insere em
// silêncio. Uma versão desatualizada falha com ConflictError.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	if product.ID() == "" {
		created, err := domain.ReconstructProduct(
			uuid.NewString(), product.Name(), product.Price(), product.Stock(),
			product.Status(), 1, now, now)
		if err != nil {
			return nil, err
		}
		r.products[created.ID()] = created
		return clone(created), nil
	}

	stored, ok := r.products[product.ID()]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID()))
	}
	if stored.Version() != product.Version() {
		return nil, apperror.NewConflictError("O produto foi modificado por outra operação. Tente novamente.")
	}

	updated, err := domain.ReconstructProduct(
		product.ID(), product.Name(), product.Price(), product.Stock(),
		product.Status(), stored.Version()+1, stored.CreatedAt(), now)
	if err != nil {
		return nil, err
	}
	r.products[updated.ID()] = updated
	return clone(updated), nil
}

// DeleteByID remove um produto incondicionalmente.
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, id)
	return nil
}

// ExistsByID verifica se um produto existe.
func (r *ProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

// Search executa a busca paginada com os mesmos quatro ramos de despacho do
// adaptador SQL: termo+status, só termo, só status, nenhum.
func (r *ProductRepository) Search(ctx context.Context, filter domain.SearchFilter, page domain.PageRequest) (domain.PageResult[*domain.Product], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hasTerm := filter.Term != ""
	hasStatus := filter.Status != ""
	term := strings.ToLower(filter.Term)

	matched := []*domain.Product{}
	for _, p := range r.products {
		switch {
		case hasTerm && hasStatus:
			if strings.Contains(strings.ToLower(p.Name()), term) && p.Status() == filter.Status {
				matched = append(matched, p)
			}
		case hasTerm:
			if strings.Contains(strings.ToLower(p.Name()), term) {
				matched = append(matched, p)
			}
		case hasStatus:
			if p.Status() == filter.Status {
				matched = append(matched, p)
			}
		default:
			matched = append(matched, p)
		}
	}

	orders := domain.ParseSortSpec(page.Sort())
	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], orders)
	})

	total := int64(len(matched))

	// Janela da página
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size()
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]*domain.Product, 0, end-start)
	for _, p := range matched[start:end] {
		items = append(items, clone(p))
	}

	return domain.NewPageResult(items, total, page.Page(), page.Size()), nil
}

// less compara dois produtos segundo as cláusulas de ordenação, na ordem
// encontrada (multi-chave estável).
func less(a, b *domain.Product, orders []domain.SortOrder) bool {
	for _, order := range orders {
		c := compareField(a, b, order.Field)
		if c == 0 {
			continue
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareField(a, b *domain.Product, field string) int {
	switch field {
	case "id":
		return strings.Compare(a.ID(), b.ID())
	case "name":
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	case "price":
		return a.Price().Cmp(b.Price())
	case "stock":
		return a.Stock() - b.Stock()
	case "status":
		return strings.Compare(string(a.Status()), string(b.Status()))
	case "createdAt":
		return compareTime(a.CreatedAt(), b.CreatedAt())
	case "updatedAt":
		return compareTime(a.UpdatedAt(), b.UpdatedAt())
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
