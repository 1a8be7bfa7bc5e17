package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperror "gocatalog/internal/errors"
)

// ProductStatus representa o estado do ciclo de vida de um produto no catálogo.
type ProductStatus string

// Estados possíveis de um produto. Não existem outros estados.
const (
	StatusActive       ProductStatus = "ACTIVE"
	StatusDiscontinued ProductStatus = "DISCONTINUED"
)

// ParseStatus converte uma string em ProductStatus.
// Política explícita: string vazia (ou só espaços) significa ACTIVE — é o padrão
// de criação, não um fallback de erro. Qualquer outro valor não reconhecido
// falha com erro de validação em vez de assumir um padrão em silêncio.
func ParseStatus(value string) (ProductStatus, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusActive, nil
	}

	switch ProductStatus(strings.ToUpper(trimmed)) {
	case StatusActive:
		return StatusActive, nil
	case StatusDiscontinued:
		return StatusDiscontinued, nil
	default:
		return "", apperror.NewValidationError(
			fmt.Sprintf("Status de produto inválido: '%s'. Valores válidos: ACTIVE, DISCONTINUED.", value))
	}
}

// Product é o agregado principal do catálogo (a Entidade).
// Os campos são privados de propósito: toda mutação passa pelas operações
// nomeadas (Rename, UpdatePrice, AdjustStock, ChangeStatus), que revalidam
// as invariantes a cada alteração.
type Product struct {
	id        string
	name      string
	price     decimal.Decimal
	stock     int
	status    ProductStatus
	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewProduct é a fábrica de criação de um produto ainda não persistido.
// Valida todas as invariantes de criação (nome, preço, estoque).
// O ID fica vazio até a primeira persistência — o Repositório é quem o atribui.
func NewProduct(name string, price decimal.Decimal, stock int, status ProductStatus) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	if status == "" {
		status = StatusActive
	}

	return &Product{
		name:   strings.TrimSpace(name),
		price:  price,
		stock:  stock,
		status: status,
	}, nil
}

// ReconstructProduct reidrata um produto existente a partir da persistência.
// Usado pelos mapeadores dos Repositórios; exige ID e revalida todos os campos,
// mas não aplica a lógica de criação (status default, etc.).
func ReconstructProduct(id, name string, price decimal.Decimal, stock int, status ProductStatus, version int, createdAt, updatedAt time.Time) (*Product, error) {
	if id == "" {
		return nil, apperror.NewValidationError("ID é obrigatório para reconstruir um produto.")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	return &Product{
		id:        id,
		name:      strings.TrimSpace(name),
		price:     price,
		stock:     stock,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return apperror.NewValidationError("O estoque do produto não pode ser negativo.")
	}
	return nil
}

// Rename altera o nome do produto, revalidando a invariante de nome.
func (p *Product) Rename(newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	p.name = strings.TrimSpace(newName)
	return nil
}

// UpdatePrice altera o preço do produto, revalidando a invariante de preço.
func (p *Product) UpdatePrice(newPrice decimal.Decimal) error {
	if err := validatePrice(newPrice); err != nil {
		return err
	}
	p.price = newPrice
	return nil
}

// AdjustStock define o novo nível de estoque, revalidando a invariante de estoque.
func (p *Product) AdjustStock(newStock int) error {
	if err := validateStock(newStock); err != nil {
		return err
	}
	p.stock = newStock
	return nil
}

// ChangeStatus aplica uma transição de estado.
// Regra de Negócio: DISCONTINUED é terminal — reativar um produto descontinuado
// é proibido e retorna um erro de conflito (não de validação). Transições para o
// mesmo estado são no-ops permitidos.
func (p *Product) ChangeStatus(newStatus ProductStatus) error {
	if p.status == StatusDiscontinued && newStatus == StatusActive {
		return apperror.NewConflictError("Não é possível reativar um produto descontinuado.")
	}
	p.status = newStatus
	return nil
}

// Acessores de leitura (os campos nunca são expostos diretamente).

func (p *Product) ID() string             { return p.id }
func (p *Product) Name() string           { return p.name }
func (p *Product) Price() decimal.Decimal { return p.price }
func (p *Product) Stock() int             { return p.stock }
func (p *Product) Status() ProductStatus  { return p.status }
func (p *Product) Version() int           { return p.version }
func (p *Product) CreatedAt() time.Time   { return p.createdAt }
func (p *Product) UpdatedAt() time.Time   { return p.updatedAt }

// SearchFilter carrega os filtros opcionais de busca já normalizados.
// Valores zero significam "sem filtro" para aquele critério.
type SearchFilter struct {
	Term   string
	Status ProductStatus
}

// ProductRepository é a Porta de Persistência do agregado Product.
// Define o que a camada de Serviço pode pedir à camada de Persistência
// (DB, cache, memória) — qualquer adaptador que cumpra os contratos abaixo
// é substituível.
//
// Contratos obrigatórios:
//   - Save distingue criação (ID vazio) de atualização (ID presente);
//     atualizar um ID inexistente falha com NotFound — nunca insere em silêncio.
//   - A sequência ler-modificar-gravar de uma atualização é atômica frente a
//     atualizações concorrentes do mesmo ID (controle de concorrência otimista
//     via campo version; escrita desatualizada falha com Conflict).
type ProductRepository interface {
	FindAll(ctx context.Context) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Save(ctx context.Context, product *Product) (*Product, error)
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, filter SearchFilter, page PageRequest) (PageResult[*Product], error)
}
