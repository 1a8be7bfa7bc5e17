package productservice

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// CreateProductCommand é o formato de comando para a criação de um produto.
// Status vazio significa "não especificado" e resulta no padrão ACTIVE.
type CreateProductCommand struct {
	Name   string
	Price  decimal.Decimal
	Stock  int
	Status string
}

// UpdateProductCommand é o formato de comando para a atualização de um produto.
type UpdateProductCommand struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Stock  int
	Status string
}

// Service implementa os casos de uso do catálogo de produtos.
// Cada método é uma operação com fronteira de transação única: a ordenação e a
// atomicidade frente a atualizações concorrentes são garantidas pela Porta de
// Persistência (domain.ProductRepository), não por primitivas de concorrência aqui.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// translateRepoError propaga erros tipados do Repositório sem modificação e
// encapsula qualquer falha não tipada como InternalError.
func (s *Service) translateRepoError(err error, msg string) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternalError(msg, err)
}

// CreateProduct valida e persiste um novo produto.
// Falhas de validação (nome, preço, estoque, status) retornam ValidationError.
func (s *Service) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{"name": cmd.Name})

	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	product, err := domain.NewProduct(cmd.Name, cmd.Price, cmd.Stock, status)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return nil, s.translateRepoError(err, "Falha interna ao criar produto.")
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{
		"product_id": created.ID(),
		"name":       created.Name(),
		"status":     string(created.Status()),
	})
	return created, nil
}

// GetProduct busca um produto pelo ID. Falha com NotFoundError se não existir.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, "Falha interna ao buscar produto.")
	}
	return product, nil
}

// ListProducts retorna todos os produtos do catálogo, sem filtro nem paginação.
// Pensado para catálogos pequenos ou dumps administrativos; consumidores de
// volume devem usar SearchProducts (paginado).
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar produtos no repositório.", err)
		return nil, s.translateRepoError(err, "Falha interna ao listar produtos.")
	}
	return products, nil
}

// UpdateProduct carrega o produto, aplica os quatro mutadores na ordem fixa
// (Rename, UpdatePrice, AdjustStock, ChangeStatus) e persiste uma única vez.
// Se qualquer mutador falhar (inclusive a transição de status proibida), nada
// é persistido — a mutação acontece em memória antes do único Save.
func (s *Service) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	s.logger.Debug("Iniciando atualização de produto no serviço.", map[string]interface{}{"product_id": cmd.ID})

	product, err := s.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, s.translateRepoError(err, "Falha interna ao buscar produto para atualização.")
	}

	if err := product.Rename(cmd.Name); err != nil {
		return nil, err
	}
	if err := product.UpdatePrice(cmd.Price); err != nil {
		return nil, err
	}
	if err := product.AdjustStock(cmd.Stock); err != nil {
		return nil, err
	}

	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	if err := product.ChangeStatus(status); err != nil {
		return nil, err
	}

	updated, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao persistir atualização de produto.", err)
		return nil, s.translateRepoError(err, "Falha interna ao atualizar produto.")
	}

	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"product_id": updated.ID()})
	return updated, nil
}

// DeleteProduct remove um produto. Falha com NotFoundError se o ID não existir;
// caso exista, a deleção é imediata e incondicional (não há soft-delete).
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, "Falha interna ao verificar existência do produto.")
	}
	if !exists {
		return apperror.NewNotFoundError("Produto com ID " + id + " não foi encontrado.")
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar produto no repositório.", err)
		return s.translateRepoError(err, "Falha interna ao deletar produto.")
	}

	s.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"product_id": id})
	return nil
}

// SearchProducts normaliza as entradas de busca e delega a consulta paginada
// à Porta de Persistência. Operação somente-leitura, sem mutação.
//
// Normalização:
//   - o termo livre é trimado; em branco após o trim significa "sem filtro";
//   - o filtro de status em branco significa "sem filtro"; qualquer outro valor
//     precisa ser um status reconhecido (senão ValidationError).
//
// Os metadados do resultado (totalElements, page, size) são preservados
// exatamente como o Repositório os reportou, não recalculados.
func (s *Service) SearchProducts(ctx context.Context, term, statusFilter string, page domain.PageRequest) (domain.PageResult[*domain.Product], error) {
	filter := domain.SearchFilter{Term: strings.TrimSpace(term)}

	if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
		status, err := domain.ParseStatus(trimmed)
		if err != nil {
			return domain.PageResult[*domain.Product]{}, err
		}
		filter.Status = status
	}

	s.logger.Debug("Buscando produtos.", map[string]interface{}{
		"term":   filter.Term,
		"status": string(filter.Status),
		"page":   page.Page(),
		"size":   page.Size(),
		"sort":   page.Sort(),
	})

	result, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		s.logger.Error("Falha na busca paginada de produtos.", err)
		return domain.PageResult[*domain.Product]{}, s.translateRepoError(err, "Falha interna na busca de produtos.")
	}

	s.logger.Debug("Busca concluída.", map[string]interface{}{
		"found": len(result.Items),
		"total": result.TotalElements,
	})
	return result, nil
}
