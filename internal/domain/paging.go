package domain

import (
	"fmt"
	"strings"

	apperror "gocatalog/internal/errors"
)

// MaxPageSize é o limite superior de itens por página, para evitar abuso.
const MaxPageSize = 200

// PageRequest encapsula os parâmetros de paginação vindos do cliente.
// Só pode ser construído via NewPageRequest: valores fora da faixa são
// rejeitados na construção, nunca ajustados em silêncio.
type PageRequest struct {
	page int
	size int
	sort string
}

// NewPageRequest valida e constrói um PageRequest.
// page é 0-based (>= 0); size deve estar em [1, 200]; sort é a especificação
// crua de ordenação (validada depois, pelo whitelist de ParseSortSpec).
func NewPageRequest(page, size int, sort string) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, apperror.NewValidationError(
			fmt.Sprintf("O índice da página deve ser >= 0, recebido: %d.", page))
	}
	if size <= 0 || size > MaxPageSize {
		return PageRequest{}, apperror.NewValidationError(
			fmt.Sprintf("O tamanho da página deve estar entre 1 e %d, recebido: %d.", MaxPageSize, size))
	}
	return PageRequest{page: page, size: size, sort: sort}, nil
}

// DefaultPageRequest retorna a paginação padrão: página 0, 20 itens, ordem "id,asc".
func DefaultPageRequest() PageRequest {
	return PageRequest{page: 0, size: 20, sort: "id,asc"}
}

func (r PageRequest) Page() int    { return r.page }
func (r PageRequest) Size() int    { return r.size }
func (r PageRequest) Sort() string { return r.sort }

// Offset calcula o deslocamento absoluto do primeiro item da página.
func (r PageRequest) Offset() int { return r.page * r.size }

// PageResult encapsula uma página de resultados e seus metadados.
// totalElements/page/size são preservados exatamente como o Repositório os
// reportou; apenas os valores derivados são calculados aqui.
type PageResult[T any] struct {
	Items         []T   `json:"items"`
	TotalElements int64 `json:"totalElements"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPageResult constrói um PageResult, normalizando items nulos para fatia vazia.
func NewPageResult[T any](items []T, totalElements int64, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{
		Items:         items,
		TotalElements: totalElements,
		Page:          page,
		Size:          size,
	}
}

// TotalPages calcula o número total de páginas (teto de total/size; 0 se size for 0).
func (p PageResult[T]) TotalPages() int {
	if p.Size == 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext informa se existe uma próxima página.
func (p PageResult[T]) HasNext() bool {
	return p.Page < p.TotalPages()-1
}

// HasPrevious informa se existe uma página anterior.
func (p PageResult[T]) HasPrevious() bool {
	return p.Page > 0
}

// SortOrder é uma cláusula de ordenação já validada contra o whitelist.
type SortOrder struct {
	Field string
	Desc  bool
}

// sortWhitelist é o conjunto fixo de campos elegíveis para ordenação dinâmica.
// Impede a injeção de nomes de campo arbitrários no ORDER BY.
var sortWhitelist = map[string]bool{
	"id":        true,
	"name":      true,
	"price":     true,
	"stock":     true,
	"status":    true,
	"createdAt": true,
	"updatedAt": true,
}

// ParseSortSpec interpreta a especificação crua de ordenação.
//
// Formato: "campo1,direcao1;campo2,direcao2;..." — cláusulas separadas por ';',
// cada uma com campo e direção separados por ','.
//
// Regras:
//   - campos fora do whitelist são descartados em silêncio (sem erro: um engano
//     cosmético de ordenação não vira falha, mas nunca chega ao SQL);
//   - a direção só é descendente quando o token, em minúsculas, for "desc";
//     qualquer outra coisa (inclusive ausência) resulta em ascendente;
//   - as cláusulas válidas são acumuladas na ordem encontrada (ordenação
//     multi-chave estável);
//   - se nenhuma cláusula sobreviver (inclusive spec vazia), o padrão é "id asc".
func ParseSortSpec(spec string) []SortOrder {
	var orders []SortOrder

	for _, clause := range strings.Split(spec, ";") {
		parts := strings.Split(clause, ",")
		field := strings.TrimSpace(parts[0])
		if !sortWhitelist[field] {
			continue
		}

		desc := false
		if len(parts) > 1 && strings.ToLower(strings.TrimSpace(parts[1])) == "desc" {
			desc = true
		}
		orders = append(orders, SortOrder{Field: field, Desc: desc})
	}

	if len(orders) == 0 {
		return []SortOrder{{Field: "id", Desc: false}}
	}
	return orders
}
