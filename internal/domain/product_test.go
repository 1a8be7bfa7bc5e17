package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

func price(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

// TestNewProduct_Success_DefaultStatus testa a criação com status não informado.
func TestNewProduct_Success_DefaultStatus(t *testing.T) {
	p, err := domain.NewProduct("Laptop Dell XPS 15", price("1299.99"), 15, "")

	assert.NoError(t, err)
	assert.Equal(t, "Laptop Dell XPS 15", p.Name())
	assert.Equal(t, domain.StatusActive, p.Status())
	assert.Equal(t, 15, p.Stock())
	assert.True(t, p.Price().Equal(price("1299.99")))
	assert.Empty(t, p.ID(), "o ID só é atribuído na persistência")
}

// TestNewProduct_Success_TrimsName testa que o nome é trimado antes de armazenar.
func TestNewProduct_Success_TrimsName(t *testing.T) {
	p, err := domain.NewProduct("   Mouse Gamer   ", price("99.90"), 5, domain.StatusActive)

	assert.NoError(t, err)
	assert.Equal(t, "Mouse Gamer", p.Name())
}

// TestNewProduct_Success_ZeroStock testa que estoque zero é permitido na criação.
func TestNewProduct_Success_ZeroStock(t *testing.T) {
	p, err := domain.NewProduct("Samsung Galaxy S24", price("799.99"), 0, domain.StatusDiscontinued)

	assert.NoError(t, err)
	assert.Equal(t, 0, p.Stock())
	assert.Equal(t, domain.StatusDiscontinued, p.Status())
}

// TestNewProduct_Fail_BlankName testa a rejeição de nome vazio ou só espaços.
func TestNewProduct_Fail_BlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := domain.NewProduct(name, price("10.00"), 1, "")

		assert.Error(t, err)
		assert.IsType(t, &apperror.ValidationError{}, err)
	}
}

// TestNewProduct_Fail_NonPositivePrice testa a rejeição de preço zero ou negativo.
func TestNewProduct_Fail_NonPositivePrice(t *testing.T) {
	_, err := domain.NewProduct("Teclado", decimal.Zero, 1, "")
	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = domain.NewProduct("Teclado", price("-0.01"), 1, "")
	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestNewProduct_Fail_NegativeStock testa a rejeição de estoque negativo.
func TestNewProduct_Fail_NegativeStock(t *testing.T) {
	_, err := domain.NewProduct("Monitor", price("500.00"), -1, "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestParseStatus_Success testa a conversão de strings válidas (e vazia).
func TestParseStatus_Success(t *testing.T) {
	status, err := domain.ParseStatus("")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, status, "vazio significa o padrão ACTIVE")

	status, err = domain.ParseStatus("  ")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, status)

	status, err = domain.ParseStatus("ACTIVE")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, status)

	status, err = domain.ParseStatus("discontinued")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusDiscontinued, status)
}

// TestParseStatus_Fail_UnknownValue testa a rejeição de valores não reconhecidos.
func TestParseStatus_Fail_UnknownValue(t *testing.T) {
	_, err := domain.ParseStatus("ARCHIVED")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestMutators_Success testa que cada mutador aplica e revalida seu campo.
func TestMutators_Success(t *testing.T) {
	p, err := domain.NewProduct("Produto Original", price("10.00"), 3, "")
	assert.NoError(t, err)

	assert.NoError(t, p.Rename("  Produto Renomeado  "))
	assert.Equal(t, "Produto Renomeado", p.Name())

	assert.NoError(t, p.UpdatePrice(price("25.50")))
	assert.True(t, p.Price().Equal(price("25.50")))

	assert.NoError(t, p.AdjustStock(0))
	assert.Equal(t, 0, p.Stock())
}

// TestMutators_Fail_InvalidValues testa que mutações inválidas não alteram o estado.
func TestMutators_Fail_InvalidValues(t *testing.T) {
	p, err := domain.NewProduct("Produto", price("10.00"), 3, "")
	assert.NoError(t, err)

	assert.Error(t, p.Rename("   "))
	assert.Equal(t, "Produto", p.Name())

	assert.Error(t, p.UpdatePrice(decimal.Zero))
	assert.True(t, p.Price().Equal(price("10.00")))

	assert.Error(t, p.AdjustStock(-5))
	assert.Equal(t, 3, p.Stock())
}

// TestChangeStatus_Success_Discontinue testa a transição ACTIVE -> DISCONTINUED.
func TestChangeStatus_Success_Discontinue(t *testing.T) {
	p, _ := domain.NewProduct("Produto", price("10.00"), 3, domain.StatusActive)

	assert.NoError(t, p.ChangeStatus(domain.StatusDiscontinued))
	assert.Equal(t, domain.StatusDiscontinued, p.Status())
}

// TestChangeStatus_Success_SameState testa que transições para o mesmo estado são no-ops.
func TestChangeStatus_Success_SameState(t *testing.T) {
	active, _ := domain.NewProduct("Produto A", price("10.00"), 3, domain.StatusActive)
	assert.NoError(t, active.ChangeStatus(domain.StatusActive))
	assert.Equal(t, domain.StatusActive, active.Status())

	discontinued, _ := domain.NewProduct("Produto B", price("10.00"), 0, domain.StatusDiscontinued)
	assert.NoError(t, discontinued.ChangeStatus(domain.StatusDiscontinued))
	assert.Equal(t, domain.StatusDiscontinued, discontinued.Status())
}

// TestChangeStatus_Fail_ReactivateDiscontinued testa que reativação é proibida (conflito).
func TestChangeStatus_Fail_ReactivateDiscontinued(t *testing.T) {
	p, _ := domain.NewProduct("Produto Morto", price("10.00"), 0, domain.StatusDiscontinued)

	err := p.ChangeStatus(domain.StatusActive)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Equal(t, domain.StatusDiscontinued, p.Status(), "o estado não muda após transição proibida")
}

// TestReconstructProduct_Success testa a reidratação a partir da persistência.
func TestReconstructProduct_Success(t *testing.T) {
	createdAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Hour)

	p, err := domain.ReconstructProduct("abc-123", "Produto", price("10.00"), 3, domain.StatusActive, 7, createdAt, updatedAt)

	assert.NoError(t, err)
	assert.Equal(t, "abc-123", p.ID())
	assert.Equal(t, 7, p.Version())
	assert.Equal(t, createdAt, p.CreatedAt())
	assert.Equal(t, updatedAt, p.UpdatedAt())
}

// TestReconstructProduct_Fail_MissingID testa que a reidratação exige ID.
func TestReconstructProduct_Fail_MissingID(t *testing.T) {
	_, err := domain.ReconstructProduct("", "Produto", price("10.00"), 3, domain.StatusActive, 1, time.Now(), time.Now())

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}
