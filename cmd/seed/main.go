package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gocatalog/config"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/productrepo"
	"gocatalog/internal/repository/userrepo"
)

// Semeia dados de desenvolvimento: dois usuários (admin/admin123 e user/user123)
// e um catálogo de exemplo. Idempotente: verifica a existência antes de inserir.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Warning: .env file not found or failed to read. Loading configs from system environment only: %v", err)
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	appLog.Info("🌱 Semeadura de dados iniciada...", nil)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	seedUsers(ctx, userRepo, appLog)

	// O adaptador SQL é o destino da semeadura; o cache não participa aqui.
	productRepo := productrepo.NewProductRepository(db, cache.NoopClient{}, cfg.DBTimeout, appLog)
	seedProducts(ctx, productRepo, appLog)

	appLog.Info("✅ Semeadura de dados concluída.", nil)
}

func seedUsers(ctx context.Context, repo domain.UserRepository, appLog logger.Logger) {
	if _, err := repo.FindByUsername(ctx, "admin"); err == nil {
		appLog.Info("Usuários já existem, pulando semeadura de usuários.", nil)
		return
	}

	appLog.Info("Semeando usuários iniciais (admin/admin123, user/user123)...", nil)

	users := []struct {
		username string
		password string
		role     domain.UserRole
	}{
		{"admin", "admin123", domain.RoleAdmin},
		{"user", "user123", domain.RoleUser},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			appLog.Fatal("Falha ao gerar hash de senha.", err)
		}
		if _, err := repo.Save(ctx, domain.User{
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
		}); err != nil {
			appLog.Fatal("Falha ao semear usuário.", err)
		}
	}

	appLog.Info("✓ Usuários semeados.", nil)
}

func seedProducts(ctx context.Context, repo domain.ProductRepository, appLog logger.Logger) {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		appLog.Fatal("Falha ao consultar catálogo existente.", err)
	}
	if len(existing) > 0 {
		appLog.Info("Produtos já existem, pulando semeadura do catálogo.", nil)
		return
	}

	appLog.Info("Semeando catálogo de exemplo...", nil)

	samples := []struct {
		name   string
		price  string
		stock  int
		status domain.ProductStatus
	}{
		{"Laptop Dell XPS 15", "1299.99", 15, domain.StatusActive},
		{"iPhone 15 Pro", "999.00", 25, domain.StatusActive},
		{"Sony WH-1000XM5", "349.99", 40, domain.StatusActive},
		{"iPad Pro 12.9", "1099.00", 10, domain.StatusActive},
		{"Samsung Galaxy S24", "799.99", 0, domain.StatusDiscontinued},
	}

	for _, s := range samples {
		price, err := decimal.NewFromString(s.price)
		if err != nil {
			appLog.Fatal("Preço de exemplo inválido.", err)
		}
		product, err := domain.NewProduct(s.name, price, s.stock, s.status)
		if err != nil {
			appLog.Fatal("Produto de exemplo inválido.", err)
		}
		if _, err := repo.Save(ctx, product); err != nil {
			appLog.Fatal("Falha ao semear produto.", err)
		}
	}

	appLog.Info("✓ Catálogo semeado.", nil)
}
