package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/config"
)

// NewGormConfig retorna a configuração GORM compartilhada entre produção e testes
func NewGormConfig(log ports.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: NewGormLogger(log, 200*time.Millisecond),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:    false,
		TranslateError: true,
	}
}

// NewDatabaseConnection cria uma nova conexão com o PostgreSQL
func NewDatabaseConnection(cfg *config.DatabaseConfig, log ports.Logger) (*gorm.DB, error) {
	// Conectar
	db, err := gorm.Open(postgres.Open(cfg.DSN()), NewGormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configurar connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MinConns)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)

	// Ping para verificar conexão
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected successfully",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DBName,
	)

	return db, nil
}

// Migrate cria/atualiza as tabelas a partir dos models
func Migrate(db *gorm.DB, log ports.Logger) error {
	log.Info("running auto migrate", "tables", []string{UserTableName})
	if err := db.AutoMigrate(&UserModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
