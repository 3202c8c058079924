package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(baseLog *logger.Logger) (*PostgresService, error) {
	log := baseLog.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "cite")
	sslmode := envutil.String("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)

	log.Info("connecting to postgres", "host", host, "db", name)
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: conn, log: log}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("migrating tables")
	return s.db.AutoMigrate(
		&types.Document{},
		&types.Chunk{},
		&types.ChunkLabel{},
	)
}

func (s *PostgresService) DB() *gorm.DB { return s.db }
