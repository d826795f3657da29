package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	return open(conf.DSN(), conf.Migrate)
}

func OpenPostgresWithURL(url string, migrate bool) (*gorm.DB, error) {
	return open(url, migrate)
}

func open(dsn string, migrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	if migrate {
		if err = dao.InitTables(db); err != nil {
			return nil, fmt.Errorf("dao.InitTables -> %w", err)
		}
	}

	return db, nil
}
