package db

import (
	"fmt"

	"guardian/internal/auth"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&auth.AuthToken{},
	); err != nil {
		return err
	}

	// Redemption lookup and window scans
	stmts := []string{
		`create index if not exists idx_auth_tokens_user_hash on auth_tokens(user_id, code_hash);`,
		`create index if not exists idx_auth_tokens_user_created on auth_tokens(user_id, created_at);`,
		`create index if not exists idx_auth_tokens_expires on auth_tokens(expires_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
