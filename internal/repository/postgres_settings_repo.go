package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSettingsRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// TimezoneFor は指定ユーザーのIANAタイムゾーン名を返す。未設定の場合は"UTC"を返す。
func (r *PostgresSettingsRepo) TimezoneFor(ctx context.Context, userID string) (string, error) {
	var tz string
	err := r.db.QueryRowContext(ctx,
		`SELECT timezone FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&tz)

	if err == sql.ErrNoRows {
		return "UTC", nil
	}
	if err != nil {
		return "", fmt.Errorf("タイムゾーン設定の取得に失敗しました: %w", err)
	}
	if tz == "" {
		return "UTC", nil
	}
	return tz, nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
