package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresGenreRepo はPostgreSQLを使用したアーティスト→ジャンルリポジトリ。
// アーティスト名は小文字・前後空白除去で正規化して保持する。
type PostgresGenreRepo struct {
	db *sql.DB
}

// NewPostgresGenreRepo はPostgresGenreRepoを生成する。
func NewPostgresGenreRepo(db *sql.DB) *PostgresGenreRepo {
	return &PostgresGenreRepo{db: db}
}

// normalizeArtist はアーティスト名を検索キーへ正規化する。
func normalizeArtist(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GenresFor は正規化済みアーティスト名をキーとするジャンル一覧のマップを返す。
func (r *PostgresGenreRepo) GenresFor(ctx context.Context, artists []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(artists) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(artists))
	for _, a := range artists {
		if key := normalizeArtist(a); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT artist, genres FROM artist_genres WHERE artist = ANY($1)`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("ジャンル参照の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var artist string
		var genres pq.StringArray
		if err := rows.Scan(&artist, &genres); err != nil {
			return nil, fmt.Errorf("ジャンル行の読み取りに失敗しました: %w", err)
		}
		result[artist] = []string(genres)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ジャンル参照の走査に失敗しました: %w", err)
	}
	return result, nil
}

// Upsert はアーティストのジャンル一覧を登録・更新する。
func (r *PostgresGenreRepo) Upsert(ctx context.Context, artist string, genres []string) error {
	key := normalizeArtist(artist)
	if key == "" {
		return fmt.Errorf("アーティスト名が空です")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO artist_genres (artist, genres) VALUES ($1, $2)
		 ON CONFLICT (artist) DO UPDATE SET genres = EXCLUDED.genres`,
		key, pq.Array(genres),
	)
	if err != nil {
		return fmt.Errorf("ジャンルの登録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GenreRepository = (*PostgresGenreRepo)(nil)
