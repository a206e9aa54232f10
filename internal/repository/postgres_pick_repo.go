package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/phlockapp/phlock/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresPickRepo はPostgreSQLを使用したピック/シェアリポジトリ。
// デイリーピックはsharesテーブル上の is_daily_pick = TRUE の行として保持する。
type PostgresPickRepo struct {
	db *sql.DB
}

// NewPostgresPickRepo はPostgresPickRepoを生成する。
func NewPostgresPickRepo(db *sql.DB) *PostgresPickRepo {
	return &PostgresPickRepo{db: db}
}

// HasPickOn は指定ユーザーが指定日のデイリーピックを持つかを返す。
func (r *PostgresPickRepo) HasPickOn(ctx context.Context, userID, date string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM shares
		    WHERE sender_id = $1 AND is_daily_pick AND selected_date = $2::date
		 )`,
		userID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("本日ピックの確認に失敗しました: %w", err)
	}
	return exists, nil
}

// ListPicksOn は指定メンバー群の指定日のデイリーピックを返す。
func (r *PostgresPickRepo) ListPicksOn(ctx context.Context, memberIDs []string, date string) ([]model.DailyPick, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, track_id, track_name, artist_name, album_art_url, message,
		        to_char(selected_date, 'YYYY-MM-DD'), saved_at, created_at
		 FROM shares
		 WHERE sender_id = ANY($1) AND is_daily_pick AND selected_date = $2::date`,
		pq.Array(memberIDs), date,
	)
	if err != nil {
		return nil, fmt.Errorf("本日ピック一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var picks []model.DailyPick
	for rows.Next() {
		var p model.DailyPick
		if err := rows.Scan(&p.ID, &p.SenderID, &p.TrackID, &p.TrackName, &p.ArtistName,
			&p.AlbumArtURL, &p.Message, &p.SelectedDate, &p.SavedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ピック行の読み取りに失敗しました: %w", err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ピック一覧の走査に失敗しました: %w", err)
	}
	return picks, nil
}

// CreateDailyPick はデイリーピックを作成する。
// 同一 (sender, selected_date) の既存ピックはDUPLICATE_PICKエラーになる。
func (r *PostgresPickRepo) CreateDailyPick(ctx context.Context, pick *model.DailyPick) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shares (id, sender_id, track_id, track_name, artist_name, album_art_url, message,
		                     is_daily_pick, selected_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8::date, $9)`,
		pick.ID, pick.SenderID, pick.TrackID, pick.TrackName, pick.ArtistName,
		pick.AlbumArtURL, pick.Message, pick.SelectedDate, pick.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return model.NewDuplicatePickError(pick.SelectedDate)
		}
		return fmt.Errorf("デイリーピックの作成に失敗しました: %w", err)
	}
	return nil
}

// SetSaved はピックのライブラリ保存日時を記録する。該当ピックがなければfalseを返す。
func (r *PostgresPickRepo) SetSaved(ctx context.Context, pickID string, savedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE shares SET saved_at = $2 WHERE id = $1`,
		pickID, savedAt,
	)
	if err != nil {
		return false, fmt.Errorf("保存日時の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListOutgoingShares は指定ユーザーの送信シェアを新しい順に最大limit件返す。
func (r *PostgresPickRepo) ListOutgoingShares(ctx context.Context, userID string, limit int) ([]model.Share, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, track_id, track_name, artist_name, is_daily_pick, saved_at, created_at
		 FROM shares
		 WHERE sender_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("送信シェア一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var shares []model.Share
	for rows.Next() {
		var s model.Share
		if err := rows.Scan(&s.ID, &s.SenderID, &s.RecipientID, &s.TrackID, &s.TrackName,
			&s.ArtistName, &s.IsDailyPick, &s.SavedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("シェア行の読み取りに失敗しました: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("送信シェア一覧の走査に失敗しました: %w", err)
	}
	return shares, nil
}

// ListRecentPickDates は指定メンバー群のsinceDate以降のピック日付を新しい順で返す。
func (r *PostgresPickRepo) ListRecentPickDates(ctx context.Context, memberIDs []string, sinceDate string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(memberIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT sender_id, to_char(selected_date, 'YYYY-MM-DD')
		 FROM shares
		 WHERE sender_id = ANY($1) AND is_daily_pick AND selected_date >= $2::date
		 ORDER BY sender_id, selected_date DESC`,
		pq.Array(memberIDs), sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("ピック日付履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var senderID, date string
		if err := rows.Scan(&senderID, &date); err != nil {
			return nil, fmt.Errorf("ピック日付行の読み取りに失敗しました: %w", err)
		}
		result[senderID] = append(result[senderID], date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ピック日付履歴の走査に失敗しました: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ PickRepository = (*PostgresPickRepo)(nil)
