package insights

import (
	"context"
	"fmt"

	"github.com/phlockapp/phlock/internal/model"
)

// defaultShareWindow はインサイト算出の入力ウィンドウ上限のデフォルト値
// （最新の送信シェア件数）。
const defaultShareWindow = 400

// ShareReader はインサイト算出が必要とするシェアの読み取りインターフェース。
// repository.PickRepositoryの部分集合として定義する。
type ShareReader interface {
	ListOutgoingShares(ctx context.Context, userID string, limit int) ([]model.Share, error)
}

// GenreReader はアーティスト→ジャンル参照の読み取りインターフェース。
type GenreReader interface {
	GenresFor(ctx context.Context, artists []string) (map[string][]string, error)
}

// ReachReader は歴史的リーチの読み取りインターフェース。
// 全期間のロスター履歴を読む別系統のクエリで、純関数のComputeとは分離されている。
type ReachReader interface {
	HistoricalReach(ctx context.Context, memberID string) (int, error)
}

// Service はインサイト算出のサービス層。
// ウィンドウの取得とジャンル参照の解決を行い、純関数Computeに委譲する。
type Service struct {
	shares ShareReader
	genres GenreReader
	reach  ReachReader
	window int
}

// NewService はServiceを生成する。
// windowが0以下の場合はデフォルトのウィンドウ上限を使用する。
func NewService(shares ShareReader, genres GenreReader, reach ReachReader, window int) *Service {
	if window <= 0 {
		window = defaultShareWindow
	}
	return &Service{
		shares: shares,
		genres: genres,
		reach:  reach,
		window: window,
	}
}

// Snapshot はユーザーの送信シェアからインサイトスナップショットを算出する。
// ウィンドウは最新window件に制限される。
func (s *Service) Snapshot(ctx context.Context, userID string) (*model.InsightsSnapshot, error) {
	shares, err := s.shares.ListOutgoingShares(ctx, userID, s.window)
	if err != nil {
		return nil, fmt.Errorf("送信シェアの取得に失敗しました: %w", err)
	}

	artists := make([]string, 0, len(shares))
	seen := make(map[string]bool)
	for _, share := range shares {
		if !share.IsDailyPick {
			continue
		}
		if seen[share.ArtistName] {
			continue
		}
		seen[share.ArtistName] = true
		artists = append(artists, share.ArtistName)
	}

	genres, err := s.genres.GenresFor(ctx, artists)
	if err != nil {
		return nil, fmt.Errorf("ジャンル参照の取得に失敗しました: %w", err)
	}

	snapshot := Compute(shares, genres)
	return &snapshot, nil
}

// HistoricalReach はこのユーザーを一度でもフロックに入れたオーナーの
// 全期間ユニーク数を返す。
func (s *Service) HistoricalReach(ctx context.Context, userID string) (int, error) {
	count, err := s.reach.HistoricalReach(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("歴史的リーチの取得に失敗しました: %w", err)
	}
	return count, nil
}
