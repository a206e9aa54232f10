// Package picks はデイリーピックのドメインロジックを提供する。
package picks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/phlockapp/phlock/internal/model"
	"github.com/phlockapp/phlock/internal/repository"
)

// CalendarService はユーザーのローカル暦上の「今日」を提供する。
type CalendarService interface {
	// TodayFor は指定ユーザーのタイムゾーンにおける今日の日付（YYYY-MM-DD）を返す。
	TodayFor(ctx context.Context, userID string) (string, error)
}

// MessageSanitizer はピックメッセージのサニタイズを行う。
type MessageSanitizer interface {
	Sanitize(raw string) string
}

// GenreWriter はアーティスト→ジャンル参照表の書き込みインターフェース。
// repository.GenreRepositoryの部分集合として定義する。
type GenreWriter interface {
	Upsert(ctx context.Context, artist string, genres []string) error
}

// CreateInput はデイリーピック作成の入力。
// Genresはクライアントが楽曲メタデータから取得したアーティストのジャンル一覧
// （任意）。ジャンル参照表の更新にのみ使い、ピック自体には保存しない。
type CreateInput struct {
	TrackID     string
	TrackName   string
	ArtistName  string
	AlbumArtURL string   // 任意
	Message     string   // 任意
	Genres      []string // 任意
}

// Service はデイリーピックのサービス層。
// 1日1曲の制約と入力検証を担い、同日重複の最終判定はストアの一意制約に委ねる。
type Service struct {
	pickRepo  repository.PickRepository
	genres    GenreWriter
	calendar  CalendarService
	sanitizer MessageSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。genresはnilでもよい。
func NewService(
	pickRepo repository.PickRepository,
	genres GenreWriter,
	calendar CalendarService,
	sanitizer MessageSanitizer,
) *Service {
	return &Service{
		pickRepo:  pickRepo,
		genres:    genres,
		calendar:  calendar,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// CreateDailyPick は送信者の「今日」のデイリーピックを作成する。
// 同日のピックが既に存在する場合はDUPLICATE_PICKを返す。
// アルバムアートURLが指定されている場合はhttp/httpsスキームのみ許可する。
func (s *Service) CreateDailyPick(ctx context.Context, senderID string, input CreateInput) (*model.DailyPick, error) {
	if input.TrackID == "" || input.TrackName == "" || input.ArtistName == "" {
		return nil, model.NewInvariantViolationError("トラック情報が不足しています")
	}

	if input.AlbumArtURL != "" {
		if err := validateArtURL(input.AlbumArtURL); err != nil {
			return nil, err
		}
	}

	today, err := s.calendar.TodayFor(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("送信者のローカル日付の取得に失敗しました: %w", err)
	}

	pick := &model.DailyPick{
		ID:           uuid.New().String(),
		SenderID:     senderID,
		TrackID:      input.TrackID,
		TrackName:    input.TrackName,
		ArtistName:   input.ArtistName,
		AlbumArtURL:  input.AlbumArtURL,
		Message:      s.sanitizer.Sanitize(input.Message),
		SelectedDate: today,
		CreatedAt:    s.now(),
	}

	// 同日重複はストアの部分一意インデックスが最終判定する。
	// 事前チェックだけでは同時リクエストの競合を防げない。
	if err := s.pickRepo.CreateDailyPick(ctx, pick); err != nil {
		return nil, err
	}

	s.recordGenres(ctx, input.ArtistName, input.Genres)

	return pick, nil
}

// recordGenres はクライアント提供のジャンルを参照表へ反映する。
// 参照表の更新失敗はピック作成自体を失敗させない。
func (s *Service) recordGenres(ctx context.Context, artist string, genres []string) {
	if s.genres == nil || len(genres) == 0 {
		return
	}
	if err := s.genres.Upsert(ctx, artist, genres); err != nil {
		slog.Warn("ジャンル参照表の更新に失敗しました",
			slog.String("artist", artist),
			slog.String("error", err.Error()),
		)
	}
}

// SavePick はピックの楽曲をライブラリに保存した事実を記録する。
// 該当ピックがない場合はPICK_NOT_FOUNDを返す。
func (s *Service) SavePick(ctx context.Context, pickID string) error {
	found, err := s.pickRepo.SetSaved(ctx, pickID, s.now())
	if err != nil {
		return fmt.Errorf("ピック保存の記録に失敗しました: %w", err)
	}
	if !found {
		return model.NewPickNotFoundError(pickID)
	}
	return nil
}

// validateArtURL はアルバムアートURLの形式を検査する。
func validateArtURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return model.NewInvalidArtURLError("URLとして解析できません")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return model.NewInvalidArtURLError(fmt.Sprintf("許可されないスキームです: %s", u.Scheme))
	}
	if u.Host == "" {
		return model.NewInvalidArtURLError("ホストがありません")
	}
	return nil
}
