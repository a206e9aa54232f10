// Package model はドメインモデルを定義する。
package model

import "time"

// DailyPick はユーザーが1日1曲選ぶ「デイリーピック」を表す。
// (SenderID, SelectedDate) ペアにつき1件のみ。作成後はSavedAt以外イミュータブル。
type DailyPick struct {
	ID           string
	SenderID     string
	TrackID      string
	TrackName    string
	ArtistName   string
	AlbumArtURL  string // 任意
	Message      string // 任意。サニタイズ済みプレーンテキスト
	SelectedDate string // YYYY-MM-DD（送信者のローカル暦）
	SavedAt      *time.Time
	CreatedAt    time.Time
}

// Share は送信済みシェア1件を表す。インサイト集計の入力となる。
// デイリーピックもシェアの一種であり、IsDailyPickで区別する。
type Share struct {
	ID          string
	SenderID    string
	RecipientID string
	TrackID     string
	TrackName   string
	ArtistName  string
	IsDailyPick bool
	SavedAt     *time.Time
	CreatedAt   time.Time
}

// InsightsSnapshot は送信シェアの統計スナップショット。
// 永続化せず、読み込みのたびに全件再計算する。
type InsightsSnapshot struct {
	UniqueRecipientCount int
	SaveCount            int
	TopArtists           []ArtistCount // 最大3件
	TopGenres            []GenreCount  // 最大5件
}

// ArtistCount はアーティスト名とシェア数のペア。
type ArtistCount struct {
	Name  string
	Count int
}

// GenreCount はジャンル名と出現数のペア。
type GenreCount struct {
	Name  string
	Count int
}
