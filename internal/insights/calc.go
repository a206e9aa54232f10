// Package insights は送信シェアの統計スナップショットを算出する。
// 中核のComputeは決定的で副作用のない純関数。増分集計は行わず、
// 読み込みのたびに全件再計算する（増分バグの排除を再計算コストより優先する）。
package insights

import (
	"sort"
	"strings"

	"github.com/phlockapp/phlock/internal/model"
)

const (
	topArtistLimit = 3
	topGenreLimit  = 5

	// genresPerArtist はアーティスト1人がジャンル集計に寄与できる上限。
	// 異常に多くのジャンルが付いたアーティストの影響を抑える。
	genresPerArtist = 3
)

// Compute はシェアのウィンドウ（呼び出し側が最新400件以内に制限する）から
// インサイトスナップショットを算出する。
// genresは正規化済み（小文字・前後空白除去）アーティスト名→ジャンル一覧のマップ。
func Compute(shares []model.Share, genres map[string][]string) model.InsightsSnapshot {
	snapshot := model.InsightsSnapshot{}

	// ユニーク受信者数: 自分宛てのシェアはリーチに数えない
	recipients := make(map[string]bool)
	for _, s := range shares {
		if s.RecipientID == "" || s.RecipientID == s.SenderID {
			continue
		}
		recipients[s.RecipientID] = true
	}
	snapshot.UniqueRecipientCount = len(recipients)

	for _, s := range shares {
		if s.SavedAt != nil {
			snapshot.SaveCount++
		}
	}

	// アーティスト/ジャンル集計はデイリーピックのシェアのみが対象。
	// 作成日時の降順に並べてから数えることで、同数タイは直近に
	// 出現したアーティストが優先される（安定ソート前提）。
	qualifying := dailyPicksByRecency(shares)

	snapshot.TopArtists = topArtists(qualifying)
	snapshot.TopGenres = topGenres(qualifying, genres)

	return snapshot
}

// dailyPicksByRecency はデイリーピックのシェアを作成日時の降順で返す。
// 入力は変更しない。
func dailyPicksByRecency(shares []model.Share) []model.Share {
	var picks []model.Share
	for _, s := range shares {
		if s.IsDailyPick {
			picks = append(picks, s)
		}
	}
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].CreatedAt.After(picks[j].CreatedAt)
	})
	return picks
}

// topArtists はシェア数の降順で上位3アーティストを返す。
// アーティスト名は前後空白を除去し、空になった名前は捨てる。
func topArtists(picks []model.Share) []model.ArtistCount {
	counts := make(map[string]int)
	var order []string // 初出順（入力は新しい順なので直近優先）

	for _, p := range picks {
		name := strings.TrimSpace(p.ArtistName)
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	limit := topArtistLimit
	if len(order) < limit {
		limit = len(order)
	}

	result := make([]model.ArtistCount, limit)
	for i := 0; i < limit; i++ {
		result[i] = model.ArtistCount{Name: order[i], Count: counts[order[i]]}
	}
	return result
}

// topGenres は出現頻度の降順で上位5ジャンルを返す。
// アーティストごとに先頭3ジャンルのみ数え、参照表にないアーティストは
// 何も寄与しない（エラーにはしない）。
func topGenres(picks []model.Share, genres map[string][]string) []model.GenreCount {
	counts := make(map[string]int)
	var order []string

	for _, p := range picks {
		key := strings.ToLower(strings.TrimSpace(p.ArtistName))
		if key == "" {
			continue
		}
		artistGenres, ok := genres[key]
		if !ok {
			continue
		}
		n := len(artistGenres)
		if n > genresPerArtist {
			n = genresPerArtist
		}
		for _, g := range artistGenres[:n] {
			if _, seen := counts[g]; !seen {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	limit := topGenreLimit
	if len(order) < limit {
		limit = len(order)
	}

	result := make([]model.GenreCount, limit)
	for i := 0; i < limit; i++ {
		result[i] = model.GenreCount{Name: order[i], Count: counts[order[i]]}
	}
	return result
}
