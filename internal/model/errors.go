// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: roster, validation, auth, analytics, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	ErrCodeDuplicateMember    = "DUPLICATE_MEMBER"
	ErrCodeNotAMember         = "NOT_A_MEMBER"
	ErrCodeInvariantViolation = "INVARIANT_VIOLATION"
	ErrCodeUnavailable        = "UNAVAILABLE"
	ErrCodeDuplicatePick      = "DUPLICATE_PICK"
	ErrCodePickNotFound       = "PICK_NOT_FOUND"
	ErrCodeInvalidArtURL      = "INVALID_ART_URL"
)

// NewCapacityExceededError はスロット上限超過エラーを生成する。
func NewCapacityExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeCapacityExceeded,
		Message:  fmt.Sprintf("フロックは上限（%d人）に達しています。", MaxSlots),
		Category: "roster",
		Action:   "既存のメンバーを削除するか、入れ替えを使ってください。",
	}
}

// NewDuplicateMemberError は重複メンバーエラーを生成する。
func NewDuplicateMemberError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateMember,
		Message:  fmt.Sprintf("このユーザーは既にフロックに入っています: %s", memberID),
		Category: "roster",
		Action:   "別のユーザーを選んでください。",
	}
}

// NewNotAMemberError はメンバー不在エラーを生成する。
func NewNotAMemberError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotAMember,
		Message:  fmt.Sprintf("このユーザーはフロックに入っていません: %s", memberID),
		Category: "roster",
		Action:   "フロックの現在のメンバーを確認してください。",
	}
}

// NewInvariantViolationError は内部不変条件違反エラーを生成する。
// 操作は中断され、ログに記録される。リトライ対象ではない。
func NewInvariantViolationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeInvariantViolation,
		Message:  fmt.Sprintf("内部不変条件に違反しました: %s", detail),
		Category: "system",
		Action:   "問題が解消しない場合は運営に連絡してください。",
	}
}

// NewUnavailableError は外部コラボレーターの一時的な障害エラーを生成する。
// 呼び出し側がリトライしてよい唯一のエラー種別。
func NewUnavailableError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUnavailable,
		Message:  fmt.Sprintf("一時的にサービスへ接続できません: %s", detail),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDuplicatePickError は同日のピック重複エラーを生成する。
func NewDuplicatePickError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicatePick,
		Message:  fmt.Sprintf("本日（%s）のピックは既に選択済みです。", date),
		Category: "validation",
		Action:   "ピックは1日1曲までです。明日また選んでください。",
	}
}

// NewPickNotFoundError はピック未検出エラーを生成する。
func NewPickNotFoundError(pickID string) *APIError {
	return &APIError{
		Code:     ErrCodePickNotFound,
		Message:  fmt.Sprintf("指定されたピックが見つかりません: %s", pickID),
		Category: "validation",
		Action:   "ピックIDを確認してください。",
	}
}

// NewInvalidArtURLError はアルバムアートURLの形式エラーを生成する。
func NewInvalidArtURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidArtURL,
		Message:  fmt.Sprintf("無効なアルバムアートURLです: %s", reason),
		Category: "validation",
		Action:   "http:// または https:// で始まるURLを指定してください。",
	}
}
