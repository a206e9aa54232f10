package phlock

import "sync"

// ownerLocks はオーナーIDをキーとするミューテックス群。
// 同一オーナーへの追加/削除/入れ替えとロールオーバー適用を直列化する。
// 異なるオーナー同士は競合しない。
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// newOwnerLocks はownerLocksを生成する。
func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*sync.Mutex)}
}

// lock は指定オーナーのミューテックスを取得してロックし、解放関数を返す。
// エントリはオーナーごとに1つだけ生成され、以後再利用される。
func (l *ownerLocks) lock(ownerID string) func() {
	l.mu.Lock()
	m, ok := l.locks[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
