// Package txn 提供單一操作內的 undo log。
//
// 帳本的每個元件在修改狀態前把「還原動作」登記到 Tx，
// 操作中途任何一步失敗時依相反順序還原，達成 all-or-nothing。
// Tx 本身不加鎖，由呼叫端 (Bank) 的全域鎖保護。
package txn

// Tx 一次操作的暫存還原紀錄
type Tx struct {
	undo []func()
}

// New 建立新的 Tx
func New() *Tx {
	return &Tx{undo: make([]func(), 0, 8)}
}

// OnRollback 登記還原動作；tx 為 nil 時 (例如 journal 重放) 直接忽略
func (t *Tx) OnRollback(f func()) {
	if t == nil {
		return
	}
	t.undo = append(t.undo, f)
}

// Rollback 依登記的相反順序還原所有修改
func (t *Tx) Rollback() {
	if t == nil {
		return
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:0]
}

// Commit 確認修改，丟棄還原紀錄
func (t *Tx) Commit() {
	if t == nil {
		return
	}
	t.undo = t.undo[:0]
}

// Pending 尚未提交的還原動作數量
func (t *Tx) Pending() int {
	if t == nil {
		return 0
	}
	return len(t.undo)
}
