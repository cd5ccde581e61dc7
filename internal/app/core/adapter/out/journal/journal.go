// Package journal 把帳本操作寫入 WAL，重啟時依序讀回。
package journal

import (
	"encoding/json"
	"fmt"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-bank/pkg/wal"
)

var _ usecase.Journal = (*WALJournal)(nil)

// WALJournal 以 pkg/wal 實作 usecase.Journal
type WALJournal struct {
	wal *wal.WAL
}

// Open 開啟 (或建立) journal 檔案
func Open(path string) (*WALJournal, error) {
	w, err := wal.NewWAL(path)
	if err != nil {
		return nil, err
	}
	return &WALJournal{wal: w}, nil
}

// Append 寫入一筆操作 (fsync 後才回傳)
func (j *WALJournal) Append(op *domain.Operation) error {
	return j.wal.Write(op)
}

// Replay 依寫入順序讀出所有操作
func (j *WALJournal) Replay(fn func(op *domain.Operation) error) error {
	return j.wal.ReadAll(func(raw []byte) error {
		var op domain.Operation
		if err := json.Unmarshal(raw, &op); err != nil {
			return fmt.Errorf("decode operation: %w", err)
		}
		return fn(&op)
	})
}

// Close 關閉底層檔案
func (j *WALJournal) Close() error {
	return j.wal.Close()
}
