package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rw------- (只有擁有者可讀寫) - 適用於私鑰、機密檔
	FileModePrivate fs.FileMode = 0600
)

// maxRecordSize 單筆紀錄上限
const maxRecordSize = 1 << 20

// ErrClosed WAL 已關閉
var ErrClosed = errors.New("wal: closed")

// WAL 以 JSON Lines 格式追加寫入的日誌檔
//
// 每筆紀錄一行，寫入後立即 fsync；讀取時最後一行若沒有換行 (寫到一半斷電) 會被截掉。
type WAL struct {
	file   *os.File
	mu     sync.Mutex
	closed bool
}

// NewWAL 開啟或建立一個 WAL 檔案
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return &WAL{file: file}, nil
}

// Write 寫入一筆資料並刷入硬碟
func (w *WAL) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}
	if len(line)+1 > maxRecordSize {
		return fmt.Errorf("wal record too large: %d bytes", len(line))
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	// O_APPEND 下單次 write 是整行寫入
	if _, err := w.file.Write(line); err != nil {
		return err
	}
	return w.file.Sync()
}

// Sync 強制刷入硬碟 (關鍵！)
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.file.Sync()
}

// Close 關閉檔案，重複關閉不會報錯
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// ReadAll 依寫入順序讀取所有資料
// callback 每次收到一行完整的 JSON，這樣可以避免一次將所有資料載入記憶體
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReaderSize(w.file, 64*1024)
	var offset int64
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil
			}
			// 沒有換行結尾的殘行是未完成的寫入，截掉後才能繼續追加
			return w.file.Truncate(offset)
		}
		if err != nil {
			return err
		}
		offset += int64(len(line))
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return fmt.Errorf("wal line %d: invalid json", lineNo)
		}
		if err := callback(line); err != nil {
			return err
		}
	}
}
