package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	logPrefix   = "vigcrack-"
	currentName = logPrefix + "current.log"
	// 默认保留的历史文件数
	defaultKeep = 5
)

// RotatingFile 按大小轮转的日志文件。
// - 当前文件：<dir>/vigcrack-current.log
// - 超过 maxBytes 时重命名为 vigcrack-<UTC 时间戳>.log 并重新打开；
// - 历史文件超过 keep 个时删除最旧的。
type RotatingFile struct {
	dir      string
	maxBytes int64
	keep     int
	mu       sync.Mutex
	f        *os.File
	curSize  int64
}

// NewRotatingFile: maxBytes<=0 取 10 MiB。
func NewRotatingFile(dir string, maxBytes int64) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &RotatingFile{dir: dir, maxBytes: maxBytes, keep: defaultKeep}
}

// SetKeep 设置历史文件保留数；<=0 表示不清理。
func (w *RotatingFile) SetKeep(n int) {
	w.mu.Lock()
	w.keep = n
	w.mu.Unlock()
}

// Path 返回当前文件路径。
func (w *RotatingFile) Path() string { return filepath.Join(w.dir, currentName) }

// WriteLine 追加一行（自动补换行）。
func (w *RotatingFile) WriteLine(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureOpen(); err != nil {
		return err
	}
	line := int64(len(b) + 1)
	if w.curSize > 0 && w.curSize+line > w.maxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	n, err := w.f.Write(append(b, '\n'))
	w.curSize += int64(n)
	return err
}

func (w *RotatingFile) ensureOpen() error {
	if w.f != nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.curSize = 0
	if st, err := f.Stat(); err == nil {
		w.curSize = st.Size()
	}
	return nil
}

func (w *RotatingFile) rotate() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	// 纳秒精度，避免同秒冲突
	ts := time.Now().UTC().Format("20060102-150405.000000000")
	rotated := filepath.Join(w.dir, fmt.Sprintf("%s%s.log", logPrefix, ts))
	if err := os.Rename(w.Path(), rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename rotated file: %w", err)
	}
	w.prune()
	return w.ensureOpen()
}

// prune 删除超出保留数的最旧历史文件；失败忽略。
func (w *RotatingFile) prune() {
	if w.keep <= 0 {
		return
	}
	ents, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	var old []string
	for _, e := range ents {
		n := e.Name()
		if n != currentName && strings.HasPrefix(n, logPrefix) && strings.HasSuffix(n, ".log") {
			old = append(old, n)
		}
	}
	if len(old) <= w.keep {
		return
	}
	sort.Strings(old)
	for _, n := range old[:len(old)-w.keep] {
		_ = os.Remove(filepath.Join(w.dir, n))
	}
}

// Close 关闭当前文件句柄。
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
