package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Terminal: 终端状态提示（非日志）。
// - 输出到提供的 io.Writer（通常为 stderr）。
// - TTY: 进度单行 \r 覆盖；非 TTY: 只打印关键节点。
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	concurrency int
	inputs      int
	filesDone   int
	cracked     int
	runStart    time.Time

	curFileID string
	fileStart time.Time

	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// 进程级终端（可选，全局设置后供 pipeline 旁路调用）。
var (
	activeMu sync.RWMutex
	active   *Terminal
)

// SetTerminal 设置全局终端（nil 可清除）。
func SetTerminal(t *Terminal) { activeMu.Lock(); active = t; activeMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil）。
func GetTerminal() *Terminal { activeMu.RLock(); defer activeMu.RUnlock(); return active }

// NewTerminal 构造终端提示器；enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	// CI 环境视为非 TTY
	if os.Getenv("CI") == "" {
		if f, ok := w.(*os.File); ok {
			t.isTTY = term.IsTerminal(int(f.Fd()))
		}
	}
	return t
}

// RunStart: 记录运行上下文。
func (t *Terminal) RunStart(inputs, concurrency int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.inputs = inputs
	t.concurrency = concurrency
	t.filesDone, t.cracked = 0, 0
	t.runStart = time.Now()
	t.println(fmt.Sprintf("[run] 输入=%d | 并发=%d", inputs, concurrency))
}

// FileStart: 当前输入及候选密钥长度。
func (t *Terminal) FileStart(fileID string, candidates []int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.curFileID = shortenBase(fileID, 48)
	t.fileStart = time.Now()
	t.println(fmt.Sprintf("[file] %s | 候选密钥长度 %s", t.curFileID, joinInts(candidates)))
}

// KeyLength: 打印某密钥长度下每个位置的候选字母。
func (t *Terminal) KeyLength(k int, letters []string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.clearInline()
	t.println(fmt.Sprintf("[key] 尝试长度 %d", k))
	for i, ls := range letters {
		t.println(fmt.Sprintf("      第 %d 位候选: %s", i+1, spaced(ls)))
	}
}

// Progress: 尝试进度（仅 TTY，≥100ms 节流）。
func (t *Terminal) Progress(k int, pass string, attempts int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || !t.isTTY {
		return
	}
	now := time.Now()
	if now.Sub(t.lastFlush) < 100*time.Millisecond {
		return
	}
	t.lastFlush = now
	t.printInline(fmt.Sprintf("[key] %s | 长度 %d | %s | 已尝试 %d | 用时 %s",
		t.curFileID, k, pass, attempts, formatSince(t.fileStart)))
}

// FileFinish: 当前输入完成。found=false 表示未找到明文。
func (t *Terminal) FileFinish(found bool, key string, attempts int, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.filesDone++
	t.clearInline()
	if found {
		t.cracked++
		t.println(fmt.Sprintf("[done] %s | 密钥 %s | 尝试 %d | 用时 %s", t.curFileID, safe(key), attempts, formatDur(dur)))
		return
	}
	t.println(fmt.Sprintf("[miss] %s | 尝试 %d | 用时 %s", t.curFileID, attempts, formatDur(dur)))
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] 全部完成 | 破解 %d/%d | 总用时 %s", tag, t.cracked, t.filesDone, formatDur(dur)))
}

func (t *Terminal) clearInline() {
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
		t.lastLen = 0
		if _, err := io.WriteString(t.w, "\r"); err != nil {
			t.enabled = false
		}
	}
}

func (t *Terminal) println(s string) {
	if !t.enabled {
		return
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		// 写失败即禁用
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	if !t.enabled {
		return
	}
	// 新行比旧行短时以空格覆盖残留
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

// shortenBase: 取基名并按可见宽度截断（尾部省略号）。
func shortenBase(s string, max int) string {
	if max <= 0 {
		return ""
	}
	base := filepath.Base(strings.TrimSpace(s))
	if visLen(base) <= max {
		return base
	}
	rs := []rune(base)
	return string(rs[:max-1]) + "…"
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func spaced(s string) string {
	rs := []rune(s)
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return "-"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}

func formatSince(t0 time.Time) string { return formatDur(time.Since(t0)) }

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
}
