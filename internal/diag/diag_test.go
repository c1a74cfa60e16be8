package diag

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vigcrack/pkg/contract"
)

// 日志轮转：超过上限后产生历史文件
func TestRotatingFile(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 30)
	defer w.Close()
	if err := w.WriteLine([]byte("first line that is very long")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := w.WriteLine([]byte("second")); err != nil {
		t.Fatalf("第二次写入失败: %v", err)
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读取目录失败: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("应存在 current 与 1 个历史文件, got %d", len(files))
	}
	b, err := os.ReadFile(w.Path())
	if err != nil || string(b) != "second\n" {
		t.Fatalf("current 内容错误: %q %v", b, err)
	}
}

// 历史文件超过保留数时清理最旧的
func TestRotatingFilePrune(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 10)
	w.SetKeep(2)
	defer w.Close()
	for i := 0; i < 6; i++ {
		if err := w.WriteLine([]byte("xxxxxxxxxxxxxxxxxx")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	current, rotated := 0, 0
	for _, e := range ents {
		switch {
		case e.Name() == currentName:
			current++
		case strings.HasPrefix(e.Name(), logPrefix):
			rotated++
		}
	}
	if current != 1 || rotated != 2 {
		t.Fatalf("期望 current=1 rotated=2, got %d %d", current, rotated)
	}
}

func TestRotatingFileDefaults(t *testing.T) {
	w := NewRotatingFile(t.TempDir(), 0)
	if w.maxBytes != 10*1024*1024 || w.keep != defaultKeep {
		t.Fatalf("默认值错误: %d %d", w.maxBytes, w.keep)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("未打开时 Close 应为 no-op: %v", err)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	ResetMetrics()
	IncOp("cracker", "finish", "success")
	IncOp("cracker", "finish", "success")
	IncError("writer", "io")
	ObserveDuration("cracker", "crack", 5)
	ObserveDuration("cracker", "crack", 7)
	if c := RecordError("reader", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}); c != CodeIO {
		t.Fatalf("RecordError 分类错误: %s", c)
	}
	m := Snapshot()
	if m.Op("cracker", "finish", "success") != 2 || m.Error("writer", "io") != 1 || m.Error("reader", "io") != 1 {
		t.Fatalf("计数错误: %+v", m)
	}
	if m.Durations["cracker,crack"] != 12 {
		t.Fatalf("耗时累计错误: %+v", m.Durations)
	}
	lines := m.Lines()
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "error_total{") {
		t.Fatalf("Lines 输出错误: %v", lines)
	}
	// 快照与内部状态隔离
	m.Ops["x"] = 1
	if Snapshot().Ops["x"] != 0 {
		t.Fatalf("快照应为副本")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{context.Canceled, CodeCancel},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), CodeCancel},
		{fmt.Errorf("load: %w", contract.ErrDictionary), CodeDictionary},
		{contract.ErrNotFound, CodeNotFound},
		{contract.ErrInvalidInput, CodeInvariant},
		{contract.ErrPathInvalid, CodeInvariant},
		{contract.ErrInvariantViolation, CodeInvariant},
		{&fs.PathError{Op: "open", Path: "/", Err: errors.New("x")}, CodeIO},
		{&os.LinkError{Op: "rename", Old: "a", New: "b", Err: errors.New("x")}, CodeIO},
		{errors.New("other"), CodeUnknown},
		{nil, CodeUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Fatalf("Classify(%v) = %s 期望 %s", c.err, got, c.want)
		}
	}
}

// Logger 写入 JSON 行，带 corr_id 与 file_id
func TestLoggerWritesJSON(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger("corr-1", "debug", dir)
	tm := l.StartWith("cracker", "crack", "a.txt")
	tm.FinishKV("crack", 3, map[string]string{"key": "KEY"})
	l.ErrorWith("writer", "io", "write failed", tm.Since(), "a.txt")
	l.WarnWith("cracker", "", "attempt cap reached", "a.txt", map[string]string{"k": "6"})
	l.Debug("kasiski", "candidates", "a.txt", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, currentName))
	if err != nil {
		t.Fatalf("日志文件不存在: %v", err)
	}
	defer f.Close()
	var evs []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("非法 JSON 行: %v", err)
		}
		evs = append(evs, ev)
	}
	if len(evs) != 5 {
		t.Fatalf("事件数期望 5 实得 %d", len(evs))
	}
	if evs[0].CorrID != "corr-1" || evs[0].Stage != "start" || evs[0].FileID != "a.txt" {
		t.Fatalf("start 事件错误: %+v", evs[0])
	}
	if evs[1].Count != 3 || evs[1].KV["key"] != "KEY" {
		t.Fatalf("finish 事件错误: %+v", evs[1])
	}
	if evs[2].Level != "error" || evs[2].Code != "io" {
		t.Fatalf("error 事件错误: %+v", evs[2])
	}
	if evs[3].Level != "warn" || evs[4].Level != "debug" {
		t.Fatalf("级别错误: %+v %+v", evs[3], evs[4])
	}
}

func TestLoggerLevelsAndFilter(t *testing.T) {
	if Warn.String() != "warn" {
		t.Fatalf("warn string")
	}
	var unknown Level = 12345
	if unknown.String() != "info" {
		t.Fatalf("default string")
	}
	for _, s := range []string{"", "debug", "INFO", " warn ", "error"} {
		if !ValidLevel(s) {
			t.Fatalf("%q 应为合法级别", s)
		}
	}
	if ValidLevel("verbose") {
		t.Fatalf("verbose 不应合法")
	}
	dir := t.TempDir()
	l := NewLogger("c", "error", dir)
	l.Start("comp", "msg").Finish("ok", 1)
	l.Debug("comp", "msg", "f", nil)
	l.Close()
	if _, err := os.Stat(filepath.Join(dir, currentName)); !os.IsNotExist(err) {
		t.Fatalf("error 级别下 info 事件不应落盘")
	}
	// nil 接收者
	var ln *Logger
	ln.Start("comp", "msg").Finish("x", 0)
	var tnil *Timer
	tnil.Finish("x", 0)
	(&Timer{}).Finish("x", 0)
	if ln.Close() != nil {
		t.Fatalf("nil Close 应返回 nil")
	}
}

func TestNowUTC(t *testing.T) {
	if _, err := time.Parse(time.RFC3339, NowUTC()); err != nil {
		t.Fatalf("NowUTC 格式错误: %v", err)
	}
}

// 终端（非 TTY）关键节点输出
func TestTerminalNonTTYFlow(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	if term.isTTY {
		t.Fatalf("expect non-tty")
	}
	term.RunStart(2, 4)
	term.FileStart("cipher/pangram.txt", []int{3, 2, 6})
	term.KeyLength(3, []string{"KXOA", "EVZQ", "YUJB"})
	term.Progress(3, "top", 64) // 非 TTY：不输出进度
	term.FileFinish(true, "KEY", 2723, 5100*time.Millisecond)
	term.FileStart("cipher/other.txt", nil)
	term.FileFinish(false, "", 20, 300*time.Millisecond)
	term.RunFinish(false, 41300*time.Millisecond)

	out := sb.String()
	if strings.Contains(out, "\r") {
		t.Fatalf("non-tty should not contain carriage returns: %q", out)
	}
	for _, want := range []string{
		"[run] 输入=2 | 并发=4",
		"[file] pangram.txt | 候选密钥长度 3,2,6",
		"[key] 尝试长度 3",
		"第 2 位候选: E V Z Q",
		"[done] pangram.txt | 密钥 KEY | 尝试 2723 | 用时 5.1s",
		"[file] other.txt | 候选密钥长度 -",
		"[miss] other.txt | 尝试 20 | 用时 300ms",
		"[fail] 全部完成 | 破解 1/2 | 总用时 41.3s",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("缺少 %q: %q", want, out)
		}
	}
}

// 终端（TTY）进度节流与清尾
func TestTerminalTTYProgressThrottleAndClear(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	term.isTTY = true
	term.RunStart(1, 1)
	term.FileStart("/a/b/c/longfilename.txt", []int{4})

	term.Progress(4, "top", 100)
	first := sb.String()
	if !strings.Contains(first, "\r[key]") {
		t.Fatalf("first progress should be inline with CR: %q", first)
	}
	term.Progress(4, "top", 200)
	if sb.String() != first {
		t.Fatalf("second progress should be throttled")
	}
	time.Sleep(120 * time.Millisecond)
	term.Progress(4, "top", 300)
	third := sb.String()
	if len(third) <= len(first) {
		t.Fatalf("third progress should append output")
	}
	term.FileFinish(false, "", 300, 2200*time.Millisecond)
	final := sb.String()
	idx := strings.LastIndex(final, "[miss]")
	if idx < 0 {
		t.Fatalf("finish should include miss line: %q", final)
	}
	seg := final[len(third):idx]
	if !strings.HasPrefix(seg, "\r ") {
		t.Fatalf("clear tail should write spaces after CR: %q", seg)
	}
}

type flakyWriter struct{ fail bool }

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.fail {
		w.fail = false
		return 0, fmt.Errorf("boom")
	}
	return len(p), nil
}

// 写失败降级为禁用态
func TestTerminalDisableOnWriteError(t *testing.T) {
	fw := &flakyWriter{fail: true}
	term := NewTerminal(fw, true)
	term.RunStart(1, 1)
	if term.enabled {
		t.Fatalf("terminal should be disabled after write error")
	}
	term.FileStart("a", nil)
	term.KeyLength(1, []string{"A"})
	term.Progress(1, "top", 1)
	term.FileFinish(true, "A", 1, 0)
	term.RunFinish(true, 0)
}

func TestTerminalNilReceiverNoop(t *testing.T) {
	var tn *Terminal
	tn.RunStart(1, 1)
	tn.FileStart("a", nil)
	tn.KeyLength(1, nil)
	tn.Progress(1, "top", 0)
	tn.FileFinish(true, "", 0, 0)
	tn.RunFinish(true, 0)
}

func TestNewTerminalCIEnv(t *testing.T) {
	t.Setenv("CI", "true")
	term := NewTerminal(os.Stderr, true)
	if term.isTTY {
		t.Fatalf("CI env should force non-tty")
	}
}

func TestHelpers(t *testing.T) {
	if got := shortenBase("/x/y/abcdefghijklmnop.txt", 10); got != "abcdefghi…" {
		t.Fatalf("shortenBase: %q", got)
	}
	if shortenBase("x", 0) != "" {
		t.Fatalf("shortenBase max<=0 should be empty")
	}
	if safe("a\nb\rc") != "a b c" {
		t.Fatalf("safe replace failed")
	}
	if formatDur(0) != "0ms" || formatDur(1500*time.Millisecond) != "1.5s" {
		t.Fatalf("formatDur failed")
	}
	if spaced("KEY") != "K E Y" || joinInts([]int{1, 2}) != "1,2" {
		t.Fatalf("格式化工具错误")
	}
	SetTerminal(nil)
	if GetTerminal() != nil {
		t.Fatalf("expected nil terminal")
	}
	SetTerminal(NewTerminal(os.Stderr, false))
	if GetTerminal() == nil {
		t.Fatalf("expected non-nil terminal")
	}
	SetTerminal(nil)
}
