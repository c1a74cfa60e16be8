package diag

import (
	"sort"
	"strings"
	"sync"
)

// 进程内最小指标（无导出端点），名称：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}（累计毫秒）

var (
	metricsMu sync.Mutex
	ops       = map[string]int64{}
	errs      = map[string]int64{}
	durs      = map[string]int64{}
)

// IncOp 累加操作计数（result=success|error|not_found）。
func IncOp(comp, stage, result string) {
	metricsMu.Lock()
	ops[key(comp, stage, result)]++
	metricsMu.Unlock()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	metricsMu.Lock()
	errs[key(comp, code)]++
	metricsMu.Unlock()
}

// ObserveDuration 记录阶段耗时（毫秒，累计）。
func ObserveDuration(comp, stage string, durMS int64) {
	metricsMu.Lock()
	durs[key(comp, stage)] += durMS
	metricsMu.Unlock()
}

// RecordError 分类并计数一次错误，返回分类码（便于日志复用）。
func RecordError(comp string, err error) Code {
	code := Classify(err)
	IncOp(comp, "error", "error")
	if code != CodeUnknown {
		IncError(comp, string(code))
	}
	return code
}

// Metrics 为某一时刻的指标快照。
type Metrics struct {
	Ops       map[string]int64
	Errors    map[string]int64
	Durations map[string]int64
}

// Snapshot 复制当前指标。
func Snapshot() Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return Metrics{Ops: clone(ops), Errors: clone(errs), Durations: clone(durs)}
}

// ResetMetrics 清空指标（测试用）。
func ResetMetrics() {
	metricsMu.Lock()
	ops = map[string]int64{}
	errs = map[string]int64{}
	durs = map[string]int64{}
	metricsMu.Unlock()
}

// Op 读取 op_total{comp,stage,result}。
func (m Metrics) Op(comp, stage, result string) int64 { return m.Ops[key(comp, stage, result)] }

// Error 读取 error_total{comp,code}。
func (m Metrics) Error(comp, code string) int64 { return m.Errors[key(comp, code)] }

// Lines 以稳定顺序输出 "name{labels} value"，供 debug 转储。
func (m Metrics) Lines() []string {
	var out []string
	for k, v := range m.Ops {
		out = append(out, "op_total{"+k+"} "+itoa(v))
	}
	for k, v := range m.Errors {
		out = append(out, "error_total{"+k+"} "+itoa(v))
	}
	for k, v := range m.Durations {
		out = append(out, "op_duration_ms{"+k+"} "+itoa(v))
	}
	sort.Strings(out)
	return out
}

func key(parts ...string) string { return strings.Join(parts, ",") }

func clone(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
