package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"vigcrack/internal/cracker"
	"vigcrack/internal/diag"
	"vigcrack/internal/kasiski"
	"vigcrack/pkg/contract"
)

// - 逐输入串行：Reader 每产出一个输入即完成 分析 → 破解 → 写出；并发只存在于 cracker 内部。
// - 结果分离：未破解与写出失败分别记录在 Outcome 中，写出失败不影响后续输入。
// - 首错中止：读取错误与取消会中止整个运行并返回该错误。

// Components 聚合运行所需的 I/O 组件。
type Components struct {
	Reader contract.Reader
	Writer contract.Writer
}

// Settings 运行期配置。
type Settings struct {
	// Inputs 原样交给 Reader；空值的含义由 Reader 决定（fs 读 STDIN，inline 报错）
	Inputs   []string
	Analyzer kasiski.Analyzer
	Cracker  *cracker.Cracker
	// CompleteKeyLengths: 在 Kasiski 候选后补齐 1..MaxKeyLength 中未出现的长度
	CompleteKeyLengths bool
	// OutputSuffix: 明文工件名后缀，替换输入的最后一级扩展名
	OutputSuffix string
}

// DefaultOutputSuffix 为未配置时的明文工件后缀。
const DefaultOutputSuffix = ".decrypted.txt"

// Outcome 为单个输入的结果。
type Outcome struct {
	FileID     contract.FileID
	Candidates []kasiski.Candidate
	Lengths    []int // 实际尝试的密钥长度顺序
	Result     cracker.Result
	Artifact   contract.ArtifactID
	SinkErr    error
}

// Cracked 表示找到明文（无论是否成功写出）。
func (o Outcome) Cracked() bool { return o.Result.Found }

// Delivered 表示明文已找到且成功写出。
func (o Outcome) Delivered() bool { return o.Result.Found && o.SinkErr == nil }

// Report 汇总全部输入的结果（按 Reader 产出顺序）。
type Report struct {
	Outcomes []Outcome
}

// NotFound 返回未破解的输入数。
func (r Report) NotFound() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Cracked() {
			n++
		}
	}
	return n
}

// SinkFailures 返回已破解但写出失败的输入数。
func (r Report) SinkFailures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Cracked() && o.SinkErr != nil {
			n++
		}
	}
	return n
}

// Err 将报告折叠为单个错误：写出失败优先，其次未破解；全部成功为 nil。
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Cracked() && o.SinkErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.FileID, o.SinkErr))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if n := r.NotFound(); n > 0 {
		return fmt.Errorf("%d input(s): %w", n, contract.ErrNotFound)
	}
	return nil
}

// Run 执行 Reader → Kasiski → Cracker → Writer。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Report, error) {
	var rep Report
	if err := sanity(comp, set); err != nil {
		return rep, fmt.Errorf("sanity: %w", err)
	}
	if set.OutputSuffix == "" {
		set.OutputSuffix = DefaultOutputSuffix
	}
	rtimer := logger.Start("reader", "iterate")
	err := comp.Reader.Iterate(ctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		defer rc.Close()
		out, err := processOne(ctx, comp, set, logger, fid, rc)
		if err != nil {
			return err
		}
		rep.Outcomes = append(rep.Outcomes, out)
		return nil
	})
	if err != nil {
		code := diag.RecordError("reader", err)
		logger.Error("reader", string(code), "iterate failed: "+err.Error(), rtimer.Since())
		return rep, fmt.Errorf("reader iterate: %w", err)
	}
	rtimer.Finish("iterate", int64(len(rep.Outcomes)))
	diag.IncOp("reader", "finish", "success")
	return rep, nil
}

func processOne(ctx context.Context, comp Components, set Settings, logger *diag.Logger, fid contract.FileID, r io.Reader) (Outcome, error) {
	out := Outcome{FileID: fid}
	id := string(fid)
	b, err := io.ReadAll(r)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", id, err)
	}
	text := string(b)

	// Kasiski
	ktimer := logger.StartWith("kasiski", "analyze", id)
	out.Candidates = set.Analyzer.CandidateKeyLengths(text)
	out.Lengths = kasiski.Lengths(out.Candidates)
	if out.Candidates != nil && set.CompleteKeyLengths {
		out.Lengths = kasiski.Lengths(kasiski.Complete(out.Candidates, set.Analyzer.MaxKeyLength))
	}
	ktimer.FinishKV("analyze", int64(len(out.Candidates)), map[string]string{"lengths": joinInts(out.Lengths)})
	diag.IncOp("kasiski", "finish", "success")

	term := diag.GetTerminal()
	term.FileStart(id, out.Lengths)
	start := time.Now()

	// 破解
	ctimer := logger.StartWith("cracker", "crack", id)
	obs := &observer{fileID: id, logger: logger, term: term}
	res, err := set.Cracker.WithObserver(obs).Crack(ctx, text, out.Lengths)
	out.Result = res
	if err != nil {
		code := diag.RecordError("cracker", err)
		logger.ErrorWith("cracker", string(code), "crack aborted", ctimer.Since(), id)
		term.FileFinish(false, "", res.Attempts, time.Since(start))
		return out, fmt.Errorf("crack %s: %w", id, err)
	}
	term.FileFinish(res.Found, res.Key, res.Attempts, time.Since(start))
	if !res.Found {
		diag.IncOp("cracker", "finish", "not_found")
		logger.WarnWith("cracker", string(diag.CodeNotFound), "plaintext not found", id,
			map[string]string{"attempts": strconv.Itoa(res.Attempts)})
		return out, nil
	}
	ctimer.FinishKV("crack", int64(res.Attempts), map[string]string{
		"key":        res.Key,
		"key_length": strconv.Itoa(res.KeyLength),
	})
	diag.IncOp("cracker", "finish", "success")

	// 写出
	out.Artifact = contract.ArtifactFor(fid, set.OutputSuffix)
	wtimer := logger.StartWith("writer", "write", string(out.Artifact))
	if werr := comp.Writer.Write(ctx, out.Artifact, strings.NewReader(res.Plaintext)); werr != nil {
		if cerr := ctx.Err(); cerr != nil {
			return out, fmt.Errorf("write %s: %w", out.Artifact, cerr)
		}
		code := diag.RecordError("writer", werr)
		logger.ErrorWith("writer", string(code), "write failed: "+werr.Error(), wtimer.Since(), id)
		out.SinkErr = werr
		return out, nil
	}
	wtimer.Finish("write", int64(len(res.Plaintext)))
	diag.IncOp("writer", "finish", "success")
	return out, nil
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Writer == nil {
		return fmt.Errorf("%w: missing reader or writer", contract.ErrInvariantViolation)
	}
	if s.Cracker == nil || s.Analyzer.Alphabet == nil {
		return fmt.Errorf("%w: missing cracker or analyzer", contract.ErrInvariantViolation)
	}
	if s.Analyzer.MaxKeyLength < 1 || s.Analyzer.SequenceLength < 1 {
		return fmt.Errorf("%w: analyzer limits must be positive", contract.ErrInvalidInput)
	}
	return nil
}

// observer 将破解进度转发到终端与日志。
type observer struct {
	fileID string
	logger *diag.Logger
	term   *diag.Terminal
}

func (o *observer) KeyLength(k int, shifts [][]cracker.ShiftCandidate) {
	letters := make([]string, len(shifts))
	for i, pos := range shifts {
		var b strings.Builder
		for _, s := range pos {
			b.WriteRune(s.Symbol)
		}
		letters[i] = b.String()
	}
	o.term.KeyLength(k, letters)
	o.logger.Debug("cracker", "key_length", o.fileID, map[string]string{
		"k":       strconv.Itoa(k),
		"letters": strings.Join(letters, ","),
	})
}

func (o *observer) Progress(p cracker.Progress) {
	o.term.Progress(p.KeyLength, p.Pass.String(), p.Attempts)
	if p.Capped {
		o.logger.WarnWith("cracker", "", "attempt cap reached", o.fileID, map[string]string{
			"k":        strconv.Itoa(p.KeyLength),
			"pass":     p.Pass.String(),
			"attempts": strconv.Itoa(p.Attempts),
		})
	}
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
