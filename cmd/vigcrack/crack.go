package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "vigcrack/internal/config"
	"vigcrack/internal/diag"
)

type crackFlags struct {
	config      string
	maxKeyLen   int
	letters     int
	sequences   int
	dictionary  string
	texts       []string
	outputDir   string
	toStdout    bool
	concurrency int
	maxAttempts int
	quiet       bool
	logLevel    string
}

func newCrackCmd() *cobra.Command {
	var f crackFlags
	d := cfgpkg.Defaults()
	cmd := &cobra.Command{
		Use:   "vigcrack [files...]",
		Short: "Recover Vigenère plaintext without the key",
		Long: `Crack Vigenère ciphertext with Kasiski examination, frequency scoring
and a dictionary check.

INPUTS:
  vigcrack secret.txt               # file
  vigcrack msgs/                    # directory, walked in lexical order
  cat secret.txt | vigcrack -       # STDIN (also when no input is given)
  vigcrack -t "Dlc aygmo zbsux"     # inline text

OUTPUT:
  plaintext goes to stdout by default; -o DIR writes <name>.decrypted.txt files.

EXIT CODES:
  0 all cracked and written, 1 runtime or write failure,
  2 some input not cracked, 3 configuration error.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return codeErr(runCrack(cmd, f, args))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件（JSON/YAML）；缺省读取 ./config.json（若存在）")
	fl.IntVarP(&f.maxKeyLen, "max-key-length", "k", d.MaxKeyLength, "最大密钥长度")
	fl.IntVarP(&f.letters, "letters", "l", d.LettersPerPosition, "每个密钥位置尝试的候选字母数")
	fl.IntVarP(&f.sequences, "sequences", "r", d.SequenceLength, "Kasiski 重复片段窗口数（长度 3 起）")
	fl.StringVarP(&f.dictionary, "dictionary", "d", d.Dictionary, "词表文件（每行一词）")
	fl.StringArrayVarP(&f.texts, "text", "t", nil, "直接给出密文（可重复）；不能与文件参数同用")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "明文输出目录（使用 fs writer）")
	fl.BoolVar(&f.toStdout, "stdout", false, "明文写到标准输出")
	fl.IntVar(&f.concurrency, "concurrency", d.Concurrency, "并行搜索的 worker 数")
	fl.IntVar(&f.maxAttempts, "max-attempts", d.MaxAttempts, "每个密钥长度每轮的尝试上限（0 不限）")
	fl.BoolVarP(&f.quiet, "quiet", "s", false, "关闭终端状态提示")
	fl.StringVar(&f.logLevel, "log-level", "", "日志等级 debug|info|warn|error")
	return cmd
}

// loadConfig 合并 defaults → 文件/JSON → ENV → CLI。
func loadConfig(cmd *cobra.Command, f crackFlags, args []string) (cfgpkg.Config, error) {
	cfgFile := f.config
	if cfgFile == "" {
		cfgFile = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if cfgFile == "" {
		if _, err := os.Stat("config.json"); err == nil {
			cfgFile = "config.json"
		}
	}
	var cfgJSON []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}

	cfg := cfgpkg.Defaults()
	if cfgFile != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(cfgFile, cfgJSON)
		if err != nil {
			return cfg, fmt.Errorf("配置解析失败: %w", err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, fmt.Errorf("环境变量解析失败: %w", err)
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	over, err := cliOverlay(cmd, f, args)
	if err != nil {
		return cfg, err
	}
	cfg = cfgpkg.Merge(cfg, over)
	if f.outputDir != "" {
		if cfg.Options.Writer, err = withOutputDir(cfg.Options.Writer, f.outputDir); err != nil {
			return cfg, fmt.Errorf("writer options: %w", err)
		}
	}
	return cfg, nil
}

// cliOverlay 只收录显式给出的旗标。
func cliOverlay(cmd *cobra.Command, f crackFlags, args []string) (cfgpkg.Config, error) {
	over := cfgpkg.Overlay()
	fl := cmd.Flags()
	if fl.Changed("max-key-length") {
		over.MaxKeyLength = f.maxKeyLen
	}
	if fl.Changed("letters") {
		over.LettersPerPosition = f.letters
	}
	if fl.Changed("sequences") {
		over.SequenceLength = f.sequences
	}
	if fl.Changed("concurrency") {
		over.Concurrency = f.concurrency
	}
	if fl.Changed("max-attempts") {
		over.MaxAttempts = f.maxAttempts
	}
	if fl.Changed("dictionary") {
		over.Dictionary = f.dictionary
	}
	over.Logging.Level = f.logLevel

	switch {
	case len(f.texts) > 0 && len(args) > 0:
		return over, errors.New("--text 不能与文件参数同时使用")
	case len(f.texts) > 0:
		over.Components.Reader = "inline"
		over.Inputs = f.texts
	case len(args) > 0:
		over.Components.Reader = "fs"
		over.Inputs = args
	}

	switch {
	case f.toStdout && f.outputDir != "":
		return over, errors.New("--stdout 不能与 --output-dir 同时使用")
	case f.toStdout:
		over.Components.Writer = "stdout"
	case f.outputDir != "":
		over.Components.Writer = "fs"
	}
	return over, nil
}

// withOutputDir 在保留其余 fs writer 选项的前提下设置 output_dir。
func withOutputDir(raw json.RawMessage, dir string) (json.RawMessage, error) {
	opts := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, err
		}
	}
	opts["output_dir"] = dir
	return json.Marshal(opts)
}

func runCrack(cmd *cobra.Command, f crackFlags, args []string) int {
	start := time.Now()
	corrID := uuid.NewString()
	// 先以默认等级记录早期错误，配置合并后按最终 level/dir 重建
	logger := diag.NewLogger(corrID, "info", "")
	defer func() { _ = logger.Close() }()
	fail := func(prefix string, err error) int {
		fprintf(stderr, "%s: %v\n", prefix, err)
		logger.Error("config", string(diag.Classify(err)), prefix+": "+err.Error(), &start)
		return exitConfig
	}

	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return fail("配置错误", err)
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		_ = dumpConfig(cfg)
		return fail("配置校验失败", err)
	}
	_ = logger.Close()
	logger = diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)

	if err := preflightCheckOutputDir(cfg); err != nil {
		return fail("输出目录不可写或无法创建", err)
	}
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return fail("装配失败", err)
	}

	logger.Debug("config", "effective", "", map[string]string{
		"inputs_count":   strconv.Itoa(len(cfg.Inputs)),
		"max_key_length": strconv.Itoa(cfg.MaxKeyLength),
		"letters":        strconv.Itoa(cfg.LettersPerPosition),
		"sequences":      strconv.Itoa(cfg.SequenceLength),
		"concurrency":    strconv.Itoa(cfg.Concurrency),
		"max_attempts":   strconv.Itoa(cfg.MaxAttempts),
		"dictionary":     cfg.Dictionary,
		"reader":         cfg.Components.Reader,
		"writer":         cfg.Components.Writer,
	})

	// 终端信息提示（非日志）
	term := diag.NewTerminal(stderr, !f.quiet)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	inputs := len(cfg.Inputs)
	if inputs == 0 {
		inputs = 1 // STDIN
	}
	term.RunStart(inputs, cfg.Concurrency)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	rep, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		code := diag.RecordError("pipeline", err)
		logger.Error("pipeline", string(code), "first error: "+err.Error(), &start)
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		return exitRuntime
	}
	t.Finish("run", int64(len(rep.Outcomes)))
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())

	code := exitOK
	switch {
	case rep.SinkFailures() > 0:
		code = exitRuntime
	case rep.NotFound() > 0:
		code = exitNotFound
	}
	if rerr := rep.Err(); rerr != nil {
		fprintf(stderr, "%v\n", rerr)
		diag.IncOp("pipeline", "finish", "partial")
	} else {
		diag.IncOp("pipeline", "finish", "success")
	}
	term.RunFinish(code == exitOK, time.Since(start))
	return code
}

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	fprintf(stderr, "有效配置:\n%s\n", b)
	return nil
}

// preflightCheckOutputDir: fs writer 启动前检查输出目录可写性。
// 目录存在时尝试创建并删除临时文件；不存在时检查父目录。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	if strings.TrimSpace(cfg.Components.Writer) != "fs" {
		return nil
	}
	var wopts struct {
		OutputDir string `json:"output_dir"`
	}
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
	}
	dir := strings.TrimSpace(wopts.OutputDir)
	if dir == "" {
		// 交由 writer 构造时报错
		return nil
	}
	st, err := os.Stat(dir)
	switch {
	case err == nil && st.IsDir():
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	case err == nil:
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	case !os.IsNotExist(err):
		return err
	}
	parent := filepath.Dir(filepath.Clean(dir))
	pst, err := os.Stat(parent)
	if err != nil {
		return err
	}
	if !pst.IsDir() {
		return fmt.Errorf("父路径不是目录: %s", parent)
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	return os.RemoveAll(tmpd)
}
