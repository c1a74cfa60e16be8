package testdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	cfgpkg "vigcrack/internal/config"
	"vigcrack/internal/pipeline"
	"vigcrack/pkg/contract"
)

// loadBasic 读取 config/basic.{json,yaml}，输出改到临时目录。
func loadBasic(t *testing.T, name, outDir string) cfgpkg.Config {
	t.Helper()
	over, err := cfgpkg.LoadJSON(filepath.Join("config", name), nil)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	cfg := cfgpkg.Merge(cfgpkg.Defaults(), over)
	cfg.Logging.Level = "error"
	cfg.Logging.Dir = filepath.Join(outDir, "logs")
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, outDir))
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) (pipeline.Report, error) {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("读取 %s: %v", p, err)
	}
	return string(b)
}

func contains(v []int, x int) bool {
	for _, e := range v {
		if e == x {
			return true
		}
	}
	return false
}

// 端到端：pangram 密文（密钥 KEY），最大长度 10、每位 4 个候选、3 组重复片段
func TestE2EPangram(t *testing.T) {
	for _, name := range []string{"basic.json", "basic.yaml"} {
		t.Run(name, func(t *testing.T) {
			out := t.TempDir()
			rep, err := runPipeline(t, loadBasic(t, name, out))
			if err != nil {
				t.Fatalf("运行失败: %v", err)
			}
			if len(rep.Outcomes) != 1 || rep.Err() != nil {
				t.Fatalf("报告错误: %+v", rep)
			}
			o := rep.Outcomes[0]
			if !o.Delivered() || o.Result.Key != "KEY" || o.Result.KeyLength != 3 {
				t.Fatalf("破解结果错误: %+v", o.Result)
			}
			if !contains(o.Lengths, 3) {
				t.Fatalf("候选长度缺少 3: %v", o.Lengths)
			}
			got := readFile(t, filepath.Join(out, "pangram.decrypted.txt"))
			if want := readFile(t, filepath.Join("expected", "pangram.txt")); got != want {
				t.Fatalf("明文不一致:\n got %q\nwant %q", got, want)
			}
		})
	}
}

// 长文本仅靠 Kasiski + 频率即可破解
func TestE2EProse(t *testing.T) {
	out := t.TempDir()
	cfg := cfgpkg.Defaults()
	cfg.Inputs = []string{filepath.Join("files", "prose.txt")}
	cfg.Dictionary = filepath.Join("words", "prose.txt")
	cfg.Concurrency = 4
	cfg.Logging.Dir = filepath.Join(out, "logs")
	cfg.Components.Writer = "fs"
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, out))
	rep, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if len(rep.Outcomes) != 1 || rep.Outcomes[0].Result.Key != "CIPHER" {
		t.Fatalf("破解结果错误: %+v", rep.Outcomes)
	}
	if len(rep.Outcomes[0].Candidates) == 0 || !contains(rep.Outcomes[0].Lengths, 6) {
		t.Fatalf("Kasiski 候选错误: %+v", rep.Outcomes[0].Candidates)
	}
	got := readFile(t, filepath.Join(out, "prose.decrypted.txt"))
	if want := readFile(t, filepath.Join("expected", "prose.txt")); got != want {
		t.Fatalf("明文不一致")
	}
}

// 无字母的输入记为未破解，不影响其他输入
func TestE2ENotFoundIsolated(t *testing.T) {
	out := t.TempDir()
	cfg := loadBasic(t, "basic.json", out)
	cfg.Inputs = []string{filepath.Join("files", "digits.txt"), filepath.Join("files", "pangram.txt")}
	rep, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if len(rep.Outcomes) != 2 || rep.NotFound() != 1 || rep.SinkFailures() != 0 {
		t.Fatalf("报告错误: %+v", rep)
	}
	if rep.Outcomes[0].Cracked() || rep.Outcomes[0].Candidates != nil || rep.Outcomes[0].Result.Attempts != 0 {
		t.Fatalf("无字母输入应直接未破解: %+v", rep.Outcomes[0])
	}
	if !errors.Is(rep.Err(), contract.ErrNotFound) {
		t.Fatalf("应返回 ErrNotFound: %v", rep.Err())
	}
	if _, err := os.Stat(filepath.Join(out, "digits.decrypted.txt")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("未破解输入不应有输出: %v", err)
	}
	if !rep.Outcomes[1].Delivered() {
		t.Fatalf("pangram 应写出")
	}
}

// 写出失败与未破解分开记录
func TestE2ESinkFailure(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "pangram.decrypted.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := loadBasic(t, "basic.json", out)
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"overwrite":false}`, out))
	rep, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("写出失败不应中止运行: %v", err)
	}
	o := rep.Outcomes[0]
	if !o.Cracked() || o.Delivered() || !errors.Is(o.SinkErr, fs.ErrExist) {
		t.Fatalf("应为已破解但写出失败: %+v", o)
	}
	if rep.SinkFailures() != 1 || rep.NotFound() != 0 || !errors.Is(rep.Err(), fs.ErrExist) {
		t.Fatalf("报告错误: %+v", rep)
	}
}

// inline reader：命令行文本输入
func TestE2EInline(t *testing.T) {
	out := t.TempDir()
	cfg := loadBasic(t, "basic.json", out)
	cfg = cfgpkg.Merge(cfg, func() cfgpkg.Config {
		o := cfgpkg.Overlay()
		o.Components.Reader = "inline"
		o.Inputs = []string{readFile(t, filepath.Join("files", "pangram.txt"))}
		return o
	}())
	rep, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if len(rep.Outcomes) != 1 || rep.Outcomes[0].FileID != "text" || rep.Outcomes[0].Artifact != "text.decrypted.txt" {
		t.Fatalf("inline 结果错误: %+v", rep.Outcomes)
	}
	if got := readFile(t, filepath.Join(out, "text.decrypted.txt")); got != readFile(t, filepath.Join("expected", "pangram.txt")) {
		t.Fatalf("明文不一致: %q", got)
	}
}
