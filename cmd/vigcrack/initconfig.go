package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "vigcrack/internal/config"
)

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "init-config [dir]",
		Short:         "Write a default config.json and .env template (never overwrites)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			return codeErr(runInitConfig(dir))
		},
	}
}

func runInitConfig(dir string) int {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitConfig
	}
	cfgPath := filepath.Join(dir, "config.json")
	if err := writeConfig(cfgPath, cfgpkg.DefaultTemplateConfig()); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitConfig
	}
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	fprintf(stderr, "已生成 %s\n", cfgPath)
	return exitOK
}

// writeConfig 写出缩进 JSON；path 为 "-" 时写标准输出；已存在的文件不覆盖。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "-" {
		_, err = stdout.Write(b)
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// envKeys 为 .env 模板中列出的覆盖项（不含前缀）。
var envKeys = [][]string{
	{"# 配置来源（可二选一）", "CONFIG_FILE", "CONFIG_JSON"},
	{"# 输入", "INPUTS"},
	{"# 分析与搜索", "MAX_KEY_LENGTH", "LETTERS_PER_POSITION", "SEQUENCE_LENGTH", "CONCURRENCY",
		"MAX_ATTEMPTS", "EXHAUSTIVE_MAX_KEY_LENGTH", "COMPLETE_KEY_LENGTHS"},
	{"# 语言与词表", "ALPHABET", "LANGUAGE", "FREQUENCY_ORDER", "DICTIONARY",
		"WORD_MATCH_PERCENT", "LETTER_RATIO_PERCENT"},
	{"# 输出与日志", "OUTPUT_SUFFIX", "LOG_LEVEL", "LOG_DIR"},
	{"# 组件选择与选项", "COMPONENTS_READER", "COMPONENTS_WRITER", "OPTIONS_READER_JSON", "OPTIONS_WRITER_JSON"},
}

// writeDotEnv 生成 .env 模板；已存在则跳过。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# vigcrack .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件；空值表示未设置。\n")
	for _, group := range envKeys {
		b.WriteString("\n" + group[0] + "\n")
		for _, k := range group[1:] {
			b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
