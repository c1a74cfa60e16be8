package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vigcrack/internal/vigenere"
	"vigcrack/pkg/contract"
)

type cipherFlags struct {
	key      string
	text     string
	output   string
	alphabet string
}

// newCipherCmd 构造 encrypt / decrypt 子命令。
func newCipherCmd(name string) *cobra.Command {
	var f cipherFlags
	dir := vigenere.Encrypt
	short := "Encrypt text with a Vigenère key"
	if name == "decrypt" {
		dir = vigenere.Decrypt
		short = "Decrypt Vigenère ciphertext with a known key"
	}
	cmd := &cobra.Command{
		Use:   name + " --key KEY [file]",
		Short: short,
		Long: short + `.

Input is --text, a file argument, or STDIN. Letters outside the alphabet
pass through unchanged and case is preserved.

  vigcrack ` + name + ` --key LEMON --text "Attack at dawn!"
  vigcrack ` + name + ` --key LEMON msg.txt -o out.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return codeErr(runCipher(cmd, f, dir, args))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.key, "key", "", "密钥（仅字母表字符）")
	fl.StringVarP(&f.text, "text", "t", "", "直接给出文本")
	fl.StringVarP(&f.output, "output", "o", "", "输出文件（缺省为标准输出）")
	fl.StringVar(&f.alphabet, "alphabet", vigenere.Latin, "字母表")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func runCipher(cmd *cobra.Command, f cipherFlags, dir vigenere.Direction, args []string) int {
	if f.text != "" && len(args) > 0 {
		fprintf(stderr, "参数错误: --text 不能与文件参数同时使用\n")
		return exitConfig
	}
	alpha, err := vigenere.NewAlphabet(f.alphabet)
	if err != nil {
		fprintf(stderr, "字母表无效: %v\n", err)
		return exitConfig
	}
	text, err := cipherInput(cmd, f, args)
	if err != nil {
		fprintf(stderr, "读取输入失败: %v\n", err)
		return exitRuntime
	}
	out, err := alpha.Transform(text, f.key, dir)
	if err != nil {
		fprintf(stderr, "密钥无效: %v\n", err)
		if errors.Is(err, contract.ErrInvalidInput) {
			return exitConfig
		}
		return exitRuntime
	}

	if f.output == "" {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		if _, err := io.WriteString(stdout, out); err != nil {
			fprintf(stderr, "写出失败: %v\n", err)
			return exitRuntime
		}
		return exitOK
	}
	if err := os.WriteFile(f.output, []byte(out), 0o644); err != nil {
		fprintf(stderr, "写出失败: %v\n", err)
		return exitRuntime
	}
	return exitOK
}

func cipherInput(cmd *cobra.Command, f cipherFlags, args []string) (string, error) {
	switch {
	case f.text != "":
		return f.text, nil
	case len(args) == 1 && args[0] != "-":
		b, err := os.ReadFile(args[0])
		return string(b), err
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("stdin: %w", err)
	}
	return string(b), nil
}
