package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"vigcrack/internal/pipeline"
)

// 退出码
const (
	exitOK       = 0
	exitRuntime  = 1 // 运行期错误或写出失败
	exitNotFound = 2 // 至少一个输入未破解
	exitConfig   = 3 // 配置/初始化错误
)

var (
	pipelineRun           = pipeline.Run
	stdout      io.Writer = os.Stdout
	stderr      io.Writer = os.Stderr
)

// exitCode 作为 RunE 的返回值携带退出码；消息已由命令自身输出。
type exitCode int

func (c exitCode) Error() string { return "exit " + strconv.Itoa(int(c)) }

func codeErr(code int) error {
	if code == exitOK {
		return nil
	}
	return exitCode(code)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := loadDotEnv(".env"); err != nil {
		fprintf(stderr, "提示：.env 读取失败（已跳过）：%v\n", err)
	}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ec exitCode
	if errors.As(err, &ec) {
		return int(ec)
	}
	// cobra 自身的参数/旗标错误
	fprintf(stderr, "参数错误: %v\n", err)
	return exitConfig
}

func newRootCmd() *cobra.Command {
	root := newCrackCmd()
	root.AddCommand(
		newCipherCmd("encrypt"),
		newCipherCmd("decrypt"),
		newInitConfigCmd(),
	)
	return root
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }
