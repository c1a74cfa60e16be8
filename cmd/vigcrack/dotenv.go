package main

import (
	"bufio"
	"os"
	"strings"
)

// loadDotEnv 读取简单的 .env 文件并注入进程环境。
// - 文件不存在时忽略；
// - 跳过空行与 # 注释，支持可选前缀 "export "；
// - 按首个 '=' 分割，去除成对引号，双引号内处理 \n \t \r \" \\；
// - 不覆盖已存在的环境变量。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

var dquoteEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`)

func unquote(val string) string {
	if len(val) < 2 {
		return val
	}
	switch q := val[0]; {
	case q == '\'' && val[len(val)-1] == '\'':
		return val[1 : len(val)-1]
	case q == '"' && val[len(val)-1] == '"':
		return dquoteEscapes.Replace(val[1 : len(val)-1])
	}
	return val
}
