package config

import "encoding/json"

// DefaultTemplateConfig 返回 init-config 写出的模板：
// 全部字段显式给出默认值，输入为 STDIN，明文写入 ./out。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Inputs = []string{"-"}
	cfg.Components = Components{Reader: "fs", Writer: "fs"}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules", "vendor"],
  "exts": [],
  "skip_suffixes": [".decrypted.txt"],
  "max_bytes": 0
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "atomic": true,
  "flat": true,
  "overwrite": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
