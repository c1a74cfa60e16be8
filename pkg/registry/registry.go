package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"vigcrack/pkg/contract"
	rfs "vigcrack/plugins/reader/filesystem"
	rin "vigcrack/plugins/reader/inline"
	wfs "vigcrack/plugins/writer/filesystem"
	wout "vigcrack/plugins/writer/stdout"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件/目录/STDIN
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
	// inline: 命令行直接给出的密文
	"inline": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rin.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rin.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 输出目录（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
	// stdout: 标准输出
	"stdout": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wout.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wout.New(&opts), nil
	},
}

// Names 返回注册表中的组件名（字典序），用于错误提示。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
