package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vigcrack/internal/diag"
	"vigcrack/internal/pipeline"
	"vigcrack/internal/vigenere"
)

// EnvPrefix 为环境变量覆盖的前缀。
const EnvPrefix = "VIGCRACK_"

// Defaults 返回带有安全默认值的 Config。
func Defaults() Config {
	complete := true
	return Config{
		MaxKeyLength:           16,
		LettersPerPosition:     4,
		SequenceLength:         3,
		Alphabet:               vigenere.Latin,
		Language:               "english",
		Dictionary:             "dictionary.txt",
		WordMatchPercent:       20,
		LetterRatioPercent:     85,
		Concurrency:            1,
		MaxAttempts:            1 << 20,
		ExhaustiveMaxKeyLength: 3,
		CompleteKeyLengths:     &complete,
		OutputSuffix:           pipeline.DefaultOutputSuffix,
		Logging:                Logging{Level: "info", Dir: diag.DefaultLogDir},
		Components:             Components{Reader: "fs", Writer: "stdout"},
	}
}

// Overlay 返回一个“全部未设置”的覆盖层；ENV/CLI/文件在其上填写。
func Overlay() Config {
	return Config{
		MaxKeyLength:           Unset,
		LettersPerPosition:     Unset,
		SequenceLength:         Unset,
		WordMatchPercent:       Unset,
		LetterRatioPercent:     Unset,
		Concurrency:            Unset,
		MaxAttempts:            Unset,
		ExhaustiveMaxKeyLength: Unset,
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
// raw 优先；path 以 .yaml/.yml 结尾时按 YAML 解析。
func LoadJSON(path string, raw []byte) (Config, error) {
	switch {
	case len(raw) > 0:
		return decodeStrict(raw)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return Overlay(), err
		}
		if isYAML(path) {
			if b, err = yamlToJSON(b); err != nil {
				return Overlay(), fmt.Errorf("%s: %w", path, err)
			}
		}
		cfg, err := decodeStrict(b)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	default:
		return Overlay(), errors.New("no config source provided")
	}
}

// decodeStrict 在 Overlay 之上解码：文件中缺省的字段保持“未设置”。
func decodeStrict(b []byte) (Config, error) {
	cfg := Overlay()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Overlay(), err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON 将 YAML 文档转换为 JSON，后续统一走严格 JSON 解码。
func yamlToJSON(b []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	v, err := jsonable(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// jsonable 把 yaml 解出的 map[any]any 等结构转换为 encoding/json 可编码的形式。
func jsonable(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			c, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("yaml: non-string key %v", k)
			}
			c, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			out[ks] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			c, err := jsonable(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return v, nil
	}
}

// Merge 按优先级合并（后者覆盖前者）。
// 整数字段以 Unset 表示未覆盖；字符串空值不覆盖；原样 JSON 整体替换。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	out.MaxKeyLength = pickInt(out.MaxKeyLength, over.MaxKeyLength)
	out.LettersPerPosition = pickInt(out.LettersPerPosition, over.LettersPerPosition)
	out.SequenceLength = pickInt(out.SequenceLength, over.SequenceLength)
	out.WordMatchPercent = pickInt(out.WordMatchPercent, over.WordMatchPercent)
	out.LetterRatioPercent = pickInt(out.LetterRatioPercent, over.LetterRatioPercent)
	out.Concurrency = pickInt(out.Concurrency, over.Concurrency)
	out.MaxAttempts = pickInt(out.MaxAttempts, over.MaxAttempts)
	out.ExhaustiveMaxKeyLength = pickInt(out.ExhaustiveMaxKeyLength, over.ExhaustiveMaxKeyLength)

	out.Alphabet = pickStr(out.Alphabet, over.Alphabet)
	out.Language = pickStr(out.Language, over.Language)
	out.FrequencyOrder = pickStr(out.FrequencyOrder, over.FrequencyOrder)
	out.Dictionary = pickStr(out.Dictionary, over.Dictionary)
	out.OutputSuffix = pickStr(out.OutputSuffix, over.OutputSuffix)
	if over.CompleteKeyLengths != nil {
		v := *over.CompleteKeyLengths
		out.CompleteKeyLengths = &v
	}

	out.Logging.Level = pickStr(out.Logging.Level, over.Logging.Level)
	out.Logging.Dir = pickStr(out.Logging.Dir, over.Logging.Dir)

	// 组件名变化时丢弃旧 Options：旧 Options 针对的是另一个实现
	if c := strings.TrimSpace(over.Components.Reader); c != "" && c != out.Components.Reader {
		out.Components.Reader = c
		out.Options.Reader = nil
	}
	if c := strings.TrimSpace(over.Components.Writer); c != "" && c != out.Components.Writer {
		out.Components.Writer = c
		out.Options.Writer = nil
	}
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

func pickInt(base, over int) int {
	if over == Unset {
		return base
	}
	return over
}

func pickStr(base, over string) string {
	if t := strings.TrimSpace(over); t != "" {
		return t
	}
	return base
}

// EnvOverlay 从环境变量构建一个 Config 覆盖层。
// 键为 VIGCRACK_<FIELD>（字段名大写）；空值视为未设置；无法解析的数值返回错误。
// 另支持 VIGCRACK_COMPONENTS_{READER,WRITER}、VIGCRACK_OPTIONS_{READER,WRITER}_JSON、
// VIGCRACK_LOG_LEVEL、VIGCRACK_LOG_DIR。VIGCRACK_CONFIG_FILE/JSON 由调用方处理。
func EnvOverlay(environ []string) (Config, error) {
	over := Overlay()
	ints := map[string]*int{
		"MAX_KEY_LENGTH":            &over.MaxKeyLength,
		"LETTERS_PER_POSITION":      &over.LettersPerPosition,
		"SEQUENCE_LENGTH":           &over.SequenceLength,
		"WORD_MATCH_PERCENT":        &over.WordMatchPercent,
		"LETTER_RATIO_PERCENT":      &over.LetterRatioPercent,
		"CONCURRENCY":               &over.Concurrency,
		"MAX_ATTEMPTS":              &over.MaxAttempts,
		"EXHAUSTIVE_MAX_KEY_LENGTH": &over.ExhaustiveMaxKeyLength,
	}
	strs := map[string]*string{
		"ALPHABET":          &over.Alphabet,
		"LANGUAGE":          &over.Language,
		"FREQUENCY_ORDER":   &over.FrequencyOrder,
		"DICTIONARY":        &over.Dictionary,
		"OUTPUT_SUFFIX":     &over.OutputSuffix,
		"LOG_LEVEL":         &over.Logging.Level,
		"LOG_DIR":           &over.Logging.Dir,
		"COMPONENTS_READER": &over.Components.Reader,
		"COMPONENTS_WRITER": &over.Components.Writer,
	}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := kv[len(EnvPrefix):eq]
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			continue
		}
		if p, ok := ints[key]; ok {
			v, err := strconv.Atoi(val)
			if err != nil {
				return over, fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
			}
			*p = v
			continue
		}
		if p, ok := strs[key]; ok {
			*p = val
			continue
		}
		switch key {
		case "INPUTS":
			over.Inputs = splitComma(val)
		case "COMPLETE_KEY_LENGTHS":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return over, fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
			}
			over.CompleteKeyLengths = &b
		case "OPTIONS_READER_JSON":
			over.Options.Reader = json.RawMessage(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = json.RawMessage(val)
		default:
			// CONFIG_FILE / CONFIG_JSON 以及未知键忽略
		}
	}
	return over, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
