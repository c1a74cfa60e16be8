package config

import (
	"encoding/json"
)

// Unset 标记“未设置”的整数字段；用于 0 具有语义的字段，使 Merge 能区分“未覆盖”与“显式 0”。
const Unset = -1

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON/YAML 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs []string `json:"inputs"`

	// Kasiski 与候选生成
	MaxKeyLength       int `json:"max_key_length"`
	LettersPerPosition int `json:"letters_per_position"`
	SequenceLength     int `json:"sequence_length"`

	// 字母表与参考频序；FrequencyOrder 非空时覆盖 Language 的内置频序。
	Alphabet       string `json:"alphabet"`
	Language       string `json:"language"`
	FrequencyOrder string `json:"frequency_order"`

	// 词表与判定阈值（整数百分比）
	Dictionary         string `json:"dictionary"`
	WordMatchPercent   int    `json:"word_match_percent"`
	LetterRatioPercent int    `json:"letter_ratio_percent"`

	// 搜索预算
	Concurrency            int `json:"concurrency"`
	MaxAttempts            int `json:"max_attempts"`
	ExhaustiveMaxKeyLength int `json:"exhaustive_max_key_length"`

	// CompleteKeyLengths: Kasiski 候选之后补齐其余长度。nil 表示未设置。
	CompleteKeyLengths *bool  `json:"complete_key_lengths,omitempty"`
	OutputSuffix       string `json:"output_suffix"`

	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级与目录。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader string `json:"reader"`
	Writer string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader json.RawMessage `json:"reader,omitempty"`
	Writer json.RawMessage `json:"writer,omitempty"`
}
