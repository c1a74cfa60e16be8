package config

import (
	"fmt"
	"strings"

	"vigcrack/internal/cracker"
	"vigcrack/internal/diag"
	"vigcrack/internal/dictionary"
	"vigcrack/internal/freq"
	"vigcrack/internal/kasiski"
	"vigcrack/internal/pipeline"
	"vigcrack/internal/vigenere"
	"vigcrack/pkg/contract"
	"vigcrack/pkg/registry"
)

func invalid(format string, a ...any) error {
	return fmt.Errorf("config: %s: %w", fmt.Sprintf(format, a...), contract.ErrInvalidInput)
}

// Validate 对边界做静态校验；不访问文件系统（词表在 Assemble 中加载）。
func Validate(cfg Config) error {
	rn := effName(cfg.Components.Reader, Defaults().Components.Reader)
	wn := effName(cfg.Components.Writer, Defaults().Components.Writer)
	if registry.Reader[rn] == nil {
		return invalid("reader %q not registered (available: %s)", rn, strings.Join(registry.Names(registry.Reader), ", "))
	}
	if registry.Writer[wn] == nil {
		return invalid("writer %q not registered (available: %s)", wn, strings.Join(registry.Names(registry.Writer), ", "))
	}
	if rn == "inline" && len(cfg.Inputs) == 0 {
		return invalid("inline reader requires at least one text")
	}
	if rn == "fs" {
		// 输入路径不得为空字符串；"-" 不能与其他根混用
		dash := false
		for _, r := range cfg.Inputs {
			switch strings.TrimSpace(r) {
			case "":
				return invalid("input path cannot be empty")
			case "-":
				dash = true
			}
		}
		if dash && len(cfg.Inputs) > 1 {
			return invalid("'-' cannot be mixed with other roots")
		}
	}

	positive := []struct {
		name string
		v    int
	}{
		{"max_key_length", cfg.MaxKeyLength},
		{"letters_per_position", cfg.LettersPerPosition},
		{"sequence_length", cfg.SequenceLength},
		{"concurrency", cfg.Concurrency},
	}
	for _, p := range positive {
		if p.v < 1 {
			return invalid("%s must be >= 1, got %d", p.name, p.v)
		}
	}
	if cfg.MaxAttempts < 0 {
		return invalid("max_attempts must be >= 0 (0 = unbounded), got %d", cfg.MaxAttempts)
	}
	if cfg.ExhaustiveMaxKeyLength < 0 {
		return invalid("exhaustive_max_key_length must be >= 0, got %d", cfg.ExhaustiveMaxKeyLength)
	}
	for _, p := range []struct {
		name string
		v    int
	}{{"word_match_percent", cfg.WordMatchPercent}, {"letter_ratio_percent", cfg.LetterRatioPercent}} {
		if p.v < 0 || p.v > 100 {
			return invalid("%s must be within [0,100], got %d", p.name, p.v)
		}
	}
	if strings.TrimSpace(cfg.Dictionary) == "" {
		return invalid("dictionary path not set")
	}
	if strings.ContainsAny(cfg.OutputSuffix, `/\`) {
		return invalid("output_suffix %q must not contain path separators", cfg.OutputSuffix)
	}
	if !diag.ValidLevel(cfg.Logging.Level) {
		return invalid("unknown logging level %q", cfg.Logging.Level)
	}
	if _, _, err := profileFor(cfg); err != nil {
		return err
	}
	return nil
}

// Assemble 校验后构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	alpha, profile, err := profileFor(cfg)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	dict, err := dictionary.LoadFile(cfg.Dictionary)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: %w", err)
	}
	v := dictionary.NewValidator(dict, alpha)
	v.WordMatchPercent = cfg.WordMatchPercent
	v.LetterRatioPercent = cfg.LetterRatioPercent

	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader options: %w", err)
	}
	w, err := registry.Writer[effName(cfg.Components.Writer, d.Components.Writer)](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer options: %w", err)
	}

	inputs := cloneStrings(cfg.Inputs)
	if rn == "fs" && len(inputs) == 0 {
		// 未给输入时 fs 读取 STDIN
		inputs = []string{"-"}
	}
	complete := true
	if cfg.CompleteKeyLengths != nil {
		complete = *cfg.CompleteKeyLengths
	}
	set := pipeline.Settings{
		Inputs: inputs,
		Analyzer: kasiski.Analyzer{
			Alphabet:       alpha,
			MaxKeyLength:   cfg.MaxKeyLength,
			SequenceLength: cfg.SequenceLength,
		},
		Cracker: cracker.New(profile, v, cracker.Settings{
			LettersPerPosition:     cfg.LettersPerPosition,
			MaxAttempts:            cfg.MaxAttempts,
			ExhaustiveMaxKeyLength: cfg.ExhaustiveMaxKeyLength,
			Workers:                cfg.Concurrency,
		}),
		CompleteKeyLengths: complete,
		OutputSuffix:       cfg.OutputSuffix,
	}
	return pipeline.Components{Reader: r, Writer: w}, set, nil
}

// profileFor 依据字母表、语言与可选频序构造参考 Profile。
func profileFor(cfg Config) (*vigenere.Alphabet, *freq.Profile, error) {
	alpha, err := vigenere.NewAlphabet(cfg.Alphabet)
	if err != nil {
		return nil, nil, fmt.Errorf("config: alphabet: %w", err)
	}
	order := strings.TrimSpace(cfg.FrequencyOrder)
	if order == "" {
		builtin, ok := freq.Builtin(cfg.Language)
		if !ok {
			return nil, nil, invalid("unknown language %q (available: %s)", cfg.Language, strings.Join(freq.Languages(), ", "))
		}
		order = builtin
	}
	p, err := freq.NewProfile(alpha, order)
	if err != nil {
		return nil, nil, fmt.Errorf("config: frequency order: %w", err)
	}
	return alpha, p, nil
}

func effName(got, def string) string {
	if strings.TrimSpace(got) == "" {
		return def
	}
	return strings.TrimSpace(got)
}
