package vigenere

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"vigcrack/pkg/contract"
)

// Latin 为默认字母表（26 个拉丁字母）。
const Latin = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Alphabet: 有序、无重复的符号集合，决定所有移位运算的模数。
// 构造后只读，可在多个 goroutine 间共享。
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// NewAlphabet 以 NFC 规范化 + 大写后的符号序列构造字母表。
// 约束：至少 2 个符号，且不得重复（大小写视为同一符号）。
func NewAlphabet(symbols string) (*Alphabet, error) {
	s := strings.ToUpper(norm.NFC.String(symbols))
	rs := []rune(s)
	if len(rs) < 2 {
		return nil, fmt.Errorf("%w: alphabet needs at least 2 symbols, got %d", contract.ErrInvalidInput, len(rs))
	}
	idx := make(map[rune]int, len(rs))
	for i, r := range rs {
		if unicode.IsSpace(r) {
			return nil, fmt.Errorf("%w: alphabet cannot contain whitespace", contract.ErrInvalidInput)
		}
		if _, dup := idx[r]; dup {
			return nil, fmt.Errorf("%w: duplicate alphabet symbol %q", contract.ErrInvalidInput, r)
		}
		idx[r] = i
	}
	return &Alphabet{symbols: rs, index: idx}, nil
}

// MustAlphabet 仅用于常量字母表（测试/默认值）；非法输入直接 panic。
func MustAlphabet(symbols string) *Alphabet {
	a, err := NewAlphabet(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

// Size 返回符号数（移位模数）。
func (a *Alphabet) Size() int { return len(a.symbols) }

// Symbol 返回第 i 个符号（大写形式）。
func (a *Alphabet) Symbol(i int) rune { return a.symbols[i] }

// String 返回符号序列。
func (a *Alphabet) String() string { return string(a.symbols) }

// Index 对字符分类：InAlphabet 时返回符号下标与是否为大写；否则 ok=false（Passthrough）。
func (a *Alphabet) Index(r rune) (idx int, upper bool, ok bool) {
	if i, hit := a.index[r]; hit {
		// 本身即大写形式（或无大小写之分的符号）
		return i, true, true
	}
	u := unicode.ToUpper(r)
	if u == r {
		return 0, false, false
	}
	i, hit := a.index[u]
	// 仅接受符号的小写形式本身（ı、ſ 等大写后撞上符号的字符仍透传）
	if !hit || unicode.ToLower(a.symbols[i]) != r {
		return 0, false, false
	}
	return i, false, true
}

// Contains 判断字符（不区分大小写）是否属于字母表。
func (a *Alphabet) Contains(r rune) bool {
	_, _, ok := a.Index(r)
	return ok
}

// Letters 剥离非字母表字符并统一为大写，即 Kasiski/子密钥流所用的字母序列。
func (a *Alphabet) Letters(text string) []rune {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if i, _, ok := a.Index(r); ok {
			out = append(out, a.symbols[i])
		}
	}
	return out
}

// render 按原大小写输出符号。
func (a *Alphabet) render(i int, upper bool) rune {
	r := a.symbols[i]
	if upper {
		return r
	}
	return unicode.ToLower(r)
}

// KeyIndices 将密钥解析为符号下标；空密钥或含字母表外字符均为非法输入。
func (a *Alphabet) KeyIndices(key string) ([]int, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", contract.ErrInvalidInput)
	}
	out := make([]int, 0, len(key))
	for _, r := range norm.NFC.String(key) {
		i, _, ok := a.Index(r)
		if !ok {
			return nil, fmt.Errorf("%w: key symbol %q not in alphabet", contract.ErrInvalidInput, r)
		}
		out = append(out, i)
	}
	return out, nil
}

// KeyString 将下标序列还原为密钥字符串（大写）。
func (a *Alphabet) KeyString(key []int) string {
	rs := make([]rune, len(key))
	for i, k := range key {
		rs[i] = a.symbols[k]
	}
	return string(rs)
}
