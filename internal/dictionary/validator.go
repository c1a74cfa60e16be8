package dictionary

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"vigcrack/internal/vigenere"
)

// 默认阈值（百分比）。
const (
	DefaultWordMatchPercent   = 20
	DefaultLetterRatioPercent = 85
)

// Validator 判定候选明文是否可信。阈值为整数百分比，比较用整数运算，边界值视为通过。
type Validator struct {
	Dict               *Dictionary
	Alphabet           *vigenere.Alphabet
	WordMatchPercent   int
	LetterRatioPercent int
}

// NewValidator 使用默认阈值。
func NewValidator(d *Dictionary, a *vigenere.Alphabet) *Validator {
	return &Validator{
		Dict:               d,
		Alphabet:           a,
		WordMatchPercent:   DefaultWordMatchPercent,
		LetterRatioPercent: DefaultLetterRatioPercent,
	}
}

// IsPlausible 同时满足以下两项才返回 true：
//   - 词命中率：仅保留字母表字符与空白后按空白切词，命中词表的比例 ≥ WordMatchPercent；
//   - 字母比例：（字母表字符 + 空白）占全部字符的比例 ≥ LetterRatioPercent。
//
// 无任何词时返回 false。每次调用新建折叠器；热循环请用 Checker。
func (v *Validator) IsPlausible(text string) bool {
	return v.newChecker().check(text)
}

// Checker 返回一个独占折叠器与缓冲区的判定函数，供单个协程反复调用（非并发安全）。
func (v *Validator) Checker() func(text string) bool {
	return v.newChecker().check
}

type checker struct {
	v    *Validator
	fold cases.Caser
	kept []byte
}

func (v *Validator) newChecker() *checker {
	return &checker{v: v, fold: cases.Fold()}
}

func (c *checker) check(text string) bool {
	v := c.v
	total, letters := 0, 0
	c.kept = c.kept[:0]
	for _, r := range text {
		total++
		if v.Alphabet.Contains(r) || unicode.IsSpace(r) {
			letters++
			c.kept = utf8.AppendRune(c.kept, r)
		}
	}
	if letters*100 < v.LetterRatioPercent*total {
		return false
	}
	tokens := strings.Fields(string(c.kept))
	if len(tokens) == 0 {
		return false
	}
	matches := 0
	for _, tok := range tokens {
		if v.Dict.Contains(c.fold.String(tok)) {
			matches++
		}
	}
	return matches*100 >= v.WordMatchPercent*len(tokens)
}
