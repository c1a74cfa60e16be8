package freq

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"vigcrack/internal/vigenere"
	"vigcrack/pkg/contract"
)

const english = "ETAOINSHRDLCUMWFGYPBVKJXQZ"

func newEnglish(t testing.TB) *Profile {
	t.Helper()
	p, err := NewProfile(vigenere.MustAlphabet(vigenere.Latin), english)
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	return p
}

// profileText 构造与参考频序完全一致的文本：第 i 个符号重复 26-i 次。
func profileText() string {
	var b strings.Builder
	for i, r := range english {
		b.WriteString(strings.Repeat(string(r), 26-i))
	}
	return b.String()
}

func TestNewProfileErrors(t *testing.T) {
	a := vigenere.MustAlphabet(vigenere.Latin)
	cases := []struct {
		name  string
		order string
	}{
		{"缺符号", english[:25]},
		{"重复", english[:25] + "E"},
		{"非字母表", english[:25] + "1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewProfile(a, c.order); !errors.Is(err, contract.ErrInvalidInput) {
				t.Fatalf("期望 ErrInvalidInput 实得 %v", err)
			}
		})
	}
	if _, err := NewProfile(vigenere.MustAlphabet("ABC"), "CBA"); err == nil {
		t.Fatalf("字母表小于窗口应失败")
	}
}

func TestBuiltin(t *testing.T) {
	o, ok := Builtin("English")
	if !ok || o != english {
		t.Fatalf("内置 english 错误: %q %v", o, ok)
	}
	if _, ok := Builtin("klingon"); ok {
		t.Fatalf("未知语言不应存在")
	}
	if l := Languages(); len(l) == 0 || l[0] != "english" {
		t.Fatalf("Languages 错误: %v", l)
	}
}

func TestObservedOrder(t *testing.T) {
	p := newEnglish(t)
	cases := []struct {
		name, text, want string
	}{
		{"空文本为参考倒序", "", "ZQXJKVBPYGFWMUCLDRHSNIOATE"},
		{"计数优先", "aaabbc", "ABCZQXJKVPYGFWMULDRHSNIOTE"},
		{"pangram", "The quick brown fox jumps over the lazy dog", "OEURHTZQXJKVBPYGFWMCLDSNIA"},
		{"大小写不敏感", "AaAbBc", "ABCZQXJKVPYGFWMULDRHSNIOTE"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := p.ObservedOrder(c.text); got != c.want {
				t.Fatalf("ObservedOrder(%q) = %s 期望 %s", c.text, got, c.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	p := newEnglish(t)
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{profileText(), 12},
		{"The quick brown fox jumps over the lazy dog", 3},
	}
	for _, c := range cases {
		if got := p.Score(c.text); got != c.want {
			t.Fatalf("Score = %d 期望 %d (text %.20q)", got, c.want, c.text)
		}
	}
}

// 单调性：与参考频序一致的文本得分不低于其任意重标记版本。
func TestScoreMonotonicUnderRelabeling(t *testing.T) {
	p := newEnglish(t)
	base := profileText()
	top := p.Score(base)
	if top != 2*Window {
		t.Fatalf("基准得分期望 %d 实得 %d", 2*Window, top)
	}
	rng := rand.New(rand.NewSource(42))
	letters := []rune(vigenere.Latin)
	for i := 0; i < 50; i++ {
		perm := rng.Perm(len(letters))
		mapping := make(map[rune]rune, len(letters))
		for j, r := range letters {
			mapping[r] = letters[perm[j]]
		}
		relabeled := strings.Map(func(r rune) rune { return mapping[r] }, base)
		if s := p.Score(relabeled); s >= top {
			t.Fatalf("第 %d 次重标记得分 %d 不低于基准 %d", i, s, top)
		}
	}
}

// 正确的解密移位能还原参考形状。
func TestScoreAfterShift(t *testing.T) {
	p := newEnglish(t)
	a := p.Alphabet()
	enc, err := a.Encrypt(profileText(), "D")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if p.Score(enc) == 12 {
		t.Fatalf("移位后的文本不应满分")
	}
	dec, _ := a.Decrypt(enc, "D")
	if p.Score(dec) != 12 {
		t.Fatalf("正确移位后应满分")
	}
}

func BenchmarkScore(b *testing.B) {
	p := newEnglish(b)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog ", 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Score(text)
	}
}
