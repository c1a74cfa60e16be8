// Package freq 实现频率评分：参考语言字母频序与观测频序的首尾重合度。
package freq

import (
	"fmt"
	"sort"
	"strings"

	"vigcrack/internal/vigenere"
	"vigcrack/pkg/contract"
)

// Window 为首/尾比较窗口大小；Score 的取值上限为 2*Window。
const Window = 6

// 内置语言频序（从最常见到最罕见）。
var builtin = map[string]string{
	"english": "ETAOINSHRDLCUMWFGYPBVKJXQZ",
}

// Languages 返回内置语言名（有序）。
func Languages() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin 返回内置语言频序。
func Builtin(language string) (string, bool) {
	o, ok := builtin[strings.ToLower(language)]
	return o, ok
}

// Profile: 参考频序，构造后只读。
type Profile struct {
	alpha *vigenere.Alphabet
	order []int // 参考频序，元素为字母表下标
	rank  []int // rank[字母表下标] = 参考频序中的位置
}

// NewProfile 要求 order 恰为字母表的一个排列。
func NewProfile(alpha *vigenere.Alphabet, order string) (*Profile, error) {
	n := alpha.Size()
	p := &Profile{alpha: alpha, order: make([]int, 0, n), rank: make([]int, n)}
	for i := range p.rank {
		p.rank[i] = -1
	}
	for _, r := range order {
		idx, _, ok := alpha.Index(r)
		if !ok {
			return nil, fmt.Errorf("%w: frequency order symbol %q not in alphabet", contract.ErrInvalidInput, r)
		}
		if p.rank[idx] >= 0 {
			return nil, fmt.Errorf("%w: frequency order repeats %q", contract.ErrInvalidInput, r)
		}
		p.rank[idx] = len(p.order)
		p.order = append(p.order, idx)
	}
	if len(p.order) != n {
		return nil, fmt.Errorf("%w: frequency order has %d symbols, alphabet has %d", contract.ErrInvalidInput, len(p.order), n)
	}
	if n < Window {
		return nil, fmt.Errorf("%w: alphabet smaller than scoring window %d", contract.ErrInvalidInput, Window)
	}
	return p, nil
}

// Alphabet 返回 Profile 所基于的字母表。
func (p *Profile) Alphabet() *vigenere.Alphabet { return p.alpha }

// Rank 返回字母表下标 idx 在参考频序中的位置（0 = 最常见）。
func (p *Profile) Rank(idx int) int { return p.rank[idx] }

// Reference 返回参考频序字符串。
func (p *Profile) Reference() string { return p.alpha.KeyString(p.order) }

// ObservedOrder 统计 text 中字母表符号（不区分大小写）的出现次数并给出观测频序。
// 次数相同的符号按参考频序倒序排列（参考中越罕见越靠前）。
func (p *Profile) ObservedOrder(text string) string {
	counts := make([]int, p.alpha.Size())
	for _, r := range text {
		if idx, _, ok := p.alpha.Index(r); ok {
			counts[idx]++
		}
	}
	return p.alpha.KeyString(p.orderCounts(counts))
}

// Score 返回 [0, 2*Window] 内的整数。
func (p *Profile) Score(text string) int {
	counts := make([]int, p.alpha.Size())
	for _, r := range text {
		if idx, _, ok := p.alpha.Index(r); ok {
			counts[idx]++
		}
	}
	return p.ScoreCounts(counts)
}

// ScoreCounts 以预先统计好的计数评分（counts 下标即字母表下标）。
func (p *Profile) ScoreCounts(counts []int) int {
	obs := p.orderCounts(counts)
	n := len(obs)
	return overlap(p.order[:Window], obs[:Window], n) + overlap(p.order[n-Window:], obs[n-Window:], n)
}

func (p *Profile) orderCounts(counts []int) []int {
	idx := make([]int, len(counts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := counts[idx[a]], counts[idx[b]]
		if ca != cb {
			return ca > cb
		}
		return p.rank[idx[a]] > p.rank[idx[b]]
	})
	return idx
}

// overlap 统计两个窗口共有的符号数（与顺序无关）。
func overlap(ref, obs []int, n int) int {
	seen := make([]bool, n)
	for _, i := range ref {
		seen[i] = true
	}
	m := 0
	for _, i := range obs {
		if seen[i] {
			m++
		}
	}
	return m
}
