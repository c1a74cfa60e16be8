// Package kasiski 通过重复片段间距推断多表代换密钥长度（Kasiski 检验）。
package kasiski

import (
	"sort"

	"vigcrack/internal/vigenere"
)

// 最短重复片段长度；窗口取 [MinWindow, SequenceLength+2]。
const MinWindow = 3

// Analyzer 配置：MaxKeyLength 与 SequenceLength 均须为正（由配置校验保证）。
type Analyzer struct {
	Alphabet       *vigenere.Alphabet
	MaxKeyLength   int
	SequenceLength int
}

// Candidate 为一个候选密钥长度及其因子票数。
type Candidate struct {
	Length int
	Votes  int
}

// Spacings: 重复片段 → 间距列表，按首次插入顺序迭代。
type Spacings struct {
	order []string
	by    map[string][]int
}

func newSpacings() *Spacings { return &Spacings{by: make(map[string][]int)} }

func (s *Spacings) add(seq string, d int) {
	if _, ok := s.by[seq]; !ok {
		s.order = append(s.order, seq)
	}
	s.by[seq] = append(s.by[seq], d)
}

// Sequences 返回重复片段（首次插入顺序）。
func (s *Spacings) Sequences() []string { return s.order }

// Of 返回片段 seq 的全部间距（不去重）。
func (s *Spacings) Of(seq string) []int { return s.by[seq] }

// Total 返回间距总数。
func (s *Spacings) Total() int {
	n := 0
	for _, ds := range s.by {
		n += len(ds)
	}
	return n
}

// RepeatedSpacings 对剥离后的大写字母序列 M（长度 N）：
// 对窗口 w、起点 i∈[0,N-w)、后续起点 j∈[i+w,N-w)，M[i:i+w]==M[j:j+w] 时记录间距 j-i。
// 以“窗口 → 起点列表”索引代替两两比较，迭代顺序与逐一扫描一致。
func (a Analyzer) RepeatedSpacings(text string) *Spacings {
	m := a.Alphabet.Letters(text)
	n := len(m)
	sp := newSpacings()
	for w := MinWindow; w <= a.SequenceLength+2; w++ {
		limit := n - w
		if limit <= 0 {
			break
		}
		starts := make(map[string][]int)
		for i := 0; i < limit; i++ {
			k := string(m[i : i+w])
			starts[k] = append(starts[k], i)
		}
		for i := 0; i < limit; i++ {
			k := string(m[i : i+w])
			for _, j := range starts[k] {
				if j >= i+w {
					sp.add(k, j-i)
				}
			}
		}
	}
	return sp
}

// Factors 返回 d 在 [2,max] 内的因子，以及同样落在范围内且不为 1 的对应商 d/f；
// 去重，保持首次出现顺序。
func Factors(d, max int) []int {
	var out []int
	seen := make(map[int]bool)
	push := func(v int) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for f := 2; f <= max; f++ {
		if d%f != 0 {
			continue
		}
		push(f)
		if o := d / f; o <= max && o != 1 {
			push(o)
		}
	}
	return out
}

// CandidateKeyLengths 对全部间距的因子计票，按票数降序稳定排序（同票按首次计票顺序），
// 最多返回 MaxKeyLength 个。密文不含字母表字符时返回 nil。
func (a Analyzer) CandidateKeyLengths(text string) []Candidate {
	if len(a.Alphabet.Letters(text)) == 0 {
		return nil
	}
	sp := a.RepeatedSpacings(text)
	var tally []Candidate
	pos := make(map[int]int)
	for _, seq := range sp.Sequences() {
		for _, d := range sp.Of(seq) {
			for _, f := range Factors(d, a.MaxKeyLength) {
				i, ok := pos[f]
				if !ok {
					i = len(tally)
					pos[f] = i
					tally = append(tally, Candidate{Length: f})
				}
				tally[i].Votes++
			}
		}
	}
	sort.SliceStable(tally, func(i, j int) bool { return tally[i].Votes > tally[j].Votes })
	out := make([]Candidate, 0, len(tally))
	for _, c := range tally {
		if c.Length > a.MaxKeyLength {
			continue
		}
		out = append(out, c)
		if len(out) == a.MaxKeyLength {
			break
		}
	}
	return out
}

// Complete 在候选表后按升序补齐 1..max 中未出现的长度（票数 0）。
// 短密文常无任何重复片段，补齐后仍可逐一尝试。
func Complete(cands []Candidate, max int) []Candidate {
	have := make(map[int]bool, len(cands))
	out := make([]Candidate, 0, max)
	for _, c := range cands {
		have[c.Length] = true
		out = append(out, c)
	}
	for k := 1; k <= max; k++ {
		if !have[k] {
			out = append(out, Candidate{Length: k})
		}
	}
	return out
}

// Lengths 提取候选长度序列。
func Lengths(cands []Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Length
	}
	return out
}
