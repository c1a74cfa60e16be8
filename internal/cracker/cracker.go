// Package cracker 按候选密钥长度重建 Vigenère 密钥：
// 逐位置频率排名 → 笛卡尔积枚举 → 全文解密 → 词典判定，首个通过者胜出。
package cracker

import (
	"context"
	"sort"

	"vigcrack/internal/freq"
	"vigcrack/internal/vigenere"
)

// Validator 判定候选明文是否可信（dictionary.Validator 满足该接口）。
type Validator interface {
	IsPlausible(text string) bool
}

// checkerSource 可选：为每个搜索协程提供独占状态的判定函数。
type checkerSource interface {
	Checker() func(text string) bool
}

// plausible 返回当前协程专用的判定函数。
func (c *Cracker) plausible() func(string) bool {
	if s, ok := c.valid.(checkerSource); ok {
		return s.Checker()
	}
	return c.valid.IsPlausible
}

// Settings: 搜索参数，由配置层校验后传入。
type Settings struct {
	LettersPerPosition     int // 每个密钥位置保留的候选字母数 L
	MaxAttempts            int // 每个密钥长度每一轮的尝试上限；0 = 不限
	ExhaustiveMaxKeyLength int // 不超过该长度时，前 L 组合失败后扩展到全字母表；0 = 关闭
	Workers                int // >1 启用并行块搜索
}

// ShiftCandidate: 某位置的候选解密移位及其频率得分。
type ShiftCandidate struct {
	Symbol rune
	Index  int
	Score  int
}

// Result: 破解结果。未找到时 Found=false 且 error 为 nil。
type Result struct {
	Found     bool
	Plaintext string
	Key       string
	KeyLength int
	Attempts  int
	Shifts    [][]ShiftCandidate // 命中密钥长度下每个位置的前 L 个候选
}

// Pass 标识同一密钥长度下的搜索轮次。
type Pass int

const (
	PassTop  Pass = iota // 前 L 个候选的笛卡尔积
	PassWide             // 扩展到全字母表（跳过已尝试组合）
)

func (p Pass) String() string {
	if p == PassWide {
		return "wide"
	}
	return "top"
}

// Progress 为进度快照；Attempts 为当前轮次已尝试数。
type Progress struct {
	KeyLength int
	Pass      Pass
	Attempts  int
	Done      bool
	Capped    bool
}

// Observer 接收进度；核心自身不做任何 I/O。
type Observer interface {
	KeyLength(k int, shifts [][]ShiftCandidate)
	Progress(p Progress)
}

type nopObserver struct{}

func (nopObserver) KeyLength(int, [][]ShiftCandidate) {}
func (nopObserver) Progress(Progress)                 {}

// 每隔多少次尝试回报一次进度 / 检查一次取消。
const (
	progressEvery = 1 << 12
	cancelEvery   = 1 << 8
)

// Cracker 构造后只读；多个 goroutine 可共享同一实例各自调用 Crack。
type Cracker struct {
	alpha   *vigenere.Alphabet
	profile *freq.Profile
	valid   Validator
	set     Settings
	obs     Observer
}

// New 以 profile 的字母表为准构造 Cracker。
func New(profile *freq.Profile, v Validator, set Settings) *Cracker {
	if set.LettersPerPosition < 1 {
		set.LettersPerPosition = 1
	}
	if set.Workers < 1 {
		set.Workers = 1
	}
	return &Cracker{alpha: profile.Alphabet(), profile: profile, valid: v, set: set, obs: nopObserver{}}
}

// WithObserver 返回挂接了观察者的副本。
func (c *Cracker) WithObserver(o Observer) *Cracker {
	cp := *c
	if o == nil {
		o = nopObserver{}
	}
	cp.obs = o
	return &cp
}

// Settings 返回生效的参数。
func (c *Cracker) Settings() Settings { return c.set }

// SubkeyStream 取下标 ≡ p-1 (mod k) 的字母（p 从 1 开始），长度为 ⌈(N-p+1)/k⌉。
func SubkeyStream(letters []rune, k, p int) []rune {
	if k < 1 || p < 1 || p > k {
		return nil
	}
	out := make([]rune, 0, (len(letters)-p+k)/k)
	for i := p - 1; i < len(letters); i += k {
		out = append(out, letters[i])
	}
	return out
}

// RankShifts 以每个字母表符号作为解密移位对 stream 评分，
// 按得分降序、同分按参考频序倒序排列，保留前 n 个。
func (c *Cracker) RankShifts(stream []rune, n int) []ShiftCandidate {
	size := c.alpha.Size()
	if n > size {
		n = size
	}
	base := make([]int, size)
	for _, r := range stream {
		if idx, _, ok := c.alpha.Index(r); ok {
			base[idx]++
		}
	}
	out := make([]ShiftCandidate, size)
	counts := make([]int, size)
	for s := 0; s < size; s++ {
		// 移位 s 解密后，符号 x 变为 x-s
		for x, cnt := range base {
			counts[c.alpha.Shift(x, s, vigenere.Decrypt)] = cnt
		}
		out[s] = ShiftCandidate{Symbol: c.alpha.Symbol(s), Index: s, Score: c.profile.ScoreCounts(counts)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return c.profile.Rank(out[i].Index) > c.profile.Rank(out[j].Index)
	})
	return out[:n]
}

// Crack 按 candidates 的顺序逐个尝试密钥长度，首个被判定可信的解密即返回。
// 只有 ctx 取消会返回错误；穷尽仍未找到返回 Found=false。
func (c *Cracker) Crack(ctx context.Context, ciphertext string, candidates []int) (Result, error) {
	var res Result
	msg := c.alpha.Parse(ciphertext)
	letters := msg.Letters()
	if len(letters) == 0 {
		return res, nil
	}
	size := c.alpha.Size()
	l := min(c.set.LettersPerPosition, size)
	for _, k := range candidates {
		if k < 1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ranked := make([][]ShiftCandidate, k)
		top := make([][]ShiftCandidate, k)
		for p := 1; p <= k; p++ {
			ranked[p-1] = c.RankShifts(SubkeyStream(letters, k, p), size)
			top[p-1] = ranked[p-1][:l]
		}
		c.obs.KeyLength(k, top)

		passes := []Pass{PassTop}
		if k <= c.set.ExhaustiveMaxKeyLength && l < size {
			passes = append(passes, PassWide)
		}
		for _, pass := range passes {
			od := newOdometer(k, l, size, pass)
			h, tried, capped, err := c.search(ctx, msg, ranked, od, k, pass)
			res.Attempts += tried
			if err != nil {
				return res, err
			}
			c.obs.Progress(Progress{KeyLength: k, Pass: pass, Attempts: tried, Done: true, Capped: capped})
			if h != nil {
				res.Found = true
				res.Plaintext = h.plain
				res.Key = c.alpha.KeyString(h.key)
				res.KeyLength = k
				res.Shifts = top
				return res, nil
			}
		}
	}
	return res, nil
}

type hit struct {
	key   []int
	plain string
}

func (c *Cracker) search(ctx context.Context, msg *vigenere.Message, ranked [][]ShiftCandidate, od *odometer, k int, pass Pass) (*hit, int, bool, error) {
	if c.set.Workers > 1 {
		return c.searchParallel(ctx, msg, ranked, od, k, pass)
	}
	return c.searchSequential(ctx, msg, ranked, od, k, pass)
}

func (c *Cracker) searchSequential(ctx context.Context, msg *vigenere.Message, ranked [][]ShiftCandidate, od *odometer, k int, pass Pass) (*hit, int, bool, error) {
	budget := c.set.MaxAttempts
	plausible := c.plausible()
	buf := make([]rune, 0, msg.Len())
	key := make([]int, k)
	tried := 0
	for budget == 0 || tried < budget {
		if !od.next() {
			return nil, tried, false, nil
		}
		if tried%cancelEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, tried, false, err
			}
		}
		keyFor(ranked, od.digits, key)
		tried++
		plain := msg.DecryptIndices(key, buf)
		if plausible(plain) {
			return &hit{key: append([]int(nil), key...), plain: plain}, tried, false, nil
		}
		if tried%progressEvery == 0 {
			c.obs.Progress(Progress{KeyLength: k, Pass: pass, Attempts: tried})
		}
	}
	return nil, tried, od.next(), nil
}

// keyFor 将各位置的候选序号映射为字母表下标。
func keyFor(ranked [][]ShiftCandidate, digits, key []int) {
	for p, d := range digits {
		key[p] = ranked[p][d].Index
	}
}
