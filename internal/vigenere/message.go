package vigenere

// cell 为预解析的单个字符：idx<0 表示透传字符。
type cell struct {
	r     rune
	idx   int
	upper bool
}

// Message 为预解析的密文，供破解热路径反复解密而不重复分类字符。
// 构造后只读；DecryptIndices 使用调用方提供的缓冲区，因此可并发调用。
type Message struct {
	a       *Alphabet
	cells   []cell
	letters []rune
}

// Parse 预解析 text。
func (a *Alphabet) Parse(text string) *Message {
	m := &Message{a: a}
	for _, r := range text {
		i, upper, ok := a.Index(r)
		if !ok {
			m.cells = append(m.cells, cell{r: r, idx: -1})
			continue
		}
		m.cells = append(m.cells, cell{r: r, idx: i, upper: upper})
		m.letters = append(m.letters, a.symbols[i])
	}
	return m
}

// Letters 返回字母表内字符的大写序列（N = len）。
func (m *Message) Letters() []rune { return m.letters }

// Len 返回字符总数（rune 计）。
func (m *Message) Len() int { return len(m.cells) }

// DecryptIndices 以下标形式的密钥解密整条消息，结果保持大小写与透传字符。
// buf 可为 nil；若容量足够则复用以减少分配。
func (m *Message) DecryptIndices(key []int, buf []rune) string {
	buf = buf[:0]
	n := len(m.a.symbols)
	cur := 0
	for _, c := range m.cells {
		if c.idx < 0 {
			buf = append(buf, c.r)
			continue
		}
		buf = append(buf, m.a.render(shift(c.idx, key[cur], n, Decrypt), c.upper))
		cur++
		if cur == len(key) {
			cur = 0
		}
	}
	return string(buf)
}
