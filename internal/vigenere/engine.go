package vigenere

// Direction: 移位方向，Encrypt=+1，Decrypt=-1。
type Direction int

const (
	Encrypt Direction = 1
	Decrypt Direction = -1
)

// Shift 计算 (idx ± keyIdx) mod |A|。
func (a *Alphabet) Shift(idx, keyIdx int, dir Direction) int {
	return shift(idx, keyIdx, len(a.symbols), dir)
}

// shift 结果恒为非负。
func shift(idx, keyIdx, n int, dir Direction) int {
	v := (idx + int(dir)*keyIdx) % n
	if v < 0 {
		v += n
	}
	return v
}

// Transform 对 text 按 key 做 Vigenère 变换。
// 字母表内字符推进密钥游标（循环）并保持原大小写；其余字符原样透传且不推进游标。
func (a *Alphabet) Transform(text, key string, dir Direction) (string, error) {
	k, err := a.KeyIndices(key)
	if err != nil {
		return "", err
	}
	return a.transformIndices(text, k, dir), nil
}

// Encrypt 等价于 Transform(text, key, Encrypt)。
func (a *Alphabet) Encrypt(text, key string) (string, error) {
	return a.Transform(text, key, Encrypt)
}

// Decrypt 等价于 Transform(text, key, Decrypt)。
func (a *Alphabet) Decrypt(text, key string) (string, error) {
	return a.Transform(text, key, Decrypt)
}

func (a *Alphabet) transformIndices(text string, key []int, dir Direction) string {
	out := make([]rune, 0, len(text))
	n := len(a.symbols)
	cur := 0
	for _, r := range text {
		i, upper, ok := a.Index(r)
		if !ok {
			out = append(out, r)
			continue
		}
		out = append(out, a.render(shift(i, key[cur], n, dir), upper))
		cur++
		if cur == len(key) {
			cur = 0
		}
	}
	return string(out)
}
