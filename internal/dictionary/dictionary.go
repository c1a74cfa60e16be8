// Package dictionary 加载目标语言词表，并据此判断候选明文是否“像自然语言”。
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"vigcrack/pkg/contract"
)

// Dictionary: 只读词集合，构造一次后按引用传递。
// 内部集合为非线程安全实现；构造完成后仅有读操作，可并发查询。
type Dictionary struct {
	words mapset.Set
}

// Load 从换行分隔的词表读取；单行内以空白分隔的多个词分别收录。
// 词表为空或读取失败均返回 ErrDictionary。
func Load(r io.Reader) (*Dictionary, error) {
	set := mapset.NewThreadUnsafeSet()
	fold := cases.Fold()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		for _, w := range strings.Fields(sc.Text()) {
			set.Add(fold.String(norm.NFC.String(w)))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read word list: %v", contract.ErrDictionary, err)
	}
	if set.Cardinality() == 0 {
		return nil, fmt.Errorf("%w: empty word list", contract.ErrDictionary)
	}
	return &Dictionary{words: set}, nil
}

// LoadFile 打开并加载词表文件。
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrDictionary, err)
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Len 返回词数。
func (d *Dictionary) Len() int { return d.words.Cardinality() }

// Contains 判断已折叠的词是否在词表中。
func (d *Dictionary) Contains(folded string) bool { return d.words.Contains(folded) }
