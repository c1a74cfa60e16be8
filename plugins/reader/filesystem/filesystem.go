package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vigcrack/pkg/contract"
)

// StdinID 为 STDIN 输入的 FileID。
const StdinID contract.FileID = "stdin"

// Options 为文件系统 Reader 的可选配置。
type Options struct {
	// BufSize: 读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames: 递归目录时跳过的目录名（基名、大小写不敏感）。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// Exts: 目录递归时只收录这些扩展名（大小写不敏感）；空表示全部。单文件 root 不受限。
	Exts []string `json:"exts"`
	// SkipSuffixes: 目录递归时跳过以这些后缀结尾的文件名，避免重复破解上次的输出。
	// nil 时取 [".decrypted.txt"]；显式 [] 关闭。
	SkipSuffixes []string `json:"skip_suffixes"`
	// MaxBytes: 单个输入的大小上限；>0 时超限文件返回 ErrInvalidInput。
	MaxBytes int64 `json:"max_bytes"`
}

// FileSystem 从文件、目录（字典序递归）或 STDIN 读取密文。
type FileSystem struct {
	bufSize    int
	excludeDir map[string]struct{}
	exts       map[string]struct{}
	skip       []string
	maxBytes   int64
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	if opts == nil {
		opts = &Options{}
	}
	r := &FileSystem{
		bufSize:    64 * 1024,
		excludeDir: lowerSet(opts.ExcludeDirNames),
		exts:       lowerSet(opts.Exts),
		skip:       []string{".decrypted.txt"},
		maxBytes:   opts.MaxBytes,
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	if opts.SkipSuffixes != nil {
		r.skip = nil
		for _, s := range opts.SkipSuffixes {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				r.skip = append(r.skip, s)
			}
		}
	}
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

// Iterate 按 roots 顺序产出输入；roots 为空或仅含 "-" 时读取 STDIN。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(StdinID, r.wrap(io.NopCloser(os.Stdin)))
	}
	for _, s := range roots {
		if s == "-" {
			return errors.New("stdin '-' cannot be mixed with other roots")
		}
	}
	for _, root := range roots {
		if err := r.iterateRoot(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateRoot(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	// Stat 跟随符号链接：指向目录的链接按目录处理，指向文件的按文件处理
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return r.walkDir(ctx, root, yield)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return r.emit(root, info, yield)
}

func (r *FileSystem) walkDir(ctx context.Context, dir string, yield func(contract.FileID, io.ReadCloser) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// 先子目录（不跟随目录符号链接），再文件
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, skip := r.excludeDir[strings.ToLower(e.Name())]; skip {
			continue
		}
		if err := r.walkDir(ctx, filepath.Join(dir, e.Name()), yield); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if e.IsDir() || !r.accept(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			// 设备、FIFO、指向目录的链接等
			continue
		}
		if err := r.emit(p, info, yield); err != nil {
			return err
		}
	}
	return nil
}

// accept 按扩展名白名单与跳过后缀过滤目录中的文件名。
func (r *FileSystem) accept(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range r.skip {
		if strings.HasSuffix(lower, s) {
			return false
		}
	}
	if len(r.exts) == 0 {
		return true
	}
	_, ok := r.exts[filepath.Ext(lower)]
	return ok
}

func (r *FileSystem) emit(p string, info fs.FileInfo, yield func(contract.FileID, io.ReadCloser) error) error {
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", contract.ErrInvalidInput, p, info.Size(), r.maxBytes)
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	rc := r.wrap(f)
	if err := yield(contract.NormalizeFileID(p), rc); err != nil {
		_ = rc.Close()
		return err
	}
	return nil
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func (r *FileSystem) wrap(c io.ReadCloser) io.ReadCloser {
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, r.bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

func lowerSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}
