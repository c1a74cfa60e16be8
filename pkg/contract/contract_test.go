package contract

import (
	"errors"
	"path/filepath"
	"testing"
)

// TestNormalizeFileID 验证路径规范化逻辑。
func TestNormalizeFileID(t *testing.T) {
	wpath := filepath.Join("a", "b", "c")
	basicCases := map[string]string{
		wpath:      "a/b/c",
		"./x/../y": "y",
		"":         ".",
	}
	for in, want := range basicCases {
		got := NormalizeFileID(in)
		if string(got) != want {
			t.Fatalf("基础测试 %s -> %s, 预期 %s", in, got, want)
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// 反斜杠转换
		{"Windows路径", "C:\\Users\\test\\cipher.txt", "C:/Users/test/cipher.txt"},
		{"相对路径反斜杠", "msgs\\day1\\a.txt", "msgs/day1/a.txt"},

		// path.Clean 功能
		{"清理多余斜杠", "path//to///file.txt", "path/to/file.txt"},
		{"清理当前目录", "path/./to/./file.txt", "path/to/file.txt"},
		{"处理父目录", "path/to/../from/file.txt", "path/from/file.txt"},

		// 边界情况
		{"单个点", ".", "."},
		{"双点", "..", ".."},
		{"根路径", "/", "/"},

		// 跨平台混合分隔符
		{"混合分隔符", "C:\\Users/test\\Documents/file.txt", "C:/Users/test/Documents/file.txt"},
		{"中文路径", "密文\\第一天/信.txt", "密文/第一天/信.txt"},
		{"仅分隔符", "\\\\\\///", "/"},
		{"复杂父目录", "a\\b\\c\\..\\..\\..\\..\\d", "../d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeFileID(tt.input)
			if string(result) != tt.expected {
				t.Errorf("NormalizeFileID(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestArtifactFor 验证明文工件命名。
func TestArtifactFor(t *testing.T) {
	cases := []struct {
		id, suffix, want string
	}{
		{"msgs/a.txt", ".decrypted.txt", "msgs/a.decrypted.txt"},
		{"stdin", ".decrypted.txt", "stdin.decrypted.txt"},
		{"inline", ".out", "inline.out"},
		{"dir.v2/readme", ".plain", "dir.v2/readme.plain"},
		{".env", ".plain", ".env.plain"},
		{"a.tar.gz", "-x", "a.tar-x"},
	}
	for _, c := range cases {
		if got := ArtifactFor(FileID(c.id), c.suffix); string(got) != c.want {
			t.Errorf("ArtifactFor(%q, %q) = %q, want %q", c.id, c.suffix, got, c.want)
		}
	}
}

// TestSentinelsDistinct 哨兵错误互不等价。
func TestSentinelsDistinct(t *testing.T) {
	all := []error{ErrInvalidInput, ErrPathInvalid, ErrInvariantViolation, ErrDictionary, ErrNotFound}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v 不应等价于 %v", a, b)
			}
		}
	}
}

// BenchmarkNormalizeFileID 性能基准测试
func BenchmarkNormalizeFileID(b *testing.B) {
	testPaths := []string{
		"C:\\Users\\test\\Documents\\cipher.txt",
		"msgs/day1/../../../test/data/cipher.txt",
		"path//to///many////slashes/cipher.txt",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range testPaths {
			NormalizeFileID(p)
		}
	}
}
