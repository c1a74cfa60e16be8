//go:build windows

package filesystem

import (
	"os"

	"golang.org/x/sys/windows"
)

// osReplace: MoveFileEx(REPLACE_EXISTING|WRITE_THROUGH)，目标存在时同样替换。
func osReplace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	if err := windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		return &os.LinkError{Op: "replace", Old: tmpPath, New: dest, Err: err}
	}
	return nil
}

// syncDir: Windows 不支持目录 fsync。
func syncDir(string) error { return nil }
