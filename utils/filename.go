package utils

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidFilename 清理后文件名为空
var ErrInvalidFilename = errors.New("invalid filename")

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename 只保留最后一段路径，空格换成下划线，去掉其余特殊字符
func SecureFilename(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidFilename
	}
	return name, nil
}

// HasAllowedExt 扩展名（不区分大小写）是否在白名单内
func HasAllowedExt(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}
