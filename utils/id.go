package utils

import "github.com/segmentio/ksuid"

// GenerateID 生成按时间排序的唯一 ID，用于文件名和请求 ID
func GenerateID() string {
	return ksuid.New().String()
}
