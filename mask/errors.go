package mask

import (
	"errors"
	"fmt"
)

// ErrSegmentationFailure 图割无法得到有效划分（样本不足、协方差退化等），由调用方降级处理
var ErrSegmentationFailure = errors.New("segmentation failure")

// DecodeError 源图片无法读取或已损坏
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot read image %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func segmentationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSegmentationFailure, fmt.Sprintf(format, args...))
}
