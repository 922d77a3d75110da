package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/utils"
	"go.uber.org/zap"
)

// ErrTryOnDisabled 未配置试穿程序
var ErrTryOnDisabled = errors.New("try-on runner is not configured")

const waitDelay = 2 * time.Second

// TryOnRunner 调用外部试穿程序，每次运行使用独立的输出目录
type TryOnRunner struct {
	command   string
	args      []string
	timeout   time.Duration
	outputDir string
}

func NewTryOnRunner(cfg *config.TryOnConfig, outputDir string) *TryOnRunner {
	return &TryOnRunner{
		command:   cfg.Command,
		args:      cfg.Args,
		timeout:   cfg.Timeout,
		outputDir: outputDir,
	}
}

func (r *TryOnRunner) Enabled() bool {
	return r.command != ""
}

// TryOnOutput 一次试穿的产物
type TryOnOutput struct {
	Dir     string
	Results []string
}

// Run 执行试穿命令，参数中的 {cloth} {mask} {output} 会被替换
func (r *TryOnRunner) Run(ctx context.Context, clothPath, maskPath string) (*TryOnOutput, error) {
	if !r.Enabled() {
		return nil, ErrTryOnDisabled
	}

	dir := filepath.Join(r.outputDir, "tryon_"+utils.GenerateID())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create try-on output directory: %w", err)
	}

	replacer := strings.NewReplacer("{cloth}", clothPath, "{mask}", maskPath, "{output}", dir)
	args := make([]string, len(r.args))
	for i, a := range r.args {
		args[i] = replacer.Replace(a)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	startTime := time.Now()
	cmd := exec.CommandContext(ctx, r.command, args...)
	// 子进程可能继承输出管道，超时后不再等待
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	if err != nil {
		utils.Logger.Error("try-on command failed",
			zap.String("command", r.command),
			zap.Strings("args", args),
			zap.ByteString("output", tail(out, 2048)),
			zap.Error(err))
		return nil, fmt.Errorf("run try-on command: %w", err)
	}

	results, err := listResults(dir)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("try-on command produced no results")
	}

	utils.Logger.Info("try-on finished",
		zap.String("dir", dir),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(startTime)))
	return &TryOnOutput{Dir: dir, Results: results}, nil
}

func listResults(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read try-on results: %w", err)
	}
	var results []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			results = append(results, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(results)
	return results, nil
}

func tail(b []byte, n int) []byte {
	if len(b) > n {
		return b[len(b)-n:]
	}
	return b
}

// ZipResults 把多个结果打包到 dst，条目名取文件名
func ZipResults(dst string, paths []string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, p := range paths {
		if err := addToZip(zw, p); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return f.Close()
}

func addToZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open result: %w", err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("add %s to zip: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("add %s to zip: %w", filepath.Base(path), err)
	}
	return nil
}
