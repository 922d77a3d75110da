package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/TIANLI0/ClothMask/utils"
	"go.uber.org/zap"
)

// ErrQueueFull 等待处理名额超时
var ErrQueueFull = errors.New("处理队列已满，请稍后重试")

// MaskService 负责掩码生成的并发控制、缓存和输出文件
type MaskService struct {
	pipeline        *mask.Pipeline
	processor       *MaskProcessor
	cache           MaskCache
	semaphore       chan struct{}
	queueTimeout    time.Duration
	outputDir       string
	defaultStrategy mask.Strategy
}

// NewMaskService cache 为 nil 时不使用缓存；segmenter 为 nil 时使用按 grabcut 配置缩放的图割
func NewMaskService(cfg *config.Config, cache MaskCache, segmenter mask.Segmenter) (*MaskService, error) {
	strategy, err := mask.ParseStrategy(cfg.Mask.DefaultStrategy)
	if err != nil {
		return nil, err
	}
	if segmenter == nil {
		segmenter = NewGrabCutService(&cfg.GrabCut)
	}

	opts := mask.Options{
		AutoThreshold: cfg.Mask.AutoThreshold,
		Threshold:     uint8(cfg.Mask.Threshold),
		KernelSize:    cfg.Mask.KernelSize,
		Iterations:    cfg.GrabCut.Iterations,
		MinAreaRatio:  cfg.Mask.MinAreaRatio,
		RectMargin:    cfg.Mask.RectMargin,
	}
	pipeline, err := mask.NewPipeline(opts,
		mask.WithSegmenter(segmenter),
		mask.WithLogger(utils.Logger.Named("mask")))
	if err != nil {
		return nil, fmt.Errorf("build mask pipeline: %w", err)
	}

	return &MaskService{
		pipeline:        pipeline,
		processor:       NewMaskProcessor(),
		cache:           cache,
		semaphore:       make(chan struct{}, max(1, cfg.GrabCut.MaxConcurrent)),
		queueTimeout:    time.Duration(cfg.GrabCut.QueueTimeout) * time.Second,
		outputDir:       cfg.Upload.OutputDir,
		defaultStrategy: strategy,
	}, nil
}

// ParseStrategy 空字符串使用配置的默认策略
func (s *MaskService) ParseStrategy(v string) (mask.Strategy, error) {
	if v == "" {
		return s.defaultStrategy, nil
	}
	return mask.ParseStrategy(v)
}

func cacheKey(md5 string, strategy mask.Strategy) string {
	return md5 + ":" + string(strategy)
}

// acquire 并发控制
func (s *MaskService) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.queueTimeout)
	defer cancel()

	select {
	case s.semaphore <- struct{}{}:
		return func() { <-s.semaphore }, nil
	case <-ctx.Done():
		return nil, ErrQueueFull
	}
}

// Lookup 只查缓存
func (s *MaskService) Lookup(ctx context.Context, md5 string, strategy mask.Strategy) (*model.MaskResult, error) {
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.GetMaskResult(ctx, cacheKey(md5, strategy))
}

// Process 生成掩码并返回结果，第二个返回值表示是否来自缓存
func (s *MaskService) Process(ctx context.Context, imagePath, md5 string, strategy mask.Strategy) (*model.MaskResult, bool, error) {
	key := cacheKey(md5, strategy)
	if s.cache != nil {
		cached, err := s.cache.GetMaskResult(ctx, key)
		if err != nil {
			utils.Logger.Warn("failed to get cache", zap.Error(err))
		}
		if cached != nil {
			utils.Logger.Info("cache hit", zap.String("cache_key", key))
			return cached, true, nil
		}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()

	startTime := time.Now()
	img, err := mask.Load(imagePath)
	if err != nil {
		return nil, false, err
	}

	utils.Logger.Info("processing image",
		zap.String("md5", md5),
		zap.String("strategy", string(strategy)),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))

	res, err := s.pipeline.Generate(img, strategy)
	if err != nil {
		return nil, false, err
	}
	result, err := s.processor.BuildResult(md5, res)
	if err != nil {
		return nil, false, err
	}
	result.Timestamp = time.Now().Unix()

	utils.Logger.Info("mask generated",
		zap.String("md5", md5),
		zap.String("status", result.Status),
		zap.Float64("foreground_ratio", result.ForegroundRatio),
		zap.Duration("duration", time.Since(startTime)))

	// 保存到缓存
	if s.cache != nil {
		if err := s.cache.SetMaskResult(ctx, key, result); err != nil {
			utils.Logger.Warn("failed to set cache", zap.Error(err))
		}
	}
	return result, false, nil
}

// WriteMask 生成掩码并写入输出目录下唯一的文件，返回文件路径
func (s *MaskService) WriteMask(ctx context.Context, imagePath string, strategy mask.Strategy) (string, *mask.Result, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	defer release()

	base := filepath.Base(imagePath)
	name := base[:len(base)-len(filepath.Ext(base))]
	dst := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s_mask.png", utils.GenerateID(), name))

	res, err := s.pipeline.GenerateFile(imagePath, dst, strategy)
	if err != nil {
		return "", nil, err
	}
	utils.Logger.Info("mask written",
		zap.String("path", dst),
		zap.String("status", string(res.Status)),
		zap.Float64("foreground_ratio", res.ForegroundRatio))
	return dst, res, nil
}
