package mask

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Strategy 掩码生成策略
type Strategy string

const (
	// StrategyAuto 先阈值化，质量不达标再升级到图割
	StrategyAuto Strategy = "auto"
	// StrategyThreshold 只走 alpha / 阈值化路径
	StrategyThreshold Strategy = "threshold"
	// StrategyGraphCut 直接图割，失败时回退到阈值化
	StrategyGraphCut Strategy = "grabcut"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAuto, StrategyThreshold, StrategyGraphCut:
		return Strategy(s), nil
	case "":
		return StrategyAuto, nil
	default:
		return "", fmt.Errorf("unknown mask strategy %q", s)
	}
}

// State 编排状态机中的状态
type State string

const (
	StateStart         State = "start"
	StateAlphaFastPath State = "alpha_fast_path"
	StateThresholdPath State = "threshold_path"
	StateCleaned       State = "cleaned"
	StateEvaluated     State = "evaluated"
	StateAccepted      State = "accepted"
	StateEscalated     State = "escalated"
	StateGraphCutPath  State = "graph_cut_path"
	StateCleanedFinal  State = "cleaned_final"
	StateDone          State = "done"
)

// Status 最终掩码的来源，降级时为 StatusDegraded
type Status string

const (
	StatusAlpha       Status = "alpha"
	StatusThresholded Status = "thresholded"
	StatusAccepted    Status = "accepted"
	StatusRefined     Status = "refined"
	StatusDegraded    Status = "degraded"
)

// Options 原先写死的常量，默认值保持不变
type Options struct {
	AutoThreshold bool
	Threshold     uint8
	KernelSize    int
	Iterations    int
	MinAreaRatio  float64
	RectMargin    int
}

func DefaultOptions() Options {
	return Options{
		AutoThreshold: true,
		Threshold:     250,
		KernelSize:    DefaultStructuringElement.Size,
		Iterations:    DefaultIterations,
		MinAreaRatio:  DefaultMinAreaRatio,
		RectMargin:    DefaultRectMargin,
	}
}

// Segmenter 图割阶段的实现，rect 已裁剪到图像范围内
type Segmenter interface {
	Segment(img *RasterImage, rect Rect, iterations int) (*BinaryMask, error)
}

type SegmenterFunc func(img *RasterImage, rect Rect, iterations int) (*BinaryMask, error)

func (f SegmenterFunc) Segment(img *RasterImage, rect Rect, iterations int) (*BinaryMask, error) {
	return f(img, rect, iterations)
}

// Result 一次生成的结果
type Result struct {
	Mask            *BinaryMask
	Strategy        Strategy
	Status          Status
	Trace           []State
	Threshold       int // 未做阈值化时为 -1
	ForegroundRatio float64
	// SegmentationErr 图割失败被吸收时的原因
	SegmentationErr error
}

func (r *Result) visit(s State) {
	r.Trace = append(r.Trace, s)
}

// Visited 结果是否经过某个状态
func (r *Result) Visited(s State) bool {
	for _, v := range r.Trace {
		if v == s {
			return true
		}
	}
	return false
}

func (r *Result) finish(m *BinaryMask, status Status) *Result {
	r.Mask = m
	r.Status = status
	r.ForegroundRatio = m.Ratio()
	r.visit(StateDone)
	return r
}

// Pipeline 串联 alpha / 阈值化 / 闭运算 / 质量门 / 图割
type Pipeline struct {
	opts      Options
	kernel    StructuringElement
	gate      QualityGate
	segmenter Segmenter
	logger    *zap.Logger
}

type PipelineOption func(*Pipeline)

func WithSegmenter(s Segmenter) PipelineOption {
	return func(p *Pipeline) {
		p.segmenter = s
	}
}

func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func NewPipeline(opts Options, options ...PipelineOption) (*Pipeline, error) {
	kernel, err := NewStructuringElement(opts.KernelSize)
	if err != nil {
		return nil, err
	}
	if opts.Iterations < 1 {
		return nil, fmt.Errorf("iteration count must be positive, got %d", opts.Iterations)
	}
	if opts.MinAreaRatio < 0 || opts.MinAreaRatio > 1 {
		return nil, fmt.Errorf("min area ratio must be within [0, 1], got %g", opts.MinAreaRatio)
	}
	if opts.RectMargin < 0 {
		return nil, fmt.Errorf("rect margin must not be negative, got %d", opts.RectMargin)
	}

	p := &Pipeline{
		opts:      opts,
		kernel:    kernel,
		gate:      QualityGate{MinAreaRatio: opts.MinAreaRatio},
		segmenter: SegmenterFunc(GrabCut),
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

func (p *Pipeline) Options() Options {
	return p.opts
}

// Generate 生成与输入同尺寸的二值掩码。图割失败不会返回错误，而是降级为阈值化结果。
func (p *Pipeline) Generate(img *RasterImage, strategy Strategy) (*Result, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	start := time.Now()

	var res *Result
	switch strategy {
	case StrategyAuto, "":
		res = p.auto(img)
	case StrategyThreshold:
		res = p.threshold(img, &Result{Strategy: StrategyThreshold, Threshold: -1})
	case StrategyGraphCut:
		res = p.graphCut(img)
	default:
		return nil, fmt.Errorf("unknown mask strategy %q", strategy)
	}

	fields := []zap.Field{
		zap.String("strategy", string(res.Strategy)),
		zap.String("status", string(res.Status)),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("channels", img.Channels),
		zap.Int("threshold", res.Threshold),
		zap.Float64("foreground_ratio", res.ForegroundRatio),
		zap.Duration("duration", time.Since(start)),
	}
	if res.Status == StatusDegraded {
		p.logger.Warn("graph cut failed, fell back to threshold mask",
			append(fields, zap.Error(res.SegmentationErr))...)
	} else {
		p.logger.Debug("mask generated", fields...)
	}
	return res, nil
}

func (p *Pipeline) auto(img *RasterImage) *Result {
	res := &Result{Strategy: StrategyAuto, Threshold: -1}
	res.visit(StateStart)

	if img.Channels == 4 {
		res.visit(StateAlphaFastPath)
		m, _ := ExtractAlpha(img)
		return res.finish(m, StatusAlpha)
	}

	res.visit(StateThresholdPath)
	raw, level := Threshold(img, ThresholdOptions{Auto: p.opts.AutoThreshold, Level: p.opts.Threshold})
	res.Threshold = int(level)

	res.visit(StateCleaned)
	cleaned := Close(raw, p.kernel)

	res.visit(StateEvaluated)
	verdict := p.gate.Evaluate(cleaned)
	if verdict.Accepted {
		res.visit(StateAccepted)
		return res.finish(cleaned, StatusAccepted)
	}

	res.visit(StateEscalated)
	p.logger.Debug("threshold mask rejected, escalating to graph cut",
		zap.Float64("foreground_ratio", verdict.Ratio),
		zap.Float64("min_area_ratio", p.opts.MinAreaRatio))

	res.visit(StateGraphCutPath)
	seg, err := p.segment(img)
	if err != nil {
		res.SegmentationErr = err
		return res.finish(cleaned, StatusDegraded)
	}
	res.visit(StateCleanedFinal)
	return res.finish(Close(seg, p.kernel), StatusRefined)
}

func (p *Pipeline) threshold(img *RasterImage, res *Result) *Result {
	res.visit(StateStart)
	if img.Channels == 4 {
		res.visit(StateAlphaFastPath)
		m, _ := ExtractAlpha(img)
		return res.finish(m, StatusAlpha)
	}
	res.visit(StateThresholdPath)
	raw, level := Threshold(img, ThresholdOptions{Auto: p.opts.AutoThreshold, Level: p.opts.Threshold})
	res.Threshold = int(level)
	res.visit(StateCleaned)
	return res.finish(Close(raw, p.kernel), StatusThresholded)
}

func (p *Pipeline) graphCut(img *RasterImage) *Result {
	res := &Result{Strategy: StrategyGraphCut, Threshold: -1}
	res.visit(StateStart)
	res.visit(StateGraphCutPath)
	seg, err := p.segment(img)
	if err == nil {
		res.visit(StateCleanedFinal)
		return res.finish(Close(seg, p.kernel), StatusRefined)
	}

	fallback := p.threshold(img, &Result{Strategy: StrategyGraphCut, Threshold: -1})
	res.Trace = append(res.Trace, fallback.Trace...)
	res.Threshold = fallback.Threshold
	res.Mask = fallback.Mask
	res.ForegroundRatio = fallback.ForegroundRatio
	res.Status = StatusDegraded
	res.SegmentationErr = err
	return res
}

// segment 调用图割，所有错误与 panic 都归为 ErrSegmentationFailure
func (p *Pipeline) segment(img *RasterImage) (m *BinaryMask, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, segmentationErrorf("segmenter panicked: %v", r)
		}
	}()

	rgb := img.RGB()
	rect := SeedRect(rgb.Width, rgb.Height, p.opts.RectMargin)
	m, err = p.segmenter.Segment(rgb, rect, p.opts.Iterations)
	if err != nil {
		if !errors.Is(err, ErrSegmentationFailure) {
			err = fmt.Errorf("%w: %v", ErrSegmentationFailure, err)
		}
		return nil, err
	}
	if m == nil || m.Width != img.Width || m.Height != img.Height {
		return nil, segmentationErrorf("segmenter returned a mask of the wrong size")
	}
	return m, nil
}

// GenerateFile 读取 src，生成掩码并写入 dst（单通道 PNG）
func (p *Pipeline) GenerateFile(src, dst string, strategy Strategy) (*Result, error) {
	img, err := Load(src)
	if err != nil {
		return nil, err
	}
	res, err := p.Generate(img, strategy)
	if err != nil {
		return nil, err
	}
	if err := Save(dst, res.Mask); err != nil {
		return nil, err
	}
	return res, nil
}
