package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/TIANLI0/ClothMask/service"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaskGenerator 由 service.MaskService 实现
type MaskGenerator interface {
	ParseStrategy(v string) (mask.Strategy, error)
	Process(ctx context.Context, imagePath, md5 string, strategy mask.Strategy) (*model.MaskResult, bool, error)
	Lookup(ctx context.Context, md5 string, strategy mask.Strategy) (*model.MaskResult, error)
}

type UploadHandler struct {
	cfg       *config.Config
	masks     MaskGenerator
	processor *service.MaskProcessor
}

func NewUploadHandler(cfg *config.Config, masks MaskGenerator) *UploadHandler {
	return &UploadHandler{
		cfg:       cfg,
		masks:     masks,
		processor: service.NewMaskProcessor(),
	}
}

// Upload 上传图片并生成掩码，默认返回 PNG，format=json 时返回 JSON
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传图片文件",
			Error:   err.Error(),
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	// 验证文件类型
	if !utils.HasAllowedExt(file.Filename, h.cfg.Upload.AllowedExts) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件类型，仅支持 JPEG/PNG",
		})
		return
	}

	strategy, err := h.masks.ParseStrategy(c.DefaultPostForm("strategy", c.Query("strategy")))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的掩码策略",
			Error:   err.Error(),
		})
		return
	}

	filename := utils.GenerateID() + filepath.Ext(file.Filename)
	savePath, cleanup, err := saveUpload(h.cfg, filename, func(dst string) error {
		return c.SaveUploadedFile(file, dst)
	})
	if err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存文件失败",
			Error:   err.Error(),
		})
		return
	}
	defer cleanup()

	// 计算MD5
	md5, err := utils.FileMD5(savePath)
	if err != nil {
		utils.Logger.Error("failed to calculate md5", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "计算文件哈希失败",
			Error:   err.Error(),
		})
		return
	}

	utils.Logger.Info("file uploaded",
		zap.String("path", savePath),
		zap.String("md5", md5),
		zap.Int64("size", file.Size),
		zap.String("strategy", string(strategy)))

	result, cached, err := h.masks.Process(c.Request.Context(), savePath, md5, strategy)
	if err != nil {
		respondProcessError(c, err)
		return
	}

	message := "处理成功"
	if cached {
		message = "处理成功（来自缓存）"
	}
	h.respond(c, result, message)
}

// GetByMD5 根据MD5获取已缓存的掩码
func (h *UploadHandler) GetByMD5(c *gin.Context) {
	md5 := c.Param("md5")
	if !utils.IsMD5(md5) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "MD5参数无效",
		})
		return
	}

	strategy, err := h.masks.ParseStrategy(c.Query("strategy"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的掩码策略",
			Error:   err.Error(),
		})
		return
	}

	result, err := h.masks.Lookup(c.Request.Context(), md5, strategy)
	if err != nil {
		utils.Logger.Error("failed to get mask result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "查询失败",
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "未找到该图片的掩码",
		})
		return
	}

	h.respond(c, result, "查询成功")
}

func (h *UploadHandler) respond(c *gin.Context, result *model.MaskResult, message string) {
	if c.Query("format") == "json" || c.PostForm("format") == "json" {
		c.JSON(http.StatusOK, model.UploadResponse{
			Success: true,
			Message: message,
			Data:    result,
		})
		return
	}

	data, err := h.processor.DecodeBase64(result.Mask)
	if err != nil {
		utils.Logger.Error("failed to decode mask", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "掩码编码失败",
			Error:   err.Error(),
		})
		return
	}
	c.Header("X-Mask-MD5", result.MD5)
	c.Header("X-Mask-Strategy", result.Strategy)
	c.Header("X-Mask-Status", result.Status)
	c.Header("X-Foreground-Ratio", strconv.FormatFloat(result.ForegroundRatio, 'f', 6, 64))
	c.Data(http.StatusOK, "image/png", data)
}

// saveUpload 保存上传文件，返回的 cleanup 按配置删除临时文件
func saveUpload(cfg *config.Config, filename string, save func(dst string) error) (string, func(), error) {
	savePath := filepath.Join(cfg.Upload.UploadDir, filename)
	if err := save(savePath); err != nil {
		return "", nil, err
	}

	cleanup := func() {}
	// 确保文件在处理完成后被删除（如果配置启用）
	if cfg.Upload.CleanupTempFiles {
		cleanup = func() { removeTemp(savePath) }
	}
	return savePath, cleanup, nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil {
		utils.Logger.Warn("failed to delete temp file",
			zap.String("file", path),
			zap.Error(err))
	} else {
		utils.Logger.Debug("temp file deleted",
			zap.String("file", path))
	}
}

func respondProcessError(c *gin.Context, err error) {
	var decodeErr *mask.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Success: false,
			Message: "无法解码图片",
			Error:   err.Error(),
		})
	case errors.Is(err, service.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: err.Error(),
		})
	default:
		utils.Logger.Error("failed to process image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "图片处理失败",
			Error:   err.Error(),
		})
	}
}
