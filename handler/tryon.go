package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/TIANLI0/ClothMask/service"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaskWriter 由 service.MaskService 实现
type MaskWriter interface {
	WriteMask(ctx context.Context, imagePath string, strategy mask.Strategy) (string, *mask.Result, error)
}

// TryOnExecutor 由 service.TryOnRunner 实现
type TryOnExecutor interface {
	Enabled() bool
	Run(ctx context.Context, clothPath, maskPath string) (*service.TryOnOutput, error)
}

type TryOnHandler struct {
	cfg    *config.Config
	masks  MaskWriter
	runner TryOnExecutor
}

func NewTryOnHandler(cfg *config.Config, masks MaskWriter, runner TryOnExecutor) *TryOnHandler {
	return &TryOnHandler{cfg: cfg, masks: masks, runner: runner}
}

// TryOn 上传服装图，生成掩码后调用试穿程序。单个结果直接返回 JPEG，多个结果打包为 zip。
func (h *TryOnHandler) TryOn(c *gin.Context) {
	file, err := c.FormFile("cloth")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请上传服装图片",
			Error:   err.Error(),
		})
		return
	}

	filename, err := utils.SecureFilename(file.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "文件名无效",
			Error:   err.Error(),
		})
		return
	}
	if !utils.HasAllowedExt(filename, h.cfg.Upload.AllowedExts) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "不支持的文件扩展名",
		})
		return
	}
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("文件大小超过限制 (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}
	if !h.runner.Enabled() {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: "试穿服务未启用",
		})
		return
	}

	clothPath, cleanup, err := saveUpload(h.cfg, utils.GenerateID()+"_"+filename, func(dst string) error {
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

	ctx := c.Request.Context()
	maskPath, res, err := h.masks.WriteMask(ctx, clothPath, mask.StrategyAuto)
	if err != nil {
		respondProcessError(c, err)
		return
	}
	c.Header("X-Mask-Status", string(res.Status))

	out, err := h.runner.Run(ctx, clothPath, maskPath)
	if err != nil {
		utils.Logger.Error("processing failed", zap.String("cloth", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "试穿处理失败",
			Error:   err.Error(),
		})
		return
	}

	// 只有一个结果时直接返回
	if len(out.Results) == 1 {
		c.Header("Content-Type", "image/jpeg")
		c.File(out.Results[0])
		return
	}

	zipPath := filepath.Join(out.Dir, "results.zip")
	if err := service.ZipResults(zipPath, out.Results); err != nil {
		utils.Logger.Error("failed to package results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "打包结果失败",
			Error:   err.Error(),
		})
		return
	}
	c.Header("Content-Type", "application/zip")
	c.FileAttachment(zipPath, "results.zip")
}
