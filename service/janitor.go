package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor 定期清理上传与输出目录中的过期文件
type Janitor struct {
	dirs      []string
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	now       func() time.Time
}

func NewJanitor(cfg *config.JanitorConfig, dirs ...string) *Janitor {
	return &Janitor{
		dirs:      dirs,
		retention: cfg.Retention,
		schedule:  cfg.Schedule,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start 注册定时任务并启动调度
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Sweep() }); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	utils.Logger.Info("janitor started",
		zap.String("schedule", j.schedule),
		zap.Duration("retention", j.retention))
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep 删除修改时间早于保留期的顶层条目，返回删除数量
func (j *Janitor) Sweep() int {
	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				utils.Logger.Warn("failed to read directory", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.RemoveAll(path); err != nil {
				utils.Logger.Warn("failed to delete stale file", zap.String("file", path), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		utils.Logger.Info("stale files removed", zap.Int("count", removed))
	}
	return removed
}
