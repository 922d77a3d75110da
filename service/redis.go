package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MaskCache 掩码结果缓存，未命中时返回 nil, nil
type MaskCache interface {
	GetMaskResult(ctx context.Context, key string) (*model.MaskResult, error)
	SetMaskResult(ctx context.Context, key string, result *model.MaskResult) error
}

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func maskKey(key string) string {
	return "mask:" + key
}

// GetMaskResult 从缓存获取掩码结果
func (s *RedisService) GetMaskResult(ctx context.Context, key string) (*model.MaskResult, error) {
	data, err := s.client.Get(ctx, maskKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var result model.MaskResult
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal mask result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// SetMaskResult 设置掩码结果到缓存
func (s *RedisService) SetMaskResult(ctx context.Context, key string, result *model.MaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, maskKey(key), data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
