package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidBucketName 表示上传存储桶名称不合法。
var ErrInvalidBucketName = errors.New("bucket name is invalid")

// SystemSettings 描述后台可配置的系统偏好。
type SystemSettings struct {
	UploadBucket string
	ChatEnabled  bool
}

// SystemSettingsInput 用于更新系统偏好，nil 字段保持原值。
type SystemSettingsInput struct {
	UploadBucket *string
	ChatEnabled  *bool
}

// SystemSettingService 提供系统偏好的读取与更新能力，取代浏览器本地存储。
type SystemSettingService struct {
	db            *gorm.DB
	defaultBucket string
}

// NewSystemSettingService 构造 SystemSettingService，defaultBucket 为未设置时的上传桶。
func NewSystemSettingService(gdb *gorm.DB, defaultBucket string) *SystemSettingService {
	bucket := strings.TrimSpace(defaultBucket)
	if bucket == "" {
		bucket = "media"
	}
	return &SystemSettingService{db: gdb, defaultBucket: bucket}
}

var settingKeys = []string{
	db.SettingKeyUploadBucket,
	db.SettingKeyChatEnabled,
}

// GetSettings 读取系统偏好，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings(ctx context.Context) (SystemSettings, error) {
	result := SystemSettings{UploadBucket: s.defaultBucket, ChatEnabled: true}

	var records []db.SystemSetting
	if err := s.db.WithContext(ctx).Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyUploadBucket:
			if bucket := strings.TrimSpace(record.Value); store.ValidBucket(bucket) {
				result.UploadBucket = bucket
			}
		case db.SettingKeyChatEnabled:
			if enabled, err := strconv.ParseBool(record.Value); err == nil {
				result.ChatEnabled = enabled
			}
		}
	}

	return result, nil
}

// UpdateSettings 保存系统偏好。
func (s *SystemSettingService) UpdateSettings(ctx context.Context, input SystemSettingsInput) (SystemSettings, error) {
	if input.UploadBucket != nil {
		bucket := strings.TrimSpace(*input.UploadBucket)
		if !store.ValidBucket(bucket) {
			return SystemSettings{}, store.Invalid("update", "system_settings", ErrInvalidBucketName)
		}
		input.UploadBucket = &bucket
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.UploadBucket != nil {
			if err := upsertSetting(tx, db.SettingKeyUploadBucket, *input.UploadBucket); err != nil {
				return err
			}
		}
		if input.ChatEnabled != nil {
			if err := upsertSetting(tx, db.SettingKeyChatEnabled, strconv.FormatBool(*input.ChatEnabled)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return s.GetSettings(ctx)
}

// RememberBucket 记录最近一次使用的上传桶，空值忽略。
func (s *SystemSettingService) RememberBucket(ctx context.Context, bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return nil
	}
	_, err := s.UpdateSettings(ctx, SystemSettingsInput{UploadBucket: &bucket})
	return err
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
