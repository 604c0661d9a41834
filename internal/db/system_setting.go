package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyUploadBucket 记录后台最近一次使用的上传存储桶。
	SettingKeyUploadBucket = "upload_bucket"
	// SettingKeyChatEnabled 控制前台是否展示聊天挂件。
	SettingKeyChatEnabled = "chat_enabled"
)
