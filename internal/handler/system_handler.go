package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type systemSettingsRequest struct {
	UploadBucket *string `json:"uploadBucket"`
	ChatEnabled  *bool   `json:"chatEnabled"`
}

func (r systemSettingsRequest) toInput() service.SystemSettingsInput {
	return service.SystemSettingsInput{
		UploadBucket: r.UploadBucket,
		ChatEnabled:  r.ChatEnabled,
	}
}

func systemSettingsPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"uploadBucket": settings.UploadBucket,
		"chatEnabled":  settings.ChatEnabled,
	}
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.services.Settings.GetSettings(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": systemSettingsPayload(settings)})
}

// UpdateSystemSettings 保存系统设置，未提交的字段保持原值。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsRequest
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	settings, err := a.services.Settings.UpdateSettings(c.Request.Context(), payload.toInput())
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings saved",
		"settings": systemSettingsPayload(settings),
	})
}
