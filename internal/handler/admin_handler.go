package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/service"
	"go.uber.org/zap"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"

	editorClosed   = "closed"
	editorEditing  = "editing"
	editorCreating = "creating"
)

type adminTab struct {
	Key   string
	Label string
}

var adminTabs = []adminTab{
	{Key: "config", Label: "Site Config"},
	{Key: "services", Label: "Services"},
	{Key: "pricing", Label: "Pricing"},
	{Key: "projects", Label: "Portfolio"},
	{Key: "testimonials", Label: "Testimonials"},
	{Key: "logos", Label: "Brand Logos"},
	{Key: "blog", Label: "Blog"},
	{Key: "contacts", Label: "Inquiries"},
	{Key: "media", Label: "Media"},
	{Key: "settings", Label: "Settings"},
}

func normalizeAdminTab(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, tab := range adminTabs {
		if tab.Key == key {
			return key
		}
	}
	return adminTabs[0].Key
}

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	if sessions.Default(c).Get(sessionUserIDKey) != nil {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Admin Access",
	})
}

// Login 校验账号密码并写入会话。
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.services.Auth.SignIn(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusUnauthorized
		message := "Wrong credentials"
		if !errors.Is(err, service.ErrInvalidCredentials) {
			c.Error(err)
			status = http.StatusInternalServerError
			message = "Sign-in failed, please try again"
		}
		c.HTML(status, "login.html", gin.H{
			"title":    "Admin Access",
			"error":    message,
			"username": strings.TrimSpace(username),
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		c.Error(err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"title": "Admin Access",
			"error": "Could not save the session",
		})
		return
	}

	a.logger.Info("admin signed in", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/admin")
}

// Logout 清除会话并回到登录页。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	username, _ := session.Get(sessionUsernameKey).(string)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	if username != "" {
		a.services.Auth.SignOut(username)
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 拦截未登录的后台请求：页面跳转到登录页，接口返回 401。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				respondError(c, http.StatusUnauthorized, "authentication required")
			} else {
				c.Redirect(http.StatusFound, "/admin/login")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// ShowDashboard 渲染后台面板，?tab= 选择标签页，?edit=<id> 或 ?new=1 打开编辑器。
func (a *API) ShowDashboard(c *gin.Context) {
	session := sessions.Default(c)
	tab := normalizeAdminTab(c.Query("tab"))

	data, err := a.loadAdminTab(c, tab)
	if err != nil {
		c.Error(err)
		data = gin.H{"loadError": err.Error(), "editor": editorClosed}
	}
	data["title"] = "Admin Control"
	data["username"] = session.Get(sessionUsernameKey)
	data["tabs"] = adminTabs
	data["tab"] = tab
	data["categories"] = db.ProjectCategories()

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (a *API) loadAdminTab(c *gin.Context, tab string) (gin.H, error) {
	ctx := c.Request.Context()
	s := a.services

	switch tab {
	case "config":
		cfg, err := s.SiteConfig.Get(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"config": cfg, "editor": editorEditing}, nil
	case "services":
		return adminRows(c, s.Offerings.List, func(r db.Service) uint { return r.ID }, db.Service{})
	case "pricing":
		return adminRows(c, s.Plans.List, func(r db.PricingPlan) uint { return r.ID },
			db.PricingPlan{ButtonText: service.DefaultPlanButtonText})
	case "projects":
		list := func(ctx context.Context) ([]db.Project, error) {
			return s.Projects.List(ctx, service.ProjectFilter{})
		}
		return adminRows(c, list, func(r db.Project) uint { return r.ID },
			db.Project{Category: db.ProjectCategoryGraphicDesign, Type: db.ProjectTypeImage})
	case "testimonials":
		return adminRows(c, s.Testimonials.List, func(r db.Testimonial) uint { return r.ID }, db.Testimonial{Rating: 5})
	case "logos":
		return adminRows(c, s.Logos.List, func(r db.BrandLogo) uint { return r.ID }, db.BrandLogo{})
	case "blog":
		return adminRows(c, s.Posts.List, func(r db.BlogPost) uint { return r.ID }, db.BlogPost{})
	case "contacts":
		rows, err := s.Contacts.List(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"rows": rows, "editor": editorClosed}, nil
	case "media":
		rows, err := s.Media.List(ctx, 0)
		if err != nil {
			return nil, err
		}
		return gin.H{"rows": rows, "editor": editorClosed}, nil
	case "settings":
		settings, err := s.Settings.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"settings": settings, "editor": editorEditing}, nil
	}
	return gin.H{}, nil
}

// adminRows 读取列表并根据查询参数决定编辑器状态；编辑的记录已被删除时编辑器关闭。
func adminRows[T any](c *gin.Context, list func(context.Context) ([]T, error), idOf func(T) uint, blank T) (gin.H, error) {
	rows, err := list(c.Request.Context())
	if err != nil {
		return nil, err
	}

	data := gin.H{"rows": rows, "editor": editorClosed}
	if c.Query("new") != "" {
		data["editor"] = editorCreating
		data["item"] = blank
		return data, nil
	}
	if raw := strings.TrimSpace(c.Query("edit")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return data, nil
		}
		for _, row := range rows {
			if idOf(row) == uint(id) {
				data["editor"] = editorEditing
				data["item"] = row
				break
			}
		}
	}
	return data, nil
}

// requireConfirmation 拒绝未确认的删除请求，存储内容保持不变。
func requireConfirmation(c *gin.Context) bool {
	if confirmed(c) {
		return true
	}
	respondError(c, http.StatusBadRequest, "deletion must be confirmed")
	return false
}

func resourceList[T any](c *gin.Context, key string, list func(context.Context) ([]T, error)) {
	rows, err := list(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: rows})
}

// resourceSave 绑定请求体后保存：路径带 id 时更新，否则新增。
func resourceSave[T any, P any](c *gin.Context, key string, save func(context.Context, uint, P) (T, error)) {
	var id uint
	if c.Param("id") != "" {
		parsed, err := parseUintParam(c, "id")
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		id = parsed
	}

	var payload P
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	row, err := save(c.Request.Context(), id, payload)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{key: row})
}

func resourceDelete(c *gin.Context, remove func(context.Context, uint) error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !requireConfirmation(c) {
		return
	}
	if err := remove(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
