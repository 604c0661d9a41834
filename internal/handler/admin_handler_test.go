package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/imaging"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubHTMLRender struct {
	mu   sync.Mutex
	last *stubHTMLInstance
}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	instance := &stubHTMLInstance{name: name, data: data}
	r.mu.Lock()
	r.last = instance
	r.mu.Unlock()
	return instance
}

func (r *stubHTMLRender) lastRendered(t *testing.T) (string, gin.H) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		t.Fatal("expected a template to be rendered")
	}
	data, _ := r.last.data.(gin.H)
	return r.last.name, data
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	storage := store.NewLocalStorage(t.TempDir(), "/static/uploads")
	services := service.New(gdb, service.Dependencies{
		Storage:       storage,
		DefaultBucket: "media",
	})
	return NewAPI(gdb, services, Options{
		Storage:   storage,
		Processor: imaging.NewProcessor(t.TempDir()),
	})
}

func newTestRouter(api *API) (*gin.Engine, *stubHTMLRender) {
	html := &stubHTMLRender{}
	router := gin.New()
	router.HTMLRender = html
	router.Use(sessions.Sessions("visualizer_session", cookie.NewStore([]byte("test-secret"))))
	return router, html
}

func doJSON(router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == nil {
		reader = strings.NewReader("")
	} else {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	}
	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestAuthRequiredBlocksAnonymousRequests(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	admin := router.Group("/admin", AuthRequired())
	admin.GET("", api.ShowDashboard)
	admin.GET("/api/projects", api.ListProjects)

	page := httptest.NewRecorder()
	router.ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if page.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", page.Code)
	}
	if location := page.Header().Get("Location"); location != "/admin/login" {
		t.Fatalf("expected redirect to login, got %q", location)
	}

	apiResp := doJSON(router, http.MethodGet, "/admin/api/projects", nil)
	if apiResp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous api call, got %d", apiResp.Code)
	}
}

func TestLoginCreatesSessionForDashboard(t *testing.T) {
	api := newTestAPI(t)
	if _, err := db.EnsureUser(api.DB(), "admin", "secret-pass"); err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	var events []service.AuthEvent
	cancel := api.services.Auth.OnChange(func(event service.AuthEvent) {
		events = append(events, event)
	})
	defer cancel()

	router, html := newTestRouter(api)
	router.POST("/admin/login", api.Login)
	router.GET("/admin/logout", api.Logout)
	admin := router.Group("/admin", AuthRequired())
	admin.GET("", api.ShowDashboard)

	form := url.Values{"username": {"admin"}, "password": {"secret-pass"}}
	request := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	login := httptest.NewRecorder()
	router.ServeHTTP(login, request)

	if login.Code != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", login.Code)
	}
	cookies := login.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	dashboardReq := httptest.NewRequest(http.MethodGet, "/admin?tab=projects", nil)
	for _, c := range cookies {
		dashboardReq.AddCookie(c)
	}
	dashboard := httptest.NewRecorder()
	router.ServeHTTP(dashboard, dashboardReq)
	if dashboard.Code != http.StatusOK {
		t.Fatalf("expected dashboard 200, got %d", dashboard.Code)
	}
	name, data := html.lastRendered(t)
	if name != "dashboard.html" {
		t.Fatalf("expected dashboard template, got %s", name)
	}
	if data["tab"] != "projects" {
		t.Fatalf("expected projects tab, got %v", data["tab"])
	}

	logoutReq := httptest.NewRequest(http.MethodGet, "/admin/logout", nil)
	for _, c := range cookies {
		logoutReq.AddCookie(c)
	}
	router.ServeHTTP(httptest.NewRecorder(), logoutReq)

	if len(events) != 2 || !events[0].SignedIn || events[1].SignedIn {
		t.Fatalf("expected sign-in then sign-out events, got %+v", events)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	if _, err := db.EnsureUser(api.DB(), "admin", "secret-pass"); err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	router, html := newTestRouter(api)
	router.POST("/admin/login", api.Login)

	form := url.Values{"username": {"admin"}, "password": {"nope"}}
	request := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	name, data := html.lastRendered(t)
	if name != "login.html" || data["error"] != "Wrong credentials" {
		t.Fatalf("expected login error, got %s %v", name, data["error"])
	}
}

func TestShowDashboardOpensEditor(t *testing.T) {
	api := newTestAPI(t)
	project, err := api.services.Projects.Save(context.Background(), 0, service.ProjectInput{
		Title:    "Brand Film",
		Category: db.ProjectCategoryCGIAds,
		Type:     db.ProjectTypeVideo,
	})
	if err != nil {
		t.Fatalf("save project: %v", err)
	}

	router, html := newTestRouter(api)
	router.GET("/admin", api.ShowDashboard)

	tests := []struct {
		name       string
		query      string
		wantEditor string
		wantTitle  string
		wantCat    string
	}{
		{name: "closed", query: "?tab=projects", wantEditor: editorClosed},
		{name: "creating", query: "?tab=projects&new=1", wantEditor: editorCreating, wantCat: db.ProjectCategoryGraphicDesign},
		{name: "editing", query: fmt.Sprintf("?tab=projects&edit=%d", project.ID), wantEditor: editorEditing, wantTitle: "Brand Film", wantCat: db.ProjectCategoryCGIAds},
		{name: "missing record", query: "?tab=projects&edit=999", wantEditor: editorClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin"+tt.query, nil))
			if recorder.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", recorder.Code)
			}
			_, data := html.lastRendered(t)
			if data["editor"] != tt.wantEditor {
				t.Fatalf("expected editor %q, got %v", tt.wantEditor, data["editor"])
			}
			if tt.wantCat == "" {
				return
			}
			item, ok := data["item"].(db.Project)
			if !ok {
				t.Fatalf("expected project item, got %T", data["item"])
			}
			if item.Category != tt.wantCat || item.Title != tt.wantTitle {
				t.Fatalf("unexpected editor item %+v", item)
			}
		})
	}
}

func TestDeleteProjectRequiresConfirmation(t *testing.T) {
	api := newTestAPI(t)
	project, err := api.services.Projects.Save(context.Background(), 0, service.ProjectInput{
		Title:    "Poster",
		Category: db.ProjectCategoryGraphicDesign,
	})
	if err != nil {
		t.Fatalf("save project: %v", err)
	}

	router, _ := newTestRouter(api)
	router.DELETE("/admin/api/projects/:id", api.DeleteProject)
	target := fmt.Sprintf("/admin/api/projects/%d", project.ID)

	unconfirmed := doJSON(router, http.MethodDelete, target, nil)
	if unconfirmed.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", unconfirmed.Code)
	}
	if _, err := api.services.Projects.Get(context.Background(), project.ID); err != nil {
		t.Fatalf("expected project to remain after unconfirmed delete: %v", err)
	}

	confirmedResp := doJSON(router, http.MethodDelete, target+"?confirm=true", nil)
	if confirmedResp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", confirmedResp.Code)
	}

	again := doJSON(router, http.MethodDelete, target+"?confirm=true", nil)
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing project, got %d", again.Code)
	}
}

func TestSaveServiceSplitsCommaFeatures(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.POST("/admin/api/services", api.SaveService)
	router.PUT("/admin/api/services/:id", api.SaveService)

	created := doJSON(router, http.MethodPost, "/admin/api/services", gin.H{
		"title":    "Motion Graphics",
		"features": " Logo animation, Explainers ,, Social ads",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}

	var body struct {
		Service db.Service `json:"service"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []string{"Logo animation", "Explainers", "Social ads"}
	if strings.Join(body.Service.Features, "|") != strings.Join(want, "|") {
		t.Fatalf("expected features %v, got %v", want, body.Service.Features)
	}

	updated := doJSON(router, http.MethodPut, fmt.Sprintf("/admin/api/services/%d", body.Service.ID), gin.H{
		"title":    "Motion Graphics",
		"features": service.JoinFeatures(body.Service.Features),
	})
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", updated.Code)
	}
	rows, err := api.services.Offerings.List(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected a single service after update, got %d (%v)", len(rows), err)
	}
}

func TestSaveProjectReportsRawError(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.POST("/admin/api/projects", api.SaveProject)

	recorder := doJSON(router, http.MethodPost, "/admin/api/projects", gin.H{
		"title":    "Teaser",
		"category": "Photography",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected error message in response")
	}
}
