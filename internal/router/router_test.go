package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/handler"
	"github.com/visualizer/internal/imaging"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm/logger"
)

const testBaseURL = "http://example.test"

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) *http.Response {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp
}

type e2eSuite struct {
	handler  http.Handler
	server   *Server
	services *service.Services
	public   *localClient
	admin    *localClient
	post     db.BlogPost
	project  db.Project
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	_, err = db.EnsureUser(gdb, "admin", "e2e-secret")
	require.NoError(t, err)

	storage := store.NewLocalStorage(t.TempDir(), "/static/uploads")
	services := service.New(gdb, service.Dependencies{Storage: storage, DefaultBucket: "media"})
	ctx := context.Background()

	_, err = services.SiteConfig.Save(ctx, service.SiteConfigInput{
		HeroTitle:    "Frames That Sell",
		HeroRole:     "Motion Designer",
		HeroVideoURL: "https://www.youtube.com/watch?v=abc123XYZ9",
		Bio:          "I build visuals for brands.",
		WhatsApp:     "+1 555 0100",
		Email:        "hello@example.test",
		Skills:       []db.Skill{{Name: "After Effects", Level: 90}},
	})
	require.NoError(t, err)
	_, err = services.Offerings.Save(ctx, 0, service.OfferingInput{
		Title:    "Logo Animation",
		Price:    "$150",
		Features: []string{"4K export", "Two revisions"},
	})
	require.NoError(t, err)
	_, err = services.Plans.Save(ctx, 0, service.PricingPlanInput{
		Title:     "Starter",
		Price:     "$99",
		Features:  []string{"One video"},
		IsPopular: true,
	})
	require.NoError(t, err)
	project, err := services.Projects.Save(ctx, 0, service.ProjectInput{
		Title:      "Sneaker Launch",
		Category:   db.ProjectCategoryCGIAds,
		Type:       db.ProjectTypeVideo,
		MediaURL:   "https://youtu.be/abc123XYZ9",
		IsFeatured: true,
	})
	require.NoError(t, err)
	_, err = services.Testimonials.Save(ctx, 0, service.TestimonialInput{
		Name:     "Dana",
		Feedback: "Delivered ahead of schedule.",
		Rating:   5,
	})
	require.NoError(t, err)
	post, err := services.Posts.Save(ctx, 0, service.BlogPostInput{
		Title:   "Color Grading Basics",
		Content: "## Grading\nStart with **contrast**.",
	})
	require.NoError(t, err)

	api := handler.NewAPI(gdb, services, handler.Options{
		Storage:   storage,
		Processor: imaging.NewProcessor(t.TempDir()),
	})
	server, err := SetupRouter(api, Options{
		SessionSecret: "test-session-secret",
		UploadURLPath: "/static/uploads",
		Limits:        Limits{Contact: 3},
	})
	require.NoError(t, err)

	h := server.Handler()
	return &e2eSuite{
		handler:  h,
		server:   server,
		services: services,
		public:   newLocalClient(h, false),
		admin:    newLocalClient(h, true),
		post:     post,
		project:  project,
	}
}

func (s *e2eSuite) request(t *testing.T, client *localClient, method, path string, body io.Reader, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, testBaseURL+path, body)
	require.NoError(t, err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp := client.Do(req)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (s *e2eSuite) requestJSON(t *testing.T, client *localClient, method, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = strings.NewReader(string(raw))
	}
	resp, raw := s.request(t, client, method, path, body, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	decoded := map[string]interface{}{}
	if strings.TrimSpace(raw) != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"e2e-secret"}}
	resp, _ := s.request(t, s.admin, http.MethodPost, "/admin/login", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("public pages", suite.testPublicPages)
	t.Run("contact and chat", suite.testPublicAPIs)
	suite.login(t)
	t.Run("admin pages", suite.testAdminPages)
	t.Run("admin apis", suite.testAdminAPIs)
}

func (s *e2eSuite) testPublicPages(t *testing.T) {
	checkHTML := func(name, path, expect string, code int) {
		t.Helper()
		resp, body := s.request(t, s.public, http.MethodGet, path, nil, nil)
		assert.Equal(t, code, resp.StatusCode, name)
		if expect != "" {
			assert.Contains(t, body, expect, name)
		}
	}

	checkHTML("home", "/", "Frames That Sell", http.StatusOK)
	checkHTML("home embed", "/", "https://www.youtube.com/embed/abc123XYZ9?rel=0&amp;autoplay=1", http.StatusOK)
	checkHTML("home whatsapp", "/", "https://wa.me/15550100", http.StatusOK)
	checkHTML("about", "/about", "After Effects", http.StatusOK)
	checkHTML("services", "/services", "Logo Animation", http.StatusOK)
	checkHTML("services plans", "/services", "Most Popular", http.StatusOK)
	checkHTML("portfolio", "/portfolio?category=CGI+Ads", "Sneaker Launch", http.StatusOK)
	checkHTML("blog", "/blog", "/blog/"+s.post.Slug, http.StatusOK)
	checkHTML("blog post", "/blog/"+s.post.Slug, "<strong>contrast</strong>", http.StatusOK)
	checkHTML("missing post", "/blog/missing-post", "does not exist", http.StatusNotFound)
	checkHTML("contact", "/contact", "data-contact-form", http.StatusOK)
	checkHTML("unknown page", "/nope", "does not exist", http.StatusNotFound)
	checkHTML("stylesheet", "/assets/css/app.css", ".site-header", http.StatusOK)
	checkHTML("healthz", "/healthz", "ok", http.StatusOK)

	resp, body := s.requestJSON(t, s.public, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body["error"])
}

func (s *e2eSuite) testPublicAPIs(t *testing.T) {
	resp, body := s.requestJSON(t, s.public, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Lee",
		"email":   "lee@example.test",
		"message": "Need a product teaser.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Thank you! Your message has been sent.", body["message"])

	resp, _ = s.requestJSON(t, s.public, http.MethodPost, "/api/contact", map[string]string{"name": "Lee"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 第三次之后超出每分钟 3 次的限额
	s.requestJSON(t, s.public, http.MethodPost, "/api/contact", map[string]string{"name": "Lee"})
	resp, body = s.requestJSON(t, s.public, http.MethodPost, "/api/contact", map[string]string{"name": "Lee"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	contacts, err := s.services.Contacts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	chat := newLocalClient(s.handler, true)
	resp, body = s.requestJSON(t, chat, http.MethodPost, "/api/chat", map[string]string{"message": "What do you charge?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["reply"])
	resp, body = s.requestJSON(t, chat, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turns, ok := body["turns"].([]interface{})
	require.True(t, ok)
	assert.Len(t, turns, 3)
}

func (s *e2eSuite) testAdminPages(t *testing.T) {
	for _, tab := range []string{"config", "services", "pricing", "projects", "testimonials", "logos", "blog", "contacts", "media", "settings"} {
		resp, body := s.request(t, s.admin, http.MethodGet, "/admin?tab="+tab, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tab)
		assert.Contains(t, body, `data-admin-tab="`+tab+`"`, tab)
	}

	resp, body := s.request(t, s.admin, http.MethodGet, fmt.Sprintf("/admin?tab=projects&edit=%d", s.project.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Sneaker Launch"`)
	assert.Equal(t, 4, strings.Count(body, "<option value=\"")-2)

	resp, body = s.request(t, s.admin, http.MethodGet, "/admin?tab=contacts", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Need a product teaser.")
}

func (s *e2eSuite) testAdminAPIs(t *testing.T) {
	resp, body := s.requestJSON(t, s.admin, http.MethodPost, "/admin/api/services", map[string]string{
		"title":    "Reel Edit",
		"features": "Color, Sound design , ",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created, ok := body["service"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Color", "Sound design"}, created["features"])

	path := fmt.Sprintf("/admin/api/projects/%d", s.project.ID)
	resp, _ = s.requestJSON(t, s.admin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = s.requestJSON(t, s.admin, http.MethodDelete, path+"?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.requestJSON(t, s.admin, http.MethodDelete, path+"?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.requestJSON(t, s.admin, http.MethodPut, "/admin/api/settings", map[string]interface{}{"chatEnabled": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.requestJSON(t, s.public, http.MethodGet, "/api/chat", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.requestJSON(t, s.public, http.MethodGet, "/admin/api/contacts", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.request(t, s.admin, http.MethodGet, "/admin/logout", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = s.requestJSON(t, s.admin, http.MethodGet, "/admin/api/contacts", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerRejectsCrossSiteWrites(t *testing.T) {
	suite := newE2ESuite(t)

	resp, _ := suite.request(t, suite.public, http.MethodPost, "/api/contact", strings.NewReader(`{"name":"x"}`), map[string]string{
		"Content-Type":   "application/json",
		"Sec-Fetch-Site": "cross-site",
		"Origin":         "https://evil.example",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = suite.request(t, suite.public, http.MethodGet, "/", nil, map[string]string{
		"Sec-Fetch-Site": "cross-site",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs("/static/uploads")

	optimized := funcs["optimizedImage"].(func(string, int, int) string)
	assert.Equal(t, "https://cdn.example.test/a.png", optimized("https://cdn.example.test/a.png", 640, 75))
	assert.Equal(t, store.OptimizedURL("/static/uploads/media/a.png", 640, 75), optimized("/static/uploads/media/a.png", 640, 75))

	stars := funcs["stars"].(func(int) []int)
	assert.Len(t, stars(4), 4)
	assert.Len(t, stars(9), 5)
	assert.Empty(t, stars(-1))

	dict := funcs["dict"].(func(...interface{}) (map[string]interface{}, error))
	got, err := dict("plan", 1, "url", "x")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"plan": 1, "url": "x"}, got)
	_, err = dict("odd")
	assert.Error(t, err)
}

func TestLoadTemplatesDefinesPages(t *testing.T) {
	tmpl, err := LoadTemplates("/static/uploads")
	require.NoError(t, err)
	for _, name := range []string{"home.html", "about.html", "services.html", "portfolio.html", "blog.html", "blog_post.html", "contact.html", "not_found.html", "error.html", "login.html", "dashboard.html", "project_card", "chat_widget"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestSweepLimiters(t *testing.T) {
	suite := newE2ESuite(t)
	assert.Equal(t, 0, suite.server.SweepLimiters())
	assert.Len(t, suite.server.Limiters, 3)
}

func TestLoginRetriesAreNotThrottled(t *testing.T) {
	suite := newE2ESuite(t)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	for i := 0; i < 15; i++ {
		resp, body := suite.request(t, suite.admin, http.MethodPost, "/admin/login", strings.NewReader(form.Encode()), map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
		assert.Contains(t, body, "Wrong credentials")
	}
	suite.login(t)
}

func TestChatWidgetLocksInputAndResyncsOnRejectedSend(t *testing.T) {
	suite := newE2ESuite(t)
	resp, body := suite.request(t, suite.public, http.MethodGet, "/assets/js/app.js", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "input.disabled = busy")
	assert.Contains(t, body, "if (!res.ok || !body.turns)")
	assert.Contains(t, body, "return loadTurns();")
}
