package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/service"
)

// pageView 描述一个公开页面：模板名、标题以及组装模板数据的函数。
type pageView struct {
	Template string
	Title    string
	Load     func(a *API, c *gin.Context) (gin.H, error)
}

var (
	homeView = pageView{
		Template: "home.html",
		Title:    "Home",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			page := a.services.Content.Home(c.Request.Context())
			return gin.H{
				"page":         page,
				"config":       page.Config,
				"heroEmbedUrl": HeroEmbedURL(page.Config.HeroVideoURL),
			}, nil
		},
	}
	aboutView = pageView{
		Template: "about.html",
		Title:    "About",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			page := a.services.Content.About(c.Request.Context())
			return gin.H{
				"page":          page,
				"config":        page.Config,
				"aboutEmbedUrl": PlayerEmbedURL(page.Config.AboutVideoURL),
			}, nil
		},
	}
	servicesView = pageView{
		Template: "services.html",
		Title:    "Services",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			page := a.services.Content.Services(c.Request.Context())
			return gin.H{"page": page, "config": page.Config}, nil
		},
	}
	portfolioView = pageView{
		Template: "portfolio.html",
		Title:    "Portfolio",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			page := a.services.Content.Portfolio(c.Request.Context(), c.Query("category"))
			return gin.H{"page": page, "config": page.Config}, nil
		},
	}
	blogView = pageView{
		Template: "blog.html",
		Title:    "Blog",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			page := a.services.Content.Blog(c.Request.Context())
			return gin.H{"page": page, "config": page.Config}, nil
		},
	}
	contactView = pageView{
		Template: "contact.html",
		Title:    "Contact",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			cfg := a.services.Content.Config(c.Request.Context())
			return gin.H{"config": cfg}, nil
		},
	}
	postView = pageView{
		Template: "blog_post.html",
		Load: func(a *API, c *gin.Context) (gin.H, error) {
			cfg, post, err := a.services.Content.Post(c.Request.Context(), c.Param("slug"))
			if err != nil {
				return nil, err
			}
			content, err := renderMarkdown(post.Content)
			if err != nil {
				c.Error(err)
				content = template.HTML("<p>This article cannot be displayed right now.</p>")
			}
			return gin.H{
				"title":   post.Title,
				"config":  cfg,
				"post":    post,
				"content": content,
			}, nil
		},
	}
)

// ShowPage 返回渲染指定公开页面的处理函数。
func (a *API) ShowPage(view pageView) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := view.Load(a, c)
		if err != nil {
			if errors.Is(err, service.ErrBlogPostNotFound) {
				a.NotFound(c)
				return
			}
			c.Error(err)
			a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
				"title": "Something went wrong",
			})
			return
		}
		if _, ok := data["title"]; !ok {
			data["title"] = view.Title
		}
		a.renderHTML(c, http.StatusOK, view.Template, data)
	}
}

// ShowHome renders the landing page.
func (a *API) ShowHome(c *gin.Context) { a.ShowPage(homeView)(c) }

// ShowAbout renders the about page.
func (a *API) ShowAbout(c *gin.Context) { a.ShowPage(aboutView)(c) }

// ShowServices renders services and pricing.
func (a *API) ShowServices(c *gin.Context) { a.ShowPage(servicesView)(c) }

// ShowPortfolio renders the portfolio grid, filtered by ?category=.
func (a *API) ShowPortfolio(c *gin.Context) { a.ShowPage(portfolioView)(c) }

// ShowBlog renders the blog index.
func (a *API) ShowBlog(c *gin.Context) { a.ShowPage(blogView)(c) }

// ShowBlogPost renders a single article by slug.
func (a *API) ShowBlogPost(c *gin.Context) { a.ShowPage(postView)(c) }

// ShowContact renders the contact form.
func (a *API) ShowContact(c *gin.Context) { a.ShowPage(contactView)(c) }

// NotFound 渲染 404 页面。
func (a *API) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
		respondError(c, http.StatusNotFound, "not found")
		return
	}
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{"title": "Not Found"})
}

type contactRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

// SubmitContact 保存一条联系表单提交。
func (a *API) SubmitContact(c *gin.Context) {
	var payload contactRequest
	if err := c.ShouldBind(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "invalid contact form")
		return
	}

	submission, err := a.services.Contacts.Submit(c.Request.Context(), service.ContactInput{
		Name:      payload.Name,
		Email:     payload.Email,
		Message:   payload.Message,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Thank you! Your message has been sent.",
		"contact": contactPayload(submission),
	})
}

func contactPayload(row db.ContactSubmission) gin.H {
	return gin.H{
		"id":         row.ID,
		"name":       row.Name,
		"email":      row.Email,
		"message":    row.Message,
		"client":     row.Client,
		"created_at": row.CreatedAt,
	}
}
