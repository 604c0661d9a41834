package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/service"
)

// 后台编辑器提交的请求体。列表字段（features、media_gallery）以逗号分隔的文本提交。

type siteConfigRequest struct {
	HeroTitle          string            `json:"hero_title"`
	HeroRole           string            `json:"hero_role"`
	HeroSubtitle       string            `json:"hero_subtitle"`
	HeroImageURL       string            `json:"hero_image_url"`
	HeroVideoURL       string            `json:"hero_video_url"`
	Bio                string            `json:"bio"`
	ExperienceYears    int               `json:"experience_years"`
	ProfilePicURL      string            `json:"profile_pic_url"`
	AboutVideoURL      string            `json:"about_video_url"`
	WhatsApp           string            `json:"whatsapp"`
	Email              string            `json:"email"`
	Skills             []db.Skill        `json:"skills"`
	ExperienceTimeline []db.TimelineItem `json:"experience_timeline"`
	Tools              []db.Tool         `json:"tools"`
	ChatbotKnowledge   string            `json:"chatbot_knowledge"`
}

func (r siteConfigRequest) toInput() service.SiteConfigInput {
	return service.SiteConfigInput{
		HeroTitle:          r.HeroTitle,
		HeroRole:           r.HeroRole,
		HeroSubtitle:       r.HeroSubtitle,
		HeroImageURL:       r.HeroImageURL,
		HeroVideoURL:       r.HeroVideoURL,
		Bio:                r.Bio,
		ExperienceYears:    r.ExperienceYears,
		ProfilePicURL:      r.ProfilePicURL,
		AboutVideoURL:      r.AboutVideoURL,
		WhatsApp:           r.WhatsApp,
		Email:              r.Email,
		Skills:             r.Skills,
		ExperienceTimeline: r.ExperienceTimeline,
		Tools:              r.Tools,
		ChatbotKnowledge:   r.ChatbotKnowledge,
	}
}

type serviceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Features    string `json:"features"`
}

func (r serviceRequest) toInput() service.OfferingInput {
	return service.OfferingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Features:    service.SplitFeatures(r.Features),
	}
}

type pricingPlanRequest struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Features    string `json:"features"`
	IsPopular   bool   `json:"is_popular"`
	ButtonText  string `json:"button_text"`
}

func (r pricingPlanRequest) toInput() service.PricingPlanInput {
	return service.PricingPlanInput{
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Features:    service.SplitFeatures(r.Features),
		IsPopular:   r.IsPopular,
		ButtonText:  r.ButtonText,
	}
}

type projectRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	MediaGallery string `json:"media_gallery"`
	IsFeatured   bool   `json:"is_featured"`
}

func (r projectRequest) toInput() service.ProjectInput {
	return service.ProjectInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Type:         r.Type,
		MediaURL:     r.MediaURL,
		ThumbnailURL: r.ThumbnailURL,
		MediaGallery: service.SplitFeatures(r.MediaGallery),
		IsFeatured:   r.IsFeatured,
	}
}

type testimonialRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Feedback string `json:"feedback"`
	ImageURL string `json:"image_url"`
	Rating   int    `json:"rating"`
}

func (r testimonialRequest) toInput() service.TestimonialInput {
	return service.TestimonialInput{
		Name:     r.Name,
		Role:     r.Role,
		Feedback: r.Feedback,
		ImageURL: r.ImageURL,
		Rating:   r.Rating,
	}
}

type brandLogoRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type blogPostRequest struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

func (r blogPostRequest) toInput() service.BlogPostInput {
	return service.BlogPostInput{
		Title:    r.Title,
		Slug:     r.Slug,
		Category: r.Category,
		Content:  r.Content,
		ImageURL: r.ImageURL,
	}
}

// GetSiteConfig 返回当前站点配置（无记录时为默认值）。
func (a *API) GetSiteConfig(c *gin.Context) {
	cfg, err := a.services.SiteConfig.Get(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// SaveSiteConfig 覆盖保存站点配置单行记录。
func (a *API) SaveSiteConfig(c *gin.Context) {
	var payload siteConfigRequest
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}
	cfg, err := a.services.SiteConfig.Save(c.Request.Context(), payload.toInput())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Configuration updated successfully!", "config": cfg})
}

func (a *API) ListServices(c *gin.Context) {
	resourceList(c, "services", a.services.Offerings.List)
}

func (a *API) SaveService(c *gin.Context) {
	resourceSave(c, "service", func(ctx context.Context, id uint, p serviceRequest) (db.Service, error) {
		return a.services.Offerings.Save(ctx, id, p.toInput())
	})
}

func (a *API) DeleteService(c *gin.Context) {
	resourceDelete(c, a.services.Offerings.Delete)
}

func (a *API) ListPricingPlans(c *gin.Context) {
	resourceList(c, "plans", a.services.Plans.List)
}

func (a *API) SavePricingPlan(c *gin.Context) {
	resourceSave(c, "plan", func(ctx context.Context, id uint, p pricingPlanRequest) (db.PricingPlan, error) {
		return a.services.Plans.Save(ctx, id, p.toInput())
	})
}

func (a *API) DeletePricingPlan(c *gin.Context) {
	resourceDelete(c, a.services.Plans.Delete)
}

// ListProjects 返回作品列表，支持 ?category= 与 ?featured=true。
func (a *API) ListProjects(c *gin.Context) {
	filter := service.ProjectFilter{
		Category:     c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
		Limit:        parsePositiveInt(c.Query("limit"), 0),
	}
	resourceList(c, "projects", func(ctx context.Context) ([]db.Project, error) {
		return a.services.Projects.List(ctx, filter)
	})
}

func (a *API) SaveProject(c *gin.Context) {
	resourceSave(c, "project", func(ctx context.Context, id uint, p projectRequest) (db.Project, error) {
		return a.services.Projects.Save(ctx, id, p.toInput())
	})
}

func (a *API) DeleteProject(c *gin.Context) {
	resourceDelete(c, a.services.Projects.Delete)
}

func (a *API) ListTestimonials(c *gin.Context) {
	resourceList(c, "testimonials", a.services.Testimonials.List)
}

func (a *API) SaveTestimonial(c *gin.Context) {
	resourceSave(c, "testimonial", func(ctx context.Context, id uint, p testimonialRequest) (db.Testimonial, error) {
		return a.services.Testimonials.Save(ctx, id, p.toInput())
	})
}

func (a *API) DeleteTestimonial(c *gin.Context) {
	resourceDelete(c, a.services.Testimonials.Delete)
}

func (a *API) ListBrandLogos(c *gin.Context) {
	resourceList(c, "logos", a.services.Logos.List)
}

func (a *API) SaveBrandLogo(c *gin.Context) {
	resourceSave(c, "logo", func(ctx context.Context, id uint, p brandLogoRequest) (db.BrandLogo, error) {
		return a.services.Logos.Save(ctx, id, service.BrandLogoInput{Name: p.Name, ImageURL: p.ImageURL})
	})
}

func (a *API) DeleteBrandLogo(c *gin.Context) {
	resourceDelete(c, a.services.Logos.Delete)
}

func (a *API) ListBlogPosts(c *gin.Context) {
	resourceList(c, "posts", a.services.Posts.List)
}

// SaveBlogPost 保存文章；slug 留空时根据标题生成。
func (a *API) SaveBlogPost(c *gin.Context) {
	resourceSave(c, "post", func(ctx context.Context, id uint, p blogPostRequest) (db.BlogPost, error) {
		return a.services.Posts.Save(ctx, id, p.toInput())
	})
}

func (a *API) DeleteBlogPost(c *gin.Context) {
	resourceDelete(c, a.services.Posts.Delete)
}

// ListContacts 按提交时间倒序返回咨询记录，只读。
func (a *API) ListContacts(c *gin.Context) {
	rows, err := a.services.Contacts.List(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	payload := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, contactPayload(row))
	}
	c.JSON(http.StatusOK, gin.H{"contacts": payload})
}
