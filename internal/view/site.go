package view

import (
	"html/template"
	"strings"
)

const (
	// AppName 是站点署名。
	AppName = "Md Abdul Hai"
	// Profession 是页眉与页脚展示的职业描述。
	Profession = "Visualizer & Creative Artist"
	// DefaultWhatsAppURL 在站点配置未填写 WhatsApp 时使用。
	DefaultWhatsAppURL = "https://wa.me/8801779672765"
)

// NavItem 是顶部导航中的一项。
type NavItem struct {
	Label string
	Path  string
	Icon  string
}

// SocialLink 是页脚社交链接。
type SocialLink struct {
	Key   string
	Label string
	URL   string
	SVG   template.HTML
}

type iconAsset struct {
	Key   string
	Label string
	SVG   string
}

var (
	navItems = []NavItem{
		{Label: "Home", Path: "/", Icon: "home"},
		{Label: "About", Path: "/about", Icon: "user"},
		{Label: "Services", Path: "/services", Icon: "briefcase"},
		{Label: "Portfolio", Path: "/portfolio", Icon: "grid"},
		{Label: "Blog", Path: "/blog", Icon: "file"},
		{Label: "Contact", Path: "/contact", Icon: "send"},
	}

	iconDefinitions = []iconAsset{
		{Key: "instagram", Label: "Instagram", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><rect x="2" y="2" width="20" height="20" rx="5"/><path d="M16 11.37A4 4 0 1 1 12.63 8 4 4 0 0 1 16 11.37z"/><path d="M17.5 6.5h.01"/></svg>`},
		{Key: "linkedin", Label: "LinkedIn", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M16 8a6 6 0 0 1 6 6v7h-4v-7a2 2 0 0 0-4 0v7h-4v-7a6 6 0 0 1 6-6z"/><rect x="2" y="9" width="4" height="12"/><circle cx="4" cy="4" r="2"/></svg>`},
		{Key: "youtube", Label: "YouTube", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M22.54 6.42a2.78 2.78 0 0 0-1.94-2C18.88 4 12 4 12 4s-6.88 0-8.6.46a2.78 2.78 0 0 0-1.94 2A29 29 0 0 0 1 11.75a29 29 0 0 0 .46 5.33A2.78 2.78 0 0 0 3.4 19c1.72.46 8.6.46 8.6.46s6.88 0 8.6-.46a2.78 2.78 0 0 0 1.94-2 29 29 0 0 0 .46-5.25 29 29 0 0 0-.46-5.33z"/><path d="m9.75 15.02 5.75-3.27-5.75-3.27v6.54z"/></svg>`},
		{Key: "whatsapp", Label: "WhatsApp", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M21 15a2 2 0 0 1-2 2H7l-4 4V5a2 2 0 0 1 2-2h14a2 2 0 0 1 2 2z"/></svg>`},
		{Key: "email", Label: "Email", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M21.75 6.75v10.5a2.25 2.25 0 0 1-2.25 2.25h-15A2.25 2.25 0 0 1 2.25 17.25V6.75M21.75 6.75A2.25 2.25 0 0 0 19.5 4.5h-15A2.25 2.25 0 0 0 2.25 6.75v.243c0 .781.405 1.506 1.071 1.916l7.5 4.615a2.25 2.25 0 0 0 2.157 0l7.5-4.615a2.25 2.25 0 0 0 1.072-1.916V6.75"/></svg>`},
	}
	defaultIcon = iconAsset{Key: "default", Label: "Link", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M10 13a5 5 0 0 0 7.54.54l3-3a5 5 0 0 0-7.07-7.07l-1.72 1.71"/><path d="M14 11a5 5 0 0 0-7.54-.54l-3 3a5 5 0 0 0 7.07 7.07l1.71-1.71"/></svg>`}
	iconLookup  = func() map[string]iconAsset {
		lookup := make(map[string]iconAsset, len(iconDefinitions)+1)
		for _, icon := range iconDefinitions {
			lookup[icon.Key] = icon
		}
		lookup[defaultIcon.Key] = defaultIcon
		return lookup
	}()
)

// NavItems 返回导航项副本。
func NavItems() []NavItem {
	return append([]NavItem(nil), navItems...)
}

// IsActiveNav 判断当前路径是否属于导航项 path。
func IsActiveNav(path, current string) bool {
	if path == "/" {
		return current == "/"
	}
	return current == path || strings.HasPrefix(current, path+"/")
}

// SocialLinks 返回页脚社交链接；whatsApp 为站点配置中的号码，可为空。
func SocialLinks(whatsApp, email string) []SocialLink {
	links := []SocialLink{
		newSocialLink("instagram", "#"),
		newSocialLink("linkedin", "#"),
		newSocialLink("youtube", "#"),
		newSocialLink("whatsapp", WhatsAppURL(whatsApp)),
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		links = append(links, newSocialLink("email", "mailto:"+trimmed))
	}
	return links
}

// WhatsAppURL 把号码转换为 wa.me 链接，只保留数字。
func WhatsAppURL(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return DefaultWhatsAppURL
	}
	return "https://wa.me/" + digits
}

// IconSVG resolves the SVG markup for a given key, falling back to the default icon.
func IconSVG(key string) template.HTML {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	if icon, ok := iconLookup[trimmed]; ok {
		return template.HTML(icon.SVG)
	}
	return template.HTML(defaultIcon.SVG)
}

func newSocialLink(key, url string) SocialLink {
	icon, ok := iconLookup[key]
	if !ok {
		icon = defaultIcon
	}
	return SocialLink{Key: icon.Key, Label: icon.Label, URL: url, SVG: template.HTML(icon.SVG)}
}
