package handler

import (
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const videoAspectLandscape = "16:9"

var (
	videoEmbedLinePattern = regexp.MustCompile(`^\s*<?((?:https?://)?[^\s]+)>?\s*$`)
	videoEmbedSrcPattern  = regexp.MustCompile(`^https://(?:www\.)?(?:youtube\.com/embed/|youtube-nocookie\.com/embed/)`)
	videoEmbedTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`) // for YouTube t=1h2m3s

	iframeSrcPattern = regexp.MustCompile(`(?i)src\s*=\s*["']([^"']+)["']`)
	youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,16}$`)
	// 粘贴内容不是合法 URL 时的兜底匹配，必须以 YouTube 主机名开头。
	youTubeLoosePattern = regexp.MustCompile(`(?i)^(?:[a-z0-9-]+\.)*(?:youtube(?:-nocookie)?\.com/(?:(?:v|e(?:mbed)?|shorts|live)/|[^\s]*[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{6,16})`)
)

func buildContentSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("class", "data-video-embed", "data-video-platform", "data-video-aspect", "data-video-source").OnElements("div")
	policy.AllowAttrs("src").Matching(videoEmbedSrcPattern).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

type videoEmbed struct {
	Platform string
	Source   string
	EmbedURL string
	Aspect   string
}

// ExtractYouTubeID 从链接或粘贴的 iframe 代码中提取 YouTube 视频 ID，找不到时返回 false，
// 调用方据此隐藏视频控件。
func ExtractYouTubeID(input string) (string, bool) {
	target := strings.TrimSpace(input)
	if target == "" {
		return "", false
	}
	if match := iframeSrcPattern.FindStringSubmatch(target); match != nil {
		target = htmlstd.UnescapeString(strings.TrimSpace(match[1]))
	}
	target = strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
	target = normalizeVideoURL(target)

	if parsed, err := url.Parse(target); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != "" {
		// 完整 URL 只看主机与路径，其他站点一律不识别
		if id := youTubeIDFromURL(parsed); youTubeIDPattern.MatchString(id) {
			return id, true
		}
		return "", false
	}
	if match := youTubeLoosePattern.FindStringSubmatch(target); match != nil {
		return match[1], true
	}
	return "", false
}

// HeroEmbedURL 返回首页主视觉视频的自动播放地址，无法识别时为空。
func HeroEmbedURL(raw string) string {
	id, ok := ExtractYouTubeID(raw)
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?rel=0&autoplay=1", id)
}

// PlayerEmbedURL 返回作品弹窗中使用的播放地址，无法识别时为空。
func PlayerEmbedURL(raw string) string {
	id, ok := ExtractYouTubeID(raw)
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=1", id)
}

func youTubeIDFromURL(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	var videoID string

	switch {
	case host == "youtu.be":
		videoID = strings.Trim(strings.TrimPrefix(u.Path, "/"), "/")
	case isHostOrSubdomain(host, "youtube.com"), isHostOrSubdomain(host, "youtube-nocookie.com"):
		path := strings.Trim(u.Path, "/")
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			videoID = strings.TrimPrefix(path, "shorts/")
		case strings.HasPrefix(path, "embed/"):
			videoID = strings.TrimPrefix(path, "embed/")
		case strings.HasPrefix(path, "live/"):
			videoID = strings.TrimPrefix(path, "live/")
		case strings.HasPrefix(path, "v/"):
			videoID = strings.TrimPrefix(path, "v/")
		}
	default:
		return ""
	}

	if strings.Contains(videoID, "/") {
		videoID = strings.Split(videoID, "/")[0]
	}
	return videoID
}

func applyVideoEmbeds(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	inFence := false
	fenceMarker := ""

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker := detectFenceMarker(trimmed); marker != "" {
			if inFence {
				if strings.HasPrefix(trimmed, fenceMarker) {
					inFence = false
					fenceMarker = ""
				}
			} else {
				inFence = true
				fenceMarker = marker
			}
			continue
		}

		if inFence {
			continue
		}

		if isIndentedCodeLine(line) || shouldSkipEmbedLine(trimmed) {
			continue
		}

		urlValue, ok := extractVideoURL(trimmed)
		if !ok {
			continue
		}

		embed, ok := parseVideoEmbed(urlValue)
		if !ok {
			continue
		}

		lines[i] = buildVideoEmbedHTML(embed)
	}

	return strings.Join(lines, "\n")
}

func detectFenceMarker(line string) string {
	if strings.HasPrefix(line, "```") {
		return "```"
	}
	if strings.HasPrefix(line, "~~~") {
		return "~~~"
	}
	return ""
}

func isIndentedCodeLine(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

var listIndexPattern = regexp.MustCompile(`^\d+\.\s+`)

func shouldSkipEmbedLine(line string) bool {
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, ">") {
		return true
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	return listIndexPattern.MatchString(line)
}

func extractVideoURL(line string) (string, bool) {
	match := videoEmbedLinePattern.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	value := strings.TrimSpace(match[1])
	if value == "" {
		return "", false
	}
	return value, true
}

func parseVideoEmbed(raw string) (videoEmbed, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "<")
	trimmed = strings.TrimSuffix(trimmed, ">")
	trimmed = normalizeVideoURL(trimmed)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil {
		return videoEmbed{}, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return videoEmbed{}, false
	}

	videoID := youTubeIDFromURL(parsed)
	if !youTubeIDPattern.MatchString(videoID) {
		return videoEmbed{}, false
	}

	embedValues := url.Values{}
	embedValues.Set("rel", "0")
	embedValues.Set("modestbranding", "1")
	embedValues.Set("playsinline", "1")
	if start := parseYouTubeStart(parsed); start > 0 {
		embedValues.Set("start", strconv.Itoa(start))
	}

	return videoEmbed{
		Platform: "youtube",
		Source:   trimmed,
		EmbedURL: fmt.Sprintf("https://www.youtube.com/embed/%s?%s", videoID, embedValues.Encode()),
		Aspect:   videoAspectLandscape,
	}, true
}

func normalizeVideoURL(raw string) string {
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	if strings.HasPrefix(lower, "//") {
		return "https:" + raw
	}
	knownPrefixes := []string{
		"youtube.com/",
		"www.youtube.com/",
		"m.youtube.com/",
		"youtube-nocookie.com/",
		"www.youtube-nocookie.com/",
		"youtu.be/",
	}
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "https://" + raw
		}
	}
	return raw
}

func parseYouTubeStart(u *url.URL) int {
	query := u.Query()
	if value := query.Get("start"); value != "" {
		return parseYouTubeTime(value)
	}
	if value := query.Get("t"); value != "" {
		return parseYouTubeTime(value)
	}
	return 0
}

func parseYouTubeTime(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		if seconds > 0 {
			return seconds
		}
		return 0
	}

	total := 0
	for _, match := range videoEmbedTimePattern.FindAllStringSubmatch(trimmed, -1) {
		value, err := strconv.Atoi(match[1])
		if err != nil || value <= 0 {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += value * 3600
		case "m":
			total += value * 60
		case "s":
			total += value
		}
	}
	return total
}

func buildVideoEmbedHTML(embed videoEmbed) string {
	return fmt.Sprintf(
		`<div class="video-embed" data-video-embed="true" data-video-platform="%s" data-video-aspect="%s" data-video-source="%s">`+
			`<iframe src="%s" title="YouTube video player" loading="lazy" allow="%s" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe>`+
			`</div>`,
		htmlstd.EscapeString(embed.Platform),
		htmlstd.EscapeString(embed.Aspect),
		htmlstd.EscapeString(embed.Source),
		htmlstd.EscapeString(embed.EmbedURL),
		videoEmbedAllowAttribute(),
	)
}

func videoEmbedAllowAttribute() string {
	return "accelerometer; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"
}

func isHostOrSubdomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
