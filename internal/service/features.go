package service

import "strings"

// SplitFeatures 把后台以逗号分隔的文本拆成有序列表，去掉首尾空白与空项。
func SplitFeatures(text string) []string {
	parts := strings.Split(text, ",")
	features := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	return features
}

// JoinFeatures 是 SplitFeatures 的逆操作，用于回填编辑框。
func JoinFeatures(features []string) string {
	return strings.Join(features, ", ")
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
