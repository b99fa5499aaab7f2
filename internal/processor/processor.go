package processor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// SummaryMaxLen 摘要最大字符数（按 rune 计）
const SummaryMaxLen = 500

// CleanHTML 去掉所有标签，合并空白并截断到 SummaryMaxLen。
// 文本节点之间以单个空格连接，script/style 内容直接丢弃。
func CleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// 非法 UTF-8 替换为 U+FFFD，保证缓存中的 JSON 能原样往返
	s = strings.ToValidUTF8(s, "\uFFFD")

	var (
		parts []string
		skip  int
	)
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF 或者无法继续解析，已收集的部分照常返回
			break
		}
		switch tt {
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				parts = append(parts, t)
			}
		}
	}

	out := collapseSpaces(strings.Join(parts, " "))
	return truncateRunes(norm.NFC.String(out), SummaryMaxLen)
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes 按 rune 截断，避免把多字节字符切成半个
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
