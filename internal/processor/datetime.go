package processor

import (
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MinTime 无法解析时返回的“无限久远”时间（UTC 零值）
var MinTime = time.Time{}

// 不带时区的 ISO 时间一律按 UTC 处理
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999-0700",
}

// RSS/RFC 2822 常见写法
var feedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
}

// RFC 2822 §4.3 中的美国时区缩写；time.Parse 只认本地时区里的缩写，其它一律当成 +0000
var obsoleteZones = map[string]int{
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// withObsoleteZone 按 RFC 2822 的定义修正美国时区缩写的偏移，墙上时间不变
func withObsoleteZone(t time.Time) time.Time {
	name, offset := t.Zone()
	hours, ok := obsoleteZones[strings.ToUpper(name)]
	if !ok || offset == hours*3600 {
		return t
	}
	loc := time.FixedZone(name, hours*3600)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// ParseDatetime 将各种来源的时间文本解析为 UTC 时间。
// 顺序：ISO-8601（末尾 Z 视为 +00:00）→ RFC 2822 → 自然语言兜底；
// 空字符串或全部失败时返回 MinTime，而不是报错。
func ParseDatetime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return MinTime
	}

	if strings.Contains(s, "T") {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}

	for _, layout := range feedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return withObsoleteZone(t).UTC()
		}
	}
	if t, err := mail.ParseDate(s); err == nil {
		return withObsoleteZone(t).UTC()
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.UTC()
	}
	return MinTime
}

// FormatTimestamp 把 unix 秒转成统一的时间文本（RFC 3339, UTC）；0 表示没有时间
func FormatTimestamp(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
