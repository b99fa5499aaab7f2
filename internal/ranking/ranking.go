package ranking

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/processor"
)

// Mode 排序方式
type Mode string

const (
	ModeHot Mode = "hot"
	ModeNew Mode = "new"

	// DefaultGravity 时间衰减指数
	DefaultGravity = 1.8
	// undatedAgeHours 没有发布时间的条目按 24 小时计算
	undatedAgeHours = 24.0
)

// ParseMode 只有 "new" 表示按时间排序，其它一律按热度
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeNew)) {
		return ModeNew
	}
	return ModeHot
}

// 只识别摘要里 "⬆ 12" / "↑ 12" / "Score: 12" 这几种写法
var upvotePattern = regexp.MustCompile(`(?:⬆|↑|Score:?)\s*(\d+)`)

// Ranker 可注入当前时间，测试时固定
type Ranker struct {
	Gravity float64
	Now     func() time.Time
}

func New() *Ranker {
	return &Ranker{Gravity: DefaultGravity, Now: time.Now}
}

func (r *Ranker) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Ranker) gravity() float64 {
	if r.Gravity == 0 {
		return DefaultGravity
	}
	return r.Gravity
}

// HotScore upvotes / (age_hours + 2) ^ gravity
func (r *Ranker) HotScore(it collector.Item) float64 {
	return r.hotScoreAt(it, r.now())
}

func (r *Ranker) hotScoreAt(it collector.Item, now time.Time) float64 {
	up := Upvotes(it)
	if up == 0 {
		return 0
	}
	return up / math.Pow(ageHours(it, now)+2, r.gravity())
}

// Sort 返回排好序的新切片，键相同的条目保持输入顺序
func (r *Ranker) Sort(items []collector.Item, mode Mode) []collector.Item {
	out := make([]collector.Item, len(items))
	copy(out, items)

	var less func(a, b int) bool
	if mode == ModeNew {
		ts := make([]time.Time, len(out))
		for i, it := range out {
			ts[i] = processor.ParseDatetime(it.Published)
		}
		less = func(a, b int) bool { return ts[a].After(ts[b]) }
	} else {
		now := r.now()
		scores := make([]float64, len(out))
		for i, it := range out {
			scores[i] = r.hotScoreAt(it, now)
		}
		less = func(a, b int) bool { return scores[a] > scores[b] }
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(idx[a], idx[b]) })

	sorted := make([]collector.Item, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Upvotes 优先取 extra.score，非零才用；否则从摘要中解析
func Upvotes(it collector.Item) float64 {
	if v, ok := numeric(it.Extra["score"]); ok && v != 0 {
		return v
	}
	if m := upvotePattern.FindStringSubmatch(it.Summary); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return float64(n)
		}
	}
	return 0
}

func ageHours(it collector.Item, now time.Time) float64 {
	if it.Published == "" {
		return undatedAgeHours
	}
	age := now.Sub(processor.ParseDatetime(it.Published)).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// numeric 兼容直接构造的 int 与经过 JSON 往返后的 float64
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
