package service

import (
	"readhub_backend/internal/model"
	"time"
)

// bucketSeconds 一段被记入的时长在某个分桶（日/周）里的份额
type bucketSeconds struct {
	Key     string
	Seconds int64
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(model.DateLayout)
}

// startOfDay 所在时区当天 00:00
func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// weekStartKey ISO 周界：参考时区周一 00:00
func weekStartKey(t time.Time, loc *time.Location) string {
	return startOfWeek(t, loc).Format(model.DateLayout)
}

func startOfWeek(t time.Time, loc *time.Location) time.Time {
	day := startOfDay(t, loc)
	// time.Weekday 周日为 0，ISO 周从周一起算
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// splitCredited 把 credited 秒按 [from, to) 与分桶边界的墙钟重叠比例拆分。
// credited 可能小于区间长度（被心跳上限钳过），所以按比例而不是按段长。
// 整数除法的余数全部归入最后一段，保证份额之和恰等于 credited。
// 边界上的写入由 occurredAt 决定归属，与到达顺序无关。
func splitCredited(from, to time.Time, credited int64, keyOf func(time.Time) string, nextBoundary func(time.Time) time.Time) []bucketSeconds {
	if credited <= 0 {
		return nil
	}
	span := to.Sub(from)
	if span <= 0 || keyOf(from) == keyOf(to.Add(-time.Nanosecond)) {
		return []bucketSeconds{{Key: keyOf(to.Add(-time.Nanosecond)), Seconds: credited}}
	}

	var parts []bucketSeconds
	var allocated int64
	cur := from
	for cur.Before(to) {
		boundary := nextBoundary(cur)
		segEnd := boundary
		if segEnd.After(to) {
			segEnd = to
		}
		share := int64(float64(credited) * (segEnd.Sub(cur).Seconds() / span.Seconds()))
		parts = append(parts, bucketSeconds{Key: keyOf(cur), Seconds: share})
		allocated += share
		cur = segEnd
	}
	// 余数补到最后一段
	parts[len(parts)-1].Seconds += credited - allocated

	// 去掉比例取整后为 0 的段
	out := parts[:0]
	for _, p := range parts {
		if p.Seconds > 0 {
			out = append(out, p)
		}
	}
	return out
}

// splitByDay 按用户本地自然日拆分，跨午夜的会话分摊到相邻两天
func splitByDay(from, to time.Time, credited int64, loc *time.Location) []bucketSeconds {
	return splitCredited(from, to, credited,
		func(t time.Time) string { return dayKey(t, loc) },
		func(t time.Time) time.Time { return startOfDay(t, loc).AddDate(0, 0, 1) },
	)
}

// splitByWeek 按参考时区 ISO 周拆分，周一 00:00 关窗开窗
func splitByWeek(from, to time.Time, credited int64, loc *time.Location) []bucketSeconds {
	return splitCredited(from, to, credited,
		func(t time.Time) string { return weekStartKey(t, loc) },
		func(t time.Time) time.Time { return startOfWeek(t, loc).AddDate(0, 0, 7) },
	)
}

// clampDelta 心跳间隔钳位到 [0, maxGap]，时钟回拨记 0，漏心跳最多记上限
func clampDelta(last, now time.Time, maxGap time.Duration) time.Duration {
	d := now.Sub(last)
	if d < 0 {
		return 0
	}
	if d > maxGap {
		return maxGap
	}
	return d
}

func parseDateKey(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

func addDaysKey(key string, days int) string {
	t, err := parseDateKey(key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, days).Format(model.DateLayout)
}
