// Package utils 预订号、日历日期与分页等通用工具
package utils

import (
	"crypto/rand"
	"regexp"
	"time"
)

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// GenerateBookingNo 生成预订号：BK + 秒级时间戳 + 6 位随机数字
func GenerateBookingNo() string {
	return "BK" + time.Now().Format("20060102150405") + randomDigits(6)
}

func randomDigits(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return string(b)
}

// ValidateEmail 邮箱格式校验
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate 按 UTC 输出 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// TruncateToDate 保留年月日，时区置为 UTC
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween 入住到离店之间的晚数
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(TruncateToDate(checkOut).Sub(TruncateToDate(checkIn)) / (24 * time.Hour))
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// SafeString nil 时返回空串
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// 分页限制
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination 规范化后的分页参数
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 页码不小于 1，每页条数落在 [1, MaxPageSize]，为 0 或负数时取默认值
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 查询偏移量
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 查询条数
func (p Pagination) Limit() int {
	return p.PageSize
}
