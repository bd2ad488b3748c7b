// Package qrcode 预订入住凭证二维码
//
// 凭证内容为 hotel-booking://voucher/<预订号>，前台扫码后用 ParseVoucher 取回预订号。
package qrcode

import (
	"errors"
	"strings"

	"github.com/skip2/go-qrcode"
)

// VoucherScheme 凭证内容前缀
const VoucherScheme = "hotel-booking://voucher/"

const (
	defaultSize = 256
	minSize     = 64
)

var ErrEmptyContent = errors.New("qrcode: empty content")

// Generator 输出 PNG 二维码，零值不可用，请使用 NewGenerator
type Generator struct {
	size  int
	level qrcode.RecoveryLevel
}

type Option func(*Generator)

// WithSize 图片边长（像素），小于 64 时按 64 处理
func WithSize(px int) Option {
	return func(g *Generator) {
		if px < minSize {
			px = minSize
		}
		g.size = px
	}
}

// WithRecoveryLevel 纠错级别，默认 Medium
func WithRecoveryLevel(level qrcode.RecoveryLevel) Option {
	return func(g *Generator) {
		g.level = level
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{size: defaultSize, level: qrcode.Medium}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PNG 编码任意内容
func (g *Generator) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	return qrcode.Encode(content, g.level, g.size)
}

// VoucherPNG 生成预订凭证二维码
func (g *Generator) VoucherPNG(bookingNo string) ([]byte, error) {
	if bookingNo == "" {
		return nil, ErrEmptyContent
	}
	return g.PNG(VoucherContent(bookingNo))
}

func VoucherContent(bookingNo string) string {
	return VoucherScheme + bookingNo
}

// ParseVoucher 从扫码内容中取出预订号，容忍首尾空白
func ParseVoucher(content string) (string, bool) {
	bookingNo, found := strings.CutPrefix(strings.TrimSpace(content), VoucherScheme)
	if !found || bookingNo == "" || strings.ContainsAny(bookingNo, "/?# ") {
		return "", false
	}
	return bookingNo, true
}
