// Package notification 将预订事件转化为给住客的短信通知
package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/crypto"
	"github.com/dumeirei/hotel-booking-backend/internal/events"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	"github.com/dumeirei/hotel-booking-backend/pkg/sms"
)

// SMSNotifier 在预订确认或取消时给有手机号的住客发短信，实现 events.Publisher
type SMSNotifier struct {
	sender   sms.Sender
	userRepo *repository.UserRepository
	log      *zap.Logger
}

var _ events.Publisher = (*SMSNotifier)(nil)

// NewSMSNotifier 创建短信通知器
func NewSMSNotifier(sender sms.Sender, userRepo *repository.UserRepository, log *zap.Logger) *SMSNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMSNotifier{
		sender:   sender,
		userRepo: userRepo,
		log:      log.Named("sms_notifier"),
	}
}

// templateFor 返回事件对应的短信模板，不需要通知时返回空串
func templateFor(event *events.BookingEvent) string {
	switch event.Type {
	case events.TypeBookingCancelled:
		return sms.TemplateBookingCancelled
	case events.TypeBookingStatusChanged:
		switch event.BookingStatus {
		case models.BookingStatusConfirmed:
			return sms.TemplateBookingConfirmed
		case models.BookingStatusCancelled:
			return sms.TemplateBookingCancelled
		}
	}
	return ""
}

// Publish 实现 Publisher
func (n *SMSNotifier) Publish(ctx context.Context, event *events.BookingEvent) error {
	template := templateFor(event)
	if template == "" {
		return nil
	}

	user, err := n.userRepo.GetContact(ctx, event.UserID)
	if err != nil {
		return err
	}
	if !user.IsActive() || user.Phone == nil || *user.Phone == "" {
		return nil
	}

	params := map[string]string{
		"name":      user.Name,
		"bookingNo": event.BookingNo,
		"checkIn":   event.CheckIn,
		"checkOut":  event.CheckOut,
	}
	if err := n.sender.Send(ctx, *user.Phone, template, params); err != nil {
		return err
	}

	n.log.Info("guest notified",
		zap.String("booking_no", event.BookingNo),
		zap.String("template", template),
		zap.String("phone", crypto.MaskPhone(*user.Phone)),
	)
	return nil
}

// Close 实现 Publisher
func (n *SMSNotifier) Close() error { return nil }
