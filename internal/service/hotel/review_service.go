package hotel

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// ReviewService 房间评价服务
type ReviewService struct {
	reviewRepo  *repository.ReviewRepository
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
}

// NewReviewService 创建评价服务
func NewReviewService(
	reviewRepo *repository.ReviewRepository,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
	}
}

// CreateReviewRequest 创建评价请求
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ReviewInfo 评价信息
type ReviewInfo struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	RoomID    int64     `json:"room_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewList 评价列表及汇总
type ReviewList struct {
	List          []*ReviewInfo `json:"list"`
	Total         int64         `json:"total"`
	Page          int           `json:"page"`
	PageSize      int           `json:"page_size"`
	AverageRating float64       `json:"average_rating"`
}

// CreateReview 发表评价
// 仅在该房间有已确认预订的用户可评价，每人每房间一条
func (s *ReviewService) CreateReview(ctx context.Context, userID, roomID int64, req *CreateReviewRequest) (*ReviewInfo, error) {
	if req.Rating < models.ReviewRatingMin || req.Rating > models.ReviewRatingMax {
		return nil, errors.ErrReviewRatingInvalid
	}

	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	confirmed, err := s.bookingRepo.ExistsConfirmedByUserAndRoom(ctx, userID, roomID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !confirmed {
		return nil, errors.ErrBookingNotConfirmed
	}

	exists, err := s.reviewRepo.HasReviewed(ctx, userID, roomID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrReviewExists
	}

	review := &models.Review{
		UserID: userID,
		RoomID: roomID,
		Rating: int16(req.Rating),
	}
	if req.Comment != "" {
		review.Comment = utils.StringPtr(req.Comment)
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrReviewExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toReviewInfo(review), nil
}

// ListReviews 获取房间评价列表与平均分
func (s *ReviewService) ListReviews(ctx context.Context, roomID int64, page, pageSize int) (*ReviewList, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	p := utils.NewPagination(page, pageSize)

	reviews, total, err := s.reviewRepo.ListForRoom(ctx, roomID, p.Offset(), p.Limit())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	summary, err := s.reviewRepo.Summary(ctx, roomID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*ReviewInfo, 0, len(reviews))
	for _, r := range reviews {
		list = append(list, toReviewInfo(r))
	}
	return &ReviewList{
		List:          list,
		Total:         total,
		Page:          p.Page,
		PageSize:      p.PageSize,
		AverageRating: math.Round(summary.Average*10) / 10,
	}, nil
}

func toReviewInfo(r *models.Review) *ReviewInfo {
	info := &ReviewInfo{
		ID:        r.ID,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		Rating:    int(r.Rating),
		Comment:   utils.SafeString(r.Comment),
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		info.UserName = r.User.Name
	}
	return info
}
