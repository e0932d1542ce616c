package dto

import (
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ListAdsQuery struct {
	Category              string `form:"category"`
	Search                string `form:"search"`
	Page                  int    `form:"page" binding:"omitempty,min=1"`
	PageSize              int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	IncludeFavoriteStatus bool   `form:"includeFavoriteStatus"`
}

// Normalize fills in paging defaults.
func (q *ListAdsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

type SearchAdsQuery struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type RelevantAdsQuery struct {
	AdID string `form:"adId" binding:"required,uuid"`
}

type CreateAdRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	Price       float64   `json:"price" binding:"gte=0"`
	CategoryID  uuid.UUID `json:"categoryId" binding:"required"`
	Location    string    `json:"location" binding:"max=200"`
	ImageURL    string    `json:"imageUrl" binding:"max=2048"`
}

// UpdateAdRequest replaces every editable field of the ad.
type UpdateAdRequest CreateAdRequest

type AdResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	ImageURL    string     `json:"imageUrl"`
	SellerName  string     `json:"sellerName"`
	Phone       string     `json:"phone"`
	SellerSince *time.Time `json:"sellerSince"`
	Date        time.Time  `json:"date"`
	Views       int        `json:"views"`
	UserID      uuid.UUID  `json:"userId"`
	IsFavorite  bool       `json:"isFavorite"`
}

type AdListResponse struct {
	Data       []AdResponse `json:"data"`
	TotalCount int64        `json:"totalCount"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

type CreatedAdResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	ImageURL   string    `json:"imageUrl"`
	SellerName string    `json:"sellerName"`
	Phone      string    `json:"phone"`
}

type AdSummaryResponse struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	ImageURL string    `json:"imageUrl"`
}

const unknownSeller = "Unknown"

func FromEntity(ad *entity.Ad) AdResponse {
	resp := AdResponse{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		Category:    ad.CategoryName(),
		Location:    ad.Location,
		ImageURL:    ad.MainImageURL(),
		SellerName:  unknownSeller,
		Date:        ad.CreatedAt,
		Views:       ad.ViewsCount,
		UserID:      ad.UserID,
	}

	if ad.User.ID != uuid.Nil {
		resp.SellerName = ad.User.Username
		resp.Phone = ad.User.Phone
		since := ad.User.CreatedAt
		resp.SellerSince = &since
	}

	return resp
}

func SummaryFromEntity(ad *entity.Ad) AdSummaryResponse {
	return AdSummaryResponse{
		ID:       ad.ID,
		Title:    ad.Title,
		Price:    ad.Price,
		ImageURL: ad.MainImageURL(),
	}
}
