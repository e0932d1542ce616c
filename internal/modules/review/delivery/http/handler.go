package handler

import (
	"net/http"

	"github.com/IMRiesen/avitolike/internal/modules/review/dto"
	review "github.com/IMRiesen/avitolike/internal/modules/review/service"
	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	service review.ReviewService
}

func NewReviewHandler(service review.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) AddReview(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.AddReview(c.Request.Context(), userID, adID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ReviewHandler) GetReviews(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	reviews, err := h.service.GetReviews(c.Request.Context(), adID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}
