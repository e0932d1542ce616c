package handler

import (
	"net/http"

	adDto "github.com/IMRiesen/avitolike/internal/modules/ad/dto"
	ad "github.com/IMRiesen/avitolike/internal/modules/ad/service"
	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdHandler struct {
	service ad.Service
}

func NewAdHandler(service ad.Service) *AdHandler {
	return &AdHandler{service: service}
}

func (h *AdHandler) ListAds(c *gin.Context) {
	var query adDto.ListAdsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.ListAds(c.Request.Context(), query, response.OptionalUserID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdHandler) SearchAds(c *gin.Context) {
	var query adDto.SearchAdsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.SearchAds(c.Request.Context(), query.Query, query.Limit, response.OptionalUserID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdHandler) GetAd(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	res, err := h.service.GetAd(c.Request.Context(), id, response.OptionalUserID(c), c.ClientIP())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdHandler) CreateAd(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req adDto.CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreateAd(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Header("Location", "/api/ads/"+res.ID.String())
	c.JSON(http.StatusCreated, res)
}

func (h *AdHandler) UpdateAd(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	var req adDto.UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.UpdateAd(c.Request.Context(), id, userID, req); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AdHandler) DeleteAd(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	if err := h.service.DeleteAd(c.Request.Context(), id, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AdHandler) RelevantAds(c *gin.Context) {
	var query adDto.RelevantAdsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.RelevantAds(c.Request.Context(), uuid.MustParse(query.AdID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdHandler) UserAds(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.InvalidParam(c, "user id")
		return
	}

	res, err := h.service.UserAds(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
