package handler

import (
	"net/http"

	"github.com/IMRiesen/avitolike/internal/modules/favorite/dto"
	"github.com/IMRiesen/avitolike/internal/modules/favorite/service"
	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FavoriteHandler struct {
	service service.FavoriteService
}

func NewFavoriteHandler(service service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// Register mounts the favorites routes on an authenticated group.
func (h *FavoriteHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.AddFavorite)
	rg.GET("", h.GetFavorites)
	rg.GET("/check", h.CheckFavorite)
	rg.DELETE("/:adId", h.RemoveFavorite)
}

func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.AddFavorite(c.Request.Context(), userID, req.AdID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FavoriteStatusResponse{IsFavorite: true})
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	adID, err := uuid.Parse(c.Param("adId"))
	if err != nil {
		response.InvalidParam(c, "ad id")
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), userID, adID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FavoriteHandler) CheckFavorite(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q dto.CheckFavoriteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	isFavorite, err := h.service.IsFavorite(c.Request.Context(), userID, uuid.MustParse(q.AdID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FavoriteStatusResponse{IsFavorite: isFavorite})
}

func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	favorites, err := h.service.GetFavorites(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, favorites)
}
