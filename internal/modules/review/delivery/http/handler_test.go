package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/IMRiesen/avitolike/internal/entity"
	notifService "github.com/IMRiesen/avitolike/internal/modules/notification/service"
	"github.com/IMRiesen/avitolike/internal/modules/review/dto"
	review "github.com/IMRiesen/avitolike/internal/modules/review/service"
	"github.com/IMRiesen/avitolike/internal/testutil/memstore"
	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	seller := &entity.User{Username: "seller", Email: "seller@x.com", IsActive: true}
	buyer := &entity.User{Username: "buyer", Email: "buyer@x.com", IsActive: true}
	for _, u := range []*entity.User{seller, buyer} {
		if err := store.Users().Create(ctx, u, entity.RoleUser); err != nil {
			t.Fatal(err)
		}
	}
	category := &entity.Category{Name: "Transport"}
	if err := store.Categories().Create(ctx, category); err != nil {
		t.Fatal(err)
	}
	ad := &entity.Ad{Title: "Bike", Price: 100, CategoryID: category.ID, UserID: seller.ID}
	if err := store.Ads().Create(ctx, ad); err != nil {
		t.Fatal(err)
	}

	notifications := notifService.NewNotificationService(store.Notifications(), nil)
	h := NewReviewHandler(review.NewReviewService(store.Reviews(), store.Ads(), store.Users(), notifications))

	r := gin.New()
	r.GET("/ads/:id/reviews", h.GetReviews)
	r.POST("/ads/:id/reviews", func(c *gin.Context) {
		c.Set(response.ContextUserID, buyer.ID.String())
		c.Next()
	}, h.AddReview)
	return r, ad.ID
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAddReviewOutOfScaleRating(t *testing.T) {
	r, adID := newRouter(t)
	path := "/ads/" + adID.String() + "/reviews"

	rec := do(r, http.MethodPost, path, `{"rating":7,"comment":"great"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}
	var created dto.ReviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Rating != 7 || created.AuthorName != "buyer" {
		t.Fatalf("got %+v", created)
	}

	rec = do(r, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}
	var list []dto.ReviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Rating != 7 {
		t.Fatalf("got %+v", list)
	}
}

func TestAddReviewZeroRating(t *testing.T) {
	r, adID := newRouter(t)

	if rec := do(r, http.MethodPost, "/ads/"+adID.String()+"/reviews", `{"comment":"no stars"}`); rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}
}

func TestAddReviewBadAdID(t *testing.T) {
	r, _ := newRouter(t)

	if rec := do(r, http.MethodPost, "/ads/not-a-uuid/reviews", `{"rating":3}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
}
