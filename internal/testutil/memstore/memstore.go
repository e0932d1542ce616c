// Package memstore keeps every repository in process memory for service
// tests. It reports missing rows and unique violations with the same gorm
// sentinels the postgres-backed repositories surface.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	categoryRepo "github.com/IMRiesen/avitolike/internal/modules/category/repository"
	favoriteRepo "github.com/IMRiesen/avitolike/internal/modules/favorite/repository"
	notifRepo "github.com/IMRiesen/avitolike/internal/modules/notification/repository"
	reviewRepo "github.com/IMRiesen/avitolike/internal/modules/review/repository"
	userRepo "github.com/IMRiesen/avitolike/internal/modules/user/repository"
	viewRepo "github.com/IMRiesen/avitolike/internal/modules/view/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type favoriteKey struct {
	userID uuid.UUID
	adID   uuid.UUID
}

type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*entity.User
	userRoles     map[uuid.UUID][]string
	settings      map[uuid.UUID]*entity.UserSetting
	categories    map[uuid.UUID]*entity.Category
	ads           map[uuid.UUID]*entity.Ad
	favorites     map[favoriteKey]*entity.Favorite
	reviews       []*entity.Review
	notifications []*entity.Notification
	views         []*entity.ViewHistory

	clock time.Time

	// NotificationErr, when set, is returned by every notification write.
	NotificationErr error
}

func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*entity.User),
		userRoles:  make(map[uuid.UUID][]string),
		settings:   make(map[uuid.UUID]*entity.UserSetting),
		categories: make(map[uuid.UUID]*entity.Category),
		ads:        make(map[uuid.UUID]*entity.Ad),
		favorites:  make(map[favoriteKey]*entity.Favorite),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so "newest first" is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() userRepo.UserRepository { return userStore{s} }
func (s *Store) Categories() categoryRepo.CategoryRepository { return categoryStore{s} }
func (s *Store) Ads() adRepo.AdRepository { return adStore{s} }
func (s *Store) Favorites() favoriteRepo.FavoriteRepository { return favoriteStore{s} }
func (s *Store) Reviews() reviewRepo.ReviewRepository { return reviewStore{s} }
func (s *Store) Notifications() notifRepo.NotificationRepository { return notificationStore{s} }
func (s *Store) Views() viewRepo.ViewRepository { return viewStore{s} }

// GrantRole adds a role to an existing user.
func (s *Store) GrantRole(userID uuid.UUID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userRoles[userID] = append(s.userRoles[userID], role)
}

// SetActive flips the account's active flag.
func (s *Store) SetActive(userID uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.IsActive = active
	}
}

// SetAdStatus changes an ad's status without going through the service.
func (s *Store) SetAdStatus(adID uuid.UUID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.ads[adID]; ok {
		a.Status = status
	}
}

func (s *Store) User(id uuid.UUID) (entity.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return entity.User{}, false
	}
	return *u, true
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) Ad(id uuid.UUID) (entity.Ad, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ads[id]
	if !ok {
		return entity.Ad{}, false
	}
	return *s.cloneAd(a), true
}

func (s *Store) FavoriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.favorites)
}

func (s *Store) ReviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}

// NotificationsFor returns every stored notification addressed to userID in
// insertion order.
func (s *Store) NotificationsFor(userID uuid.UUID) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

func (s *Store) ViewHistory() []entity.ViewHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ViewHistory, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, *v)
	}
	return out
}

// cloneAd copies the ad with its preloaded relations the way a fresh query would.
func (s *Store) cloneAd(a *entity.Ad) *entity.Ad {
	c := *a
	c.Images = slices.Clone(a.Images)
	c.Category = entity.Category{}
	if cat, ok := s.categories[a.CategoryID]; ok {
		c.Category = *cat
	}
	c.User = entity.User{}
	if u, ok := s.users[a.UserID]; ok {
		c.User = *u
	}
	return &c
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// users

type userStore struct{ s *Store }

func (r userStore) Create(ctx context.Context, user *entity.User, roleName string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}

	if user.ID == uuid.Nil {
		user.ID = newID()
	}
	user.CreatedAt = s.tick()

	stored := *user
	stored.Roles = nil
	stored.Setting = nil
	s.users[user.ID] = &stored
	s.userRoles[user.ID] = []string{roleName}
	s.settings[user.ID] = entity.DefaultSetting(user.ID)
	return nil
}

func (r userStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	for _, name := range s.userRoles[id] {
		c.Roles = append(c.Roles, entity.Role{Name: name})
	}
	return &c, nil
}

func (r userStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r userStore) RoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.userRoles[userID]), nil
}

func (r userStore) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r userStore) FindSetting(ctx context.Context, userID uuid.UUID) (*entity.UserSetting, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.settings[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *setting
	return &c, nil
}

func (r userStore) SaveSetting(ctx context.Context, setting *entity.UserSetting) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *setting
	c.UpdatedAt = s.tick()
	s.settings[setting.UserID] = &c
	return nil
}

// categories

type categoryStore struct{ s *Store }

func (r categoryStore) Create(ctx context.Context, category *entity.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if category.ID == uuid.Nil {
		category.ID = newID()
	}
	category.CreatedAt = s.tick()
	c := *category
	s.categories[c.ID] = &c
	return nil
}

func (r categoryStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r categoryStore) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r categoryStore) FindAll(ctx context.Context) ([]*entity.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryStore) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r categoryStore) CountAds(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.ads {
		if a.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (r categoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	return nil
}

// ads

type adStore struct{ s *Store }

func (r adStore) Create(ctx context.Context, ad *entity.Ad) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[ad.CategoryID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if ad.ID == uuid.Nil {
		ad.ID = newID()
	}
	now := s.tick()
	ad.CreatedAt, ad.UpdatedAt = now, now
	if ad.Status == "" {
		ad.Status = entity.AdStatusActive
	}
	for i := range ad.Images {
		if ad.Images[i].ID == uuid.Nil {
			ad.Images[i].ID = newID()
		}
		ad.Images[i].AdID = ad.ID
		ad.Images[i].UploadedAt = now
	}

	stored := *ad
	stored.Images = slices.Clone(ad.Images)
	stored.Category = entity.Category{}
	stored.User = entity.User{}
	s.ads[ad.ID] = &stored
	return nil
}

func (r adStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ad, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cloneAd(a), nil
}

// sortedAds returns clones ordered newest first.
func (s *Store) sortedAds(keep func(*entity.Ad) bool) []*entity.Ad {
	var out []*entity.Ad
	for _, a := range s.ads {
		if keep(a) {
			out = append(out, s.cloneAd(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r adStore) FindAll(ctx context.Context, filter adRepo.Filter) ([]*entity.Ad, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(filter.Search)
	matched := s.sortedAds(func(a *entity.Ad) bool {
		if a.Status != entity.AdStatusActive {
			return false
		}
		if filter.Category != "" {
			cat, ok := s.categories[a.CategoryID]
			if !ok || cat.Name != filter.Category {
				return false
			}
		}
		if needle != "" {
			return strings.Contains(strings.ToLower(a.Title), needle) ||
				strings.Contains(strings.ToLower(a.Description), needle) ||
				strings.Contains(strings.ToLower(a.Location), needle)
		}
		return true
	})

	total := int64(len(matched))
	offset := filter.Offset()
	if offset >= len(matched) {
		return []*entity.Ad{}, total, nil
	}
	end := len(matched)
	if filter.PageSize > 0 && offset+filter.PageSize < end {
		end = offset + filter.PageSize
	}
	return matched[offset:end], total, nil
}

func (r adStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Ad, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Ad, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.ads[id]; ok && a.Status == entity.AdStatusActive {
			out = append(out, s.cloneAd(a))
		}
	}
	return out, nil
}

func (r adStore) FindRelevant(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]*entity.Ad, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sortedAds(func(a *entity.Ad) bool {
		return a.CategoryID == categoryID && a.ID != excludeID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r adStore) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedAds(func(a *entity.Ad) bool {
		return a.UserID == userID && a.Status == entity.AdStatusActive
	}), nil
}

func (r adStore) Update(ctx context.Context, ad *entity.Ad) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.ads[ad.ID]
	if !ok {
		return nil
	}
	stored.Title = ad.Title
	stored.Description = ad.Description
	stored.Price = ad.Price
	stored.CategoryID = ad.CategoryID
	stored.Location = ad.Location
	stored.ImageURL = ad.ImageURL
	stored.UpdatedAt = s.tick()
	for i := range stored.Images {
		if stored.Images[i].IsMain {
			stored.Images[i].URL = ad.ImageURL
		}
	}
	return nil
}

func (r adStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.ads[id]; ok {
		a.ViewsCount++
	}
	return nil
}

func (r adStore) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.favorites {
		if k.adID == id {
			delete(s.favorites, k)
		}
	}
	s.reviews = slices.DeleteFunc(s.reviews, func(rv *entity.Review) bool {
		return rv.AdID != nil && *rv.AdID == id
	})
	delete(s.ads, id)
	return nil
}

// favorites

type favoriteStore struct{ s *Store }

func (r favoriteStore) Create(ctx context.Context, favorite *entity.Favorite) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{favorite.UserID, favorite.AdID}
	if _, ok := s.favorites[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if _, ok := s.ads[favorite.AdID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	favorite.AddedAt = s.tick()
	c := *favorite
	s.favorites[key] = &c
	return nil
}

func (r favoriteStore) Delete(ctx context.Context, userID, adID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{userID, adID}
	if _, ok := s.favorites[key]; !ok {
		return 0, nil
	}
	delete(s.favorites, key)
	return 1, nil
}

func (r favoriteStore) Exists(ctx context.Context, userID, adID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[favoriteKey{userID, adID}]
	return ok, nil
}

func (r favoriteStore) FavoritedAmong(ctx context.Context, userID uuid.UUID, adIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(adIDs))
	for _, id := range adIDs {
		if _, ok := s.favorites[favoriteKey{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r favoriteStore) UserIDsByAd(ctx context.Context, adID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for k := range s.favorites {
		if k.adID == adID {
			out = append(out, k.userID)
		}
	}
	return out, nil
}

func (r favoriteStore) FindActiveAds(ctx context.Context, userID uuid.UUID) ([]*entity.Ad, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []*entity.Favorite
	for k, f := range s.favorites {
		if k.userID == userID {
			favs = append(favs, f)
		}
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].AddedAt.After(favs[j].AddedAt) })

	out := make([]*entity.Ad, 0, len(favs))
	for _, f := range favs {
		if a, ok := s.ads[f.AdID]; ok && a.Status == entity.AdStatusActive {
			out = append(out, s.cloneAd(a))
		}
	}
	return out, nil
}

// reviews

type reviewStore struct{ s *Store }

func (r reviewStore) Create(ctx context.Context, review *entity.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.AuthorID == review.AuthorID && rv.AdID != nil && review.AdID != nil && *rv.AdID == *review.AdID {
			return gorm.ErrDuplicatedKey
		}
	}
	if review.ID == uuid.Nil {
		review.ID = newID()
	}
	review.CreatedAt = s.tick()
	c := *review
	c.Author = entity.User{}
	s.reviews = append(s.reviews, &c)
	return nil
}

func (r reviewStore) Exists(ctx context.Context, authorID, adID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.AuthorID == authorID && rv.AdID != nil && *rv.AdID == adID {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewStore) FindByAdID(ctx context.Context, adID uuid.UUID) ([]*entity.Review, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Review
	for _, rv := range s.reviews {
		if rv.AdID != nil && *rv.AdID == adID {
			c := *rv
			if u, ok := s.users[rv.AuthorID]; ok {
				c.Author = entity.User{ID: u.ID, Username: u.Username}
			}
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// notifications

type notificationStore struct{ s *Store }

func (r notificationStore) insert(n *entity.Notification) {
	if n.ID == uuid.Nil {
		n.ID = newID()
	}
	n.CreatedAt = r.s.tick()
	c := *n
	r.s.notifications = append(r.s.notifications, &c)
}

func (r notificationStore) Create(ctx context.Context, notification *entity.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotificationErr != nil {
		return s.NotificationErr
	}
	r.insert(notification)
	return nil
}

func (r notificationStore) CreateBatch(ctx context.Context, notifications []*entity.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotificationErr != nil {
		return s.NotificationErr
	}
	for _, n := range notifications {
		r.insert(n)
	}
	return nil
}

func (r notificationStore) FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r notificationStore) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r notificationStore) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r notificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// views

type viewStore struct{ s *Store }

func (r viewStore) Create(ctx context.Context, view *entity.ViewHistory) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if view.ID == uuid.Nil {
		view.ID = newID()
	}
	c := *view
	s.views = append(s.views, &c)
	return nil
}

func (r viewStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.views)
	s.views = slices.DeleteFunc(s.views, func(v *entity.ViewHistory) bool {
		return v.ViewedAt.Before(cutoff)
	})
	return int64(before - len(s.views)), nil
}
