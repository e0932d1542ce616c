package bootstrap

import (
	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entity.User{}, "Roles", &entity.UserRole{}); err != nil {
		return err
	}

	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.UserRole{},
		&entity.UserSetting{},
		&entity.Category{},
		&entity.Ad{},
		&entity.AdImage{},
		&entity.Favorite{},
		&entity.Review{},
		&entity.Notification{},
		&entity.ViewHistory{},
	)
}

func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{entity.RoleAdmin, entity.RoleUser, entity.RoleModerator} {
		role := entity.Role{Name: name}
		if err := db.Where(entity.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

type seedCategory struct {
	name     string
	icon     string
	children []string
}

var defaultCategories = []seedCategory{
	{name: "Transport", icon: "🚗", children: []string{"Cars", "Bikes", "Spare parts"}},
	{name: "Real estate", icon: "🏠", children: []string{"Apartments", "Houses", "Rooms"}},
	{name: "Electronics", icon: "📱", children: []string{"Phones", "Computers", "Audio"}},
	{name: "Home and garden", icon: "🪴", children: []string{"Furniture", "Appliances"}},
	{name: "Services", icon: "🛠️"},
}

// SeedCategories inserts the default category tree when the table is empty.
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, sc := range defaultCategories {
			parent := entity.Category{Name: sc.name, Icon: sc.icon}
			if err := tx.Create(&parent).Error; err != nil {
				return err
			}
			for _, child := range sc.children {
				if err := tx.Create(&entity.Category{Name: child, ParentID: &parent.ID}).Error; err != nil {
					return err
				}
			}
		}
		logrus.WithField("count", len(defaultCategories)).Info("default categories seeded")
		return nil
	})
}

// Run migrates the schema and seeds reference data.
func Run(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := SeedRoles(db); err != nil {
		return err
	}
	return SeedCategories(db)
}
