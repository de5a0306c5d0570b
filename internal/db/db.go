package db

import (
	"log"
	"os"
	"quill/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=quill port=5432 sslmode=disable TimeZone=UTC"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	// Seed initial categories and tags
	seed()
}

// Migrate creates or updates the schema. Split out of Init so test setups
// can run it against their own connection.
func Migrate(d *gorm.DB) error {
	return d.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Rating{},
		&models.Like{},
		&models.Token{},
	)
}

func seed() {
	// 检查是否已有分类数据
	var count int64
	DB.Model(&models.Category{}).Count(&count)
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return
	}

	categories := []models.Category{
		{Name: "Technology", Description: "Software, hardware and everything in between"},
		{Name: "Life", Description: "Daily life and personal stories"},
		{Name: "Showcase", Description: "Projects and work worth sharing"},
		{Name: "Random", Description: "Anything that fits nowhere else"},
	}
	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			log.Printf("Failed to create category %s: %v", category.Name, err)
		}
	}

	tags := []models.Tag{
		{Name: "go"}, {Name: "web"}, {Name: "tutorial"}, {Name: "opinion"},
	}
	for _, tag := range tags {
		if err := DB.Create(&tag).Error; err != nil {
			log.Printf("Failed to create tag %s: %v", tag.Name, err)
		}
	}
	log.Println("Initial categories and tags created successfully")
}
