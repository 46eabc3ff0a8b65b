// internals/databases/database.go
package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"policyhub_backend/internals/configs"
	"policyhub_backend/internals/constants"
	categoryModel "policyhub_backend/internals/features/policies/categories/model"
	policyModel "policyhub_backend/internals/features/policies/policies/model"
	typeModel "policyhub_backend/internals/features/policies/policy_types/model"
	userModel "policyhub_backend/internals/features/users/user/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	sslmode := configs.GetEnv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=policyhub&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
		// PgBouncer transaction pooling friendly
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Migrate creates/updates the schema for every registered model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel.UserModel{},
		&categoryModel.CategoryModel{},
		&typeModel.PolicyTypeModel{},
		&policyModel.PolicyModel{},
		&policyModel.PolicyVersionModel{},
		&policyModel.PolicyNumberSequenceModel{},
	)
}

// SeedDefaults inserts the bootstrap admin account and a starter category so a
// fresh install is usable immediately. Safe to run repeatedly.
func SeedDefaults(db *gorm.DB) error {
	var adminCount int64
	if err := db.Model(&userModel.UserModel{}).
		Where("role = ?", constants.RoleAdmin).
		Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount == 0 {
		password := configs.GetEnv("SEED_ADMIN_PASSWORD", "admin123")
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := userModel.UserModel{
			Username:     configs.GetEnv("SEED_ADMIN_USERNAME", "admin"),
			Email:        configs.GetEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			FullName:     "System Administrator",
			PasswordHash: string(hash),
			Role:         constants.RoleAdmin,
			IsApproved:   true,
			IsActive:     true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		log.Printf("✅ Seeded default admin %q", admin.Username)
	}

	var categoryCount int64
	if err := db.Model(&categoryModel.CategoryModel{}).Count(&categoryCount).Error; err != nil {
		return err
	}
	if categoryCount == 0 {
		desc := "General operational policies"
		starter := categoryModel.CategoryModel{
			CategoryName:        "Operations",
			CategoryCode:        "OPS",
			CategoryDescription: &desc,
		}
		if err := db.Create(&starter).Error; err != nil {
			return err
		}
		log.Println("✅ Seeded starter category OPS")
	}

	return nil
}
