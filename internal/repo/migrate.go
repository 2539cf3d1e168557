package repo

import (
	"gorm.io/gorm"

	"powerfolio/internal/domain"
)

// Migrate 建表；users 以带密码列的完整结构迁移
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.UserWithSecret{}, &domain.Project{})
}
