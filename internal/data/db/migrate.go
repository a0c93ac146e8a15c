package db

import (
	"gorm.io/gorm"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
)

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.Course{},
		&domain.CourseFile{},
	)
}
