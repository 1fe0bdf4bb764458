package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func byUser(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) }
}

func allRows(db *gorm.DB) *gorm.DB { return db }
