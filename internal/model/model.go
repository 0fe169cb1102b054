package model

import (
	"gorm.io/gorm"
)

// LocalModels are the tables of the on-device cache database
func LocalModels() []interface{} {
	return []interface{}{&NoteCache{}, &FolderCache{}, &PendingOperation{}}
}

// RemoteModels are the tables of the hosted relational store
func RemoteModels() []interface{} {
	return []interface{}{&Note{}, &Folder{}}
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		return nil
	}
	return db.AutoMigrate(models...)
}
