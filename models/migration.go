package models

import (
	"github.com/svfabworks/factory_backend/config"
)

// MigrateTable creates or updates every table the service owns. Called once
// at startup after the database connection is established.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&StockItem{},
		&Group{},
		&Product{},
		&Transaction{},
		&PushRecord{},
		&UndoAction{},
		&User{},
		&Description{},
		&GrnRecord{},
		&CastingProduct{},
	)
}
