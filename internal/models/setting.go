package models

import "gorm.io/gorm"

// Setting is one opaque key/value row of the persistent settings store.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}
