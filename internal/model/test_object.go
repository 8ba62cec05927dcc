package model

import "time"

// TestObject is the physical thing being measured during a session.
type TestObject struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Associations
	Labels []*Label `gorm:"many2many:test_object_labels;" json:"labels"`
}

// Label is a free-form tag attached to test objects.
type Label struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Color     string    `gorm:"size:16" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}
