package models

import "time"

// Disposal is the terminal decision record for a complaint. Multiple rows
// may accumulate; only the latest by creation time is ever surfaced.
// At least one of Note/FilePath is set.
type Disposal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"index;not null" json:"complaintId"`
	FilePath    string    `gorm:"size:512" json:"filePath"`
	Note        string    `gorm:"type:text" json:"note"`
	UserID      *uint     `gorm:"index" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Disposal) TableName() string { return "complaint_disposals" }
