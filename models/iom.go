package models

import "time"

// IOM is an inter-office memo tied to a complaint. Immutable once created;
// creating one also reassigns the complaint to the recipient.
type IOM struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"index;not null" json:"complaintId"`
	FromUserID  uint      `gorm:"index" json:"fromUserId"`
	ToUserID    uint      `gorm:"index" json:"toUserId"`
	Subject     string    `gorm:"size:512" json:"subject"`
	BodyHTML    string    `gorm:"type:text" json:"bodyHtml"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (IOM) TableName() string { return "complaint_ioms" }

// IOMAttachment is a file attached to a memo, owned exclusively by it.
type IOMAttachment struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	IOMID uint   `gorm:"column:iom_id;index;not null" json:"iomId"`
	Path  string `gorm:"size:512;not null" json:"path"`
}

func (IOMAttachment) TableName() string { return "complaint_iom_attachments" }
