package models

import "time"

// Complaint is the central case record. Created by public submission, never
// deleted. Master-list references are nullable ids; AssignedTo is a weak
// reference to a staff user.
type Complaint struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TrackingID string    `gorm:"size:64;not null;uniqueIndex" json:"trackingId"`
	FirstName  string    `gorm:"size:255" json:"firstName"`
	LastName   string    `gorm:"size:255" json:"lastName"`
	CNIC       string    `gorm:"column:cnic;size:64" json:"cnic"`
	Email      string    `gorm:"size:255" json:"email"`
	Address    string    `gorm:"size:512" json:"address"`
	ConsumerNo string    `gorm:"size:64" json:"consumerNo"`
	Complaint  string    `gorm:"type:text" json:"complaint"`
	CategoryID *uint     `gorm:"index" json:"categoryId"`
	CompanyID  *uint     `gorm:"index" json:"companyId"`
	TypeID     *uint     `gorm:"index" json:"typeId"`
	StatusID   uint      `gorm:"index;not null" json:"statusId"`
	AssignedTo *uint     `gorm:"index" json:"assignedTo"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Attachment is an uploaded file owned by its complaint. Created only at
// submission, immutable afterwards. Path is the public serving path;
// ThumbPath is a best-effort thumbnail for image attachments.
type Attachment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ComplaintID uint   `gorm:"index;not null" json:"complaintId"`
	Path        string `gorm:"size:512;not null" json:"path"`
	ThumbPath   string `gorm:"size:512" json:"thumbPath,omitempty"`
}

func (Attachment) TableName() string { return "complaint_attachments" }
