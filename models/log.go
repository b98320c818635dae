package models

import (
	"strings"
	"time"
)

// Log visibility. Historically visibility was a "[PUBLIC] "/"[INTERNAL] "
// prefix inside the comment text; it is now a typed column. SYSTEM marks
// rows generated by lifecycle operations rather than staff remarks.
const (
	VisibilityPublic   = "PUBLIC"
	VisibilityInternal = "INTERNAL"
	VisibilitySystem   = "SYSTEM"
)

// ComplaintLog is an append-only audit entry. UserID nil means
// system-generated. Rows are never mutated or deleted.
type ComplaintLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"index;not null" json:"complaintId"`
	UserID      *uint     `gorm:"index" json:"userId"`
	Comments    string    `gorm:"type:text" json:"comments"`
	Visibility  string    `gorm:"size:16;index" json:"visibility"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (ComplaintLog) TableName() string { return "complaint_logs" }

// SplitVisibilityPrefix parses the legacy tag prefix out of a comment.
// "[INTERNAL] foo" yields (VisibilityInternal, "foo"); untagged text yields
// ("", text) unchanged so callers can apply their own default.
func SplitVisibilityPrefix(comments string) (visibility, text string) {
	for _, v := range []string{VisibilityPublic, VisibilityInternal} {
		prefix := "[" + v + "]"
		if strings.HasPrefix(comments, prefix) {
			return v, strings.TrimSpace(strings.TrimPrefix(comments, prefix))
		}
	}
	return "", comments
}

// Resolve returns the effective visibility and display text of the entry,
// falling back to the legacy prefix for historical rows where the
// visibility column is empty. Untagged rows are public.
func (l ComplaintLog) Resolve() (visibility, text string) {
	if l.Visibility != "" {
		return l.Visibility, l.Comments
	}
	visibility, text = SplitVisibilityPrefix(l.Comments)
	if visibility == "" {
		visibility = VisibilityPublic
	}
	return visibility, text
}
