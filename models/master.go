package models

// Master-list items referenced by complaints. Deleting a referenced item
// leaves a dangling id on the complaint; that is accepted behaviour and
// resolved at read time. Names are intentionally not unique.

// Category is a complaint category (e.g. billing, supply).
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

// Company is a regulated company a complaint can be filed against.
type Company struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

// ComplaintType is a complaint type master entry.
type ComplaintType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (ComplaintType) TableName() string { return "types" }

// Fixed status enumeration, seeded once at startup.
const (
	StatusPending    uint = 1
	StatusInProgress uint = 2
	StatusClosed     uint = 3
)

// Status is one of the three fixed lifecycle states.
type Status struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null" json:"name"`
}
