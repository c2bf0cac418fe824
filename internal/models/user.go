package models

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleUser    Role = "user"
)

// User is the surrounding application's account row. Messaging only reads it
// to show who a counterpart is; messages keep no foreign key to it so history
// survives account removal.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName    string `gorm:"size:100" json:"firstName"`
	LastName     string `gorm:"size:100" json:"lastName"`
	Role         Role   `gorm:"size:20;default:'user'" json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}
