package model

// User 身份服务用户在本地的镜像，由 webhook 维护。
// 以身份服务的用户 ID 为业务主键，用户删除时物理删除。
type User struct {
	BaseModel
	ProviderUserID string `gorm:"uniqueIndex;type:varchar(64);not null" json:"provider_user_id"`
	Email          string `gorm:"type:varchar(320);not null;default:''" json:"email"`
	FirstName      string `gorm:"type:varchar(128);not null;default:''" json:"first_name"`
	LastName       string `gorm:"type:varchar(128);not null;default:''" json:"last_name"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
