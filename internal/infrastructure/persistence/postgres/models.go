package postgres

import "time"

// UserTableName é o nome fixo da tabela de usuários
const UserTableName = "user"

// UserModel é o model GORM para usuários
type UserModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	Password    string     `gorm:"type:varchar(128);not null"`
	LastLogin   *time.Time `gorm:"column:last_login"`
	IsSuperuser bool       `gorm:"not null"`
	Username    string     `gorm:"type:varchar(150);uniqueIndex;not null"`
	FirstName   string     `gorm:"type:varchar(150);not null"`
	LastName    string     `gorm:"type:varchar(150);not null"`
	Email       string     `gorm:"type:varchar(254);not null;index"`
	IsStaff     bool       `gorm:"not null;index"`
	IsActive    bool       `gorm:"not null;index"`
	DateJoined  time.Time  `gorm:"not null;index;autoCreateTime"`
	Image       *string    `gorm:"type:varchar(100)"` // nullable: user_image/<arquivo>
}

func (UserModel) TableName() string {
	return UserTableName
}
