// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应 users 表。用户在外部登录服务首次成功登录时创建，本服务只读取。
type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email      string    `gorm:"type:varchar(255);not null" json:"email"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Avatar     string    `gorm:"type:varchar(512);not null" json:"avatar"`
	Username   string    `gorm:"type:varchar(255);not null" json:"username"`
	Provider   string    `gorm:"type:varchar(32);not null;uniqueIndex:uk_provider_identity" json:"provider"`
	ProviderID int64     `gorm:"not null;uniqueIndex:uk_provider_identity" json:"providerId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
