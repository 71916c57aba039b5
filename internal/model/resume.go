package model

import "time"

// Resume 对应 resumes 表，记录一份上传到对象存储的简历。
// 归属以对象存储上的 userid 元数据为准，本表只是索引与解析结果的载体。
type Resume struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;index:idx_resumes_user_id" json:"userId"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"fileName"`
	StorageKey    string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"storageKey"`
	ContentType   string    `gorm:"type:varchar(255);not null" json:"contentType"`
	FileSize      int64     `gorm:"not null" json:"fileSize"`
	ParsedContent *string   `gorm:"type:longtext" json:"-"`
	Title         *string   `gorm:"type:varchar(255)" json:"title"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Resume) TableName() string {
	return "resumes"
}

// DocumentRef 描述对象存储中的一份文档，是上传与列表接口的返回结构。
type DocumentRef struct {
	ID             string            `json:"id,omitempty"`
	Pathname       string            `json:"pathname"`
	ContentType    string            `json:"contentType"`
	Size           int64             `json:"size"`
	UploadedAt     time.Time         `json:"uploadedAt"`
	CustomMetadata map[string]string `json:"customMetadata"`
}
