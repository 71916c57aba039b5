package model

import "time"

// Role 是对话消息的作者，持久化时只允许 user 和 assistant。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Persistable 报告该角色能否写入 messages 表。
func (r Role) Persistable() bool {
	return r == RoleUser || r == RoleAssistant
}

// Chat 对应 chats 表。Title 在首轮对话后由 ChatService 派生，之前为 NULL。
type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     *string   `gorm:"type:varchar(255)" json:"title"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_chats_user_id" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Chat) TableName() string {
	return "chats"
}

// Message 对应 messages 表，是只追加的对话记录。
// 排序以 created_at 为准，同一时刻按自增 ID（即插入顺序）排序。
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);not null;index:idx_messages_chat_id" json:"chatId"`
	Chat      *Chat     `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	CreatedAt time.Time `gorm:"type:datetime(6);autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

// ChatWithMessages 是会话详情接口的返回结构。
type ChatWithMessages struct {
	Chat
	Messages []Message `json:"messages"`
}
