// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Deal 的生命周期状态。
const (
	DealStatusInbox    = "inbox"    // 新收到的项目
	DealStatusReview   = "review"   // 正在尽调
	DealStatusInvested = "invested" // 已投资，转入组合
	DealStatusPassed   = "passed"   // 已放弃
)

// Deal 定义了 deals 表的 ORM 模型。代表一个进入漏斗的投资机会。
type Deal struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"userId"`
	CompanyName string     `gorm:"type:varchar(128);not null" json:"companyName"`
	Sector      string     `gorm:"type:varchar(64)" json:"sector"`
	Stage       string     `gorm:"type:varchar(32)" json:"stage"` // pre-seed / seed / series-a ...
	Status      string     `gorm:"type:varchar(16);not null;default:'inbox'" json:"status"`
	RoundSize   int64      `json:"roundSize"` // 本轮融资额，单位欧分
	Summary     string     `gorm:"type:text" json:"summary"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CompanyID   *string    `gorm:"type:varchar(36)" json:"companyId"` // 投资后关联的组合公司
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DecidedAt   *time.Time `gorm:"default:null" json:"decidedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Deal) TableName() string {
	return "deals"
}
