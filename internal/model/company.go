// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Company 定义了 companies 表的 ORM 模型。代表一家已投资的组合公司。
type Company struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"userId"`
	Name       string     `gorm:"type:varchar(128);not null" json:"name"`
	Sector     string     `gorm:"type:varchar(64)" json:"sector"`
	Website    string     `gorm:"type:varchar(255)" json:"website"`
	Notes      string     `gorm:"type:text" json:"notes"`
	InvestedAt *time.Time `gorm:"default:null" json:"investedAt"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Company) TableName() string {
	return "companies"
}
