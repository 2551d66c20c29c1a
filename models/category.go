package models

// Category represents a product category.
// A category owns zero or more products through Product.CategoryID.
type Category struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:15;not null;index"`
	Description string    `gorm:"type:text"`
	Products    []Product `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}
