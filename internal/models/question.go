package models

// Question is one row of the read-only question bank. The game server only
// queries it; authoring happens in a separate admin tool.
type Question struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	Answer   string `gorm:"type:text;not null" json:"answer"`
	Subject  string `gorm:"size:100;index" json:"subject"`
	Grade    int    `gorm:"index" json:"grade"`
	Language string `gorm:"size:10;index" json:"language"`
}
