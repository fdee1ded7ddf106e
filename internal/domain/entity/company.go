package entity

import "time"

// Company owns users, approval rules and expenses. All amounts on an
// expense are converted into the company currency before rule matching.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
