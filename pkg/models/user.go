package models

// UserProfile represents the learner using the app
type UserProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Avatar     string   `json:"avatar"`
	IsLoggedIn bool     `json:"isLoggedIn"`
	Medals     []string `json:"medals"`
}
