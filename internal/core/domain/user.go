package domain

import "time"

type User struct {
	ID           string    `json:"user_id"`
	Name         string    `json:"user_name"`
	Email        string    `json:"user_email"`
	PasswordHash string    `json:"-"`
	PhoneNo      string    `json:"phone_no"`
	BloodGroup   string    `json:"blood_group"`
	Sex          string    `json:"sex"`
	CreatedAt    time.Time `json:"created_at"`
}

type SignupRequest struct {
	Name       string `json:"user_name"`
	Email      string `json:"user_email"`
	Password   string `json:"password"`
	PhoneNo    string `json:"phone_no"`
	BloodGroup string `json:"blood_group"`
	Sex        string `json:"sex"`
}

type Credentials struct {
	Email    string `json:"user_email"`
	Password string `json:"password"`
}

// Session is issued on signup and login.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
