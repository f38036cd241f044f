package handler

import "time"

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Country   *string `json:"country"`
	BirthDate *string `json:"birth_date" example:"1990-04-21"`
}

type roleResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Country   *string   `json:"country"`
	BirthDate *string   `json:"birth_date"`
	UserType  string    `json:"user_type"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

type membershipResponse struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Roles []roleResponse `json:"roles"`
}

type profileResponse struct {
	User      userResponse         `json:"user"`
	Roles     []roleResponse       `json:"roles"`
	Companies []membershipResponse `json:"companies"`
}
