package handler

type createCompanyRequest struct {
	Name    string  `json:"name"    validate:"required"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Website *string `json:"website" validate:"omitempty,url"`
	Address *string `json:"address"`
}

type rolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

type userTypeRequest struct {
	UserType string `json:"user_type" validate:"required,oneof=regular enterprise"`
}

type userListItem struct {
	User  userResponse   `json:"user"`
	Roles []roleResponse `json:"roles"`
}
