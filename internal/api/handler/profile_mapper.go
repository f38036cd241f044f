package handler

import (
	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

const dateLayout = "2006-01-02"

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Country:   u.Country,
		UserType:  u.UserType.String(),
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
	if u.BirthDate != nil {
		d := u.BirthDate.Format(dateLayout)
		resp.BirthDate = &d
	}
	return resp
}

func toRoleResponses(roles []domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{Code: r.Code.String(), Name: r.Name})
	}
	return out
}

func toProfileResponse(p *ports.Profile) profileResponse {
	resp := profileResponse{
		User:      toUserResponse(p.User),
		Roles:     toRoleResponses(p.Roles),
		Companies: make([]membershipResponse, 0, len(p.Companies)),
	}
	for _, m := range p.Companies {
		resp.Companies = append(resp.Companies, membershipResponse{
			ID:    m.Company.ID,
			Name:  m.Company.Name,
			Roles: toRoleResponses(m.Roles),
		})
	}
	return resp
}

// --- Request → Service input ---

func toProfileInput(req updateProfileRequest) ports.ProfileInput {
	return ports.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		BirthDate: req.BirthDate,
	}
}
