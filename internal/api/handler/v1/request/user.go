package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	PhotoURL *string `json:"photo_url"`
	Address  *string `json:"address"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&req.PhotoURL, is.URL),
		validation.Field(&req.Address, validation.Length(0, 200)),
	)
}

func (req *UpdateProfileRequest) Profile() domain.UserProfile {
	return domain.UserProfile{
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Address:  req.Address,
	}
}

type RoleRequest struct {
	Role string `json:"role"`
}

func (req *RoleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Role, validation.Required,
			validation.In(string(domain.RoleUser), string(domain.RoleCreator), string(domain.RoleAdmin))),
	)
}
