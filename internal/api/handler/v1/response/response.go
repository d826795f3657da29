package response

import (
	"github.com/Injamhossan/contest-arena/internal/domain"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// ContestResponse adds the advisory availability to a contest. Clients
// must not treat it as a guarantee that registration will succeed.
type ContestResponse struct {
	domain.Contest

	Availability domain.Availability `json:"availability"`
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
