package domain

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCreator, RoleAdmin:
		return true
	}

	return false
}

type User struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	PhotoURL   string    `json:"photo_url"`
	Address    string    `json:"address"`
	RoleChosen bool      `json:"role_chosen"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserProfile holds the fields a user may change on their own account.
// Nil fields are left untouched.
type UserProfile struct {
	Name     *string
	PhotoURL *string
	Address  *string
}

func (u *User) ApplyProfile(p UserProfile) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}

// ChooseRole applies the one-time role choice made after signup.
func (u *User) ChooseRole(role Role) error {
	if u.RoleChosen {
		return ErrRoleAlreadyChosen
	}
	if role != RoleUser && role != RoleCreator {
		return ErrForbidden
	}

	u.Role = role
	u.RoleChosen = true

	return nil
}

type UserStats struct {
	UserID       uint    `json:"user_id"`
	Participated int64   `json:"participated"`
	Won          int64   `json:"won"`
	WinRate      float64 `json:"win_rate"`
}

func NewUserStats(userID uint, participated, won int64) UserStats {
	stats := UserStats{UserID: userID, Participated: participated, Won: won}
	if participated > 0 {
		stats.WinRate = float64(won) / float64(participated)
	}

	return stats
}

type LeaderboardEntry struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
	Wins     int64  `json:"wins"`
}
