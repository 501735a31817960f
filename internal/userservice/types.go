package userservice

import (
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

const (
	CollectionName = "users"
	EmailField     = "email"

	// RoleAdmin is the role code every new user receives.
	RoleAdmin = 548
)

type Roles struct {
	Admin int `bson:"admin" json:"admin"`
}

// User is an account of the site's administration. The password hash and the refresh token
// are persisted but never rendered.
type User struct {
	docstore.Meta `bson:",inline"`
	Username      string `bson:"username" json:"username"`
	Email         string `bson:"email" json:"email"`
	Password      string `bson:"password" json:"-"`
	Roles         Roles  `bson:"roles" json:"roles"`
	RefreshToken  string `bson:"refreshToken,omitempty" json:"-"`
}

type UserService struct {
	s      *entity.Service[User, *User]
	mb     common.MessageProducer
	logger UserLogger
}

type UserLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	ID       string  `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type ChangePasswordRequest struct {
	ID          string `json:"id"`
	CurrentPass string `json:"currentPass"`
	NewPass     string `json:"newPass"`
}

// userCreated is the body of the user.created event.
type userCreated struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
