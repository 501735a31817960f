package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/entity"
)

var ErrPasswordMismatch = errors.New("current password does not match")

var Kind = entity.Kind[User]{
	Name:            "user",
	Label:           "User",
	UniqueField:     EmailField,
	UniqueKey:       func(u *User) string { return u.Email },
	ConflictMessage: "Email already exists. Use another email",
}

// NewUserService builds the user service. mb may be nil, in which case no user.created events
// are published. Users own no images, so assets may be nil as well.
func NewUserService(c docstore.Collection[User], assets asset.Store, mb common.MessageProducer, logger *slog.Logger) *UserService {
	return &UserService{
		s:      entity.NewService[User](Kind, c, assets, asset.DirectReleaser{Store: assets}, logger),
		mb:     mb,
		logger: logger,
	}
}

func (r CreateUserRequest) Required() map[string]any {
	return map[string]any{
		"username": r.Username,
		"email":    r.Email,
		"password": r.Password,
	}
}

func (r CreateUserRequest) Build() (User, error) {
	email := normalizeEmail(r.Email)

	v := common.NewValidator()
	validateUsername(v, r.Username)
	validateEmail(v, email)
	validatePassword(v, "password", r.Password)
	if !v.Valid() {
		return User{}, v.ValidationError()
	}

	hash, err := hashPassword(r.Password)
	if err != nil {
		return User{}, err
	}

	return User{
		Username: r.Username,
		Email:    email,
		Password: hash,
		Roles:    Roles{Admin: RoleAdmin},
	}, nil
}

func (r CreateUserRequest) ImagePayload() string {
	return ""
}

func (r UpdateUserRequest) Apply(old User) (User, error) {
	u := old
	v := common.NewValidator()

	if r.Username != nil {
		validateUsername(v, *r.Username)
		u.Username = *r.Username
	}

	if r.Email != nil {
		u.Email = normalizeEmail(*r.Email)
		validateEmail(v, u.Email)
	}

	if !v.Valid() {
		return User{}, v.ValidationError()
	}

	return u, nil
}

func (r UpdateUserRequest) ImagePayload() string {
	return ""
}

// passwordChange swaps the password hash once the current password has been verified.
type passwordChange struct {
	current string
	next    string
}

func (p passwordChange) Apply(old User) (User, error) {
	ok, err := comparePassword(old.Password, p.current)
	if err != nil {
		return User{}, err
	}

	if !ok {
		return User{}, ErrPasswordMismatch
	}

	hash, err := hashPassword(p.next)
	if err != nil {
		return User{}, err
	}

	u := old
	u.Password = hash

	return u, nil
}

func (p passwordChange) ImagePayload() string {
	return ""
}

// CreateUser creates a new user account and publishes a user.created event.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (User, error) {
	u, err := s.s.Create(ctx, *req)
	if err != nil {
		return User{}, err
	}

	if s.mb != nil {
		s.publishCreated(ctx, u)
	}

	return u, nil
}

func (s *UserService) publishCreated(ctx context.Context, u User) {
	data, err := json.Marshal(userCreated{Username: u.Username, Email: u.Email})
	if err != nil {
		s.logger.Error("could not marshal user.created event", slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, data, common.UserCreatedKey, common.ContentExchange); err != nil {
		s.logger.Error("could not publish user.created event", slog.String("email", u.Email), slog.String("error", err.Error()))
	}
}

func (s *UserService) UpdateUser(ctx context.Context, req *UpdateUserRequest) (User, error) {
	return s.s.Update(ctx, req.ID, *req)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	v := common.NewValidator()
	v.Require(map[string]any{
		"id":          req.ID,
		"currentPass": req.CurrentPass,
		"newPass":     req.NewPass,
	})
	if v.Valid() {
		validatePassword(v, "newPass", req.NewPass)
	}
	if !v.Valid() {
		return v.ValidationError()
	}

	_, err := s.s.Update(ctx, req.ID, passwordChange{current: req.CurrentPass, next: req.NewPass})
	return err
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.s.Delete(ctx, id)
}

func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	return s.s.GetByID(ctx, id)
}

func (s *UserService) GetUsers(ctx context.Context, page, limit int) (entity.Page[User], error) {
	return s.s.List(ctx, page, limit)
}
