package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"adminpanel/internal/model"
	"adminpanel/internal/repository"
	"adminpanel/internal/validation"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	List(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
}

// UserInput is the validation schema shared by create and update. Password is
// only required on create; on update an empty password keeps the stored hash.
type UserInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

// UserPatch carries an update request; nil fields were not supplied.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// UserView is the projection returned to callers. It has no credential field.
type UserView struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const maxPasswordBytes = 72

type UserService struct {
	repo      UserStore
	validator *validation.Validator
	perPage   int
	hashCost  int
}

func NewUserService(repo UserStore, validator *validation.Validator, perPage int) *UserService {
	if perPage <= 0 {
		perPage = 10
	}
	return &UserService{
		repo:      repo,
		validator: validator,
		perPage:   perPage,
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *UserService) List(ctx context.Context, page int) (*Page[UserView], error) {
	page, offset := pageOffset(page, s.perPage)
	users, total, err := s.repo.List(ctx, offset, s.perPage)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	return newPage(views, page, s.perPage, total), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toUserView(user)
	return &view, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*UserView, error) {
	input = normalizeUserInput(input)

	errs := s.validator.Struct(input)
	if input.Password == "" {
		errs.Add("password", s.validator.Message("required", "password"))
	}
	s.checkPasswordBytes(input.Password, errs)
	if err := s.checkEmailUnique(ctx, input.Email, 0, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, s.emailTakenError()
		}
		return nil, err
	}

	view := toUserView(user)
	return &view, nil
}

func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) (*UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	input := UserInput{Name: user.Name, Email: user.Email}
	if patch.Name != nil {
		input.Name = *patch.Name
	}
	if patch.Email != nil {
		input.Email = *patch.Email
	}
	if patch.Password != nil {
		input.Password = *patch.Password
	}
	input = normalizeUserInput(input)

	errs := s.validator.Struct(input)
	s.checkPasswordBytes(input.Password, errs)
	if err := s.checkEmailUnique(ctx, input.Email, user.ID, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.Email = input.Email
	if input.Password != "" {
		hash, err := s.hash(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEntry):
			return nil, s.emailTakenError()
		default:
			return nil, err
		}
	}

	return s.Get(ctx, user.ID)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrUserNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// checkEmailUnique only queries the store when the email passed its format rules.
func (s *UserService) checkEmailUnique(ctx context.Context, email string, excludeID uint, errs validation.Errors) error {
	if _, failed := errs["email"]; failed {
		return nil
	}
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("email", s.validator.Message("unique", "email"))
	}
	return nil
}

func (s *UserService) emailTakenError() error {
	return validation.Errors{"email": s.validator.Message("unique", "email")}
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	return input
}

// checkPasswordBytes caps the password at what bcrypt can hash; max counts
// characters, bcrypt counts bytes.
func (s *UserService) checkPasswordBytes(password string, errs validation.Errors) {
	if _, failed := errs["password"]; failed {
		return
	}
	if len(password) > maxPasswordBytes {
		errs.Add("password", s.validator.Message("max", "password", strconv.Itoa(maxPasswordBytes)))
	}
}

func toUserView(user *model.User) UserView {
	return UserView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
