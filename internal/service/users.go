package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"grove/internal/models"
	"grove/internal/repo"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,numeric,min=10,max=11"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserInput struct {
	Name  string `json:"name" validate:"required,min=3,max=50"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,numeric,min=10,max=11"`
}

type AddressInput struct {
	Name      string `json:"name" validate:"required"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country" validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

type PaymentMethodInput struct {
	Type           string `json:"type" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"required,numeric,min=12,max=19"`
	NameOnCard     string `json:"nameOnCard" validate:"required"`
	ExpirationDate string `json:"expirationDate" validate:"required"`
	IsDefault      bool   `json:"isDefault"`
}

// Profile is a user's public page.
type Profile struct {
	User    models.User     `json:"user"`
	Reviews []models.Review `json:"reviews"`
}

type Users struct {
	Repo    *repo.Users
	Reviews *repo.Reviews
	Log     zerolog.Logger
}

func (s *Users) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	taken, err := s.Repo.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("email already registered: %w", ErrConflict)
	}
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
	}
	if err := s.Repo.Create(ctx, &u); err != nil {
		return u, err
	}
	s.Log.Info().Uint("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login checks credentials. Unknown emails, wrong passwords and disabled
// accounts all fail the same way.
func (s *Users) Login(ctx context.Context, in LoginInput) (models.User, error) {
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	u, err := s.Repo.ByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil || !models.CheckPassword(u.PasswordHash, in.Password) || !u.Active {
		return models.User{}, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	return u, nil
}

func (s *Users) Get(ctx context.Context, id uint) (models.User, error) {
	u, err := s.Repo.ByID(ctx, id)
	if err != nil {
		return u, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}

func (s *Users) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.Repo.List(ctx)
}

// SeesContact reports whether viewer may read the email and phone of
// account id.
func SeesContact(viewer *models.User, id uint) bool {
	return viewer != nil && (viewer.ID == id || viewer.IsAdmin())
}

func selfOrAdmin(actor *models.User, id uint) error {
	if actor.ID != id && !actor.IsAdmin() {
		return fmt.Errorf("user %d: %w", id, ErrForbidden)
	}
	return nil
}

func (s *Users) Update(ctx context.Context, actor *models.User, id uint, in UpdateUserInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := Validate(in); err != nil {
		return models.User{}, err
	}
	if err := selfOrAdmin(actor, id); err != nil {
		return models.User{}, err
	}
	taken, err := s.Repo.EmailTaken(ctx, in.Email, id)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("email already registered: %w", ErrConflict)
	}
	u, err := s.Repo.Update(ctx, id, map[string]any{
		"name":  strings.TrimSpace(in.Name),
		"email": in.Email,
		"phone": in.Phone,
	})
	if err != nil {
		return u, fmt.Errorf("user %d: %w", id, err)
	}
	return u, nil
}

func (s *Users) Delete(ctx context.Context, actor *models.User, id uint) (models.User, error) {
	if err := selfOrAdmin(actor, id); err != nil {
		return models.User{}, err
	}
	u, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return u, fmt.Errorf("user %d: %w", id, err)
	}
	s.Log.Info().Uint("user_id", id).Uint("actor_id", actor.ID).Msg("user deleted")
	return u, nil
}

func (s *Users) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.Addresses(ctx, userID)
}

func (s *Users) AddAddress(ctx context.Context, userID uint, in AddressInput) (models.Address, error) {
	if err := Validate(in); err != nil {
		return models.Address{}, err
	}
	a := models.Address{
		UserID:    userID,
		Name:      in.Name,
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
	}
	return a, s.Repo.AddAddress(ctx, &a)
}

func (s *Users) PaymentMethods(ctx context.Context, userID uint) ([]models.PaymentMethod, error) {
	return s.Repo.PaymentMethods(ctx, userID)
}

func (s *Users) AddPaymentMethod(ctx context.Context, userID uint, in PaymentMethodInput) (models.PaymentMethod, error) {
	in.CardNumber = strings.ReplaceAll(in.CardNumber, " ", "")
	if err := Validate(in); err != nil {
		return models.PaymentMethod{}, err
	}
	p := models.PaymentMethod{
		UserID:         userID,
		Type:           in.Type,
		CardNumber:     in.CardNumber,
		NameOnCard:     in.NameOnCard,
		ExpirationDate: in.ExpirationDate,
		IsDefault:      in.IsDefault,
	}
	return p, s.Repo.AddPaymentMethod(ctx, &p)
}

// WithReviews loads a user and their reviews, newest first.
func (s *Users) WithReviews(ctx context.Context, id uint) (Profile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	rs, err := s.Reviews.ForUser(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, Reviews: rs}, nil
}
