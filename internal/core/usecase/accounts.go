package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

var (
	validBloodGroups = map[string]struct{}{
		"A+": {}, "A-": {}, "B+": {}, "B-": {}, "AB+": {}, "AB-": {}, "O+": {}, "O-": {},
	}
	validSexes = map[string]struct{}{"male": {}, "female": {}, "other": {}}

	errBadCredentials = errors.New("invalid email or password")
)

type AccountUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	now    func() time.Time
}

func NewAccountUseCase(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer) *AccountUseCase {
	return &AccountUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

func (uc *AccountUseCase) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Sex = strings.ToLower(strings.TrimSpace(req.Sex))
	req.BloodGroup = strings.ToUpper(strings.TrimSpace(req.BloodGroup))
	if err := validateSignup(req); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "signup", err)
	}

	hash, err := uc.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		PhoneNo:      strings.TrimSpace(req.PhoneNo),
		BloodGroup:   req.BloodGroup,
		Sex:          req.Sex,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return uc.session(user)
}

func (uc *AccountUseCase) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "login", errors.New("email and password are required"))
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "login", errBadCredentials)
		}
		return nil, err
	}
	if err := uc.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login", errBadCredentials)
	}
	return uc.session(user)
}

func (uc *AccountUseCase) Profile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "profile", errors.New("not authenticated"))
	}
	return uc.users.GetByID(ctx, userID)
}

// Authenticate resolves a bearer token to its user id.
func (uc *AccountUseCase) Authenticate(_ context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("missing token"))
	}
	userID, err := uc.tokens.Verify(token)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", err)
	}
	return userID, nil
}

func (uc *AccountUseCase) session(user *domain.User) (*domain.Session, error) {
	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.Session{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	}, nil
}

func validateSignup(req domain.SignupRequest) error {
	if n := len([]rune(req.Name)); n < 3 || n > 50 {
		return errors.New("user_name must be 3 to 50 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.New("user_email must be a valid email address")
	}
	if len(req.Password) < 4 {
		return errors.New("password must be at least 4 characters")
	}
	phone := strings.TrimSpace(req.PhoneNo)
	if len(phone) < 10 || len(phone) > 15 || !isPhoneNumber(phone) {
		return errors.New("phone_no must be 10 to 15 digits")
	}
	if _, ok := validBloodGroups[req.BloodGroup]; !ok {
		return errors.New("blood_group must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if _, ok := validSexes[req.Sex]; !ok {
		return errors.New("sex must be male, female or other")
	}
	return nil
}

func isPhoneNumber(s string) bool {
	for i, r := range s {
		if r == '+' && i == 0 {
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
