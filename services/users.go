package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"cloud-kitchen/models"
	"cloud-kitchen/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

const minPasswordLength = 6

// UserService handles accounts and profiles.
type UserService struct {
	users   UserStore
	mailer  VerificationMailer
	isAdmin func(email string) bool
	log     *logrus.Entry
}

// NewUserService takes isAdmin to decide which registrations get the admin role.
func NewUserService(users UserStore, mailer VerificationMailer, isAdmin func(string) bool, log *logrus.Entry) *UserService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &UserService{users: users, mailer: mailer, isAdmin: isAdmin, log: log}
}

// Register creates the account. Without a mail provider the account is verified
// straight away since no link could ever reach the customer.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if s.isAdmin(email) {
		user.Role = models.RoleAdmin
	}
	user.Profile.FullName = user.Name

	sendVerification := s.mailer != nil && s.mailer.Enabled()
	if sendVerification {
		token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			return nil, fmt.Errorf("generate verification token: %w", err)
		}
		user.VerificationToken = token
	} else {
		user.IsVerified = true
	}

	if err := s.users.CreateUser(ctx, user); errors.Is(err, models.ErrDuplicate) {
		return nil, ErrUserExists
	} else if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("User registered")

	if sendVerification {
		if err := s.mailer.SendVerificationEmail(user.Email, user.VerificationToken); err != nil {
			// nobody can verify the account, so let the customer register again
			if delErr := s.users.DeleteUser(ctx, user.ID); delErr != nil {
				s.log.WithError(delErr).WithField("user_id", user.ID.Hex()).Error("Failed to remove unverifiable user")
			}
			return nil, fmt.Errorf("send verification email: %w", err)
		}
	}
	return user, nil
}

// Verify marks the account holding token as verified.
func (s *UserService) Verify(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: verification token missing", ErrValidation)
	}
	if _, err := utils.ParseJWT(token); err != nil {
		return fmt.Errorf("%w: invalid token", ErrValidation)
	}
	user, err := s.users.UserByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	s.log.WithField("user_id", user.ID.Hex()).Info("Email verified")
	return nil
}

// Login checks the credentials and returns a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", ErrNotVerified
	}
	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.UserByID(ctx, userID)
}

// UpdateProfile replaces the stored delivery details.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, p models.Profile) (*models.User, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
		return nil, err
	}
	return s.users.UserByID(ctx, userID)
}
