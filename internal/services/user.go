package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/imagetext/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt rejects inputs longer than this many bytes.
	maxPasswordBytes = 72
)

// emailPattern allows letters and digits from any script.
var emailPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
}

// UserService encapsulates credential use-cases.
type UserService struct {
	repo UserRepository
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// Register creates an account for email. The email must look like local@domain.tld
// and the password must have at least six characters.
func (s *UserService) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	user, err := s.repo.Create(ctx, types.User{Email: email, PasswordHash: string(hashed)})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateUser
		}
		logger.Log.Errorw("failed to create user", "error", err)
		return err
	}

	logger.Log.Infow("user registered", "user_id", user.ID)
	return nil
}

// Authenticate checks the credentials and returns the user id on a match.
// Unknown emails and wrong passwords both report no match without an error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (int, bool, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a comparison so unknown emails cost about as much as wrong passwords.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return 0, false, nil
		}
		return 0, false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, false, nil
	}
	return user.ID, true, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (types.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return user.Profile(), nil
}

// ChangePassword replaces the password hash after verifying the old password.
// Concurrent changes are last-write-wins.
func (s *UserService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrUnauthorized
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hashed)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	logger.Log.Infow("password changed", "user_id", userID)
	return nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("imagetext-dummy-password"), s.cost)
		if err != nil {
			logger.Log.Errorw("failed to build dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}
