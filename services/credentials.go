package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const DefaultTodoContent = "Hello! Welcome to your to-do list. Edit or delete this item to get started."

// Root node placement for a freshly registered user's first branch.
const (
	RootNodeName = "Root"
	RootNodeX    = 0
	RootNodeY    = 0
)

// Session is the result of a successful register, login or refresh.
type Session struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
}

type CredentialService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

func NewCredentialService(db *gorm.DB, tokens *auth.TokenManager) *CredentialService {
	return &CredentialService{db: db, tokens: tokens}
}

// Register creates the user together with a welcome todo and a root branch
// holding a single root node, then opens a session.
func (s *CredentialService) Register(ctx context.Context, username, password, email string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" || email == "" {
		return nil, validation("All fields are required")
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, storeFailure(err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("Username already taken")
		}
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("Email already taken")
		}

		user = models.User{Username: username, Password: hashed, Email: email}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Username or email already taken")
			}
			return err
		}
		return seedWorkspace(tx, user.ID)
	})
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.openSession(ctx, s.db, user.ID)
}

func seedWorkspace(tx *gorm.DB, userID uint) error {
	todo := models.Todo{UserID: userID, Content: DefaultTodoContent}
	if err := tx.Create(&todo).Error; err != nil {
		return err
	}

	branch := models.Branch{UserID: userID, Name: models.DefaultBranchName}
	if err := tx.Create(&branch).Error; err != nil {
		return err
	}

	root := models.Node{
		UserID:   userID,
		BranchID: branch.ID,
		Name:     RootNodeName,
		X:        RootNodeX,
		Y:        RootNodeY,
		Role:     models.RoleRoot,
	}
	return tx.Create(&root).Error
}

// Login opens a new session. Earlier sessions of the same user stay valid.
func (s *CredentialService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validation("Username and password are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		return nil, storeFailure(err)
	}

	if err := auth.CheckPassword(user.Password, password); err != nil {
		return nil, authFailure("Invalid password")
	}

	return s.openSession(ctx, s.db, user.ID)
}

// Refresh trades a refresh token for a new access token. The presented
// session is rotated: its row is removed and a new jti is issued, so the old
// refresh token stops working.
func (s *CredentialService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, authFailure("No refresh token")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, authFailure("Invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, authFailure("Invalid refresh token")
	}

	var session *Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("jti = ? AND user_id = ?", claims.ID, userID).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sessionGone()
			}
			return err
		}
		if stored.Expired(time.Now()) {
			return authFailure("Session expired")
		}

		res := tx.Delete(&models.RefreshToken{}, stored.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race with logout or another refresh.
			return sessionGone()
		}

		var err error
		session, err = s.openSession(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return session, nil
}

// Logout removes the session behind refreshToken when it verifies. A missing
// or invalid token is not an error.
func (s *CredentialService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("jti = ?", claims.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		return storeFailure(err)
	}
	return nil
}

// openSession issues both tokens and persists the refresh session on db,
// which may be a transaction.
func (s *CredentialService) openSession(ctx context.Context, db *gorm.DB, userID uint) (*Session, error) {
	jti, err := gonanoid.New()
	if err != nil {
		return nil, storeFailure(err)
	}

	accessToken, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return nil, storeFailure(err)
	}
	refreshToken, expiresAt, err := s.tokens.CreateRefreshToken(userID, jti)
	if err != nil {
		return nil, storeFailure(err)
	}

	row := models.RefreshToken{UserID: userID, JTI: jti, ExpiresAt: expiresAt}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, storeFailure(err)
	}

	return &Session{UserID: userID, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func sessionGone() error {
	return &Error{Kind: ErrAuth, Message: "Session not found", Err: ErrSessionGone}
}

// classify passes typed errors through and hides everything else.
func classify(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return storeFailure(err)
}
