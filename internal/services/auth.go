package services

import (
	"errors"
	"time"

	"schoolquiz-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const tokenLifetime = 24 * time.Hour

// hostClaims is the JWT payload for an authenticated host.
type hostClaims struct {
	HostID uint `json:"host_id"`
	jwt.RegisteredClaims
}

// AuthService owns host accounts: bcrypt-hashed passwords in the hosts table
// and HS256 bearer tokens carrying the host id.
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

func (s *AuthService) Register(username, password string) (string, error) {
	var existing models.Host
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	host := models.Host{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&host).Error; err != nil {
		return "", err
	}

	return s.GenerateToken(host.ID)
}

func (s *AuthService) Login(username, password string) (string, error) {
	var host models.Host
	if err := s.db.Where("username = ?", username).First(&host).Error; err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(host.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.GenerateToken(host.ID)
}

func (s *AuthService) GenerateToken(hostID uint) (string, error) {
	now := time.Now()
	claims := hostClaims{
		HostID: hostID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken returns the host id a token was minted for. The host socket
// also goes through here, with the token riding in the query string.
func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	var claims hostClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.HostID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.HostID, nil
}
