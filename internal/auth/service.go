package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var validate = validator.New()

// validateIDTokenFn is swapped in tests to avoid calling Google.
var validateIDTokenFn = idtoken.Validate

type Service struct {
	secret         []byte
	googleClientID string
	db             db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret, googleClientID string, querier db.Querier) *Service {
	return &Service{
		secret:         []byte(secret),
		googleClientID: googleClientID,
		db:             querier,
	}
}

// Register creates the identity row and, in the same request, the profile and
// stats rows. Identity creation alone does not make a usable account: the rest
// of the service assumes every user has both rows.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	if err := validate.Struct(req); err != nil {
		return User{}, TokenResponse{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Provider:     "password",
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, provider)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.PasswordHash, user.Provider)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, TokenResponse{}, ErrEmailTaken
		}
		return User{}, TokenResponse{}, err
	}

	if err := s.createProfile(ctx, user.ID, req.Username, req.DisplayName); err != nil {
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, provider, created_at, updated_at
		FROM users WHERE email = $1
	`, strings.ToLower(req.Email))

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Provider, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if db.IsNotFound(err) {
			return User{}, TokenResponse{}, ErrInvalidCredentials
		}
		return User{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

// GoogleSignIn validates a Google ID token and signs the holder in, creating
// the user, profile and stats rows on first sight of the email.
func (s *Service) GoogleSignIn(ctx context.Context, rawToken string) (User, TokenResponse, error) {
	payload, err := validateIDTokenFn(ctx, rawToken, s.googleClientID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		return User{}, TokenResponse{}, errors.New("google token missing email claim")
	}
	email = strings.ToLower(email)

	user, err := s.findUserByEmail(ctx, email)
	if db.IsNotFound(err) {
		user, err = s.createGoogleUser(ctx, email, name)
	}
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) findUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, provider, created_at, updated_at
		FROM users WHERE email = $1
	`, email)
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Provider, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func (s *Service) createGoogleUser(ctx context.Context, email, name string) (User, error) {
	user := User{
		ID:       uuid.NewString(),
		Email:    email,
		Provider: "google",
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, provider)
		VALUES ($1,$2,'',$3)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.Provider)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}

	username := usernameFromEmail(email)
	if name == "" {
		name = username
	}
	err := s.createProfile(ctx, user.ID, username, name)
	if errors.Is(err, ErrUsernameTaken) {
		// derived username collided with an existing rider, disambiguate once
		err = s.createProfile(ctx, user.ID, username+"-"+user.ID[:8], name)
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) createProfile(ctx context.Context, userID, username, displayName string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (user_id, username, display_name)
		VALUES ($1,$2,$3)
	`, userID, username, displayName)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO profile_stats (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return -1
		}
	}, strings.ToLower(local))
	if local == "" {
		local = "rider"
	}
	return local
}

func (s *Service) GenerateTokens(ctx context.Context, userID string) (TokenResponse, error) {
	access, err := s.signToken(userID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(userID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.UserID, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) signToken(userID string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}
