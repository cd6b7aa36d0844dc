package service

import (
	"context"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
}

// Claims carried inside access and refresh tokens.
type Claims struct {
	UsuarioID string `json:"usuario_id"`
	Username  string `json:"username"`
	Rol       string `json:"rol"`
	TokenType string `json:"token_type"` // access | refresh
	jwt.RegisteredClaims
}

type authService struct {
	repo          repository.UsuarioRepository
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(repo repository.UsuarioRepository, secret string, accessHours, refreshHours int) AuthService {
	return &authService{
		repo:          repo,
		secret:        []byte(secret),
		accessExpiry:  time.Duration(accessHours) * time.Hour,
		refreshExpiry: time.Duration(refreshHours) * time.Hour,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		// Same message for unknown user and bad password.
		return nil, apierror.Validation("credenciales inválidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Validation("credenciales inválidas")
	}
	log.Info().Str("username", user.Username).Msg("login")
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, apierror.Validation("refresh token inválido")
	}
	id, err := uuid.Parse(claims.UsuarioID)
	if err != nil {
		return nil, apierror.Validation("refresh token inválido")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil || !user.Activo {
		return nil, apierror.Validation("usuario inactivo o inexistente")
	}
	return s.issueTokens(user)
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		ID:           uuid.New(),
		Username:     req.Username,
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apierror.Conflict("el usuario ya existe")
	}
	return usuarioToResponse(user), nil
}

func (s *authService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UsuarioResponse, 0, len(users))
	for i := range users {
		out = append(out, *usuarioToResponse(&users[i]))
	}
	return out, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("usuario no encontrado")
	}
	return s.repo.SoftDelete(ctx, id)
}

// ParseToken validates signature and expiry and returns the claims.
func (s *authService) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Validation("token inválido o expirado")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apierror.Validation("token inválido")
	}
	return claims, nil
}

func (s *authService) issueTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	access, err := s.sign(user, "access", s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, "refresh", s.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessExpiry.Seconds()),
		User:         *usuarioToResponse(user),
	}, nil
}

func (s *authService) sign(user *model.Usuario, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UsuarioID: user.ID.String(),
		Username:  user.Username,
		Rol:       user.Rol,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Subject:   user.ID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func usuarioToResponse(u *model.Usuario) *dto.UsuarioResponse {
	return &dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
}
