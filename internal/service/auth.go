package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/recipe-share/internal/mail"
	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/token"
	"github.com/iliyamo/recipe-share/internal/utils"
)

// resetTokenBytes is the entropy of a reset token; hex doubles the length.
const resetTokenBytes = 32

var errPasswordTooLong = validation("password must be at most 72 bytes")

// AuthOptions tune AuthService.
type AuthOptions struct {
	BcryptCost int
	FrontURL   string
	AppName    string
	ResetTTL   time.Duration
	// Now overrides the clock used for stored expiries; nil means time.Now.
	Now func() time.Time
}

// AuthService implements registration, login, the refresh-token session
// lifecycle and password reset.
type AuthService struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	resets *repository.ResetTokenRepo
	codec  *token.Codec
	mailer mail.Mailer
	opts   AuthOptions
}

func NewAuthService(
	users *repository.UserRepo,
	tokens *repository.TokenRepo,
	resets *repository.ResetTokenRepo,
	codec *token.Codec,
	mailer mail.Mailer,
	opts AuthOptions,
) *AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}
	if opts.AppName == "" {
		opts.AppName = "Get Yummy"
	}
	return &AuthService{users: users, tokens: tokens, resets: resets, codec: codec, mailer: mailer, opts: opts}
}

// Codec exposes the token codec so the HTTP layer can size cookies and
// verify access tokens.
func (s *AuthService) Codec() *token.Codec { return s.codec }

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an active, non-admin user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = repository.NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, validation("name, email and password are required")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, validation("invalid email")
	}
	if len(in.Password) > utils.PasswordMaxBytes {
		return nil, errPasswordTooLong
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, internal("could not create account", err)
	}
	u := &model.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Status: model.UserStatusActive}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, conflict("email already in use")
		}
		return nil, internal("could not create account", err)
	}
	return u, nil
}

// Session is the outcome of a successful login.
type Session struct {
	User    *model.User
	Access  token.Signed
	Refresh token.Signed
}

// Login checks credentials, stores a new refresh-token row and issues both
// tokens. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("invalid email or password")
		}
		return nil, internal("login failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, unauthorized("invalid email or password")
	}
	if u.Status == model.UserStatusDisabled {
		return nil, unauthorized("account disabled")
	}

	tokenID := uuid.NewString()
	refresh, err := s.codec.IssueRefresh(u.ID, tokenID)
	if err != nil {
		return nil, internal("login failed", err)
	}
	if err := s.tokens.Store(ctx, u.ID, tokenID, refresh.Exp); err != nil {
		return nil, internal("login failed", err)
	}
	access, err := s.codec.IssueAccess(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, internal("login failed", err)
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh mints a new access token from a refresh token whose stored row is
// still usable. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (token.Signed, *model.User, error) {
	if strings.TrimSpace(rawRefresh) == "" {
		return token.Signed{}, nil, unauthorized("refresh token missing")
	}
	claims, err := s.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return token.Signed{}, nil, unauthorized("invalid refresh token")
	}
	if _, err := s.tokens.FindUsable(ctx, claims.TokenID, claims.UserID, s.opts.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return token.Signed{}, nil, unauthorized("invalid refresh token")
		}
		return token.Signed{}, nil, internal("refresh failed", err)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return token.Signed{}, nil, unauthorized("invalid refresh token")
		}
		return token.Signed{}, nil, internal("refresh failed", err)
	}
	if u.Status == model.UserStatusDisabled {
		return token.Signed{}, nil, unauthorized("account disabled")
	}
	access, err := s.codec.IssueAccess(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return token.Signed{}, nil, internal("refresh failed", err)
	}
	return access, u, nil
}

// Logout revokes the stored row behind rawRefresh when it decodes. It never
// fails: a missing or invalid token simply has nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) {
	if strings.TrimSpace(rawRefresh) == "" {
		return
	}
	claims, err := s.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		log.Debug().Err(err).Msg("logout: refresh token not decodable")
		return
	}
	if err := s.tokens.Revoke(ctx, claims.TokenID, claims.UserID); err != nil {
		log.Warn().Err(err).Uint64("user_id", claims.UserID).Msg("logout: revoke failed")
	}
}

// LogoutAll revokes every active session of userID.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, internal("logout failed", err)
	}
	return n, nil
}

// Me returns the current user.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, internal("could not load user", err)
	}
	return u, nil
}

// RequestPasswordReset replaces any pending reset token of the user with a
// fresh one and mails the reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return validation("email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("no account with this email")
		}
		return internal("could not start password reset", err)
	}

	tok, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return internal("could not start password reset", err)
	}
	now := s.opts.Now()
	if err := s.resets.Replace(ctx, u.ID, utils.HashToken(tok), now.Add(s.opts.ResetTTL)); err != nil {
		return internal("could not start password reset", err)
	}

	msg, err := mail.ResetPassword{
		AppName: s.opts.AppName,
		Name:    u.Name,
		Email:   u.Email,
		Link:    s.ResetLink(tok),
		TTL:     s.opts.ResetTTL,
		Now:     now,
	}.Render()
	if err != nil {
		return internal("could not send reset email", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return internal("could not send reset email", err)
	}
	return nil
}

// ResetLink is the front-end URL carrying tok.
func (s *AuthService) ResetLink(tok string) string {
	return strings.TrimRight(s.opts.FrontURL, "/") + "/reset-password?token=" + tok
}

// ResetPassword checks the password policy, then consumes tok and stores
// the new hash. Expired tokens are deleted when encountered.
func (s *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if len(newPassword) > utils.PasswordMaxBytes {
		return errPasswordTooLong
	}
	if v := utils.PasswordPolicyViolations(newPassword); len(v) > 0 {
		return validation("password must contain " + strings.Join(v, ", "))
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return validation("invalid or expired token")
	}
	row, err := s.resets.FindByToken(ctx, utils.HashToken(tok))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation("invalid or expired token")
		}
		return internal("could not reset password", err)
	}
	if !row.ExpiresAt.After(s.opts.Now()) {
		if err := s.resets.Delete(ctx, row.ID); err != nil {
			log.Warn().Err(err).Uint64("token_id", row.ID).Msg("reset: delete expired token failed")
		}
		return validation("invalid or expired token")
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return internal("could not reset password", err)
	}
	if err := s.resets.Consume(ctx, *row, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation("invalid or expired token")
		}
		return internal("could not reset password", err)
	}
	return nil
}

// CleanupTokens deletes expired and revoked refresh-token rows.
func (s *AuthService) CleanupTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.Cleanup(ctx, s.opts.Now())
	if err != nil {
		return 0, internal("token cleanup failed", err)
	}
	log.Info().Int64("deleted", n).Msg("refresh tokens cleaned up")
	return n, nil
}

// TokenStats reports refresh-token counts as of now.
func (s *AuthService) TokenStats(ctx context.Context) (repository.TokenStats, error) {
	st, err := s.tokens.Stats(ctx, s.opts.Now())
	if err != nil {
		return repository.TokenStats{}, internal("token stats failed", err)
	}
	return st, nil
}
