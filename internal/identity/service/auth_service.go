// Package service implements the auth flows: registration, password, provider and phone login,
// and credential linking. Every login flow ends in a session token from the TokenProvider.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"bookstore/backend/internal/audit"
	"bookstore/backend/internal/autherr"
	identitydomain "bookstore/backend/internal/identity/domain"
	"bookstore/backend/internal/identity/provider"
	credrepo "bookstore/backend/internal/identity/repository"
	"bookstore/backend/internal/otp"
	"bookstore/backend/internal/security"
	"bookstore/backend/internal/telemetry"
	userdomain "bookstore/backend/internal/user/domain"
	userrepo "bookstore/backend/internal/user/repository"
)

// DefaultProviderVerifyTimeout bounds a single external token verification.
const DefaultProviderVerifyTimeout = 5 * time.Second

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores bytes past 72
	maxFullNameLen = 200
)

// AuthResult is the outcome of every successful login or registration.
type AuthResult struct {
	UserID            string
	DisplayIdentifier string
	FullName          string
	Role              userdomain.Role
	Token             string
	ExpiresAt         time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetPhone(ctx context.Context, userID, phone string) error
	Delete(ctx context.Context, id string) error
}

// CredentialRepo is the credential store used by the auth service.
type CredentialRepo interface {
	GetByProvider(ctx context.Context, p identitydomain.Provider, providerUserID string) (*identitydomain.Credential, error)
	GetByUserAndProvider(ctx context.Context, userID string, p identitydomain.Provider) (*identitydomain.Credential, error)
	ListByUser(ctx context.Context, userID string) ([]*identitydomain.Credential, error)
	Create(ctx context.Context, c *identitydomain.Credential) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteByUserAndProvider(ctx context.Context, userID string, p identitydomain.Provider) (bool, error)
}

// CodeVerifier redeems a phone OTP. Implemented by *otp.Service.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, phone, code string) error
}

// AuthService composes the credential store, user store, OTP service and token provider.
type AuthService struct {
	users         UserRepo
	creds         CredentialRepo
	codes         CodeVerifier
	providers     *provider.Registry
	hasher        *security.Hasher
	tokens        *security.TokenProvider
	verifyTimeout time.Duration

	audit  audit.AuditLogger
	events telemetry.EventEmitter
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
// verifyTimeout <= 0 selects DefaultProviderVerifyTimeout.
func NewAuthService(
	users UserRepo,
	creds CredentialRepo,
	codes CodeVerifier,
	providers *provider.Registry,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	verifyTimeout time.Duration,
) *AuthService {
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultProviderVerifyTimeout
	}
	return &AuthService{
		users:         users,
		creds:         creds,
		codes:         codes,
		providers:     providers,
		hasher:        hasher,
		tokens:        tokens,
		verifyTimeout: verifyTimeout,
		logger:        zap.NewNop(),
		tracer:        otel.Tracer("bookstore/identity"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithAudit records login and registration outcomes through l.
func (s *AuthService) WithAudit(l audit.AuditLogger) *AuthService {
	s.audit = l
	return s
}

// WithEvents emits auth.* events to e.
func (s *AuthService) WithEvents(e telemetry.EventEmitter) *AuthService {
	s.events = e
	return s
}

// WithLogger sets the logger for best-effort side effects.
func (s *AuthService) WithLogger(l *zap.Logger) *AuthService {
	if l != nil {
		s.logger = l
	}
	return s
}

// Register creates a customer with a LOCAL credential keyed by email and returns a session.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.Register")
	defer func() { endSpan(span, err) }()

	email = normalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if len(fullName) > maxFullNameLen {
		return nil, autherr.Validation("full name is too long")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, autherr.Infra("get user by email", err)
	}
	if existing != nil {
		return nil, autherr.ErrDuplicateEmail
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, autherr.Infra("hash password", err)
	}
	now := s.now()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  fullName,
		Role:      userdomain.RoleCustomer,
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, autherr.Validation(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, autherr.ErrDuplicateEmail
		}
		return nil, autherr.Infra("create user", err)
	}
	cred := &identitydomain.Credential{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       identitydomain.ProviderLocal,
		ProviderUserID: email,
		PasswordHash:   hashed,
		CreatedAt:      now,
	}
	if err := s.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, credrepo.ErrCredentialExists) {
			return nil, autherr.ErrDuplicateEmail
		}
		return nil, autherr.Infra("create credential", err)
	}
	s.record(ctx, user.ID, "register", "user", telemetry.EventRegistered, identitydomain.ProviderLocal)
	return s.issue(user)
}

// Login authenticates a LOCAL credential. Unknown email, disabled account and wrong password
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.Login")
	defer func() { endSpan(span, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, autherr.ErrInvalidCredentials
	}
	cred, err := s.creds.GetByProvider(ctx, identitydomain.ProviderLocal, email)
	if err != nil {
		return nil, autherr.Infra("get credential", err)
	}
	if cred == nil || cred.PasswordHash == "" {
		s.burnCompare(password)
		s.loginFailed(ctx, "", "unknown_email")
		return nil, autherr.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(cred.PasswordHash, []byte(password)); err != nil {
		s.loginFailed(ctx, cred.UserID, "bad_password")
		return nil, autherr.ErrInvalidCredentials
	}
	user, err := s.activeUser(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, autherr.ErrInvalidCredentials) {
			s.loginFailed(ctx, cred.UserID, "inactive_user")
		}
		return nil, err
	}
	s.record(ctx, user.ID, "login", "session", telemetry.EventLogin, identitydomain.ProviderLocal)
	return s.issue(user)
}

// ProviderLogin verifies an external provider token and signs in the identity it asserts,
// creating the user and credential on first use. The same external identity always resolves
// to the same user. An existing account is linked only when its email is provider-verified.
func (s *AuthService) ProviderLogin(ctx context.Context, providerName, providerToken string) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.ProviderLogin", trace.WithAttributes(attribute.String("auth.provider", providerName)))
	defer func() { endSpan(span, err) }()

	p, ext, err := s.verifyExternal(ctx, providerName, providerToken)
	if err != nil {
		return nil, err
	}
	cred, err := s.creds.GetByProvider(ctx, p, ext.ProviderUserID)
	if err != nil {
		return nil, autherr.Infra("get credential", err)
	}
	if cred == nil {
		cred, err = s.firstProviderLogin(ctx, ext)
		if err != nil {
			return nil, err
		}
	}
	user, err := s.activeUser(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, "provider_login", "session", telemetry.EventProviderLogin, p)
	return s.issue(user)
}

// firstProviderLogin binds a never-seen external identity to a user. It links to an existing
// account only when that account's email was itself vouched for by a provider. Otherwise it
// creates a new user, carrying the email only if it is verified and still free.
func (s *AuthService) firstProviderLogin(ctx context.Context, ext *provider.ExternalIdentity) (*identitydomain.Credential, error) {
	var (
		user    *userdomain.User
		created bool
		err     error
	)
	if ext.EmailVerified && ext.Email != "" {
		existing, gerr := s.users.GetByEmail(ctx, ext.Email)
		if gerr != nil {
			return nil, autherr.Infra("get user by email", gerr)
		}
		switch {
		case existing == nil:
			user, created, err = s.createUser(ctx, &userdomain.User{Email: ext.Email, EmailVerified: true, FullName: ext.Name})
			if err != nil {
				return nil, err
			}
			if !user.EmailVerified {
				// Lost the email race to a locally registered account.
				user, created = nil, false
			}
		case existing.EmailVerified:
			user = existing
		}
	}
	if user == nil {
		user, created, err = s.createUser(ctx, &userdomain.User{FullName: ext.Name})
		if err != nil {
			return nil, err
		}
	}
	return s.bindOwned(ctx, user, created, ext.Provider, ext.ProviderUserID)
}

// createUser persists a new customer and reports whether this call inserted it. A lost race on
// the email key resolves to the winner's row with created false.
func (s *AuthService) createUser(ctx context.Context, u *userdomain.User) (*userdomain.User, bool, error) {
	now := s.now()
	u.ID = uuid.New().String()
	u.Role = userdomain.RoleCustomer
	u.Status = userdomain.UserStatusActive
	u.CreatedAt, u.UpdatedAt = now, now
	if err := u.Validate(); err != nil {
		return nil, false, autherr.Validation(err.Error())
	}
	err := s.users.Create(ctx, u)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, userrepo.ErrEmailTaken) || u.Email == "" {
		return nil, false, autherr.Infra("create user", err)
	}
	winner, gerr := s.users.GetByEmail(ctx, u.Email)
	if gerr != nil {
		return nil, false, autherr.Infra("get user by email", gerr)
	}
	if winner == nil {
		return nil, false, autherr.Infra("create user", err)
	}
	return winner, false, nil
}

// bindOwned binds the identity to user. When user was created for this login and the binding
// failed or resolved to another user, the fresh user is deleted so no orphan account remains.
func (s *AuthService) bindOwned(ctx context.Context, user *userdomain.User, created bool, p identitydomain.Provider, providerUserID string) (*identitydomain.Credential, error) {
	cred, err := s.bindCredential(ctx, user.ID, p, providerUserID)
	if created && (err != nil || cred.UserID != user.ID) {
		s.discardUser(ctx, user.ID)
	}
	return cred, err
}

func (s *AuthService) discardUser(ctx context.Context, userID string) {
	if err := s.users.Delete(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Warn("discard unbound user", zap.String("user_id", userID), zap.Error(err))
	}
}

// bindCredential creates the (provider, providerUserID) credential for userID. When a concurrent
// request created it first, the stored credential wins.
func (s *AuthService) bindCredential(ctx context.Context, userID string, p identitydomain.Provider, providerUserID string) (*identitydomain.Credential, error) {
	cred := &identitydomain.Credential{
		ID:             uuid.New().String(),
		UserID:         userID,
		Provider:       p,
		ProviderUserID: providerUserID,
		CreatedAt:      s.now(),
	}
	err := s.creds.Create(ctx, cred)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, credrepo.ErrCredentialExists) {
		return nil, autherr.Infra("create credential", err)
	}
	winner, gerr := s.creds.GetByProvider(ctx, p, providerUserID)
	if gerr != nil {
		return nil, autherr.Infra("get credential", gerr)
	}
	if winner == nil {
		// The (user, provider) key collided: this user already holds another identity at p.
		return nil, autherr.ErrProviderAlreadyLinked
	}
	return winner, nil
}

// PhoneLogin redeems an OTP for phone and signs in the phone's user, creating it on first use.
func (s *AuthService) PhoneLogin(ctx context.Context, phone, code string) (res *AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.PhoneLogin")
	defer func() { endSpan(span, err) }()

	phone, err = otp.NormalizePhone(phone)
	if err != nil {
		return nil, autherr.Validation(err.Error())
	}
	if err := s.codes.VerifyCode(ctx, phone, code); err != nil {
		if autherr.CodeOf(err) == autherr.CodeInvalidOrExpiredCode {
			s.loginFailed(ctx, "", "bad_otp")
		}
		return nil, err
	}
	cred, err := s.creds.GetByProvider(ctx, identitydomain.ProviderPhone, phone)
	if err != nil {
		return nil, autherr.Infra("get credential", err)
	}
	if cred == nil {
		user, created, err := s.createUser(ctx, &userdomain.User{Phone: phone})
		if err != nil {
			return nil, err
		}
		cred, err = s.bindOwned(ctx, user, created, identitydomain.ProviderPhone, phone)
		if err != nil {
			return nil, err
		}
	}
	user, err := s.activeUser(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, "phone_login", "session", telemetry.EventPhoneLogin, identitydomain.ProviderPhone)
	return s.issue(user)
}

// LinkProvider attaches an external identity to an existing user.
func (s *AuthService) LinkProvider(ctx context.Context, userID, providerName, providerToken string) (cred *identitydomain.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.LinkProvider", trace.WithAttributes(attribute.String("auth.provider", providerName)))
	defer func() { endSpan(span, err) }()

	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	p, ext, err := s.verifyExternal(ctx, providerName, providerToken)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLinkable(ctx, userID, p, ext.ProviderUserID); err != nil {
		return nil, err
	}
	cred, err = s.bindCredential(ctx, userID, p, ext.ProviderUserID)
	if err != nil {
		return nil, err
	}
	if cred.UserID != userID {
		return nil, autherr.ErrProviderAlreadyLinked
	}
	s.emit(ctx, telemetry.EventProviderLinked, userID, p)
	return cred, nil
}

// LinkPhone attaches an OTP-verified phone to an existing user. Conflicts are checked before the
// code is redeemed so a rejected link does not burn it.
func (s *AuthService) LinkPhone(ctx context.Context, userID, phone, code string) (cred *identitydomain.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, "identity.LinkPhone")
	defer func() { endSpan(span, err) }()

	phone, err = otp.NormalizePhone(phone)
	if err != nil {
		return nil, autherr.Validation(err.Error())
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.ensureLinkable(ctx, userID, identitydomain.ProviderPhone, phone); err != nil {
		return nil, err
	}
	if err := s.codes.VerifyCode(ctx, phone, code); err != nil {
		return nil, err
	}
	cred, err = s.bindCredential(ctx, userID, identitydomain.ProviderPhone, phone)
	if err != nil {
		return nil, err
	}
	if cred.UserID != userID {
		return nil, autherr.ErrProviderAlreadyLinked
	}
	if err := s.users.SetPhone(ctx, userID, phone); err != nil {
		s.logger.Warn("identity: set user phone failed", zap.String("user_id", userID), zap.Error(err))
	}
	s.emit(ctx, telemetry.EventProviderLinked, userID, identitydomain.ProviderPhone)
	return cred, nil
}

func (s *AuthService) ensureLinkable(ctx context.Context, userID string, p identitydomain.Provider, providerUserID string) error {
	own, err := s.creds.GetByUserAndProvider(ctx, userID, p)
	if err != nil {
		return autherr.Infra("get credential", err)
	}
	if own != nil {
		return autherr.ErrProviderAlreadyLinked
	}
	other, err := s.creds.GetByProvider(ctx, p, providerUserID)
	if err != nil {
		return autherr.Infra("get credential", err)
	}
	if other != nil {
		return autherr.ErrProviderAlreadyLinked
	}
	return nil
}

// UnlinkProvider removes the user's credential for providerName. The last remaining credential
// cannot be removed.
func (s *AuthService) UnlinkProvider(ctx context.Context, userID, providerName string) (err error) {
	ctx, span := s.tracer.Start(ctx, "identity.UnlinkProvider", trace.WithAttributes(attribute.String("auth.provider", providerName)))
	defer func() { endSpan(span, err) }()

	p, ok := identitydomain.ParseProvider(providerName)
	if !ok {
		return autherr.ErrUnsupportedProvider
	}
	creds, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return autherr.Infra("list credentials", err)
	}
	found := false
	for _, c := range creds {
		if c.Provider == p {
			found = true
			break
		}
	}
	if !found {
		return autherr.ErrProviderNotLinked
	}
	if len(creds) == 1 {
		return autherr.ErrLastCredential
	}
	deleted, err := s.creds.DeleteByUserAndProvider(ctx, userID, p)
	if err != nil {
		return autherr.Infra("delete credential", err)
	}
	if !deleted {
		return autherr.ErrProviderNotLinked
	}
	s.emit(ctx, telemetry.EventProviderUnlinked, userID, p)
	return nil
}

// ListCredentials returns the user's credentials.
func (s *AuthService) ListCredentials(ctx context.Context, userID string) ([]*identitydomain.Credential, error) {
	creds, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, autherr.Infra("list credentials", err)
	}
	return creds, nil
}

// ChangePassword rotates the LOCAL credential's hash after checking the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "identity.ChangePassword")
	defer func() { endSpan(span, err) }()

	cred, err := s.creds.GetByUserAndProvider(ctx, userID, identitydomain.ProviderLocal)
	if err != nil {
		return autherr.Infra("get credential", err)
	}
	if cred == nil || cred.PasswordHash == "" {
		return autherr.ErrProviderNotLinked
	}
	if err := s.hasher.Compare(cred.PasswordHash, []byte(oldPassword)); err != nil {
		return autherr.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return autherr.Infra("hash password", err)
	}
	if err := s.creds.UpdatePasswordHash(ctx, cred.ID, hashed); err != nil {
		return autherr.Infra("update password", err)
	}
	s.emit(ctx, telemetry.EventPasswordChanged, userID, identitydomain.ProviderLocal)
	return nil
}

// Me returns the user behind a verified session.
func (s *AuthService) Me(ctx context.Context, userID string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, autherr.Infra("get user", err)
	}
	if u == nil {
		return nil, autherr.ErrNotFound
	}
	return u, nil
}

func (s *AuthService) verifyExternal(ctx context.Context, providerName, token string) (identitydomain.Provider, *provider.ExternalIdentity, error) {
	p, ok := identitydomain.ParseProvider(providerName)
	if !ok || !p.External() {
		return "", nil, autherr.ErrUnsupportedProvider
	}
	v, err := s.providers.Get(p)
	if err != nil {
		return "", nil, autherr.ErrUnsupportedProvider
	}
	if strings.TrimSpace(token) == "" {
		return "", nil, autherr.Validation("provider token is required")
	}
	vctx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()
	ext, err := v.Verify(vctx, token)
	if err != nil {
		return "", nil, autherr.Wrap(autherr.ErrInvalidProviderToken, err)
	}
	if ext == nil || ext.ProviderUserID == "" {
		return "", nil, autherr.ErrInvalidProviderToken
	}
	ext.Provider = p
	return p, ext, nil
}

func (s *AuthService) activeUser(ctx context.Context, userID string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, autherr.Infra("get user", err)
	}
	if u == nil || u.Status != userdomain.UserStatusActive {
		return nil, autherr.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) issue(u *userdomain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, autherr.Infra("issue token", err)
	}
	return &AuthResult{
		UserID:            u.ID,
		DisplayIdentifier: u.DisplayIdentifier(),
		FullName:          u.FullName,
		Role:              u.Role,
		Token:             token,
		ExpiresAt:         exp,
	}, nil
}

// burnCompare spends one bcrypt comparison so unknown emails cost the same as wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash([]byte("bookstore-dummy-password"))
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, []byte(password))
	}
}

func (s *AuthService) record(ctx context.Context, userID, action, resource, eventType string, p identitydomain.Provider) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, userID, action, resource, `{"provider":"`+string(p)+`"}`)
	}
	s.emit(ctx, eventType, userID, p)
}

func (s *AuthService) loginFailed(ctx context.Context, userID, reason string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, userID, "login_failure", "session", `{"reason":"`+reason+`"}`)
	}
	telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(telemetry.EventLoginFailed, userID, "identity",
		map[string]string{"reason": reason}))
}

func (s *AuthService) emit(ctx context.Context, eventType, userID string, p identitydomain.Provider) {
	telemetry.EmitAsync(s.events, ctx, telemetry.NewEvent(eventType, userID, "identity",
		map[string]string{"provider": string(p)}))
}

// endSpan marks infrastructure failures as span errors. Auth rejections are expected outcomes.
func endSpan(span trace.Span, err error) {
	if err != nil {
		code := autherr.CodeOf(err)
		span.SetAttributes(attribute.String("auth.error_code", string(code)))
		if code == autherr.CodeInfrastructure {
			span.RecordError(err)
			span.SetStatus(codes.Error, "infrastructure error")
		}
	}
	span.End()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return autherr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return autherr.Validation("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return autherr.Validation("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return autherr.Validation("password must be at most 72 bytes")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return autherr.Validation("password must contain a letter and a number")
	}
	return nil
}
