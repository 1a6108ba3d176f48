package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// RegisterInput is a registration request. Role "admin" asks for the single
// admin slot, "staff" registers staff, anything else registers a student.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Register adds a user. A request for the admin slot once it is taken fails
// with ErrAdminExists before any other check.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	return track(ctx, e, "register", func() (model.User, error) {
		role := model.RoleStudent
		switch strings.TrimSpace(in.Role) {
		case model.RoleAdmin:
			role = model.RoleAdmin
		case model.RoleStaff:
			role = model.RoleStaff
		}
		if role == model.RoleAdmin && e.state.Users.HasAdmin() {
			return model.User{}, model.ErrAdminExists
		}

		username := strings.TrimSpace(in.Username)
		if username == "" {
			return model.User{}, &model.ValidationError{Field: "username", Message: "username is required"}
		}
		if in.Password == "" {
			return model.User{}, &model.ValidationError{Field: "password", Message: "password is required"}
		}
		if err := model.ValidateEmail(in.Email); err != nil {
			return model.User{}, err
		}
		if err := model.ValidatePassword(in.Password); err != nil {
			return model.User{}, err
		}
		if _, exists := e.state.Users.Get(username); exists {
			return model.User{}, fmt.Errorf("user %q: %w", username, model.ErrDuplicateUser)
		}

		hash, err := auth.HashPassword(in.Password, e.bcryptCost)
		if err != nil {
			return model.User{}, err
		}

		u := model.User{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
			Name:         strings.TrimSpace(in.Name),
			Email:        strings.TrimSpace(in.Email),
			CreatedAt:    e.now(),
		}
		if err := e.state.Users.Add(u); err != nil {
			return model.User{}, err
		}
		e.logger.Info("user registered", "user", username, "role", role)

		return u, e.persist(ctx, store.KeyUsers)
	})
}

// Authenticate checks credentials and returns the session they grant
// without storing it. The role is copied from the user record.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (model.Session, error) {
	start := time.Now()
	sess, err := e.authenticate(username, password)

	e.mu.Lock()
	e.observe(ctx, "login", err == nil, time.Since(start))
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("failed login attempt", "user", username)
	}
	return sess, err
}

func (e *Engine) authenticate(username, password string) (model.Session, error) {
	u, ok := e.state.Users.Get(strings.TrimSpace(username))
	if !ok || !auth.CheckPassword(u.PasswordHash, password) {
		return model.Session{}, fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
	}
	return model.Session{Username: u.Username, Role: u.Role}, nil
}

// Login authenticates and stores the session as the current one.
func (e *Engine) Login(ctx context.Context, username, password string) (model.Session, error) {
	sess, err := e.Authenticate(ctx, username, password)
	if err != nil {
		return model.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sessions.Set(&sess)
	e.logger.Info("user logged in", "user", sess.Username)
	return sess, e.persist(ctx, store.KeySession)
}

// Logout clears the stored session.
func (e *Engine) Logout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess := e.state.Sessions.Current(); sess != nil {
		e.logger.Info("user logged out", "user", sess.Username)
	}
	e.state.Sessions.Clear()
	return e.persist(ctx, store.KeySession)
}

// Current returns the acting session, or nil when anonymous.
func (e *Engine) Current(ctx context.Context) *model.Session {
	return e.session(ctx)
}

// SessionValid reports whether sess names a registered user with the same
// role who registered no later than issuedAt. Sessions minted before a
// clear, or for an earlier holder of the username, fail. A zero issuedAt
// skips the registration check.
func (e *Engine) SessionValid(sess model.Session, issuedAt time.Time) bool {
	u, ok := e.state.Users.Get(sess.Username)
	if !ok || u.Role != sess.Role {
		return false
	}
	// Token times have second precision.
	return issuedAt.IsZero() || !issuedAt.Before(u.CreatedAt.Truncate(time.Second))
}

// Users lists registered users. Admin only.
func (e *Engine) Users(ctx context.Context) ([]model.User, error) {
	if err := requireAdmin(e.session(ctx), "listing users"); err != nil {
		return nil, err
	}
	return e.state.Users.List(), nil
}
