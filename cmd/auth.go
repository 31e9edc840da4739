package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a token and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{Email: cmd.String("email"), Password: cmd.String("password")}

	r.logger.Info("logging in", "email", creds.Email)

	result, err := r.accounts.Login(ctx, creds)
	if err != nil {
		return err
	}
	r.tokens.Set(result.Token)

	user := result.User
	if user == nil || user.ID == "" {
		if user, err = r.accounts.Profile(ctx); err != nil {
			r.logger.Warn("login succeeded but profile lookup failed", "error", err)
			user = &models.User{Email: creds.Email}
		}
	}

	session := &shared.Session{
		Token:       result.Token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
		SavedAt:     r.now().UTC(),
	}
	if session.UserID == "" {
		if claims, err := shared.ParseTokenClaims(result.Token); err == nil {
			session.UserID = claims.UserID
		}
	}

	path := r.config.Session.SessionPath()
	if err := shared.SaveSession(path, session); err != nil {
		return err
	}
	r.logger.Info("session saved", "path", path)

	if result.Message != "" {
		r.writePlain("%s\n", result.Message)
	}
	return r.writePlain("✓ Logged in as %s\n", session.DisplayName)
}

// AuthImport seeds the session from the bearer token of a request copied out of the
// browser's DevTools.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var headers *shared.CurlHeaders
	var err error
	if curlFile != "" {
		if headers, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if headers, err = shared.ParseCurlCommand([]byte(curlCmd)); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
	}

	token, err := headers.BearerToken()
	if err != nil {
		return err
	}
	claims, err := shared.ParseTokenClaims(token)
	if err != nil {
		return err
	}
	if claims.Expired(r.now()) {
		return fmt.Errorf("%w: log in again in the browser and copy a fresh request", shared.ErrTokenExpired)
	}

	r.tokens.Set(token)
	session := &shared.Session{
		Token:   token,
		UserID:  claims.UserID,
		Email:   claims.Email,
		SavedAt: r.now().UTC(),
	}

	user, err := r.accounts.Profile(ctx)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.tokens.Set("")
		return fmt.Errorf("server rejected the imported token: %w", err)
	case err != nil:
		r.logger.Warn("profile lookup failed, using token claims", "error", err)
	default:
		if user.ID != "" {
			session.UserID = user.ID
		}
		if user.Email != "" {
			session.Email = user.Email
		}
		session.DisplayName = user.DisplayName()
	}

	if session.UserID == "" {
		r.tokens.Set("")
		return fmt.Errorf("%w: token does not identify a user", shared.ErrInvalidInput)
	}
	if session.DisplayName == "" {
		session.DisplayName = session.Email
	}

	path := r.config.Session.SessionPath()
	if err := shared.SaveSession(path, session); err != nil {
		return err
	}
	r.logger.Info("session imported", "path", path, "user", session.UserID)
	return r.writePlain("✓ Imported session for %s\n", session.DisplayName)
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		FirstName:       cmd.String("first-name"),
		LastName:        cmd.String("last-name"),
		Age:             int(cmd.Int("age")),
		Email:           cmd.String("email"),
		Password:        cmd.String("password"),
		ConfirmPassword: cmd.String("confirm-password"),
	}
	if reg.ConfirmPassword == "" {
		reg.ConfirmPassword = reg.Password
	}

	user, err := r.accounts.Register(ctx, reg)
	if err != nil {
		if failed := models.PasswordRuleFailures(reg.Password); len(failed) > 0 {
			r.writePlain("Password needs:\n")
			for _, rule := range failed {
				r.writePlain("  ✗ %s\n", rule.Label)
			}
		}
		return err
	}

	r.logger.Info("account created", "id", user.ID)
	return r.writePlain("✓ Account created for %s. Run 'moovie auth login' to sign in.\n", user.Email)
}

// AuthProfile prints the user the stored token belongs to.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(); err != nil {
		return err
	}

	user, err := r.accounts.Profile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(user.DisplayName())
	r.writePlain("ID:        %s\n", user.ID)
	r.writePlain("Email:     %s\n", user.Email)
	if user.Age > 0 {
		r.writePlain("Age:       %d\n", user.Age)
	}
	return r.writePlain("Favorites: %d\n", len(user.Favorites))
}

// AuthUpdate applies a partial profile update and refreshes the stored display name.
func (r *Runner) AuthUpdate(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireUser()
	if err != nil {
		return err
	}

	update := models.ProfileUpdate{
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
		Age:       int(cmd.Int("age")),
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
	}
	if update.Empty() {
		return fmt.Errorf("%w: pass at least one field to update", shared.ErrMissingArgument)
	}

	user, err := r.accounts.UpdateUser(ctx, session.UserID, update)
	if err != nil {
		return err
	}

	if name := user.DisplayName(); name != "" {
		session.DisplayName = name
	}
	if user.Email != "" {
		session.Email = user.Email
	}
	if err := shared.SaveSession(r.config.Session.SessionPath(), session); err != nil {
		r.logger.Warn("failed to refresh session", "error", err)
	}

	return r.writePlain("✓ Profile updated\n")
}

// AuthDelete removes the account, then the local session and cached favorites.
func (r *Runner) AuthDelete(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireUser()
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete your account", shared.ErrMissingArgument)
	}

	msg, err := r.accounts.DeleteUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	r.forget(session)

	if msg != "" {
		r.writePlain("%s\n", msg)
	}
	return r.writePlain("✓ Account deleted\n")
}

// AuthRecover asks the server to send a password recovery email.
func (r *Runner) AuthRecover(ctx context.Context, cmd *cli.Command) error {
	msg, err := r.accounts.RecoverPassword(ctx, cmd.String("email"))
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Recovery email requested"
	}
	return r.writePlain("✓ %s\n", msg)
}

// AuthLogout deletes the session file and the user's cached favorites.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session := r.session()
	if session == nil {
		return r.writePlain("Not logged in\n")
	}
	r.forget(session)
	return r.writePlain("✓ Logged out\n")
}

func (r *Runner) forget(session *shared.Session) {
	r.tokens.Set("")
	if err := shared.ClearSession(r.config.Session.SessionPath()); err != nil {
		r.logger.Warn("failed to clear session", "error", err)
	}
	if session.UserID != "" && r.openCache() {
		if err := r.faves.Invalidate(session.UserID); err != nil {
			r.logger.Warn("failed to clear cached favorites", "error", err)
		}
	}
}

// AuthStatus reports the stored session and its token claims. Expiry is informational;
// the server decides whether the token is still accepted.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Session.SessionPath()
	session, err := shared.LoadSession(path)
	if errors.Is(err, shared.ErrNoSession) {
		return r.writePlain("✗ Not logged in\n")
	} else if err != nil {
		return err
	}

	r.writePlain("✓ Logged in\n")
	r.writePlain("Session:  %s\n", path)
	if session.DisplayName != "" {
		r.writePlain("User:     %s\n", session.DisplayName)
	}
	if session.Email != "" {
		r.writePlain("Email:    %s\n", session.Email)
	}

	claims, err := shared.ParseTokenClaims(session.Token)
	if err != nil {
		r.logger.Warn("token claims unreadable", "error", err)
		return r.writePlain("Token:    opaque\n")
	}

	userID := session.UserID
	if userID == "" {
		userID = claims.UserID
	}
	r.writePlain("User ID:  %s\n", userID)

	switch {
	case claims.ExpiresAt.IsZero():
		r.writePlain("Expires:  never\n")
	case claims.Expired(r.now()):
		r.writePlain("Expires:  %s (expired, log in again)\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
	default:
		r.writePlain("Expires:  %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
