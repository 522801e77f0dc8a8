package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "linenloft/internal/log"
	"linenloft/internal/mail"
	"linenloft/internal/metrics"
	"linenloft/internal/services"
	"linenloft/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Mailer   mail.Mailer
	Sessions Sessions
	BaseURL  string
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		applog.Security(c, "auth.login.fail", map[string]any{"reason": "bad_email_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": "Invalid email or password"})
	}
	u, err := h.Auth.Login(sid, email, c.FormValue("password"))
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Err": "Invalid email or password"})
	}
	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return c.Redirect("/")
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	email, okEmail := validate.Email(c.FormValue("email"))
	name, okName := validate.Name(c.FormValue("name"))
	pass := c.FormValue("password")
	if !okEmail || !okName || !validate.Password(pass) {
		applog.Security(c, "auth.register.fail", map[string]any{"reason": "validation"})
		return c.Status(fiber.StatusBadRequest).Render("register", fiber.Map{
			"Err": "Check your details: password needs 8+ characters with upper, lower and a digit",
		})
	}
	u, err := h.Auth.Register(sid, email, name, pass)
	if err != nil {
		if err == services.ErrEmailTaken {
			return c.Status(fiber.StatusBadRequest).Render("register", fiber.Map{"Err": "That email is already registered"})
		}
		applog.Error(c, "auth.register.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("register", fiber.Map{"Err": "Could not create your account"})
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := h.Sessions.EnsureSID(c)
	_ = h.Auth.Logout(sid)
	h.Sessions.ExpireSID(c)
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

func (h *AuthHandler) ForgotForm(c *fiber.Ctx) error {
	return render(c, "forgot_password", fiber.Map{})
}

// Forgot always answers the same way, so the form cannot be used to probe
// which emails exist.
func (h *AuthHandler) Forgot(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).Render("forgot_password", fiber.Map{"Err": "Enter a valid email"})
	}
	if token, u, err := h.Auth.ResetToken(email); err == nil {
		resetURL := h.BaseURL + "/auth/reset-password/" + token
		if merr := h.Mailer.PasswordReset(u.Email, resetURL); merr != nil {
			metrics.EmailFailures.Inc()
			applog.Error(c, "auth.reset.email", merr, nil)
		}
	}
	setFlash(c, "success", "If that email is registered, a reset link is on its way")
	return c.Redirect("/auth/login")
}

func (h *AuthHandler) ResetForm(c *fiber.Ctx) error {
	return render(c, "reset_password", fiber.Map{"Token": c.Params("token")})
}

func (h *AuthHandler) Reset(c *fiber.Ctx) error {
	token := c.Params("token")
	pass := c.FormValue("password")
	if !validate.Password(pass) {
		return c.Status(fiber.StatusBadRequest).Render("reset_password", fiber.Map{
			"Token": token, "Err": "Password needs 8+ characters with upper, lower and a digit",
		})
	}
	if err := h.Auth.ResetPassword(token, pass); err != nil {
		applog.Security(c, "auth.reset.fail", nil)
		return c.Status(fiber.StatusBadRequest).Render("reset_password", fiber.Map{
			"Token": token, "Err": "This reset link is invalid or has expired",
		})
	}
	applog.Audit(c, "auth.reset.success", nil)
	setFlash(c, "success", "Password updated. Please log in.")
	return c.Redirect("/auth/login")
}
