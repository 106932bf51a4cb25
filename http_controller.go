package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AccountControllerRoutes are the paths the controller mounts
type AccountControllerRoutes struct {
	Signup       string
	VerifyToken  string
	VerifyResend string
	Login        string
	Logout       string
	Current      string
	Avatars      string
}

// AssetExtractor stages the uploaded avatar from the request. The default
// writes the raw body to a temp file and takes the original filename from the
// X-Original-Filename header.
type AssetExtractor func(ctx router.Context) (Asset, error)

// AccountController wires the account lifecycle over HTTP. It binds payloads,
// runs validation, and serializes the rich errors the Manager returns; all
// domain decisions live in the Manager and the Gate.
type AccountController struct {
	Debug        bool
	Logger       Logger
	Manager      *Manager
	Gate         *Gate
	Routes       *AccountControllerRoutes
	ExtractAsset AssetExtractor
	ContextKey   string
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerManager(m *Manager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Manager = m
		return c
	}
}

func WithControllerGate(g *Gate) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Gate = g
		return c
	}
}

func WithAssetExtractor(e AssetExtractor) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if e != nil {
			c.ExtractAsset = e
		}
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:       defLogger{},
		ContextKey:   "account",
		ExtractAsset: bodyAssetExtractor,
		Routes: &AccountControllerRoutes{
			Signup:       "/signup",
			VerifyToken:  "/verify/:token",
			VerifyResend: "/verify",
			Login:        "/login",
			Logout:       "/logout",
			Current:      "/current",
			Avatars:      "/avatars",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Manager == nil {
		panic("Missing Manager in account controller...")
	}

	if c.Gate == nil {
		panic("Missing Gate in account controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the account lifecycle endpoints
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)

	protected := controller.Gate.ProtectedRoute(controller.serializeError)

	app.Post(controller.Routes.Signup, controller.Signup).SetName("accounts.signup")
	app.Get(controller.Routes.VerifyToken, controller.VerifyToken).SetName("accounts.verify-token")
	app.Post(controller.Routes.VerifyResend, controller.VerifyResend).SetName("accounts.verify-resend")
	app.Post(controller.Routes.Login, controller.Login).SetName("accounts.login")
	app.Get(controller.Routes.Logout, controller.Logout, protected).SetName("accounts.logout")
	app.Get(controller.Routes.Current, controller.Current, protected).SetName("accounts.current")
	app.Patch(controller.Routes.Avatars, controller.AvatarUpdate, protected).SetName("accounts.avatars")
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountController) Signup(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return a.badRequest(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	summary, err := a.Manager.Register(ctx.Context(), RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, summary)
}

func (a *AccountController) VerifyToken(ctx router.Context) error {
	token := ctx.Param("token", "")

	if err := a.Manager.ConfirmVerification(ctx.Context(), token); err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Verification successful",
	})
}

// ResendRequest payload
type ResendRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ResendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountController) VerifyResend(ctx router.Context) error {
	payload := new(ResendRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("resend parse payload", "error", err)
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("resend validate payload", "error", err)
		return a.badRequest(ctx, err)
	}

	if err := a.Manager.ResendVerification(ctx.Context(), payload.Email); err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Verification email sent",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.badRequest(ctx, err)
	}

	token, err := a.Manager.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token": token,
	})
}

func (a *AccountController) Logout(ctx router.Context) error {
	account, ok := FromRouterContext(ctx, a.ContextKey)
	if !ok {
		return a.serializeError(ctx, ErrTokenRevoked)
	}

	if err := a.Manager.Logout(ctx.Context(), account.ID); err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Logout success",
	})
}

func (a *AccountController) Current(ctx router.Context) error {
	account, ok := FromRouterContext(ctx, a.ContextKey)
	if !ok {
		return a.serializeError(ctx, ErrTokenRevoked)
	}

	return ctx.JSON(fiber.StatusOK, Summarize(account))
}

func (a *AccountController) AvatarUpdate(ctx router.Context) error {
	account, ok := FromRouterContext(ctx, a.ContextKey)
	if !ok {
		return a.serializeError(ctx, ErrTokenRevoked)
	}

	asset, err := a.ExtractAsset(ctx)
	if err != nil {
		a.Logger.Error("avatar asset extraction failed", "error", err)
		return a.badRequest(ctx, err)
	}

	avatarURL, err := a.Manager.UpdateAvatar(ctx.Context(), account.ID, asset)
	if err != nil {
		return a.serializeError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"avatarURL": avatarURL,
	})
}

func (a *AccountController) badRequest(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"message": err.Error(),
	})
}

// serializeError maps rich domain errors onto the HTTP contract without
// leaking storage internals.
func (a *AccountController) serializeError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unexpected controller error", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
			"message": "internal server error",
		})
	}

	code := richErr.Code
	if code == 0 {
		code = fiber.StatusInternalServerError
	}

	if code >= fiber.StatusInternalServerError {
		a.Logger.Error("controller error", "category", richErr.Category, "error", err)
		return ctx.JSON(code, map[string]any{
			"message": "internal server error",
		})
	}

	return ctx.JSON(code, map[string]any{
		"message": richErr.Message,
	})
}

func bodyAssetExtractor(ctx router.Context) (Asset, error) {
	body := ctx.Body()
	if len(body) == 0 {
		return Asset{}, goerrors.New("avatar upload is empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	originalName := ctx.Header("X-Original-Filename")

	tmp, err := os.CreateTemp("", "avatar-*"+filepath.Ext(originalName))
	if err != nil {
		return Asset{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stage avatar upload")
	}

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Asset{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stage avatar upload")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Asset{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stage avatar upload")
	}

	return Asset{
		TempPath:     tmp.Name(),
		OriginalName: originalName,
	}, nil
}
