package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// LoginPayload is the login form payload
type LoginPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Normalize trims the username, call it before Validate
func (p *LoginPayload) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
}

// Validate runs before the credential store is consulted
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(3, 0)),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 0)),
	)
}

// RegistrationPayload is the registration form payload
type RegistrationPayload struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Normalize trims the username, call it before Validate
func (r *RegistrationPayload) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// ValidateStringEquals checks a field matches str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values do not match")
		}
		return nil
	}
}

type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Register string
}

type AuthControllerViews struct {
	Login    string
	Register string
}

// ResponseMessage is the JSON body of the auth endpoints
type ResponseMessage struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Username string `json:"username,omitempty"`
}

type AuthController struct {
	Logger       Logger
	Auth         *RouteAuthenticator
	Registration *RegisterUserHandler
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	// Redirect is sent as HX-Redirect after login
	Redirect string
}

func NewAuthController(auth *RouteAuthenticator, registration *RegisterUserHandler) *AuthController {
	return &AuthController{
		Logger:       defLogger{},
		Auth:         auth,
		Registration: registration,
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
		},
		Views: &AuthControllerViews{
			Login:    "login",
			Register: "register",
		},
		Redirect: "/",
	}
}

// RegisterAuthRoutes mounts the controller on app
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Get(controller.Routes.Login, controller.LoginShow)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, controller.LogOut)
	app.Get(controller.Routes.Register, controller.RegistrationShow)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
}

// IsAuthRoute reports whether the request targets one of the controller
// routes. Those routes establish sessions and run outside the guard.
func (a *AuthController) IsAuthRoute(c *fiber.Ctx) bool {
	switch c.Path() {
	case a.Routes.Login, a.Routes.Logout, a.Routes.Register:
		return true
	}
	return false
}

func (a *AuthController) LoginShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Login, fiber.Map{
		"errors": nil,
	})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return fail(c, fiber.StatusBadRequest, "Failed to parse form")
	}

	payload.Normalize()

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("login validate payload", "error", err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	if err := a.Auth.Login(c, *payload); err != nil {
		return failWithError(c, err, "Unable to log in")
	}

	c.Set("HX-Redirect", a.Redirect)
	return c.JSON(ResponseMessage{
		Status:   "success",
		Username: payload.Username,
	})
}

func (a *AuthController) LogOut(c *fiber.Ctx) error {
	a.Auth.Logout(c)
	c.Set("HX-Redirect", a.Routes.Login)
	return c.JSON(ResponseMessage{Status: "success"})
}

func (a *AuthController) RegistrationShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Register, fiber.Map{
		"errors": nil,
	})
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return fail(c, fiber.StatusBadRequest, "Failed to parse form")
	}

	payload.Normalize()

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("register user validate payload", "error", err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	err := a.Registration.Execute(c.UserContext(), RegisterUserMessage{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			a.Logger.Error("register user", "error", err)
		}
		return failWithError(c, err, "Unable to register user")
	}

	c.Set("HX-Redirect", a.Routes.Login)
	return c.Status(fiber.StatusCreated).JSON(ResponseMessage{
		Status:   "success",
		Username: payload.Username,
	})
}

// failWithError renders client facing rich errors with their own code and
// message. Anything else is a 500 carrying fallback.
func failWithError(c *fiber.Ctx, err error, fallback string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code != 0 {
		switch richErr.Category {
		case goerrors.CategoryAuth, goerrors.CategoryConflict, goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return fail(c, richErr.Code, richErr.Message)
		}
	}
	return fail(c, fiber.StatusInternalServerError, fallback)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ResponseMessage{
		Status:  "fail",
		Message: message,
	})
}
