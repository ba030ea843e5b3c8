package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/config"
	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/repository"
	"github.com/picobox/cinema-reservation/internal/utils"
)

// AuthHandler issues session tokens. Customers sign in with stored
// credentials; guests get a throwaway identity so they can hold seats
// and reserve without an account.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
}

func NewAuthHandler(cfg config.Config, accounts *repository.AccountRepo) *AuthHandler {
	if accounts == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Accounts: accounts}
}

type signInReq struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type guestReq struct {
	Name string `json:"name"`
}

// SignIn handles POST /v1/auth/signin. On valid credentials it returns
// a bearer token identifying the customer. Unknown login ids and wrong
// passwords both yield the same 401 so the response does not reveal
// which accounts exist.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.LoginID = strings.TrimSpace(req.LoginID)
	if req.LoginID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login_id and password are required"})
	}

	cust, err := h.Accounts.CustomerByLoginID(c.Request().Context(), req.LoginID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !utils.VerifyPassword(cust.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	holder := model.Holder{Type: model.HolderCustomer, ID: cust.ID}
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, holder, h.Cfg.SessionTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp.Format(time.RFC3339),
		"holder": echo.Map{
			"type":   string(holder.Type),
			"id":     holder.ID,
			"name":   cust.Name,
			"points": cust.Points,
		},
	})
}

// GuestSession handles POST /v1/auth/guest. It creates a guest record
// and returns a bearer token for it. Guests cannot use points but may
// otherwise hold, reserve and pay like customers.
func (h *AuthHandler) GuestSession(c echo.Context) error {
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	guest := &model.Guest{Name: req.Name}
	if err := h.Accounts.CreateGuest(c.Request().Context(), guest); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	holder := model.Holder{Type: model.HolderGuest, ID: guest.ID}
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, holder, h.Cfg.SessionTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp.Format(time.RFC3339),
		"holder": echo.Map{
			"type": string(holder.Type),
			"id":   holder.ID,
			"name": guest.Name,
		},
	})
}
