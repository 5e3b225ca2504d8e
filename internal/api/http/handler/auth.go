package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/odonto_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/odonto_backend/internal/service/auth"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req auth.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tokens, err := h.svc.Login(c.Context(), req)
	if err != nil {
		return err
	}
	return ok(c, tokens)
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	if body.RefreshToken == "" {
		return auth.ErrInvalidToken
	}

	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return ok(c, tokens)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	sid, found := middleware.SessionIDFromFiber(c)
	if !found {
		return auth.ErrSessionNotFound
	}
	if err := h.svc.Logout(c.Context(), sid); err != nil {
		return err
	}
	return noContent(c)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	u, err := h.svc.Me(c.Context(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, u)
}

// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	var req auth.ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Context(), principal(c), req); err != nil {
		return err
	}
	return noContent(c)
}
