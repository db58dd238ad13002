package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewme/internal/httpx"
)

type Handler struct {
	Service *Service
	Cookies CookieConfig
}

func NewHandler(svc *Service, cookies CookieConfig) *Handler {
	return &Handler{Service: svc, Cookies: cookies}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-up", h.signUp)
	rg.POST("/sign-in", h.signIn)
	rg.POST("/sign-out", h.signOut)
}

func (h *Handler) signUp(c *gin.Context) {
	var req SignUpInput
	if err := httpx.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if _, err := h.Service.SignUp(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}

	httpx.Message(c, http.StatusCreated, "User created successfully")
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInInput
	if err := httpx.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	sess, err := h.Service.SignIn(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.Cookies.Set(c.Writer, sess.Token)
	httpx.Data(c, http.StatusOK, "User logged in successfully", sess.User)
}

func (h *Handler) signOut(c *gin.Context) {
	h.Cookies.Clear(c.Writer)
	httpx.Message(c, http.StatusOK, "User signed out successfully")
}
