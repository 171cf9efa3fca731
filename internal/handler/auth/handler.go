package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    *auth.Service
	users  *user.Service
	cookie CookieConfig
	limit  gin.HandlerFunc
}

// NewHandler wires the login endpoints. limit guards them against
// credential stuffing; nil disables it.
func NewHandler(svc *auth.Service, users *user.Service, cookie CookieConfig, limit gin.HandlerFunc) *Handler {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	return &Handler{svc: svc, users: users, cookie: cookie, limit: limit}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.limit, h.Register)
		auth.POST("/login", h.limit, h.Login)
		auth.POST("/session", h.limit, h.StartSession)
		auth.POST("/logout", h.Logout)
	}
	h.RegisterIdentityRoutes(r)
}

// RegisterIdentityRoutes mounts the session probes used by the web pages.
func (h *Handler) RegisterIdentityRoutes(r *gin.RouterGroup) {
	r.GET("/check-auth", h.CheckAuth)
	r.GET("/getUser", middleware.RequireAuth(), h.GetUser)
}

func isForm(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func bindMessage(err error) string {
	if fe, ok := validator.FirstError(err); ok {
		return fe.Message
	}
	return "invalid request body"
}

func formRedirect(c *gin.Context, page, key, msg string) {
	c.Redirect(http.StatusFound, page+"?"+key+"="+url.QueryEscape(msg))
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		if isForm(c) {
			formRedirect(c, "/register.html", "error", bindMessage(err))
			return
		}
		handler.RespondBindError(c, err)
		return
	}

	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		if isForm(c) {
			_, body := handler.ErrorBody(err)
			formRedirect(c, "/register.html", "error", body.Message)
			return
		}
		handler.RespondError(c, err)
		return
	}
	if isForm(c) {
		formRedirect(c, "/login.html", "message", "Registration successful, please log in")
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("registration successful", u.Principal().Summary()))
}

// Login issues a bearer token for API clients.
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	p, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	resp, err := h.svc.IssueToken(c.Request.Context(), p)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

// StartSession logs a browser in with a session cookie.
func (h *Handler) StartSession(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if isForm(c) {
			formRedirect(c, "/login.html", "message", bindMessage(err))
			return
		}
		handler.RespondBindError(c, err)
		return
	}

	p, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err == nil {
		var id string
		if id, err = h.svc.StartSession(c.Request.Context(), p); err == nil {
			h.setCookie(c, id, int(h.svc.SessionTTL().Seconds()))
		}
	}
	if err != nil {
		if isForm(c) {
			_, body := handler.ErrorBody(err)
			formRedirect(c, "/login.html", "message", body.Message)
			return
		}
		handler.RespondError(c, err)
		return
	}

	if isForm(c) {
		c.Redirect(http.StatusFound, landingPage(p.Role))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p.Summary()))
}

func landingPage(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "/admin.html"
	case model.RoleStaff, model.RoleDoctor:
		return "/portal.html"
	default:
		return "/appointments.html"
	}
}

func (h *Handler) Logout(c *gin.Context) {
	if id, err := c.Cookie(h.cookie.Name); err == nil && id != "" {
		p, _ := middleware.Principal(c)
		if err := h.svc.EndSession(c.Request.Context(), p, id); err != nil {
			handler.RespondError(c, err)
			return
		}
	}
	h.setCookie(c, "", -1)
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		formRedirect(c, "/login.html", "message", "You have been logged out")
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("logged out", nil))
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

// CheckAuth never fails; anonymous callers get authenticated=false.
func (h *Handler) CheckAuth(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": p.Summary()})
}

func (h *Handler) GetUser(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(middleware.MustPrincipal(c).Summary()))
}
