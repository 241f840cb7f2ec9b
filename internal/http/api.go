package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"people-search/internal/domain"
	"people-search/internal/handle"
	"people-search/internal/repository"
	"people-search/internal/search"
	"people-search/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	search    search.Service
	users     service.UserService
	relations service.RelationService
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logrus.Logger
}

func NewHandler(searchSvc search.Service, users service.UserService, relations service.RelationService, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Handler{
		search:    searchSvc,
		users:     users,
		relations: relations,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/handles/check", h.checkHandle)
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		authed := api.Group("", h.requireAuth())
		{
			authed.GET("/search/users", h.searchUsers)
			authed.GET("/search/users/:handle", h.lookupHandle)
			authed.GET("/search/suggested", h.suggested)
			authed.GET("/search/live", h.liveSearch)

			authed.POST("/users/:handle/follow", h.setRelation(domain.RelationFollow))
			authed.DELETE("/users/:handle/follow", h.clearRelation(domain.RelationFollow))
			authed.POST("/users/:handle/block", h.setRelation(domain.RelationBlock))
			authed.DELETE("/users/:handle/block", h.clearRelation(domain.RelationBlock))
			authed.POST("/users/:handle/mute", h.setRelation(domain.RelationMute))
			authed.DELETE("/users/:handle/mute", h.clearRelation(domain.RelationMute))
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) searchUsers(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	page, err := h.search.Search(c.Request.Context(), viewerID(c), q, intQuery(c, "limit"), c.Query("after"))
	if err != nil {
		h.logger.Warnf("search: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, pageToResponse(page))
}

func (h *Handler) suggested(c *gin.Context) {
	items, err := h.search.Suggested(c.Request.Context(), viewerID(c), intQuery(c, "limit"))
	if err != nil {
		h.logger.Warnf("suggested: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "suggestions failed"})
		return
	}

	c.JSON(http.StatusOK, SuggestedResponse{
		Items: usersToResponse(items),
		Count: len(items),
	})
}

func (h *Handler) lookupHandle(c *gin.Context) {
	user, err := h.search.LookupHandle(c.Request.Context(), viewerID(c), c.Param("handle"))
	if err != nil {
		h.logger.Warnf("lookup handle: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) checkHandle(c *gin.Context) {
	raw := c.Query("handle")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'handle' is required"})
		return
	}

	check, err := h.users.CheckHandle(c.Request.Context(), raw)
	if err != nil {
		h.logger.Warnf("check handle: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "handle check failed"})
		return
	}

	if check.Violation != handle.ViolationNone && check.Violation != handle.ViolationReserved {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     check.Violation.Message(),
			"violation": string(check.Violation),
		})
		return
	}

	resp := HandleCheckResponse{
		Handle:      check.Handle,
		Available:   check.Available,
		Suggestions: check.Suggestions,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	if check.Violation == handle.ViolationReserved {
		v := string(check.Violation)
		resp.Violation = &v
	}
	c.JSON(http.StatusOK, resp)
}

type registerRequest struct {
	Handle         string `json:"handle" binding:"required"`
	DisplayName    string `json:"display_name"`
	Password       string `json:"password" binding:"required"`
	RegisterSecret string `json:"register_secret" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Handle, req.DisplayName, req.Password, req.RegisterSecret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRegistrationPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserAlreadyExists), errors.Is(err, service.ErrInvalidHandle):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user.SearchUser))
}

type loginRequest struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Handle, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Warnf("issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuing failed"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  userToResponse(user.SearchUser),
	})
}

func (h *Handler) setRelation(kind domain.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.applyRelation(c, kind, h.relations.Set)
	}
}

func (h *Handler) clearRelation(kind domain.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.applyRelation(c, kind, h.relations.Clear)
	}
}

type relationOp func(ctx context.Context, viewerID, targetHandle string, kind domain.RelationKind) error

func (h *Handler) applyRelation(c *gin.Context, kind domain.RelationKind, op relationOp) {
	if err := op(c.Request.Context(), viewerID(c), c.Param("handle"), kind); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrSelfRelation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Warnf("%s relation: %v", kind, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "relation update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func viewerID(c *gin.Context) string {
	return c.GetString(contextViewerKey)
}

// intQuery parses an optional integer parameter; absent or malformed
// values return 0 and defer to service-side defaults.
func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
