package handlers

import (
	"context"
	"net/http"

	"pharmacy-manager/internal/docstore"
	"pharmacy-manager/internal/middleware"
	"pharmacy-manager/internal/services"

	"github.com/gin-gonic/gin"
)

// UserSchema is the fixed field set of the users collection. The password
// field holds a bcrypt hash, never plaintext.
var UserSchema = []string{"username", "password", "status", "admin"}

type UserHandler struct {
	store       docstore.Store
	authService *services.AuthService
}

func NewUserHandler(store docstore.Store, authService *services.AuthService) *UserHandler {
	return &UserHandler{
		store:       store,
		authService: authService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group(BasePath)

	api.POST("/users/register", h.Register)
	api.POST("/login", h.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.authService))
	protected.GET("/users/:id", h.GetUser)

	admin := protected.Group("")
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/users", h.GetAllUsers)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.PUT("/users/:id/promote", h.PromoteUser)
}

type registerRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// makePublicUser hides the password hash on top of the usual id-to-uri
// substitution.
func makePublicUser(c *gin.Context, user docstore.Record) gin.H {
	public := makePublic(c, "users", user)
	delete(public, "password")
	return public
}

// Register creates a new user account. Credentials come from Basic-Auth
// or a JSON body; new accounts start inactive and non-admin.
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Router /api/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == nil || req.Password == nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
		username = *req.Username
		password = *req.Password
	}

	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	existing, err := h.store.Get(c.Request.Context(), "username", username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(existing) > 0 {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "User already registered"})
		return
	}

	hash, err := h.authService.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	user, err := h.store.Create(c.Request.Context(), docstore.Record{
		"username": username,
		"password": hash,
		"status":   "inactive",
		"admin":    false,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user":    makePublicUser(c, user),
	})
}

// Login exchanges Basic-Auth credentials for a bearer token.
// @Summary Log in
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok || username == "" || password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	users, err := h.store.Get(c.Request.Context(), "username", username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	user := users[0]

	hash, _ := user["password"].(string)
	if !h.authService.CheckPassword(password, hash) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	status, _ := user["status"].(string)
	admin, _ := user["admin"].(bool)
	token, err := h.authService.GenerateToken(user.ID(), status, admin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetAllUsers lists every account. Admin only.
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /api/users [get]
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	public := make([]gin.H, 0, len(users))
	for _, user := range users {
		public = append(public, makePublicUser(c, user))
	}

	c.JSON(http.StatusOK, gin.H{"users": public})
}

// GetUser returns one account. Admins can read anyone; everyone else only
// themselves.
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	claims := middleware.CallerClaims(c)
	if claims == nil || (!claims.Admin && claims.UserID != id) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Admin privileges required"})
		return
	}

	users, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": makePublicUser(c, users[0])})
}

// DeleteUser removes an account. Admin only.
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResultResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	users, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), docstore.IDField, id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, ResultResponse{Result: true})
}

// PromoteUser grants admin rights and activates the account. Admin only.
// @Summary Promote a user to admin
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/users/{id}/promote [put]
func (h *UserHandler) PromoteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	users, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), docstore.Record{
		"admin":  true,
		"status": "active",
	}, docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": makePublicUser(c, updated[0])})
}

// SeedAdmin creates the bootstrap admin account if it is configured and
// does not exist yet.
func SeedAdmin(ctx context.Context, store docstore.Store, authService *services.AuthService, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := store.Get(ctx, "username", username)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = store.Create(ctx, docstore.Record{
		"username": username,
		"password": hash,
		"status":   "active",
		"admin":    true,
	})
	return err
}
