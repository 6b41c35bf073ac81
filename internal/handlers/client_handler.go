package handlers

import (
	"net/http"

	"pharmacy-manager/internal/docstore"

	"github.com/gin-gonic/gin"
)

// ClientSchema is the fixed field set of the clients collection.
var ClientSchema = []string{"name", "phonenumber", "medicines"}

type ClientHandler struct {
	store docstore.Store
}

func NewClientHandler(store docstore.Store) *ClientHandler {
	return &ClientHandler{store: store}
}

func (h *ClientHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group(BasePath)

	api.POST("/clients", h.CreateClient)
	api.GET("/clients", h.GetAllClients)
	api.GET("/clients/:id", h.GetClient)
	api.PUT("/clients/:id", h.UpdateClient)
	api.DELETE("/clients/:id", h.DeleteClient)
}

type createClientRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phonenumber"`
}

type clientMedicine struct {
	URI      *string `json:"uri"`
	Quantity *int64  `json:"quantity"`
}

type updateClientRequest struct {
	Name        *string           `json:"name"`
	PhoneNumber *string           `json:"phonenumber"`
	Medicines   *[]clientMedicine `json:"medicines"`
}

// CreateClient registers a new client
// @Summary Create a client
// @Description Register a new client with a name and optional phone number
// @Tags clients
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	if req.Name == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	phonenumber := ""
	if req.PhoneNumber != nil {
		phonenumber = *req.PhoneNumber
	}

	client, err := h.store.Create(c.Request.Context(), docstore.Record{
		"name":        *req.Name,
		"phonenumber": phonenumber,
		"medicines":   []interface{}{},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": makePublic(c, "clients", client)})
}

// GetAllClients lists every registered client
// @Summary List clients
// @Tags clients
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/clients [get]
func (h *ClientHandler) GetAllClients(c *gin.Context) {
	clients, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	public := make([]gin.H, 0, len(clients))
	for _, client := range clients {
		public = append(public, makePublic(c, "clients", client))
	}

	c.JSON(http.StatusOK, gin.H{"clients": public})
}

// GetClient returns one client by id
// @Summary Get a client
// @Tags clients
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	clients, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(clients) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": makePublic(c, "clients", clients[0])})
}

// UpdateClient partially updates a client. The medicines list is validated
// element-wise: every entry needs a uri string and an integer quantity.
// @Summary Update a client
// @Tags clients
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	existing, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(existing) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	patch := docstore.Record{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.PhoneNumber != nil {
		patch["phonenumber"] = *req.PhoneNumber
	}
	if req.Medicines != nil {
		medicines := make([]interface{}, 0, len(*req.Medicines))
		for _, m := range *req.Medicines {
			if m.URI == nil || m.Quantity == nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
				return
			}
			medicines = append(medicines, map[string]interface{}{
				"uri":      *m.URI,
				"quantity": *m.Quantity,
			})
		}
		patch["medicines"] = medicines
	}

	updated, err := h.store.Update(c.Request.Context(), patch, docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": makePublic(c, "clients", updated[0])})
}

// DeleteClient removes a client by id
// @Summary Delete a client
// @Tags clients
// @Produce json
// @Success 200 {object} ResultResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	clients, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(clients) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), docstore.IDField, id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, ResultResponse{Result: true})
}
