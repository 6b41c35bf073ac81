package handlers

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"pharmacy-manager/internal/cache"
	"pharmacy-manager/internal/docstore"
	"pharmacy-manager/internal/middleware"
	"pharmacy-manager/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MedicineSchema is the fixed field set of the medicines collection.
var MedicineSchema = []string{"name", "type", "dosage", "price", "manufacturer", "sales"}

const defaultMostConsumedLimit = 100

type MedicineHandler struct {
	store    docstore.Store
	cache    *cache.Manager
	hub      *WebSocketHandler
	cacheTTL time.Duration
}

func NewMedicineHandler(store docstore.Store, cacheManager *cache.Manager, hub *WebSocketHandler, cacheTTL time.Duration) *MedicineHandler {
	return &MedicineHandler{
		store:    store,
		cache:    cacheManager,
		hub:      hub,
		cacheTTL: cacheTTL,
	}
}

func (h *MedicineHandler) RegisterRoutes(router *gin.Engine, authService *services.AuthService) {
	api := router.Group(BasePath)

	api.GET("/medicines", h.GetAllMedicines)
	api.GET("/medicines/mostconsumed", h.MostConsumed)
	api.GET("/medicines/:id", h.GetMedicine)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))

	protected.POST("/medicines", h.CreateMedicine)
	protected.PUT("/medicines/:id", h.UpdateMedicine)
	protected.DELETE("/medicines/:id", h.DeleteMedicine)
	protected.PUT("/medicines/:id/sales", h.UpdateSales)
	protected.POST("/medicines/sales", h.ImportSales)
}

type createMedicineRequest struct {
	Name         *string  `json:"name"`
	Type         *string  `json:"type"`
	Dosage       *string  `json:"dosage"`
	Price        *float64 `json:"price"`
	Manufacturer *string  `json:"manufacturer"`
}

type updateMedicineRequest struct {
	Name         *string  `json:"name"`
	Type         *string  `json:"type"`
	Dosage       *string  `json:"dosage"`
	Price        *float64 `json:"price"`
	Manufacturer *string  `json:"manufacturer"`
}

type MostConsumedEntry struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type MostConsumedResponse struct {
	Medicines []MostConsumedEntry `json:"medicines"`
}

// CreateMedicine registers a new medicine
// @Summary Create a medicine
// @Tags medicines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/medicines [post]
func (h *MedicineHandler) CreateMedicine(c *gin.Context) {
	var req createMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	if req.Name == nil || req.Dosage == nil || req.Manufacturer == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	medicineType := ""
	if req.Type != nil {
		medicineType = *req.Type
	}
	price := 0.0
	if req.Price != nil {
		price = *req.Price
	}

	medicine, err := h.store.Create(c.Request.Context(), docstore.Record{
		"name":         *req.Name,
		"type":         medicineType,
		"dosage":       *req.Dosage,
		"price":        price,
		"manufacturer": *req.Manufacturer,
		"sales":        map[string]int64{},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": makePublic(c, "medicines", medicine)})
}

// GetAllMedicines lists every registered medicine
// @Summary List medicines
// @Tags medicines
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/medicines [get]
func (h *MedicineHandler) GetAllMedicines(c *gin.Context) {
	medicines, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	public := make([]gin.H, 0, len(medicines))
	for _, medicine := range medicines {
		public = append(public, makePublic(c, "medicines", medicine))
	}

	c.JSON(http.StatusOK, gin.H{"medicines": public})
}

// GetMedicine returns one medicine by id
// @Summary Get a medicine
// @Tags medicines
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/medicines/{id} [get]
func (h *MedicineHandler) GetMedicine(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	medicines, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(medicines) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": makePublic(c, "medicines", medicines[0])})
}

// UpdateMedicine partially updates a medicine. The sales history has its
// own endpoint and is excluded here, as is the id.
// @Summary Update a medicine
// @Tags medicines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/medicines/{id} [put]
func (h *MedicineHandler) UpdateMedicine(c *gin.Context) {
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

	var req updateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	patch := docstore.Record{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Type != nil {
		patch["type"] = *req.Type
	}
	if req.Dosage != nil {
		patch["dosage"] = *req.Dosage
	}
	if req.Price != nil {
		patch["price"] = *req.Price
	}
	if req.Manufacturer != nil {
		patch["manufacturer"] = *req.Manufacturer
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

	c.JSON(http.StatusOK, gin.H{"medicine": makePublic(c, "medicines", updated[0])})
}

// DeleteMedicine removes a medicine by id
// @Summary Delete a medicine
// @Tags medicines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResultResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/medicines/{id} [delete]
func (h *MedicineHandler) DeleteMedicine(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	medicines, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(medicines) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), docstore.IDField, id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, ResultResponse{Result: true})
}

// UpdateSales merges a date-to-quantity map into a medicine's sales
// history. A zero quantity deletes that date's entry; zero-valued entries
// never persist.
// @Summary Update a medicine's sales history
// @Tags medicines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/medicines/{id}/sales [put]
func (h *MedicineHandler) UpdateSales(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	medicines, err := h.store.Get(c.Request.Context(), docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(medicines) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	var patch map[string]int64
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	for date, quantity := range patch {
		if !datePattern.MatchString(date) || quantity < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
	}

	merged := mergeSales(salesOf(medicines[0]), patch)

	updated, err := h.store.Update(c.Request.Context(), docstore.Record{"sales": merged}, docstore.IDField, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}
	if len(updated) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	h.notifySalesUpdate(id, merged)

	c.JSON(http.StatusOK, gin.H{"medicine": makePublic(c, "medicines", updated[0])})
}

// ImportSales applies a CSV of sales updates. The header row is "name"
// followed by YYYYMMDD date columns; each data row names a medicine and
// gives one cell per date. Empty cells are skipped, zero deletes the
// date's entry. Rows apply sequentially with no rollback: a bad row
// aborts the rest but keeps what was already written.
// @Summary Bulk-update sales histories from a CSV file
// @Tags medicines
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/medicines/sales [post]
func (h *MedicineHandler) ImportSales(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil || len(header) < 2 || header[0] != "name" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}
	dates := header[1:]
	for _, date := range dates {
		if !datePattern.MatchString(date) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
	}

	updated := []gin.H{}
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}

		patch := map[string]int64{}
		valid := true
		for i, cell := range row[1:] {
			if cell == "" {
				continue
			}
			quantity, err := strconv.ParseInt(cell, 10, 64)
			if err != nil || quantity < 0 {
				valid = false
				break
			}
			patch[dates[i]] = quantity
		}
		if !valid || row[0] == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}

		matches, err := h.store.Get(c.Request.Context(), "name", row[0])
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			return
		}
		if len(matches) == 0 {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
			return
		}

		for _, medicine := range matches {
			id := medicine.ID()
			merged := mergeSales(salesOf(medicine), patch)

			rows, err := h.store.Update(c.Request.Context(), docstore.Record{"sales": merged}, docstore.IDField, id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
				return
			}
			if len(rows) > 0 {
				h.notifySalesUpdate(id, merged)
				updated = append(updated, makePublic(c, "medicines", rows[0]))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id":  uuid.New().String(),
		"medicines": updated,
	})
}

// MostConsumed ranks medicines by units sold inside a date window.
// @Summary Most-consumed medicines
// @Description Rank medicines by total units sold between begin and end (inclusive, YYYYMMDD). Returns CSV when csv=true.
// @Tags medicines
// @Produce json
// @Param most query int false "maximum number of results" default(100)
// @Param begin query string false "window start, YYYYMMDD"
// @Param end query string false "window end, YYYYMMDD"
// @Param csv query bool false "render as CSV"
// @Success 200 {object} MostConsumedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/medicines/mostconsumed [get]
func (h *MedicineHandler) MostConsumed(c *gin.Context) {
	most := defaultMostConsumedLimit
	if raw := c.Query("most"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
		most = n
	}

	begin := c.Query("begin")
	end := c.Query("end")
	if (begin != "" && !datePattern.MatchString(begin)) ||
		(end != "" && !datePattern.MatchString(end)) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	asCSV := false
	if raw := c.Query("csv"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
		asCSV = v
	}

	// Only the default query is hot enough to cache; parameterized windows
	// are computed per request.
	defaultQuery := most == defaultMostConsumedLimit && begin == "" && end == "" && !asCSV
	if defaultQuery && h.cache != nil {
		var cached MostConsumedResponse
		if found, err := h.cache.Get(cache.MostConsumedKey, &cached); found && err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	entries, err := h.rankMostConsumed(c, begin, end, most)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	if asCSV {
		writeMostConsumedCSV(c, entries)
		return
	}

	response := MostConsumedResponse{Medicines: entries}
	if defaultQuery && h.cache != nil {
		h.cache.Set(cache.MostConsumedKey, response, h.cacheTTL)
	}

	c.JSON(http.StatusOK, response)
}

func (h *MedicineHandler) rankMostConsumed(c *gin.Context, begin, end string, most int) ([]MostConsumedEntry, error) {
	medicines, err := h.store.GetAll(c.Request.Context())
	if err != nil {
		return nil, err
	}

	// Effective window: caller bounds clamped to the globally recorded
	// range. Fixed-width YYYYMMDD strings compare consistently.
	globalMin, globalMax := "", ""
	for _, medicine := range medicines {
		for date := range salesOf(medicine) {
			if globalMin == "" || date < globalMin {
				globalMin = date
			}
			if globalMax == "" || date > globalMax {
				globalMax = date
			}
		}
	}
	if globalMin == "" {
		return []MostConsumedEntry{}, nil
	}

	effBegin := globalMin
	if begin != "" && begin > effBegin {
		effBegin = begin
	}
	effEnd := globalMax
	if end != "" && end < effEnd {
		effEnd = end
	}

	entries := []MostConsumedEntry{}
	for _, medicine := range medicines {
		var total int64
		for date, quantity := range salesOf(medicine) {
			if date >= effBegin && date <= effEnd {
				total += quantity
			}
		}
		if total == 0 {
			continue
		}
		name, _ := medicine["name"].(string)
		entries = append(entries, MostConsumedEntry{
			URI:      resourceURI(c, "medicines", medicine.ID()),
			Name:     name,
			Quantity: total,
		})
	}

	// Tie-break is the store's scan order, nothing stronger.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Quantity > entries[j].Quantity
	})

	if len(entries) > most {
		entries = entries[:most]
	}
	return entries, nil
}

// writeMostConsumedCSV always emits the header row, so an empty result is
// a valid header-only CSV rather than an error.
func writeMostConsumedCSV(c *gin.Context, entries []MostConsumedEntry) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=mostconsumed.csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"name", "quantity"})
	for _, entry := range entries {
		writer.Write([]string{entry.Name, strconv.FormatInt(entry.Quantity, 10)})
	}
	writer.Flush()
}

func (h *MedicineHandler) notifySalesUpdate(medicineID int64, sales map[string]int64) {
	if h.cache != nil {
		h.cache.PublishUpdate(medicineID)
	}
	if h.hub != nil {
		h.hub.BroadcastSalesUpdate(medicineID, sales)
	}
}

// salesOf reads a record's sales history as date -> quantity.
func salesOf(rec docstore.Record) map[string]int64 {
	sales := map[string]int64{}
	raw, ok := rec["sales"].(map[string]interface{})
	if !ok {
		return sales
	}
	for date, v := range raw {
		if quantity, ok := v.(float64); ok {
			sales[date] = int64(quantity)
		}
	}
	return sales
}

// mergeSales overlays patch onto existing. Zero quantities delete, so no
// zero-valued entry ever persists.
func mergeSales(existing, patch map[string]int64) map[string]int64 {
	merged := make(map[string]int64, len(existing)+len(patch))
	for date, quantity := range existing {
		merged[date] = quantity
	}
	for date, quantity := range patch {
		if quantity == 0 {
			delete(merged, date)
		} else {
			merged[date] = quantity
		}
	}
	return merged
}
