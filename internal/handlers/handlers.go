package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"pharmacy-manager/internal/docstore"

	"github.com/gin-gonic/gin"
)

// BasePath is the common root prefix shared by all three services.
const BasePath = "/api"

var datePattern = regexp.MustCompile(`^\d{8}$`)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ResultResponse struct {
	Result bool `json:"result"`
}

// makePublic is the public representation of a record: the internal id is
// replaced with a canonical URI so related resources can be dereferenced
// uniformly.
func makePublic(c *gin.Context, resource string, rec docstore.Record) gin.H {
	public := gin.H{}
	for field, value := range rec {
		if field == docstore.IDField {
			public["uri"] = resourceURI(c, resource, rec.ID())
		} else {
			public[field] = value
		}
	}
	return public
}

func resourceURI(c *gin.Context, resource string, id int64) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s/%s/%d", scheme, c.Request.Host, BasePath, resource, id)
}

// parseID reads the {id} path parameter. A non-numeric id can never match
// a record, so it reports 404 rather than 400.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return 0, false
	}
	return id, true
}
