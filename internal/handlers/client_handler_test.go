package handlers

import (
	"net/http"
	"testing"

	"pharmacy-manager/internal/docstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientTestRouter() *gin.Engine {
	router := gin.New()
	NewClientHandler(docstore.NewMemoryStore(ClientSchema)).RegisterRoutes(router)
	return router
}

func TestCreateClient(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{
		"name":        "Client A",
		"phonenumber": "+5516999999999",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	client := decodeBody(t, rr)["client"].(map[string]interface{})
	assert.Equal(t, "Client A", client["name"])
	assert.Equal(t, "+5516999999999", client["phonenumber"])
	assert.Empty(t, client["medicines"])
	assert.Contains(t, client["uri"], "/api/clients/")
	assert.NotContains(t, client, "id", "public representation hides the internal id")
}

func TestCreateClientValidation(t *testing.T) {
	router := newClientTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"phonenumber":"123"}`},
		{"name wrong type", `{"name":5}`},
		{"phonenumber wrong type", `{"name":"a","phonenumber":7}`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRawJSON(t, router, "POST", "/api/clients", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetClient(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{"name": "Client A"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "GET", "/api/clients/1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	client := decodeBody(t, rr)["client"].(map[string]interface{})
	assert.Equal(t, "Client A", client["name"])
	assert.Equal(t, "", client["phonenumber"], "absent phonenumber defaults to empty string")

	rr = doJSON(t, router, "GET", "/api/clients/99", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetAllClients(t *testing.T) {
	router := newClientTestRouter()

	for _, name := range []string{"a", "b"} {
		rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{"name": name}, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, router, "GET", "/api/clients", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	clients := decodeBody(t, rr)["clients"].([]interface{})
	assert.Len(t, clients, 2)
}

func TestUpdateClient(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{
		"name":        "Client A",
		"phonenumber": "111",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "PUT", "/api/clients/1", map[string]interface{}{
		"phonenumber": "222",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	client := decodeBody(t, rr)["client"].(map[string]interface{})
	assert.Equal(t, "222", client["phonenumber"])
	assert.Equal(t, "Client A", client["name"], "unnamed fields stay untouched")
}

func TestUpdateClientMedicinesList(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{"name": "Client A"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "PUT", "/api/clients/1", map[string]interface{}{
		"medicines": []map[string]interface{}{
			{"uri": "http://localhost/api/medicines/1", "quantity": 2},
		},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	client := decodeBody(t, rr)["client"].(map[string]interface{})
	medicines := client["medicines"].([]interface{})
	require.Len(t, medicines, 1)
	entry := medicines[0].(map[string]interface{})
	assert.Equal(t, float64(2), entry["quantity"])

	// Entries missing uri or quantity reject the whole write.
	rr = doJSON(t, router, "PUT", "/api/clients/1", map[string]interface{}{
		"medicines": []map[string]interface{}{{"uri": "http://localhost/api/medicines/1"}},
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRawJSON(t, router, "PUT", "/api/clients/1", `{"medicines":[{"uri":"u","quantity":1.5}]}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateMissingClient(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "PUT", "/api/clients/42", map[string]interface{}{"name": "x"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteClient(t *testing.T) {
	router := newClientTestRouter()

	rr := doJSON(t, router, "POST", "/api/clients", map[string]interface{}{"name": "Client A"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "DELETE", "/api/clients/1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["result"])

	rr = doJSON(t, router, "GET", "/api/clients/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, "DELETE", "/api/clients/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
