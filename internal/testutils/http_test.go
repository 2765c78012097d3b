package testutils

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMakeRequestWithHeaders(t *testing.T) {
	h := SetupHTTPTest()
	h.Router.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": body["name"], "secret": c.GetHeader("X-Webhook-Secret")})
	})

	recorder := h.MakeRequestWithHeaders(http.MethodPost, "/echo", map[string]string{"name": "ada"}, map[string]string{"X-Webhook-Secret": "s3cret"})

	var response map[string]string
	AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, "ada", response["name"])
	assert.Equal(t, "s3cret", response["secret"])
}

func TestAssertErrorResponse(t *testing.T) {
	h := SetupHTTPTest()
	h.Router.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
	})

	AssertErrorResponse(t, h.MakeRequest(http.MethodGet, "/missing", nil), http.StatusNotFound, "not found")
}
