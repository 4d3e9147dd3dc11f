package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// GetLogFile serves the contents of a log file as plain text, or a 404 with
// a short plain-text message when the file does not exist.
func GetLogFile(path, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := os.ReadFile(path)
		if err != nil {
			c.String(http.StatusNotFound, "%s not found", name)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
	}
}
