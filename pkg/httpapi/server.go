// Package httpapi is the HTTP surface (C7): three required routes
// plus a richer set exercising multi_set, scan and the row verbs, per
// §6's "a richer deployment may expose ... the core contract does not
// depend on route shape."
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/bobboyms/vkv/pkg/errors"
	"github.com/bobboyms/vkv/pkg/logging"
	"github.com/bobboyms/vkv/pkg/storage"
)

const banner = "vkv — versioned key-value store"

// NewRouter builds the gin engine wired to svc.
func NewRouter(svc *storage.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", handleBanner)
	r.GET("/get/:key", handleGet(svc))
	r.GET("/set/:key/:value", handleSet(svc))
	r.POST("/multi_set", handleMultiSet(svc))
	r.GET("/scan/:start/:end", handleScan(svc))

	rows := r.Group("/tables/:table/rows")
	rows.POST("", handleInsertRow(svc))
	rows.GET("/:id", handleGetRow(svc))
	rows.PUT("/:id", handleUpdateRow(svc))
	rows.GET("", handleGetByCol(svc))

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logging.Get().Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

func handleBanner(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

func handleGet(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		value, found, err := svc.Get(key)
		if err != nil {
			writeErr(c, err)
			return
		}
		if !found {
			logging.Get().Debug("get miss", "err", (&apierrors.NotFoundError{Key: key}).Error())
			c.String(http.StatusOK, "Not found!")
			return
		}
		c.String(http.StatusOK, value)
	}
}

func handleSet(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		value := c.Param("value")
		msg, err := svc.Set(key, value)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.String(http.StatusOK, msg)
	}
}

func handleMultiSet(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var kv map[string]string
		if err := c.ShouldBindJSON(&kv); err != nil {
			c.String(http.StatusBadRequest, "bad request: %v", err)
			return
		}
		msg, err := svc.MultiSet(kv)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.String(http.StatusOK, msg)
	}
}

func handleScan(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := c.Param("start")
		end := c.Param("end")
		values, err := svc.Scan(start, end)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, values)
	}
}

type insertRowRequest struct {
	Columns map[string]string `json:"columns"`
	Indexed []string           `json:"indexed"`
}

func handleInsertRow(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Param("table")
		var req insertRowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "bad request: %v", err)
			return
		}
		id, err := svc.InsertRow(table, req.Columns, req.Indexed)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

type updateRowRequest struct {
	Columns map[string]string `json:"columns"`
}

func handleUpdateRow(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Param("table")
		id := c.Param("id")
		var req updateRowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "bad request: %v", err)
			return
		}
		if err := svc.UpdateRow(table, id, req.Columns); err != nil {
			writeErr(c, err)
			return
		}
		c.Status(http.StatusOK)
	}
}

func handleGetRow(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Param("table")
		id := c.Param("id")
		row, found, err := svc.GetRow(table, id)
		if err != nil {
			writeErr(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func handleGetByCol(svc *storage.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Param("table")
		column := c.Query("column")
		value := c.Query("value")
		if column == "" {
			c.String(http.StatusBadRequest, "column query parameter is required")
			return
		}
		row, found, err := svc.GetByCol(table, column, value)
		if err != nil {
			writeErr(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func writeErr(c *gin.Context, err error) {
	logging.Get().Error("verb failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
