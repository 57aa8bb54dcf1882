package api

import (
	"errors"
	"net/http"

	"github.com/conduit-article-api/internal/models"
	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto the response taxonomy: 404 for
// missing resources, 422 for validation/ownership failures with every
// offending field listed, 409 for unresolved unique collisions, and an
// opaque 500 for everything else.
func writeError(c *gin.Context, err error) {
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": gin.H{nf.Resource: []string{"not found"}},
		})
		return
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string][]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = append(fields[f.Field], f.Message)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fields})
		return
	}

	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"errors": gin.H{conflict.Resource: []string{"already exists"}},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"errors": gin.H{"server": []string{"internal error"}},
	})
}

// badBody rejects an unparseable request body
func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"errors": gin.H{"body": []string{err.Error()}},
	})
}
