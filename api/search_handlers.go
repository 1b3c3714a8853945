package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
)

// SearchHandler answers GET /search?search=<raw>.
// A missing parameter is an empty query and yields an empty list.
func (api *API) SearchHandler(c *gin.Context) {
	raw := c.Query("search")

	result, err := api.searcher.Search(c.Request.Context(), raw)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, internalErrors.ErrCorpusUnavailable) {
			SendCorpusUnavailableError(c, err)
			return
		}
		SendSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
