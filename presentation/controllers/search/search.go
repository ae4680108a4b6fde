package search

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/application/usecases/search"
	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/presentation/middlewares"
)

type SearchController interface {
	SearchMessages(ctx *gin.Context)
	IndexMessage(ctx *gin.Context)
}

type searchController struct {
	usecase search.SearchUseCase
}

func NewSearchController(usecase search.SearchUseCase) SearchController {
	return &searchController{usecase: usecase}
}

func (c *searchController) SearchMessages(ctx *gin.Context) {
	f := filter.MessageFilter{
		ChannelID: ctx.Query("channel_id"),
		GuildID:   ctx.Query("guild_id"),
		AuthorID:  ctx.Query("author_id"),
	}

	page, err := c.usecase.SearchMessages(
		ctx.Request.Context(),
		ctx.Query("q"),
		f,
		lenientInt(ctx.Query("limit")),
		lenientInt(ctx.Query("offset")),
	)
	if err != nil {
		respondError(ctx, "search_failed", err)
		return
	}

	results := make([]SearchResultResponse, 0, len(page.Results))
	for _, r := range page.Results {
		results = append(results, SearchResultResponse(r))
	}

	ctx.JSON(http.StatusOK, SearchMessagesResponse{
		Results:   results,
		TotalHits: page.TotalHits,
		Ranked:    page.Ranked,
	})
}

func (c *searchController) IndexMessage(ctx *gin.Context) {
	var req IndexMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}

	err := c.usecase.IndexMessage(ctx.Request.Context(), model.IndexDocument{
		MessageID: req.MessageID,
		Content:   req.Content,
		AuthorID:  req.AuthorID,
		ChannelID: req.ChannelID,
		GuildID:   req.GuildID,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		respondError(ctx, "index_failed", err)
		return
	}

	ctx.JSON(http.StatusOK, IndexMessageResponse{Success: true})
}

// lenientInt treats a missing or malformed number as 0; the use case clamps it.
func lenientInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func respondError(ctx *gin.Context, code string, err error) {
	_ = ctx.Error(err)

	if apperror.KindOf(err) == apperror.KindValidation {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: apperror.Message(err),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   code,
		Message: apperror.Message(err),
	})
}
