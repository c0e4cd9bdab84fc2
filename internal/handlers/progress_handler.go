package handlers

import (
	"net/http"
	"strconv"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ProgressHandler handles watch progress HTTP requests
type ProgressHandler struct {
	progressRepository repositories.ProgressRepository
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(progressRepo repositories.ProgressRepository) *ProgressHandler {
	return &ProgressHandler{progressRepository: progressRepo}
}

// RegisterProgressRoutes registers watch progress routes
func (h *ProgressHandler) RegisterProgressRoutes(g *echo.Group) {
	g.POST("/progress/save", h.SaveProgress)
	g.GET("/progress/continue-watching", h.GetContinueWatching)
	g.DELETE("/progress/:titleId/:episodeId", h.DeleteProgress)
	g.DELETE("/progress", h.ClearHistory)
}

// SaveProgress upserts one progress report into the canonical record
func (h *ProgressHandler) SaveProgress(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SaveProgressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rec := &models.ProgressRecord{
		UserID:      currentUserID,
		TitleID:     req.TitleID,
		TitleName:   req.TitleName,
		TitleThumb:  req.TitleThumb,
		EpisodeID:   req.EpisodeID,
		EpisodeName: req.EpisodeName,
		ServerLabel: req.ServerLabel,
		CurrentTime: req.CurrentTime,
		Duration:    req.Duration,
	}

	if err := h.progressRepository.Upsert(c.Request().Context(), rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": rec})
}

// GetContinueWatching returns the user's progress ordered by last watched
func (h *ProgressHandler) GetContinueWatching(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	records, err := h.progressRepository.ListByUser(c.Request().Context(), currentUserID, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"items": records,
		},
	})
}

// DeleteProgress removes one record by its compound key
func (h *ProgressHandler) DeleteProgress(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	titleID := c.Param("titleId")
	episodeID := c.Param("episodeId")

	if err := h.progressRepository.Delete(c.Request().Context(), currentUserID, titleID, episodeID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ClearHistory removes the user's entire watch history
func (h *ProgressHandler) ClearHistory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.progressRepository.ClearByUser(c.Request().Context(), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
