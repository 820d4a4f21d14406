package badges

import (
	"net/http"

	"go.uber.org/zap"

	"wellnesshub/internal/middleware"
	"wellnesshub/internal/models"
	"wellnesshub/internal/response"
	"wellnesshub/internal/services"
)

// BadgeController exposes badge evaluation and listing for the authenticated user
type BadgeController struct {
	badgeService    services.BadgeService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewBadgeController creates a badge API controller
func NewBadgeController(
	badgeService services.BadgeService,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *BadgeController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if responseBuilder == nil {
		responseBuilder = response.NewBuilder(nil, logger)
	}
	return &BadgeController{
		badgeService:    badgeService,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// EvaluateResponse lists the badges awarded by one evaluation
type EvaluateResponse struct {
	Awarded []*models.NewlyEarnedBadge `json:"awarded"`
}

// Evaluate godoc
// @Summary Evaluate badges
// @Description Awards every active badge whose threshold the user now meets. Repeated calls never award a badge twice.
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=EvaluateResponse}
// @Failure 401 {object} response.APIResponse
// @Failure 504 {object} response.APIResponse "Evaluation timed out"
// @Router /badges/evaluate [post]
func (c *BadgeController) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.requireUser(w, r)
	if !ok {
		return
	}

	earned, err := c.badgeService.Evaluate(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	if len(earned) > 0 {
		middleware.GetRequestLogger(r.Context()).Info("Badges awarded via API",
			zap.String("user_id", userID),
			zap.Int("count", len(earned)),
		)
	}

	c.responseBuilder.WriteSuccess(w, r, &EvaluateResponse{Awarded: earned})
}

// ListBadges godoc
// @Summary List earned badges
// @Description Newest first. Without a limit every badge is returned; otherwise the limit is clamped to 1-50.
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum results"
// @Success 200 {object} response.APIResponse{data=[]models.UserBadgeView}
// @Failure 401 {object} response.APIResponse
// @Router /badges [get]
func (c *BadgeController) ListBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.requireUser(w, r)
	if !ok {
		return
	}

	limit := services.ResolveLimit(services.ParseLimit(r.URL.Query().Get("limit")), nil,
		services.MinBadgeListLimit, services.MaxBadgeListLimit)

	views, err := c.badgeService.GetUserBadges(r.Context(), userID, limit)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteList(w, r, views, len(views), limit)
}

// ListHighlights godoc
// @Summary List highlighted badges
// @Description Badges still inside their highlight window, newest first. The limit defaults to 3 and is clamped to 1-20.
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum results" default(3)
// @Success 200 {object} response.APIResponse{data=[]models.HighlightedBadgeView}
// @Failure 401 {object} response.APIResponse
// @Router /badges/highlights [get]
func (c *BadgeController) ListHighlights(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.requireUser(w, r)
	if !ok {
		return
	}

	defaultLimit := services.DefaultHighlightLimit
	limit := services.ResolveLimit(services.ParseLimit(r.URL.Query().Get("limit")), &defaultLimit,
		services.MinHighlightLimit, services.MaxHighlightLimit)

	views, err := c.badgeService.GetHighlightedBadges(r.Context(), userID, limit)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteList(w, r, views, len(views), limit)
}

func (c *BadgeController) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		c.responseBuilder.WriteError(w, r, services.NewUnauthorizedError("Authentication required"))
		return "", false
	}
	return userID, true
}
