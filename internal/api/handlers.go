package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roach88/cube/internal/model"
)

// CreateSubmissionRequest carries no validation tags on the ids: an unknown
// or empty pair is answered with created=false, not a 400.
type CreateSubmissionRequest struct {
	TeamID     string `json:"teamId"`
	PuzzleID   string `json:"puzzleId"`
	Submission string `json:"submission"`
}

type UpdateSubmissionRequest struct {
	ID     int64  `param:"id"    json:"-" validate:"required"`
	Status string `json:"status" validate:"required"`
}

type SetVisibilityRequest struct {
	TeamID   string `param:"teamId"   json:"-" validate:"required"`
	PuzzleID string `param:"puzzleId" json:"-" validate:"required"`
	Status   string `json:"status"    validate:"required"`
}

type ListVisibilitiesRequest struct {
	TeamID   string `query:"teamId"`
	PuzzleID string `query:"puzzleId"`
}

type CreatedResponse struct {
	Created bool `json:"created"`
}

type UpdatedResponse struct {
	Updated bool `json:"updated"`
}

type ProcessedResponse struct {
	Processed bool `json:"processed"`
}

type SubmissionsResponse struct {
	Submissions []model.Submission `json:"submissions"`
}

type VisibilitiesResponse struct {
	Visibilities []model.Visibility `json:"visibilities"`
}

type VisibilityChangesResponse struct {
	VisibilityChanges []model.VisibilityChange `json:"visibilityChanges"`
}

type TeamsResponse struct {
	Teams []model.Team `json:"teams"`
}

// bind decodes and validates a request into req. Path parameter fields are
// tagged json:"-" so the body cannot replace ids taken from the URL.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	subs, err := h.svc.Submissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubmissionsResponse{Submissions: subs})
}

// CreateSubmission accepts an answer. created is false when the puzzle is
// not open for submissions for the team.
func (h *Handler) CreateSubmission(c echo.Context) error {
	var req CreateSubmissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	_, created, err := h.svc.Submit(c.Request().Context(), req.TeamID, req.PuzzleID, req.Submission)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CreatedResponse{Created: created})
}

func (h *Handler) GetSubmission(c echo.Context) error {
	var req struct {
		ID int64 `param:"id"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	sub, err := h.svc.Submission(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) UpdateSubmission(c echo.Context) error {
	var req UpdateSubmissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.svc.UpdateSubmission(c.Request().Context(), req.ID, model.SubmissionStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
}

func (h *Handler) ListVisibilities(c echo.Context) error {
	var req ListVisibilitiesRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	vs, err := h.svc.Visibilities(c.Request().Context(), req.TeamID, req.PuzzleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, VisibilitiesResponse{Visibilities: vs})
}

func (h *Handler) GetVisibility(c echo.Context) error {
	v, err := h.svc.Visibility(c.Request().Context(), c.Param("teamId"), c.Param("puzzleId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) SetVisibility(c echo.Context) error {
	var req SetVisibilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.svc.SetVisibility(c.Request().Context(), req.TeamID, req.PuzzleID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UpdatedResponse{Updated: updated})
}

func (h *Handler) ListVisibilityChanges(c echo.Context) error {
	changes, err := h.svc.VisibilityChanges(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, VisibilityChangesResponse{VisibilityChanges: changes})
}

// PostEvent dispatches an administrative event (HuntStart, FullRelease) and
// replies once its cascade has been applied.
func (h *Handler) PostEvent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body").SetInternal(err)
	}
	ev, err := model.DecodeEvent(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	if err := h.svc.PostEvent(c.Request().Context(), ev); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProcessedResponse{Processed: true})
}

func (h *Handler) ListTeams(c echo.Context) error {
	teams, err := h.svc.Teams(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TeamsResponse{Teams: teams})
}

func (h *Handler) GetTeam(c echo.Context) error {
	team, err := h.svc.Team(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, team)
}

func (h *Handler) GetUser(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
