package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/request"
	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/response"
	"github.com/Injamhossan/contest-arena/internal/api/middleware"
	"github.com/Injamhossan/contest-arena/internal/domain"
)

type ContestService interface {
	Create(ctx context.Context, sess domain.Session, contest domain.Contest) (domain.Contest, error)
	Get(ctx context.Context, sess domain.Session, id uint) (domain.Contest, error)
	List(ctx context.Context, filter domain.ContestFilter) ([]domain.Contest, int64, error)
	Popular(ctx context.Context) ([]domain.Contest, error)
	ListMine(ctx context.Context, sess domain.Session, filter domain.ContestFilter) ([]domain.Contest, int64, error)
	ListAll(ctx context.Context, sess domain.Session, filter domain.ContestFilter) ([]domain.Contest, int64, error)
	Approve(ctx context.Context, sess domain.Session, id uint) (domain.Contest, error)
	Update(ctx context.Context, sess domain.Session, id uint, update domain.ContestUpdate) (domain.Contest, error)
	Delete(ctx context.Context, sess domain.Session, id uint) error
	DeclareWinner(ctx context.Context, sess domain.Session, contestID, winnerUserID uint) (domain.Contest, error)
}

type ContestHandler struct {
	svc ContestService
}

func NewContestHandler(svc ContestService) *ContestHandler {
	return &ContestHandler{
		svc: svc,
	}
}

func toContestResponse(c domain.Contest, now time.Time) response.ContestResponse {
	return response.ContestResponse{
		Contest:      c,
		Availability: c.Availability(now),
	}
}

func toContestList(contests []domain.Contest, total int64) response.ListResponse[response.ContestResponse] {
	now := time.Now()
	items := make([]response.ContestResponse, 0, len(contests))
	for _, c := range contests {
		items = append(items, toContestResponse(c, now))
	}

	return response.ListResponse[response.ContestResponse]{Items: items, Total: total}
}

// HandleListContests godoc
// @Summary      List public contests
// @Tags         contests
// @Produce      json
// @Param        type    query     string  false  "contest type"
// @Param        search  query     string  false  "name search"
// @Param        sort    query     string  false  "deadline, popular or newest"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200  {object}  response.ListResponse[response.ContestResponse]
// @Failure      400  {object}  response.Err
// @Router       /contests [get]
func (h *ContestHandler) HandleListContests(ctx *gin.Context) {
	var q request.ListContestsQuery
	if !bindQuery(ctx, &q) {
		return
	}

	contests, total, err := h.svc.List(ctx.Request.Context(), q.Filter())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestList(contests, total))
}

// HandlePopularContests godoc
// @Summary      Confirmed contests with the most participants
// @Tags         contests
// @Produce      json
// @Success      200  {object}  response.ListResponse[response.ContestResponse]
// @Router       /contests/popular [get]
func (h *ContestHandler) HandlePopularContests(ctx *gin.Context) {
	contests, err := h.svc.Popular(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestList(contests, int64(len(contests))))
}

// HandleListMyContests godoc
// @Summary      Contests created by the current user
// @Tags         contests
// @Produce      json
// @Success      200  {object}  response.ListResponse[response.ContestResponse]
// @Failure      403  {object}  response.Err
// @Router       /contests/mine [get]
// @Security     BearerAuth
func (h *ContestHandler) HandleListMyContests(ctx *gin.Context) {
	var q request.ListContestsQuery
	if !bindQuery(ctx, &q) {
		return
	}

	contests, total, err := h.svc.ListMine(ctx.Request.Context(), middleware.Session(ctx), q.Filter())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestList(contests, total))
}

// HandleListAllContests godoc
// @Summary      All contests regardless of status
// @Tags         contests,admin
// @Produce      json
// @Param        status  query     []string  false  "status filter"
// @Success      200  {object}  response.ListResponse[response.ContestResponse]
// @Failure      403  {object}  response.Err
// @Router       /contests/all [get]
// @Security     BearerAuth
func (h *ContestHandler) HandleListAllContests(ctx *gin.Context) {
	var q request.ListContestsQuery
	if !bindQuery(ctx, &q) {
		return
	}

	contests, total, err := h.svc.ListAll(ctx.Request.Context(), middleware.Session(ctx), q.Filter())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestList(contests, total))
}

// HandleCreateContest godoc
// @Summary      Create a contest
// @Description  The contest stays pending until its creation fee is paid and an admin approves it.
// @Tags         contests
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateContestRequest  true  "contest"
// @Success      201  {object}  response.ContestResponse
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /contests [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleCreateContest(ctx *gin.Context) {
	var req request.CreateContestRequest
	if !bindJSON(ctx, &req) {
		return
	}

	contest, err := h.svc.Create(ctx.Request.Context(), middleware.Session(ctx), req.Contest())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, toContestResponse(contest, time.Now()))
}

// HandleGetContest godoc
// @Summary      Get a contest
// @Tags         contests
// @Produce      json
// @Param        contestID  path      int  true  "Contest ID"
// @Success      200  {object}  response.ContestResponse
// @Failure      404  {object}  response.Err
// @Router       /contests/{contestID} [get]
func (h *ContestHandler) HandleGetContest(ctx *gin.Context) {
	id, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}

	contest, err := h.svc.Get(ctx.Request.Context(), middleware.Session(ctx), id)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestResponse(contest, time.Now()))
}

// HandleUpdateContest godoc
// @Summary      Edit a contest
// @Description  Editing a confirmed contest consumes a completed update payment.
// @Tags         contests
// @Accept       json
// @Produce      json
// @Param        contestID  path      int                           true  "Contest ID"
// @Param        request    body      request.UpdateContestRequest  true  "changed fields"
// @Success      200  {object}  response.ContestResponse
// @Failure      402  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /contests/{contestID} [put]
// @Security     BearerAuth
func (h *ContestHandler) HandleUpdateContest(ctx *gin.Context) {
	id, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}
	var req request.UpdateContestRequest
	if !bindJSON(ctx, &req) {
		return
	}

	contest, err := h.svc.Update(ctx.Request.Context(), middleware.Session(ctx), id, req.Update())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestResponse(contest, time.Now()))
}

// HandleApproveContest godoc
// @Summary      Approve a paid contest
// @Tags         contests,admin
// @Accept       json
// @Produce      json
// @Param        contestID  path      int                            true  "Contest ID"
// @Param        request    body      request.ApproveContestRequest  true  "new status"
// @Success      200  {object}  response.ContestResponse
// @Failure      402  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /contests/{contestID}/status [patch]
// @Security     BearerAuth
func (h *ContestHandler) HandleApproveContest(ctx *gin.Context) {
	id, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}
	var req request.ApproveContestRequest
	if !bindJSON(ctx, &req) {
		return
	}

	contest, err := h.svc.Approve(ctx.Request.Context(), middleware.Session(ctx), id)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestResponse(contest, time.Now()))
}

// HandleDeclareWinner godoc
// @Summary      Declare the winner and close the contest
// @Tags         contests
// @Accept       json
// @Produce      json
// @Param        contestID  path      int                           true  "Contest ID"
// @Param        request    body      request.DeclareWinnerRequest  true  "winner"
// @Success      200  {object}  response.ContestResponse
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Router       /contests/{contestID}/winner [patch]
// @Security     BearerAuth
func (h *ContestHandler) HandleDeclareWinner(ctx *gin.Context) {
	id, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}
	var req request.DeclareWinnerRequest
	if !bindJSON(ctx, &req) {
		return
	}

	contest, err := h.svc.DeclareWinner(ctx.Request.Context(), middleware.Session(ctx), id, req.WinnerUserID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, toContestResponse(contest, time.Now()))
}

// HandleDeleteContest godoc
// @Summary      Delete a contest
// @Tags         contests
// @Param        contestID  path      int  true  "Contest ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /contests/{contestID} [delete]
// @Security     BearerAuth
func (h *ContestHandler) HandleDeleteContest(ctx *gin.Context) {
	id, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), middleware.Session(ctx), id); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
