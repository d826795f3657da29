package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/request"
	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/response"
	"github.com/Injamhossan/contest-arena/internal/api/middleware"
	"github.com/Injamhossan/contest-arena/internal/domain"
)

type ParticipationService interface {
	Register(ctx context.Context, sess domain.Session, contestID, paymentID uint) (domain.Participation, error)
	Submit(ctx context.Context, sess domain.Session, participationID uint, link, text string) (domain.Participation, error)
	WinnerCandidates(ctx context.Context, sess domain.Session, contestID uint) ([]domain.Participation, error)
	ListForContest(ctx context.Context, sess domain.Session, contestID uint) ([]domain.Participation, error)
	ListMine(ctx context.Context, sess domain.Session) ([]domain.Participation, error)
	ListReceived(ctx context.Context, sess domain.Session) ([]domain.Participation, error)
}

type ParticipationHandler struct {
	svc ParticipationService
}

func NewParticipationHandler(svc ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{
		svc: svc,
	}
}

// HandleRegister godoc
// @Summary      Register for a contest
// @Description  Consumes a completed entry payment of the caller. The contest is revalidated in the same transaction.
// @Tags         participations
// @Accept       json
// @Produce      json
// @Param        contestID  path      int                      true  "Contest ID"
// @Param        request    body      request.RegisterRequest  true  "entry payment"
// @Success      201  {object}  domain.Participation
// @Failure      402  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /contests/{contestID}/participations [post]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleRegister(ctx *gin.Context) {
	contestID, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}
	var req request.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}

	participation, err := h.svc.Register(ctx.Request.Context(), middleware.Session(ctx), contestID, req.PaymentID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, participation)
}

// HandleSubmit godoc
// @Summary      Submit or resubmit work
// @Tags         participations
// @Accept       json
// @Produce      json
// @Param        participationID  path      int                    true  "Participation ID"
// @Param        request          body      request.SubmitRequest  true  "submission"
// @Success      200  {object}  domain.Participation
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /participations/{participationID}/submission [patch]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleSubmit(ctx *gin.Context) {
	id, ok := pathID(ctx, "participationID")
	if !ok {
		return
	}
	var req request.SubmitRequest
	if !bindJSON(ctx, &req) {
		return
	}

	participation, err := h.svc.Submit(ctx.Request.Context(), middleware.Session(ctx), id, req.SubmissionLink, req.SubmissionText)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, participation)
}

// HandleListForContest godoc
// @Summary      Participations of a contest
// @Tags         participations
// @Produce      json
// @Param        contestID  path      int  true  "Contest ID"
// @Success      200  {array}   domain.Participation
// @Failure      403  {object}  response.Err
// @Router       /contests/{contestID}/participations [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleListForContest(ctx *gin.Context) {
	contestID, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}

	participations, err := h.svc.ListForContest(ctx.Request.Context(), middleware.Session(ctx), contestID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleWinnerCandidates godoc
// @Summary      Submissions eligible to win
// @Tags         participations
// @Produce      json
// @Param        contestID  path      int  true  "Contest ID"
// @Success      200  {array}   domain.Participation
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /contests/{contestID}/winner-candidates [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleWinnerCandidates(ctx *gin.Context) {
	contestID, ok := pathID(ctx, "contestID")
	if !ok {
		return
	}

	participations, err := h.svc.WinnerCandidates(ctx.Request.Context(), middleware.Session(ctx), contestID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleListMine godoc
// @Summary      Contests the current user entered
// @Tags         participations
// @Produce      json
// @Success      200  {array}   domain.Participation
// @Router       /participations/mine [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleListMine(ctx *gin.Context) {
	participations, err := h.svc.ListMine(ctx.Request.Context(), middleware.Session(ctx))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleListReceived godoc
// @Summary      Submissions received on the current creator's contests
// @Tags         participations
// @Produce      json
// @Success      200  {array}   domain.Participation
// @Failure      403  {object}  response.Err
// @Router       /participations/received [get]
// @Security     BearerAuth
func (h *ParticipationHandler) HandleListReceived(ctx *gin.Context) {
	participations, err := h.svc.ListReceived(ctx.Request.Context(), middleware.Session(ctx))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, participations)
}
