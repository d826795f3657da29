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

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	UpdateProfile(ctx context.Context, sess domain.Session, profile domain.UserProfile) (domain.User, error)
	ChooseRole(ctx context.Context, sess domain.Session, role domain.Role) (domain.User, error)
	SetRole(ctx context.Context, sess domain.Session, userID uint, role domain.Role) (domain.User, error)
	ListUsers(ctx context.Context, sess domain.Session) ([]domain.User, error)
	DeleteUser(ctx context.Context, sess domain.Session, userID uint) error
	Stats(ctx context.Context, userID uint) (domain.UserStats, error)
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	sess := middleware.Session(ctx)

	user, err := h.svc.GetUser(ctx.Request.Context(), sess.ActorID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateMe godoc
// @Summary      Update the current user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      request.UpdateProfileRequest  true  "profile fields"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Router       /users/me [patch]
// @Security     BearerAuth
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	var req request.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(ctx.Request.Context(), middleware.Session(ctx), req.Profile())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleChooseRole godoc
// @Summary      Choose between user and creator, once
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      request.RoleRequest  true  "role"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /users/me/role [patch]
// @Security     BearerAuth
func (h *UserHandler) HandleChooseRole(ctx *gin.Context) {
	var req request.RoleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.ChooseRole(ctx.Request.Context(), middleware.Session(ctx), domain.Role(req.Role))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetStats godoc
// @Summary      Participation and win stats of the current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.UserStats
// @Router       /users/me/stats [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetStats(ctx *gin.Context) {
	stats, err := h.svc.Stats(ctx.Request.Context(), middleware.Session(ctx).ActorID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleListUsers godoc
// @Summary      List users
// @Tags         users,admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      403  {object}  response.Err
// @Router       /users [get]
// @Security     BearerAuth
func (h *UserHandler) HandleListUsers(ctx *gin.Context) {
	users, err := h.svc.ListUsers(ctx.Request.Context(), middleware.Session(ctx))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleSetRole godoc
// @Summary      Change a user's role
// @Tags         users,admin
// @Accept       json
// @Produce      json
// @Param        userID   path      int                  true  "User ID"
// @Param        request  body      request.RoleRequest  true  "role"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /users/{userID}/role [patch]
// @Security     BearerAuth
func (h *UserHandler) HandleSetRole(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID")
	if !ok {
		return
	}
	var req request.RoleRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.SetRole(ctx.Request.Context(), middleware.Session(ctx), userID, domain.Role(req.Role))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleDeleteUser godoc
// @Summary      Delete a user
// @Tags         users,admin
// @Param        userID   path      int  true  "User ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /users/{userID} [delete]
// @Security     BearerAuth
func (h *UserHandler) HandleDeleteUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userID")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(ctx.Request.Context(), middleware.Session(ctx), userID); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleLeaderboard godoc
// @Summary      Users ranked by contests won
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.LeaderboardEntry
// @Router       /leaderboard [get]
func (h *UserHandler) HandleLeaderboard(ctx *gin.Context) {
	entries, err := h.svc.Leaderboard(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}
