package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Injamhossan/contest-arena/docs"
	v1 "github.com/Injamhossan/contest-arena/internal/api/handler/v1"
	"github.com/Injamhossan/contest-arena/internal/api/middleware"
	"github.com/Injamhossan/contest-arena/internal/config"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
	"github.com/Injamhossan/contest-arena/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	Events       *v1.EventHub
	Housekeeping *service.HousekeepingService

	auth *middleware.Authenticator
}

type handlers struct {
	auth          *v1.AuthHandler
	user          *v1.UserHandler
	contest       *v1.ContestHandler
	participation *v1.ParticipationHandler
	payment       *v1.PaymentHandler
}

// NewServer wires every service against store. verifier may be nil, in
// which case /auth/session answers 401.
func NewServer(conf *config.AppConfig, store service.Store, proc processor.Processor, verifier service.IdentityVerifier) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Events: v1.NewEventHub(conf.API.AllowedCORSDomains),
	}

	s.MountMiddlewares()

	payments := service.NewPaymentService(store, proc, conf.Payment, conf.Stripe.Currency, s.Events)
	users := service.NewUserService(store, s.Events)
	s.Housekeeping = service.NewHousekeepingService(store, payments, conf.Payment)
	s.auth = middleware.NewAuthenticator(conf.API.JWTSigningKey, users)

	s.MountHandlers(handlers{
		auth:          v1.NewAuthHandler(conf.API, service.NewAuthService(store, verifier)),
		user:          v1.NewUserHandler(users),
		contest:       v1.NewContestHandler(service.NewContestService(store, s.Events)),
		participation: v1.NewParticipationHandler(service.NewParticipationService(store, payments, s.Events)),
		payment:       v1.NewPaymentHandler(payments),
	})

	return s
}

// RunEvents serves the change feed until ctx is done.
func (s *Server) RunEvents(ctx context.Context) {
	s.Events.Run(ctx)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", h.auth.HandleSignup)
		public.POST("/auth/login", h.auth.HandleLogin)
		public.POST("/auth/session", h.auth.HandleSession)
		public.GET("/leaderboard", h.user.HandleLeaderboard)
		public.GET("/contests", h.contest.HandleListContests)
		public.GET("/contests/popular", h.contest.HandlePopularContests)
	}

	optional := s.Router.Group(basePath, s.auth.OptionalJWT())
	{
		optional.GET("/contests/:contestID", h.contest.HandleGetContest)
	}

	users := s.Router.Group(basePath, s.auth.VerifyJWT())
	{
		users.GET("/users/me", h.user.HandleGetMe)
		users.PATCH("/users/me", h.user.HandleUpdateMe)
		users.PATCH("/users/me/role", h.user.HandleChooseRole)
		users.GET("/users/me/stats", h.user.HandleGetStats)
		users.GET("/users", h.user.HandleListUsers)
		users.PATCH("/users/:userID/role", h.user.HandleSetRole)
		users.DELETE("/users/:userID", h.user.HandleDeleteUser)
	}

	contests := s.Router.Group(basePath, s.auth.VerifyJWT())
	{
		contests.GET("/contests/mine", h.contest.HandleListMyContests)
		contests.GET("/contests/all", h.contest.HandleListAllContests)
		contests.POST("/contests", h.contest.HandleCreateContest)
		contests.PUT("/contests/:contestID", h.contest.HandleUpdateContest)
		contests.PATCH("/contests/:contestID/status", h.contest.HandleApproveContest)
		contests.PATCH("/contests/:contestID/winner", h.contest.HandleDeclareWinner)
		contests.DELETE("/contests/:contestID", h.contest.HandleDeleteContest)

		contests.GET("/contests/:contestID/participations", h.participation.HandleListForContest)
		contests.POST("/contests/:contestID/participations", h.participation.HandleRegister)
		contests.GET("/contests/:contestID/winner-candidates", h.participation.HandleWinnerCandidates)
		contests.GET("/participations/mine", h.participation.HandleListMine)
		contests.GET("/participations/received", h.participation.HandleListReceived)
		contests.PATCH("/participations/:participationID/submission", h.participation.HandleSubmit)
	}

	payments := s.Router.Group(basePath, s.auth.VerifyJWT())
	{
		payments.POST("/payments/intents", h.payment.HandleBeginPayment)
		payments.POST("/payments/:paymentID/confirm", h.payment.HandleConfirmPayment)
		payments.GET("/payments", h.payment.HandleListPayments)
		payments.GET("/payments/:paymentID", h.payment.HandleGetPayment)
	}

	s.Router.GET(basePath+"/events", s.auth.VerifyJWT(), s.Events.HandleEvents)

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Contest Arena API"
	docs.SwaggerInfo.Description = "Contest lifecycle and payment gated participation."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
