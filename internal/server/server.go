package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/maiscriancaoficial/affiliates/internal/affiliate"
	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/cache"
	"github.com/maiscriancaoficial/affiliates/internal/commission"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	"github.com/maiscriancaoficial/affiliates/internal/config"
	"github.com/maiscriancaoficial/affiliates/internal/dashboard"
	dashboarddomain "github.com/maiscriancaoficial/affiliates/internal/dashboard/domain"
	"github.com/maiscriancaoficial/affiliates/internal/globalconfig"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	"github.com/maiscriancaoficial/affiliates/internal/group"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/internal/observability"
	obsmiddleware "github.com/maiscriancaoficial/affiliates/internal/observability/logger"
	obsmetrics "github.com/maiscriancaoficial/affiliates/internal/observability/metrics"
	obstracing "github.com/maiscriancaoficial/affiliates/internal/observability/tracing"
	"github.com/maiscriancaoficial/affiliates/internal/providers/payout"
	"github.com/maiscriancaoficial/affiliates/internal/ratelimit"
	"github.com/maiscriancaoficial/affiliates/internal/withdrawal"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	globalconfig.Module,
	group.Module,
	affiliate.Module,
	commission.Module,
	withdrawal.Module,
	dashboard.Module,
	cache.Module,
	payout.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	configSvc     configdomain.Service
	groupSvc      groupdomain.Service
	affiliateSvc  affiliatedomain.Service
	commissionSvc commissiondomain.Service
	withdrawalSvc withdrawaldomain.Service
	dashboardSvc  dashboarddomain.Service
	codeCache     cache.CodeResolverCache
	obsMetrics    *obsmetrics.Metrics
	eventLimiter  *ratelimit.EventIngestLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	ConfigSvc     configdomain.Service
	GroupSvc      groupdomain.Service
	AffiliateSvc  affiliatedomain.Service
	CommissionSvc commissiondomain.Service
	WithdrawalSvc withdrawaldomain.Service
	DashboardSvc  dashboarddomain.Service
	CodeCache     cache.CodeResolverCache
	ObsMetrics    *obsmetrics.Metrics           `optional:"true"`
	EventLimiter  *ratelimit.EventIngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		configSvc:     p.ConfigSvc,
		groupSvc:      p.GroupSvc,
		affiliateSvc:  p.AffiliateSvc,
		commissionSvc: p.CommissionSvc,
		withdrawalSvc: p.WithdrawalSvc,
		dashboardSvc:  p.DashboardSvc,
		codeCache:     p.CodeCache,
		obsMetrics:    p.ObsMetrics,
		eventLimiter:  p.EventLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/config", s.GetGlobalConfig)
	api.PUT("/config", s.UpdateGlobalConfig)

	api.POST("/groups", s.CreateGroup)
	api.GET("/groups", s.ListGroups)
	api.GET("/groups/:id", s.GetGroup)
	api.PUT("/groups/:id", s.UpdateGroup)
	api.DELETE("/groups/:id", s.DeleteGroup)

	api.POST("/affiliates", s.CreateAffiliate)
	api.GET("/affiliates", s.ListAffiliates)
	api.GET("/affiliates/:id", s.GetAffiliate)
	api.PUT("/affiliates/:id", s.UpdateAffiliate)
	api.DELETE("/affiliates/:id", s.DeleteAffiliate)
	api.POST("/affiliates/:id/approve", s.ApproveAffiliate)
	api.POST("/affiliates/:id/reject", s.RejectAffiliate)
	api.POST("/affiliates/:id/activate", s.ActivateAffiliate)
	api.POST("/affiliates/:id/deactivate", s.DeactivateAffiliate)
	api.GET("/affiliates/:id/metrics", s.AffiliateMetrics)
	api.GET("/affiliates/:id/events", s.ListAffiliateEvents)
	api.GET("/affiliates/:id/withdrawals", s.ListAffiliateWithdrawals)
	api.GET("/affiliates/code/:code", s.GetAffiliateByCode)

	api.POST("/events", s.SubmitEvent)
	api.POST("/withdrawals", s.SubmitWithdrawal)
}
