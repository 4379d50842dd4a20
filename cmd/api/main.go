package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpadp "cryptolend-backend/internal/adapter/http"
	mw "cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/adapter/repository/mysql"
	"cryptolend-backend/internal/config"
	"cryptolend-backend/internal/infrastructure/cache"
	"cryptolend-backend/internal/infrastructure/db"
	"cryptolend-backend/internal/pricing"
	loanuc "cryptolend-backend/internal/usecase/loan"
	statsuc "cryptolend-backend/internal/usecase/stats"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loanRepo := mysql.NewLoanRepository(gdb)
	txnRepo := mysql.NewTransactionRepository(gdb)
	guow := mysql.NewGormUoW(gdb)

	oracle := pricing.NewCachedOracle(
		pricing.NewStaticOracle(pricing.DefaultPrices()),
		rdb,
		time.Duration(cfg.PriceTTLSecs)*time.Second,
	)

	policy := loanuc.Policy{MaxLTV: cfg.MaxLTV, AutoApprove: cfg.AutoApprove}
	loans := loanuc.NewUsecase(loanRepo, txnRepo, guow, oracle, policy)
	stats := statsuc.NewUsecase(loanRepo, txnRepo, oracle)

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(loans)
	txnH := httpadp.NewTransactionHandler(loans)
	priceH := httpadp.NewPriceHandler(oracle)
	statsH := httpadp.NewStatsHandler(stats)
	adminH := httpadp.NewAdminHandler(loans, stats)

	reqMetrics := mw.NewRequestMetrics(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(reqMetrics.Middleware())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitPerSec))))

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", mw.Identity())
	api.GET("/prices", priceH.Prices)
	api.GET("/stats", statsH.UserStats)
	api.GET("/transactions", txnH.ListTransactions)

	idemp := mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	api.POST("/loans", loanH.CreateLoan, idemp)
	api.GET("/loans", loanH.ListLoans)
	api.GET("/loans/:loan_id", loanH.GetLoan)
	api.GET("/loans/:loan_id/transactions", loanH.ListLoanTransactions)
	api.POST("/loans/:loan_id/payments", loanH.Pay, idemp)

	admin := api.Group("/admin", mw.RequireAdmin())
	admin.GET("/stats", adminH.PlatformStats)
	admin.GET("/loans", adminH.ListLoans)
	admin.POST("/loans/:loan_id/approve", adminH.ApproveLoan, idemp)
	admin.POST("/loans/:loan_id/reject", adminH.RejectLoan, idemp)
	admin.POST("/loans/:loan_id/default", adminH.DefaultLoan, idemp)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
