package handler

import (
	"net/http"

	"earnhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		// Daraja posts here; no bearer token on those requests
		p := groupPayment{cfg.Container}
		routesAPIv1.POST("/payments/mpesa/callback", p.Callback)

		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		u := groupUser{cfg.Container}
		routesAPIv1.GET("/user/me", u.Me)
		routesAPIv1.PATCH("/user/me", u.UpdateProfile)

		w := groupWallet{cfg.Container}
		routesAPIv1.GET("/wallet", w.Me)
		routesAPIv1.GET("/wallet/transactions", w.Transactions)
		routesAPIv1.POST("/wallet/withdrawals", w.RequestWithdrawal)
		routesAPIv1.GET("/wallet/withdrawals", w.ListWithdrawals)

		routesAPIv1Games := routesAPIv1.Group("/games")
		{
			g := groupGame{cfg.Container}
			routesAPIv1Games.POST("/spin", g.Spin, middlewareRewardRateLimit(cfg.Container, "spin"))
			routesAPIv1Games.GET("/spin/history", g.SpinHistory)
			routesAPIv1Games.POST("/number/guess", g.GuessNumber, middlewareRewardRateLimit(cfg.Container, "number"))
			routesAPIv1Games.GET("/number/history", g.NumberGameHistory)
		}

		routesAPIv1Quiz := routesAPIv1.Group("/quiz")
		{
			q := groupQuiz{cfg.Container}
			routesAPIv1Quiz.GET("/questions", q.GetQuestions)
			routesAPIv1Quiz.POST("/submit", q.Submit, middlewareRewardRateLimit(cfg.Container, "quiz"))
			routesAPIv1Quiz.GET("/attempts", q.Attempts)
		}

		routesAPIv1Videos := routesAPIv1.Group("/videos")
		{
			v := groupVideo{cfg.Container}
			routesAPIv1Videos.GET("", v.List)
			routesAPIv1Videos.POST("/:video/view", v.TrackView)
			routesAPIv1Videos.POST("/:video/claim", v.Claim, middlewareRewardRateLimit(cfg.Container, "video"))
		}

		rf := groupReferral{cfg.Container}
		routesAPIv1.GET("/referrals", rf.List)
		routesAPIv1.GET("/referrals/stats", rf.Stats)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard/overall", l.GetOverall)
		routesAPIv1.GET("/leaderboard/weekly", l.GetWeekly)

		routesAPIv1.POST("/payments/mpesa/deposit", p.Deposit)
		routesAPIv1.GET("/payments/mpesa/deposit/:checkout", p.DepositStatus)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/quiz/questions", a.CreateQuizQuestion)
			routesAPIv1Admin.POST("/videos", a.CreateVideo)
			routesAPIv1Admin.PUT("/referrals/settings", a.UpdateReferralSetting)
			routesAPIv1Admin.GET("/withdrawals/pending", a.PendingWithdrawals)
			routesAPIv1Admin.POST("/withdrawals/:withdrawal/approve", a.ApproveWithdrawal)
			routesAPIv1Admin.POST("/withdrawals/:withdrawal/reject", a.RejectWithdrawal)
			routesAPIv1Admin.GET("/wallets/:user/reconcile", a.Reconcile)
			routesAPIv1Admin.PUT("/configs", a.UpsertConfig)
		}
	}

	return r, nil
}
