package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dormstay/config"
	"dormstay/internal/booking"
	"dormstay/internal/metrics"
	"dormstay/internal/mw"
	"dormstay/internal/store"
)

// bookingRate is the per-student limit on booking attempts.
const bookingRate = rate.Limit(1)

// Deps bundles what the router wires into the handlers.
type Deps struct {
	Store      store.Store
	Booking    *booking.Service
	Webpush    *webpush.Options
	Server     config.ServerConfig
	SessionTTL time.Duration
	Logger     zerolog.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(d.Logger))

	if len(d.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = d.Server.CORSOrigins
		corsCfg.AddAllowHeaders("Authorization")
		corsCfg.AddExposeHeaders(mw.RequestIDHeader)
		r.Use(cors.New(corsCfg))
	}

	s := d.Store
	handler := NewHandler(s, d.Booking, d.Webpush, d.SessionTTL)

	rateLimiter := mw.RateLimiter(rate.Limit(d.Server.RateLimitPerSec), d.Server.RateLimitBurst, mw.ByClientIP)
	authenticated := mw.Auth(s)

	// Public responses are cached until an admin write flushes them.
	ttl := d.Server.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/health", Health(s))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/signup", handler.Signup)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/logout", authenticated, handler.Logout)

		api.GET("/dorms", caching, GetDirectory(s))
		api.GET("/notices", caching, GetNotices(s))
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	student := api.Group("")
	student.Use(authenticated)
	{
		student.GET("/me", handler.Me)
		student.GET("/booking/eligibility", handler.Eligibility)
		student.GET("/rooms", handler.ListRooms)
		student.POST("/rooms/:room_id/book", mw.RateLimiter(bookingRate, 3, mw.ByStudent), handler.BookRoom)

		student.GET("/subscriptions", handler.GetSubscriptions)
		student.PUT("/subscriptions", handler.PutSubscription)
		student.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	admin := api.Group("/admin")
	admin.Use(authenticated, mw.RequireStaff(), mw.Invalidate(cacheStore))
	{
		admin.GET("/dorms", handler.AdminListDorms)
		admin.POST("/dorms", handler.AdminCreateDorm)
		admin.GET("/dorms/:dorm_id", handler.AdminGetDorm)
		admin.PUT("/dorms/:dorm_id", handler.AdminUpdateDorm)
		admin.DELETE("/dorms/:dorm_id", handler.AdminDeleteDorm)

		admin.GET("/blocks", handler.AdminListBlocks)
		admin.POST("/blocks", handler.AdminCreateBlock)
		admin.GET("/blocks/:block_id", handler.AdminGetBlock)
		admin.PUT("/blocks/:block_id", handler.AdminUpdateBlock)
		admin.DELETE("/blocks/:block_id", handler.AdminDeleteBlock)

		admin.GET("/rooms", handler.AdminListRooms)
		admin.GET("/rooms/:room_id", handler.AdminGetRoom)
		admin.PATCH("/rooms/:room_id", handler.AdminUpdateRoom)
		admin.DELETE("/rooms/:room_id", handler.AdminDeleteRoom)

		admin.GET("/students", handler.AdminListStudents)
		admin.PATCH("/students/:student_id", handler.AdminUpdateStudent)
		admin.DELETE("/students/:student_id", handler.AdminDeleteStudent)
		admin.POST("/students/:student_id/assign", handler.AdminAssignRoom)
		admin.POST("/students/:student_id/vacate", handler.AdminVacateStudent)

		admin.GET("/booking-window", handler.AdminGetWindow)
		admin.PUT("/booking-window", handler.AdminSetWindow)
		admin.GET("/booking-events", handler.AdminListEvents)

		admin.POST("/notices", handler.AdminCreateNotice)
		admin.DELETE("/notices/:notice_id", handler.AdminDeleteNotice)
	}

	return r
}
