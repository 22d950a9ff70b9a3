package handler

import (
	"bedrock-relay/internal/adapter/http/middleware"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Request body limits.
const (
	MaxJSONBodyBytes   = 1 << 20
	MaxAvatarBodyBytes = 8 << 20
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc     ports.WebhookService
	CreditSvc      ports.CreditService
	NameSvc        ports.NameService    // nil = name routes disabled
	TokenSvc       ports.TokenService   // nil = admin credit route not mounted
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	AuditSvc       ports.AuditService   // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	CORSOrigins    []string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.CORSOrigins))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}
	jsonLimit := middleware.MaxBodySize(MaxJSONBodyBytes)

	// Provider webhooks are never rate limited; retries must get through.
	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	r.POST("/webhooks/thirdweb", jsonLimit, webhookHandler.Thirdweb)

	creditHandler := NewCreditHandler(deps.CreditSvc)
	r.GET("/credits/:address", rl("credits_read"), creditHandler.GetCredits)
	if deps.TokenSvc != nil {
		adminAuth := middleware.AdminAuth(deps.TokenSvc, service.RoleAdmin, deps.Logger)
		r.POST("/credits/:address/add", adminAuth, rl("credits_admin"), creditHandler.AddCredits)
	} else {
		deps.Logger.Warn().Msg("admin.jwt_secret not set, POST /credits/:address/add is not mounted")
	}

	if deps.NameSvc != nil {
		nameHandler := NewNameHandler(deps.NameSvc)
		r.POST("/register", rl("names_write"), jsonLimit, nameHandler.Register)
		r.GET("/username/:address", rl("names_read"), nameHandler.Username)
		r.GET("/available", rl("names_read"), nameHandler.Available)
		r.GET("/resolve/:username", rl("names_read"), nameHandler.Resolve)
		r.PUT("/avatar/:username", rl("names_write"), middleware.MaxBodySize(MaxAvatarBodyBytes), nameHandler.SetAvatar)
		r.GET("/avatar/:username", rl("names_read"), nameHandler.Avatar)
	}

	return r
}
