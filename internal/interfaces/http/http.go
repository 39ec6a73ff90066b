package http

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/learn-gateway/internal/activity"
	"github.com/pot-code/learn-gateway/internal/course"
	infra "github.com/pot-code/learn-gateway/internal/infrastructure"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learn-gateway/internal/infrastructure/uuid"
	"github.com/pot-code/learn-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learn-gateway/internal/interfaces/http/middleware"
	"github.com/pot-code/learn-gateway/internal/navigation"
	"github.com/pot-code/learn-gateway/internal/progress"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

// NewApp create the echo application with every route registered
func NewApp(
	option *infra.AppConfig,
	conn driver.SQLConn,
	rdb driver.KeyValueDB,
	CourseUseCase course.CourseUseCase,
	Tracker progress.Tracker,
	NavigationUseCase navigation.NavigationUseCase,
	ActivityUseCase activity.ActivityUseCase,
	logger *zap.Logger,
) *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true

	jwtUtil := auth.NewJWTUtil(option.Security.JWTMethod,
		option.Security.JWTSecret,
		option.Security.TokenName)
	validator := validate.NewValidator()
	websocket := infra.NewWebsocket(&infra.WebsocketOption{
		CheckOrigin: allowOrigins(option.Security.AllowedOrigins),
	})
	tokenOption := &middleware.ValidateTokenOption{
		InBlackList: func(ctx context.Context, token string) (bool, error) {
			return rdb.Exists(ctx, BlacklistKey(token))
		},
	}
	jwtMiddleware := middleware.VerifyToken(jwtUtil, tokenOption)
	optionalTokenMiddleware := middleware.OptionalToken(jwtUtil, tokenOption)

	registerLivenessProbe(app, conn, rdb)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.PanicHandling(&middleware.PanicHandlingOption{
		Handler: func(c echo.Context, err error) {
			c.JSON(http.StatusInternalServerError,
				NewRESTStandardError(http.StatusInternalServerError, "").SetTraceID(traceID(c)))
		},
		Logger: logger,
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, traceID string, err error) {
				c.JSON(http.StatusInternalServerError,
					NewRESTStandardError(http.StatusInternalServerError, err.Error()).SetTraceID(traceID),
				)
			},
			Logger: logger,
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(middleware.CORS(option.Security.AllowedOrigins))
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
	}))
	app.Use(middleware.NoRouteMatched())

	CourseHandler := NewCourseHandler(CourseUseCase, jwtUtil)
	LearnHandler := NewLearnHandler(
		NavigationUseCase, jwtUtil, validator,
		uuid.NewNanoIDGenerator(option.Security.IDLength),
		option.Security.SessionCookie,
		option.Env == infra.EnvProduction,
	)
	ProgressHandler := NewProgressHandler(Tracker, jwtUtil, validator)
	ActivityHandler := NewActivityHandler(ActivityUseCase, jwtUtil, validator)
	ProgressFeedHandler := NewProgressFeedHandler(Tracker, jwtUtil, websocket)
	SessionHandler := NewSessionHandler(jwtUtil, rdb)

	createEndpoint(app, v1Endpoint(
		CourseHandler,
		LearnHandler,
		ProgressHandler,
		ActivityHandler,
		ProgressFeedHandler,
		SessionHandler,
		jwtMiddleware, optionalTokenMiddleware,
		echo_middleware.RequestID(), middleware.SetTraceLogger(logger),
	))

	printRoutes(app, logger)
	return app
}

// Serve runs app until ctx is done, then shuts it down gracefully
func Serve(ctx context.Context, app *echo.Echo, option *infra.AppConfig, logger *zap.Logger) error {
	addr := fmt.Sprintf("%s:%d", option.Host, option.Port)
	errc := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("server.address", addr))
		errc <- app.Start(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// allowOrigins websocket origin check matching the CORS origins
func allowOrigins(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// printRoutes logs the routes registered by this package, echo internals are left out
func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, r := range app.Routes() {
		if strings.HasPrefix(r.Name, "github.com/labstack/echo") {
			continue
		}
		name := r.Name[strings.LastIndexByte(r.Name, '/')+1:]
		logger.Debug("Registered route", zap.String("method", r.Method), zap.String("path", r.Path), zap.String("name", name))
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.SQLConn, rdb driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if db.Ping(ctx) == nil && rdb.Ping(ctx) == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

// registerProfileEndpoints pprof.Index serves every named profile under /debug/pprof/
func registerProfileEndpoints(app *echo.Echo) {
	debug := app.Group("/debug")
	debug.GET("/vars", echo.WrapHandler(expvar.Handler()))
	debug.GET("/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	debug.GET("/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	debug.GET("/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	debug.GET("/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	debug.GET("/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
}

func createEndpoint(app *echo.Echo, def *endpoint) {
	root := app.Group("/"+strings.TrimPrefix(def.apiVersion, "/"), def.middlewares...)
	for _, group := range def.groups {
		g := root.Group(group.prefix, group.middlewares...)
		for _, r := range group.routes {
			switch r.method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead:
				g.Add(r.method, r.path, r.handler, r.middlewares...)
			default:
				panic(fmt.Errorf("createEndpoint: unknown method %s", r.method))
			}
		}
	}
}
