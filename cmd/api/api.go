package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"goomer/docs" // registers the swagger document
	"goomer/internal/auth"
	"goomer/internal/domain/storage"
	"goomer/internal/metrics"
	"goomer/internal/ratelimiter"
	"goomer/internal/service"
)

type application struct {
	config        config
	store         *storage.Container
	reviews       *service.ReviewService
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	registry      *prometheus.Registry
}

type config struct {
	addr        string
	env         string
	apiURL      string
	corsOrigins []string
	store       storeConfig
	media       mediaConfig
	auth        authConfig
	cache       cacheConfig
	rateLimiter ratelimiter.Config
}

type storeConfig struct {
	driver string
	db     dbConfig
	mongo  mongoConfig
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type mongoConfig struct {
	uri      string
	database string
}

type mediaConfig struct {
	driver            string
	timeout           time.Duration
	uploadConcurrency int
	cloudinary        cloudinaryConfig
	minio             minioConfig
}

type cloudinaryConfig struct {
	url    string
	folder string
}

type minioConfig struct {
	endpoint  string
	accessKey string
	secretKey string
	bucket    string
	publicURL string
	useSSL    bool
}

type authConfig struct {
	basic       basicConfig
	token       tokenConfig
	adminEmails []string
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
	aud             string
}

type basicConfig struct {
	user string
	pass string
}

type cacheConfig struct {
	addr     string
	password string
	db       int
	ttl      time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Total-Count", "X-Result-Limit", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(app.RateLimiterMiddleware)

	// Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.With(app.BasicAuthMiddleware()).Handle("/metrics", metrics.Handler(app.registry))

	r.Get("/api-docs/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json")))
	r.Get("/api-docs.json", app.swaggerDocHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", app.listReviewsHandler)
			r.Get("/paginated", app.listPaginatedReviewsHandler)
			r.Get("/{id}", app.getReviewHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createReviewHandler)
				r.Put("/{id}", app.updateReviewHandler)
				r.Delete("/{id}", app.deleteReviewHandler)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signupHandler)
			r.Post("/login", app.loginHandler)
			r.Post("/verify", app.verifyTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Get("/user", app.getUserHandler)
				r.Get("/validate", app.validateTokenHandler)
				r.Post("/logout", app.logoutHandler)
			})
		})
	})

	return r
}

func (app *application) swaggerDocHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(docs.SwaggerInfo.ReadDoc())); err != nil {
		app.logger.Warnw("failed to write swagger document", "error", err)
	}
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/api"

	srv := &http.Server{
		Addr:    app.config.addr,
		Handler: mux,
		// review bodies carry inline images
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
