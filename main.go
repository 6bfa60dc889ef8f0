package main

import (
	"os"

	"spots-clone-server/config"
	"spots-clone-server/routes"
	"spots-clone-server/services"
	"spots-clone-server/storage"
	"spots-clone-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/sirupsen/logrus"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		logrus.Fatal("invalid configuration: ", cfgErr)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	db := storage.InitializeDB(cfg.DBConnectionString)
	storage.InitializeRedis(cfg.RedisURL)

	var events *services.EventPublisher
	if cfg.AMQPURL != "" {
		var eventsErr error
		events, eventsErr = services.NewEventPublisher(cfg.AMQPURL, cfg.EventExchange)
		if eventsErr != nil {
			logrus.WithError(eventsErr).Warn("booking events disabled: broker unreachable")
		} else {
			defer events.Close()
		}
	}

	bookingService := services.NewBookingService(
		storage.NewBookingStore(db),
		storage.NewSpotGateway(db),
		events,
	)
	routes.UseBookingService(bookingService)

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(cfg.AccessTokenSecret))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(cfg.RefreshTokenSecret))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/{id}", accessTokenVerifierMiddleware, routes.GetUser)
		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
	}

	spots := app.Party("/api/spots")
	{
		spots.Get("/", routes.GetSpots)
		spots.Get("/{id}", routes.GetSpot)
		spots.Get("/owner/{id}", routes.GetSpotsByOwnerID)
		spots.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateSpot)
		spots.Put("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateSpot)
		spots.Delete("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteSpot)
		spots.Post("/{id}/images", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.AddSpotImage)
		spots.Delete("/{id}/images/{imageID}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteSpotImage)

		spots.Get("/{id}/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetSpotBookings)
		spots.Post("/{id}/bookings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateBooking)

		spots.Get("/{id}/reviews", routes.ListSpotReviews)
		spots.Post("/{id}/reviews", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateSpotReview)
	}

	bookings := app.Party("/api/bookings")
	{
		bookings.Get("/current", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetCurrentUserBookings)
		bookings.Put("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateBooking)
		bookings.Delete("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteBooking)
	}

	reviews := app.Party("/api/reviews")
	{
		reviews.Delete("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteReview)
		reviews.Post("/{id}/images", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.AddReviewImage)
		reviews.Delete("/{id}/images/{imageID}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteReviewImage)
	}

	app.Listen(cfg.HTTPAddr)
}
