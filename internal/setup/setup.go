package setup

import (
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/authgate-dev/authgate/internal/config"
	"github.com/authgate-dev/authgate/internal/email"
	"github.com/authgate-dev/authgate/internal/handler"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/service"
	"github.com/authgate-dev/authgate/internal/storage/pg"
	internal_validate "github.com/authgate-dev/authgate/internal/validate"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config    *config.Config
	Storage   *pg.Storage
	Redis     *redis.Client
	Writer    *response.Writer
	Validator *validator.Validate
	Tokens    *service.Token
	Users     *service.User
	Handler   *handler.Handler
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Private.Redis.Addr,
		Password: cfg.Private.Redis.Password,
		DB:       cfg.Private.Redis.DB,
	})

	writer := &response.Writer{Debug: cfg.Public.Debug}
	mailer := email.New(&cfg.Private.Email)

	tokens := service.NewToken(storage, cfg.JwtKey(), cfg.JwtAlgorithm(), cfg.Public.BcryptCost)
	users := service.NewUser(storage, tokens, mailer, cfg.SessionTTL(), cfg.TokenTTL(), cfg.Public.BcryptCost)

	h := handler.New(users, writer)

	return &Dependencies{
		Config:    cfg,
		Storage:   storage,
		Redis:     rdb,
		Writer:    writer,
		Validator: internal_validate.New(),
		Tokens:    tokens,
		Users:     users,
		Handler:   h,
	}, nil
}
