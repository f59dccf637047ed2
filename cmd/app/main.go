package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/inkpost/internal/authz"
	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/commentservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/feed"
	"github.com/sushihentaime/inkpost/internal/imageservice"
	"github.com/sushihentaime/inkpost/internal/mailservice"
	"github.com/sushihentaime/inkpost/internal/postservice"
	"github.com/sushihentaime/inkpost/internal/reaperservice"
	"github.com/sushihentaime/inkpost/internal/userservice"
	"go.mongodb.org/mongo-driver/mongo"
)

type application struct {
	config *Config
	logger *slog.Logger

	userService    *userservice.UserService
	postService    *postservice.PostService
	commentService *commentservice.CommentService
	gate           *authz.Gate
	feed           *feed.Feed

	mailService   *mailservice.MailService
	reaperService *reaperservice.ReaperService
	broker        *common.MessageBroker

	limiter *clientLimiter
}

func main() {
	configPath := flag.String("config", ".env", "path to the configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.MongoURI, cfg.MongoDB, cfg.MongoMaxPoolSize, cfg.MongoMaxIdleTime)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	if err := ensureIndexes(db); err != nil {
		logger.Error("failed to create indexes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	for _, setup := range []func(*common.MessageBroker) error{common.SetupUserExchange, common.SetupBlobExchange} {
		if err := setup(broker); err != nil {
			logger.Error("failed to setup the exchanges", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Error("failed to create the blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokens, err := userservice.NewTokens(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	if err != nil {
		logger.Error("failed to create the token signer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolvers := userservice.NewResolvers(cfg.GoogleClientID, cfg.FacebookAppID, cfg.FacebookAppSecret, cfg.isProduction())

	app := newApplication(cfg, logger, db, broker, blobs, tokens, resolvers)
	app.broker = broker
	app.mailService = mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
	app.reaperService = reaperservice.NewReaperService(broker, blobs, logger)

	go app.mailService.SendWelcomeEmail()
	go app.reaperService.ReapOrphans()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newApplication wires the request-serving services. Background consumers are
// attached by main.
func newApplication(cfg *Config, logger *slog.Logger, db *mongo.Database, producer common.MessageProducer, blobs blobstore.Store, tokens *userservice.Tokens, resolvers map[userservice.Provider]userservice.Resolver) *application {
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	users := userservice.NewUserService(db, producer, cache, tokens, resolvers, logger)
	posts := postservice.NewPostService(db, blobs, producer, logger)
	comments := commentservice.NewCommentService(db)
	images := imageservice.NewImageService(blobs)

	return &application{
		config:         cfg,
		logger:         logger,
		userService:    users,
		postService:    posts,
		commentService: comments,
		gate:           authz.NewGate(users, posts, comments, images),
		feed:           feed.NewFeed(posts, comments, users),
		limiter:        newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func ensureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, ensure := range []func(context.Context, *mongo.Database) error{
		userservice.EnsureIndexes,
		postservice.EnsureIndexes,
		commentservice.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}

	return nil
}

func newBlobStore(cfg *Config) (blobstore.Store, error) {
	switch cfg.BlobDriver {
	case "oss":
		return blobstore.NewOSS(blobstore.OSSConfig{
			Endpoint:      cfg.OSSEndpoint,
			AccessKey:     cfg.OSSAccessKey,
			SecretKey:     cfg.OSSSecretKey,
			SecurityToken: cfg.OSSSecurityToken,
		}, cfg.OSSBucket, cfg.BlobPublicBase)
	case "cloudinary":
		return blobstore.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	case "memory":
		return blobstore.NewMemory(cfg.BlobPublicBase), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
