package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/blogservice"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/docstore"
	"github.com/sushihentaime/nexus/internal/mailservice"
	"github.com/sushihentaime/nexus/internal/reviewservice"
	"github.com/sushihentaime/nexus/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	blogService   *blogservice.BlogService
	reviewService *reviewservice.ReviewService
	userService   *userservice.UserService
}

// collections groups the document collections of every kind.
type collections struct {
	blogs   docstore.Collection[blogservice.Blog]
	reviews docstore.Collection[reviewservice.Review]
	users   docstore.Collection[userservice.User]
}

func main() {
	configPath := flag.String("config", ".env", "path to an optional .env file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	colls, closeDB, err := openCollections(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open the database: %w", err)
	}
	defer closeDB()
	logger.Info("database connection established", slog.String("driver", cfg.DB.Driver))

	backend, err := newAssetBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to configure the asset store: %w", err)
	}
	store := asset.NewAdapter(backend, cfg.Assets.Folder, logger)

	var (
		releaser asset.Releaser = asset.DirectReleaser{Store: store}
		producer common.MessageProducer
	)

	if cfg.RabbitMQURL != "" {
		broker, err := common.NewMessageBroker(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("failed to connect to the message broker: %w", err)
		}
		defer broker.Close()

		if err := common.SetupContentExchange(broker); err != nil {
			return fmt.Errorf("failed to setup the content exchange: %w", err)
		}

		janitor := asset.NewJanitor(broker, store, logger)
		if err := janitor.Start(); err != nil {
			return fmt.Errorf("failed to start the asset janitor: %w", err)
		}
		defer janitor.Close()

		if cfg.Mail.Host != "" {
			mailer := mailservice.NewMailService(broker, mailservice.Config{
				Host:     cfg.Mail.Host,
				Port:     cfg.Mail.Port,
				Username: cfg.Mail.User,
				Password: cfg.Mail.Password,
				Sender:   cfg.Mail.Sender,
			}, "Nexus", logger)
			if err := mailer.SendWelcomeEmail(); err != nil {
				return fmt.Errorf("failed to start the mail consumer: %w", err)
			}
			defer mailer.Close()
		}

		releaser = asset.BrokerReleaser{MB: broker}
		producer = broker
		logger.Info("message broker connected")
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		blogService:   blogservice.NewBlogService(colls.blogs, store, releaser, logger),
		reviewService: reviewservice.NewReviewService(colls.reviews, store, releaser, logger),
		userService:   userservice.NewUserService(colls.users, store, producer, logger),
	}

	return app.serve()
}

// openCollections connects to the configured database and prepares the collections of every
// kind. The returned func closes the connection.
func openCollections(ctx context.Context, cfg DBConfig) (*collections, func(), error) {
	switch cfg.Driver {
	case "mongo":
		db, err := common.NewMongo(cfg.URL, cfg.Name)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() { _ = common.CloseMongo(db) }

		blogs, err := docstore.NewMongoCollection[blogservice.Blog](ctx, db, blogservice.CollectionName, blogservice.SlugField)
		if err != nil {
			closeDB()
			return nil, nil, err
		}

		reviews, err := docstore.NewMongoCollection[reviewservice.Review](ctx, db, reviewservice.CollectionName)
		if err != nil {
			closeDB()
			return nil, nil, err
		}

		users, err := docstore.NewMongoCollection[userservice.User](ctx, db, userservice.CollectionName, userservice.EmailField)
		if err != nil {
			closeDB()
			return nil, nil, err
		}

		return &collections{blogs: blogs, reviews: reviews, users: users}, closeDB, nil

	case "postgres":
		m, err := common.MigrateDB(cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to migrate: %w", err)
		}
		m.Close()

		db, err := common.NewDB(cfg.URL, 25, 25, 15*time.Minute)
		if err != nil {
			return nil, nil, err
		}

		return &collections{
			blogs:   docstore.NewPostgresCollection[blogservice.Blog](db, blogservice.CollectionName),
			reviews: docstore.NewPostgresCollection[reviewservice.Review](db, reviewservice.CollectionName),
			users:   docstore.NewPostgresCollection[userservice.User](db, userservice.CollectionName),
		}, func() { _ = common.CloseDB(db) }, nil

	case "memory":
		return newMemoryCollections(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

func newMemoryCollections() *collections {
	return &collections{
		blogs:   docstore.NewMemoryCollection[blogservice.Blog](blogservice.SlugField),
		reviews: docstore.NewMemoryCollection[reviewservice.Review](),
		users:   docstore.NewMemoryCollection[userservice.User](userservice.EmailField),
	}
}

func newAssetBackend(ctx context.Context, cfg *Config) (asset.Backend, error) {
	a := cfg.Assets

	switch a.Store {
	case "cloudinary":
		return asset.NewCloudinaryBackend(a.CloudinaryCloudName, a.CloudinaryAPIKey, a.CloudinaryAPISecret)
	case "s3":
		return asset.NewS3Backend(ctx, asset.S3Config{
			Region:          a.S3Region,
			Bucket:          a.S3Bucket,
			AccessKeyID:     a.S3AccessKeyID,
			SecretAccessKey: a.S3SecretAccessKey,
			Endpoint:        a.S3Endpoint,
			UsePathStyle:    a.S3Endpoint != "",
			PublicURL:       a.S3PublicURL,
		})
	case "fs":
		return asset.NewFSBackend(filepath.Join(cfg.PublicDir, "uploads"), cfg.PublicURL+"/public/uploads")
	case "memory":
		return asset.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown ASSET_STORE %q", a.Store)
	}
}
