package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"github.com/wlhuang/riskgate/internal/accounts"
	"github.com/wlhuang/riskgate/internal/audit"
	"github.com/wlhuang/riskgate/internal/config"
	"github.com/wlhuang/riskgate/internal/decision"
	"github.com/wlhuang/riskgate/internal/handlers/api"
	"github.com/wlhuang/riskgate/internal/mail"
	"github.com/wlhuang/riskgate/internal/metadata"
	"github.com/wlhuang/riskgate/internal/middlewares"
	"github.com/wlhuang/riskgate/internal/middlewares/sessions"
	"github.com/wlhuang/riskgate/internal/policy"
	"github.com/wlhuang/riskgate/internal/render"
	"github.com/wlhuang/riskgate/internal/risk"
	"github.com/wlhuang/riskgate/internal/stepup"
	"github.com/wlhuang/riskgate/internal/store"
	"github.com/wlhuang/riskgate/internal/tokens"
	"github.com/wlhuang/riskgate/model"
	"github.com/wlhuang/riskgate/params"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "riskgate - risk-based WebAuthn step-up decision server"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Printf("riskgate %s (commit %s, %s)\n", gitTag, gitCommit, gitDate)
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

// openDsn validates the DSN and forces parseTime so the audit timestamps come
// back as time.Time.
func openDsn(dsn string) (gorm.Dialector, error) {
	dsnCfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	dsnCfg.ParseTime = true
	return mysql.Open(dsnCfg.FormatDSN()), nil
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	dialector, err := openDsn(dbConfig.Dsn)
	if err != nil {
		slog.Error("Invalid database DSN", "error", err)
		os.Exit(1)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if dbConfig.ReplicaDsn != "" {
		replica, err := openDsn(dbConfig.ReplicaDsn)
		if err != nil {
			slog.Error("Invalid replica DSN", "error", err)
			os.Exit(1)
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{replica},
		}))
		if err != nil {
			slog.Error("Failed to register read replica", "error", err)
			os.Exit(1)
		}
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitPolicyTable(policyCfg config.PolicyConfig) *policy.Table {
	table, err := policy.Load(policyCfg.File)
	if err != nil {
		slog.Error("Could not load policy table", "file", policyCfg.File, "error", err)
		os.Exit(1)
	}
	return table
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		log.Fatal("Missing mail sender backend")
	}
	if mailCfg.Backend == "smtp" {
		sender, err := mail.NewSMTPMailSender(mailCfg.SMTP, mailCfg.From)
		if err != nil {
			log.Fatalf("Could not initialize SMTP mail sender: %v", err)
		}
		return sender
	}
	log.Fatalf("Unsupported mail sender backend %s", mailCfg.Backend)
	return nil
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func setupAPIRoutes(
	router fiber.Router,
	sessionConfig sessions.Config,
	engine *decision.Engine,
	stepUpManager *stepup.Manager,
	tokenIssuer *tokens.Issuer,
	accountService *accounts.Service,
	auditWriter *audit.Writer) {

	var (
		decisionHandler = api.NewDecisionHandler(engine, stepUpManager, tokenIssuer)
		registerHandler = api.NewRegisterHandler(accountService, auditWriter)
	)

	router.Use(sessions.New(sessionConfig))
	router.Post("/api/assertion/result", decisionHandler.PostAssertionResult)
	router.Post("/api/otp/verify", decisionHandler.PostVerifyOTP)
	router.Post("/api/register/result", registerHandler.PostRegisterResult)
}

func run(ctx *cli.Context) error {
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name))

	if err := render.Initialize(nil, ""); err != nil {
		slog.Error("Could not initialize templates", "error", err)
		return err
	}

	table := mustInitPolicyTable(config.Policy)
	mailSender := mustInitMailSender(config.Mail)
	db := mustInitDatabase(config.MySQL)

	var sessionStorage fiber.Storage
	var challengeStorage store.Storage
	var redisConn goredis.UniversalClient
	if config.Redis.URL != "" {
		redisStorage := mustInitRedisStorage(config.Redis)
		sessionStorage = redisStorage
		challengeStorage = store.NewRedisStorage(redisStorage.Conn())
		redisConn = redisStorage.Conn()
	} else {
		slog.Warn("No redis configured, using in-process storage")
		sessionStorage = memory.New()
		challengeStorage = store.NewMemStorage()
	}

	metadataService := metadata.NewStaticService(config.Metadata.AAGUIDStatuses)

	// repositories
	var (
		auditRepo   = audit.NewRepository(db)
		accountRepo = accounts.NewAccountRepository(db)
	)

	// services
	var (
		auditWriter    = audit.NewWriter(auditRepo, params.AuditWriteTimeout)
		extractor      = risk.NewExtractor(auditRepo, metadataService)
		engine         = decision.NewEngine(extractor, table, auditWriter)
		accountService = accounts.NewService(accountRepo)
		tokenIssuer    = tokens.NewIssuer(config.MasterKey, params.SessionGrantTokenMaxAge)
		stepUpManager  = stepup.NewManager(challengeStorage, accountService, mailSender,
			stepup.WithDigits(config.Policy.OTPDigits))
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(
		router,
		sessions.Config{
			Storage:        sessionStorage,
			SessionMaxAge:  config.Session.SessionMaxAge,
			CookieSecure:   config.Session.CookieSecure,
			CookieHttpOnly: config.Session.CookieHttpOnly,
			CookieName:     config.Session.CookieName,
		},
		engine,
		stepUpManager,
		tokenIssuer,
		accountService,
		auditWriter,
	)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go startHealthCheckServer(healthCheckCtx, done, redisConn, db)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
