package cmd

import (
	"log/slog"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/crm"
	"fulfillment/internal/adapters/out/notify"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/auditrepo"
	"fulfillment/internal/adapters/out/postgres/directoryrepo"
	"fulfillment/internal/adapters/out/postgres/sequencerepo"
	"fulfillment/internal/adapters/out/postgres/syncqueue"
	"fulfillment/internal/adapters/out/rediscache"
	"fulfillment/internal/adapters/out/rules"
	"fulfillment/internal/core/application/crmsync"
	"fulfillment/internal/core/application/services"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/shipment"
	domainservices "fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	queue    *syncqueue.GormSyncQueue
	alerter  *notify.LogAlerter
	notifier *notify.LogNotifier
	syncer   *crmsync.Syncer
	rules    *rules.Engine
}

// NewCompositionRoot builds the shared adapters. redisClient may be nil, in
// which case CRM product ids are not cached.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) (CompositionRoot, error) {
	engine, err := rules.LoadFile(cfg.RulesFile)
	if err != nil {
		return CompositionRoot{}, err
	}

	client, err := crm.NewClient(crm.Config{
		APIHost:      cfg.CRMAPIHost,
		AccountsHost: cfg.CRMAccountsHost,
		ClientID:     cfg.CRMClientID,
		ClientSecret: cfg.CRMSecret,
		RefreshToken: cfg.CRMRefreshToken,
	}, nil)
	if err != nil {
		return CompositionRoot{}, err
	}

	var cache ports.ProductIDCache
	if redisClient != nil {
		cache = rediscache.NewProductIDCache(redisClient, cfg.ProductTTL)
	}

	syncCfg := crmsync.DefaultConfig()
	if cfg.CRMRateLimit > 0 {
		syncCfg.RateLimit = rate.Limit(cfg.CRMRateLimit)
	}

	queue := syncqueue.NewGormSyncQueue(gormDB)
	alerter := notify.NewLogAlerter(logger)

	return CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		queue:      queue,
		alerter:    alerter,
		notifier:   notify.NewLogNotifier(logger),
		syncer:     crmsync.NewSyncer(client, cache, queue, alerter, crmsync.NewMetrics(), syncCfg, logger),
		rules:      engine,
	}, nil
}

func (c *CompositionRoot) CreateCheckoutCommandHandler() *commands.CheckoutCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	classifier := services.NewComplianceClassifier(c.rules, auditrepo.NewGormComplianceAuditLog(c.gormDB), c.logger)
	minter := services.NewOrderNumberMinter(
		sequencerepo.NewGormSequenceCounter(c.gormDB),
		sequencerepo.NewGormOrderNumberRegistry(c.gormDB),
		c.logger,
	)
	h := commands.NewCheckoutCommandHandler(
		f,
		directoryrepo.NewGormProductCatalog(c.gormDB),
		directoryrepo.NewGormFFLDirectory(c.gormDB),
		classifier,
		domainservices.NewShipmentGrouper(shipment.DefaultRoutingTable()),
		minter,
		c.syncer,
		c.logger,
	)
	return &h
}

func (c *CompositionRoot) CreateAdvanceIHStatusCommandHandler() *commands.AdvanceIHStatusCommandHandler {
	h := commands.NewAdvanceIHStatusCommandHandler(c.shipmentUoWFactory(), c.notifier, c.syncer, c.logger)
	return &h
}

func (c *CompositionRoot) CreateAddIHNoteCommandHandler() *commands.AddIHNoteCommandHandler {
	h := commands.NewAddIHNoteCommandHandler(c.shipmentUoWFactory(), c.logger)
	return &h
}

func (c *CompositionRoot) CreateRetryCRMSyncCommandHandler() *commands.RetryCRMSyncCommandHandler {
	h := commands.NewRetryCRMSyncCommandHandler(c.shipmentUoWFactory(), c.queue, c.syncer, c.logger)
	return &h
}

func (c *CompositionRoot) CreateMonitorStuckShipmentsCommandHandler() *commands.MonitorStuckShipmentsCommandHandler {
	h := commands.NewMonitorStuckShipmentsCommandHandler(c.CreateGetStuckIHShipmentsQueryHandler(), c.alerter, c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetShipmentGroupQueryHandler() queries.GetShipmentGroupQueryHandler {
	return queries.NewGetShipmentGroupQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetStuckIHShipmentsQueryHandler() queries.GetStuckIHShipmentsQueryHandler {
	return queries.NewGetStuckIHShipmentsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateRetryCRMSyncCommandHandler(),
		c.CreateMonitorStuckShipmentsCommandHandler(),
		c.cfg.RetryBatchSize,
		c.cfg.StuckThreshold,
		c.logger,
	)
}

func (c *CompositionRoot) CreateRouter() (*echo.Echo, error) {
	server := httpin.NewServer(
		c.CreateCheckoutCommandHandler(),
		c.CreateAdvanceIHStatusCommandHandler(),
		c.CreateAddIHNoteCommandHandler(),
		c.CreateGetShipmentGroupQueryHandler(),
		c.CreateGetStuckIHShipmentsQueryHandler(),
		c.logger,
	)
	return httpin.NewRouter(server, c.logger)
}

func (c *CompositionRoot) shipmentUoWFactory() commands.ShipmentUoWFactory {
	return FuncShipmentUoWFactory(func() commands.ShipmentUoW {
		return c.uowFactory.Create()
	})
}

type FuncShipmentUoWFactory func() commands.ShipmentUoW

func (f FuncShipmentUoWFactory) Create() commands.ShipmentUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
