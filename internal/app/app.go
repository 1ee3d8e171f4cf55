package app

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	analyticsApp "github.com/davicafu/ordersaga/internal/analytics/application"
	analyticsDomain "github.com/davicafu/ordersaga/internal/analytics/domain"
	analyticsEvents "github.com/davicafu/ordersaga/internal/analytics/infra/inbound/events"
	analyticsHttp "github.com/davicafu/ordersaga/internal/analytics/infra/inbound/http"
	analyticsCH "github.com/davicafu/ordersaga/internal/analytics/infra/outbound/db/clickhouse"
	analyticsSqlite "github.com/davicafu/ordersaga/internal/analytics/infra/outbound/db/sqlite"
	"github.com/davicafu/ordersaga/internal/config"
	infraDedup "github.com/davicafu/ordersaga/internal/infra/dedup"
	infraEvents "github.com/davicafu/ordersaga/internal/infra/events"
	inventoryApp "github.com/davicafu/ordersaga/internal/inventory/application"
	inventoryDomain "github.com/davicafu/ordersaga/internal/inventory/domain"
	inventoryEvents "github.com/davicafu/ordersaga/internal/inventory/infra/inbound/events"
	inventoryHttp "github.com/davicafu/ordersaga/internal/inventory/infra/inbound/http"
	inventoryPg "github.com/davicafu/ordersaga/internal/inventory/infra/outbound/db/postgres"
	inventorySqlite "github.com/davicafu/ordersaga/internal/inventory/infra/outbound/db/sqlite"
	notificationApp "github.com/davicafu/ordersaga/internal/notification/application"
	notificationEvents "github.com/davicafu/ordersaga/internal/notification/infra/inbound/events"
	notificationHttp "github.com/davicafu/ordersaga/internal/notification/infra/inbound/http"
	notificationSqlite "github.com/davicafu/ordersaga/internal/notification/infra/outbound/db/sqlite"
	"github.com/davicafu/ordersaga/internal/notification/infra/outbound/sender"
	orderApp "github.com/davicafu/ordersaga/internal/order/application"
	orderDomain "github.com/davicafu/ordersaga/internal/order/domain"
	orderEvents "github.com/davicafu/ordersaga/internal/order/infra/inbound/events"
	orderHttp "github.com/davicafu/ordersaga/internal/order/infra/inbound/http"
	orderPg "github.com/davicafu/ordersaga/internal/order/infra/outbound/db/postgres"
	orderSqlite "github.com/davicafu/ordersaga/internal/order/infra/outbound/db/sqlite"
	paymentApp "github.com/davicafu/ordersaga/internal/payment/application"
	paymentEvents "github.com/davicafu/ordersaga/internal/payment/infra/inbound/events"
	paymentHttp "github.com/davicafu/ordersaga/internal/payment/infra/inbound/http"
	paymentSqlite "github.com/davicafu/ordersaga/internal/payment/infra/outbound/db/sqlite"
	"github.com/davicafu/ordersaga/internal/payment/infra/outbound/gateway"
	sharedBus "github.com/davicafu/ordersaga/internal/shared/infra/platform/bus"
	sharedDedup "github.com/davicafu/ordersaga/internal/shared/infra/platform/dedup"
)

// App es la raíz de composición: los cinco servicios del saga conviven en
// un solo proceso pero no comparten estado, solo el bus de eventos.
type App struct {
	cfg *config.Config
	log *zap.Logger

	db       *sql.DB
	pg       *sql.DB
	rdb      *redis.Client
	memDedup *infraDedup.InMemoryStore
	kafkaBus *infraEvents.KafkaEventBus

	Bus      sharedBus.EventBus
	Router   *gin.Engine
	runtime  *infraEvents.ConsumerRuntime
	bindings []sharedBus.Binding

	Orders        *orderApp.OrderService
	Inventory     *inventoryApp.InventoryService
	Payments      *paymentApp.PaymentService
	Notifications *notificationApp.NotificationService
	Analytics     *analyticsApp.AnalyticsService
}

// New cablea repositorios, bus, dedup y servicios según la configuración.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	// ---------------- DB ----------------
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	for _, init := range []func(*sql.DB) error{
		orderSqlite.InitSQLite,
		inventorySqlite.InitSQLite,
		paymentSqlite.InitSQLite,
		notificationSqlite.InitSQLite,
		analyticsSqlite.InitSQLite,
	} {
		if err := init(db); err != nil {
			return nil, err
		}
	}

	// Event store e inventario pueden ir contra Postgres; el resto de los
	// repos se queda en SQLite en cualquier modo.
	var eventStore orderDomain.EventStore = orderSqlite.NewEventStoreSQLite(db, log)
	var inventoryRepo inventoryDomain.InventoryRepository = inventorySqlite.NewInventoryRepoSQLite(db)

	if cfg.PostgresDSN != "" {
		pg, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.PingContext(ctx); err != nil {
			return nil, err
		}
		if err := orderPg.InitPostgres(pg); err != nil {
			return nil, err
		}
		if err := inventoryPg.InitPostgres(pg); err != nil {
			return nil, err
		}
		a.pg = pg
		eventStore = orderPg.NewEventStorePostgres(pg, log)
		inventoryRepo = inventoryPg.NewInventoryRepoPostgres(pg)
		log.Info("✅ Postgres conectado para event store e inventario")
	}

	// ---------------- Dedup ----------------
	var dedupStore sharedDedup.Store
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, dedup en memoria", zap.Error(err))
		rdb.Close()
		a.memDedup = infraDedup.NewInMemoryStore(cfg.DedupTTL, cfg.DedupTTL/4)
		dedupStore = a.memDedup
	} else {
		a.rdb = rdb
		dedupStore = infraDedup.NewRedisStore(rdb, cfg.DedupTTL)
		log.Info("✅ Redis conectado, dedup compartido habilitado")
	}

	// ---------------- Bus ----------------
	var bus sharedBus.EventBus
	var transport sharedBus.Transport
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.SagaTopic),
		)
		a.kafkaBus = infraEvents.NewKafkaEventBus(cfg.KafkaBrokers, cfg.SagaTopic, log)
		bus = a.kafkaBus
		transport = infraEvents.NewKafkaTransport(cfg.KafkaBrokers, cfg.SagaTopic, log)
	} else {
		log.Info("⚡️Usando exchange en memoria (canales de Go)")
		exchange := infraEvents.NewInMemoryExchange(cfg.SagaTopic)
		bus = exchange
		transport = exchange
	}
	a.Bus = bus

	// ---------------- Analítica ----------------
	var analyticsRepo analyticsDomain.AnalyticsRepository
	if cfg.ClickHouseOn {
		chRepo, err := analyticsCH.NewAnalyticsRepoClickHouse(cfg.ClickHouseDSN, "ordersaga")
		if err != nil {
			return nil, err
		}
		if err := chRepo.InitSchema(); err != nil {
			return nil, err
		}
		analyticsRepo = chRepo
		log.Info("✅ ClickHouse conectado para analítica")
	} else {
		analyticsRepo = analyticsSqlite.NewAnalyticsRepoSQLite(db)
	}

	// --------------- Servicios --------------
	a.Orders = orderApp.NewOrderService(orderSqlite.NewOrderRepoSQLite(db), eventStore, bus, log)
	a.Inventory = inventoryApp.NewInventoryService(inventoryRepo, bus, log)
	if cfg.SeedDemoProducts {
		if err := a.Inventory.SeedDemoCatalog(ctx); err != nil {
			return nil, fmt.Errorf("seeding demo catalog: %w", err)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mockGateway := gateway.NewMockGateway(float64(cfg.PaymentSuccessRate)/100, rng)
	a.Payments = paymentApp.NewPaymentService(paymentSqlite.NewPaymentRepoSQLite(db), mockGateway, bus, log)

	a.Notifications = notificationApp.NewNotificationService(
		notificationSqlite.NewNotificationRepoSQLite(db), sender.NewMockSender(log), log)
	a.Analytics = analyticsApp.NewAnalyticsService(analyticsRepo, log)

	// --------------- Consumidores --------------
	a.runtime = infraEvents.NewConsumerRuntime(transport, dedupStore, cfg.ConsumerGrace, log)
	a.bindings = append(a.bindings, orderEvents.NewOrderConsumer(a.Orders, log).Bindings()...)
	a.bindings = append(a.bindings, inventoryEvents.NewInventoryConsumer(a.Inventory, log).Bindings()...)
	a.bindings = append(a.bindings, paymentEvents.NewPaymentConsumer(a.Payments, log).Bindings()...)
	a.bindings = append(a.bindings, notificationEvents.NewNotificationConsumer(a.Notifications, log).Bindings()...)
	a.bindings = append(a.bindings, analyticsEvents.NewAnalyticsConsumer(a.Analytics, log).Bindings()...)

	// ---------------- HTTP ----------------
	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	orderHttp.RegisterOrderRoutes(router, orderHttp.NewOrderHandler(a.Orders))
	inventoryHttp.RegisterInventoryRoutes(router, inventoryHttp.NewInventoryHandler(a.Inventory))
	paymentHttp.RegisterPaymentRoutes(router, paymentHttp.NewPaymentHandler(a.Payments))
	notificationHttp.RegisterNotificationRoutes(router, notificationHttp.NewNotificationHandler(a.Notifications))
	analyticsHttp.RegisterAnalyticsRoutes(router, analyticsHttp.NewAnalyticsHandler(a.Analytics))
	a.Router = router

	return a, nil
}

// StartConsumers lanza una goroutine por cola declarada.
func (a *App) StartConsumers(ctx context.Context) {
	for _, b := range a.bindings {
		a.runtime.Start(ctx, b)
	}
	a.log.Info("🎧 Consumidores del saga lanzados", zap.Int("queues", len(a.bindings)))
}

// Close libera conexiones en orden inverso al cableado.
func (a *App) Close() {
	if a.kafkaBus != nil {
		a.kafkaBus.Close()
	}
	if a.memDedup != nil {
		a.memDedup.Stop()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
