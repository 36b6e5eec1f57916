package app

import (
	"context"
	"fmt"

	"github.com/megamart/ledger-service/internal/app/services/catalogsvc"
	ledgersvc "github.com/megamart/ledger-service/internal/app/services/ledger"
	orderssvc "github.com/megamart/ledger-service/internal/app/services/orders"
	taskssvc "github.com/megamart/ledger-service/internal/app/services/tasks"
	teamsvc "github.com/megamart/ledger-service/internal/app/services/team"
	userssvc "github.com/megamart/ledger-service/internal/app/services/users"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/internal/app/storage/memory"
	"github.com/megamart/ledger-service/internal/app/system"
	"github.com/megamart/ledger-service/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users       storage.UserStore
	Deposits    storage.DepositStore
	Withdrawals storage.WithdrawalStore
	Tasks       storage.TaskStore
	Orders      storage.OrderStore
	Catalog     storage.CatalogStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Users   *userssvc.Service
	Ledger  *ledgersvc.Service
	Tasks   *taskssvc.Service
	Team    *teamsvc.Service
	Orders  *orderssvc.Service
	Catalog *catalogsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Deposits == nil {
		stores.Deposits = mem
	}
	if stores.Withdrawals == nil {
		stores.Withdrawals = mem
	}
	if stores.Tasks == nil {
		stores.Tasks = mem
	}
	if stores.Orders == nil {
		stores.Orders = mem
	}
	if stores.Catalog == nil {
		stores.Catalog = mem
	}

	manager := system.NewManager()

	usersService := userssvc.New(stores.Users, log)
	ledgerService := ledgersvc.New(stores.Users, stores.Deposits, stores.Withdrawals, log)
	tasksService := taskssvc.New(stores.Users, stores.Tasks, log)
	teamService := teamsvc.New(stores.Users, stores.Deposits, stores.Withdrawals, stores.Orders, stores.Tasks, log)
	ordersService := orderssvc.New(stores.Users, stores.Orders, stores.Catalog, log)
	catalogService := catalogsvc.New(stores.Catalog, log)

	for _, name := range []string{"users", "ledger", "tasks", "team", "orders", "catalog"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager: manager,
		log:     log,
		Users:   usersService,
		Ledger:  ledgerService,
		Tasks:   tasksService,
		Team:    teamService,
		Orders:  ordersService,
		Catalog: catalogService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
