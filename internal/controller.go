package internal

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mbrault/morpion/internal/core"
	"github.com/mbrault/morpion/internal/core/data"
	"github.com/mbrault/morpion/internal/core/debug"
	"github.com/mbrault/morpion/internal/lobby"
	"github.com/mbrault/morpion/internal/stats"
)

// Controller is the main entrypoint for the server. It's responsible for
// initializing any shared resources (such as the database and logging),
// defining the servers, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	db     *gorm.DB
	wg     sync.WaitGroup

	servers []*frontend
}

func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by all server components.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return err
	}

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.PprofEnabled {
		debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	c.db, err = data.Initialize(c.Config)
	if err != nil {
		return err
	}
	defer func() {
		if err := data.Shutdown(c.db); err != nil {
			c.logger.Warnf("error shutting down database: %v", err)
		}
	}()
	c.logger.Infof("connected to %s database", c.Config.Database.Engine)

	c.declareServers()
	return c.run(ctx)
}

// declareServers sets up all of the servers we want to run.
func (c *Controller) declareServers() {
	statsService := stats.NewService(c.db, c.logger)

	c.servers = []*frontend{
		{
			Address: c.Config.GameServerAddress(),
			Backend: lobby.NewServer("GAME", c.Config, c.logger, statsService),
			Config:  c.Config,
			Logger:  c.logger,
		},
	}
}

// run starts all of the declared servers and blocks until the context is
// cancelled and they have wound down.
func (c *Controller) run(ctx context.Context) error {
	for _, server := range c.servers {
		if err := server.Start(ctx, &c.wg); err != nil {
			return err
		}
	}

	c.wg.Wait()
	return ctx.Err()
}
