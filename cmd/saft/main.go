package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/bootstrap"
	"github.com/jhoicas/fiscal-ao/internal/interfaces/cli"
	"github.com/jhoicas/fiscal-ao/pkg/config"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cfg *config.Config
		log *logger.Logger
	)
	load := func() (*config.Config, *logger.Logger, error) {
		if cfg != nil {
			return cfg, log, nil
		}
		c, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		cfg = c
		// stderr: stdout queda para la salida de los comandos
		log = logger.New(logger.Config{Env: c.App.Env, Level: c.App.LogLevel, Out: os.Stderr})
		return cfg, log, nil
	}

	cli.SetDeps(cli.Deps{
		Keys: func() (*fiscal.KeyManager, error) {
			c, l, err := load()
			if err != nil {
				return nil, err
			}
			return bootstrap.NewKeyManager(c, l), nil
		},
		Services: func(ctx context.Context) (*cli.Services, func(), error) {
			c, l, err := load()
			if err != nil {
				return nil, nil, err
			}
			svc, err := bootstrap.New(ctx, c, l)
			if err != nil {
				return nil, nil, err
			}
			return &cli.Services{Docs: svc.Documents, Export: svc.Export, Users: svc.Auth}, svc.Close, nil
		},
	})

	if err := cli.Execute(ctx); err != nil {
		if !errors.Is(err, cli.ErrInvalid) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
