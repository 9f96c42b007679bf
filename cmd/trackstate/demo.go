package main

import (
	"context"
	"fmt"
	"time"

	"github.com/delaneyj/trackstate/reactive"
	"github.com/urfave/cli/v3"
)

const (
	keyKey     = "key"
	timeoutKey = "timeout"
)

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Increment a stored counter in the configured backend and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: keyKey, Usage: "Store key of the counter", Value: "demo:counter"},
			&cli.DurationFlag{Name: timeoutKey, Usage: "How long to wait for the store", Value: 5 * time.Second},
		},
		Action: demo,
	}
}

func demo(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg.Store, logger, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration(timeoutKey))
	defer cancel()

	rt := reactive.NewRuntime(reactive.WithLogger(logger), reactive.WithContext(ctx))
	count := reactive.NewStored(rt, st, cmd.String(keyKey), 0)
	doubled := reactive.NewComputed(rt, func() int { return count.Read() * 2 })

	scope := rt.Mount(func(s *reactive.Scope) {
		reactive.Watch(rt, doubled, func(v int) {
			logger.Info("doubled changed", "value", v)
		})
	})
	defer scope.Dispose()

	if err := count.WaitLoaded(ctx); err != nil {
		return fmt.Errorf("waiting for %q: %w", count.Key(), err)
	}
	loaded := count.Peek()

	if err := count.Update(func(v int) int { return v + 1 }).Wait(ctx); err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d (doubled %d)\n", count.Key(), loaded, count.Peek(), doubled.Peek())
	return nil
}
