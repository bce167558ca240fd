// Package service exposes the chat operations: open a conversation, send a
// message, mark it read, signal typing, list and count. It composes the
// durable store with the realtime broadcaster; durable writes always commit
// or fail on their own, and broadcasts run after the fact, fire-and-forget.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicolasparada/go-errs"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/cockroach"
	"github.com/immoalbania/immo/realtime"
)

var ErrUnauthenticated = errs.UnauthenticatedError("unauthenticated")

type Config struct {
	Cockroach         *cockroach.Cockroach
	Broadcast         realtime.Broadcaster
	Auth              *auth.Codec
	BaseCtx           context.Context
	BackgroundTimeout time.Duration
}

type Service struct {
	Cockroach *cockroach.Cockroach
	Broadcast realtime.Broadcaster
	Auth      *auth.Codec

	baseCtx           context.Context
	backgroundTimeout time.Duration
	wg                sync.WaitGroup
	errs              chan error
}

func New(cfg *Config) *Service {
	return &Service{
		Cockroach: cfg.Cockroach,
		Broadcast: cfg.Broadcast,
		Auth:      cfg.Auth,

		baseCtx:           cfg.BaseCtx,
		backgroundTimeout: cfg.BackgroundTimeout,
		errs:              make(chan error, 1),
	}
}

func (svc *Service) Errs() <-chan error {
	return svc.errs
}

func (svc *Service) Close() error {
	svc.wg.Wait()
	close(svc.errs)
	return nil
}

// background runs fn detached from the request that spawned it, bounded by
// the configured timeout. Broadcast emission goes through here so a write's
// response never waits on delivery; events emitted inside one fn keep
// their order.
func (svc *Service) background(fn func(ctx context.Context) error) {
	svc.wg.Go(func() {
		defer func() {
			if rcv := recover(); rcv != nil {
				select {
				case svc.errs <- fmt.Errorf("service background panic: %v", rcv):
				default:
				}
			}
		}()

		ctx, cancel := context.WithTimeout(svc.baseCtx, svc.backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			select {
			case svc.errs <- fmt.Errorf("service background error: %w", err):
			default:
			}
		}
	})
}
