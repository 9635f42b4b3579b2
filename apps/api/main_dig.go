package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	dig_container "github.com/trezcool/placement/apps/api/di/dig"
	echoapi "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/scheduler"
	"github.com/trezcool/placement/core/session"
	notifysvc "github.com/trezcool/placement/services/notify"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		store core.ClosableKVStore,
		validate *validator.Validate,
		translator ut.Translator,
		sched *scheduler.Queue,
		hub *notifysvc.Hub,
		mgr *session.Manager,
		opportunities *opportunity.Service,
		chatSvc *chat.Service,
		digest *reminder.Digest,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)

		defer func() {
			if err := store.Close(); err != nil {
				apiLogger.Error("Failed to close storage", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st := mgr.Init(ctx)
		apiLogger.Info(fmt.Sprintf("session restored : %s", st.Status))
		defer mgr.Close()

		if conf.SeedDemoData {
			if _, err := opportunities.Seed(ctx); err != nil {
				apiLogger.Error("seeding opportunities", err)
			}
			if _, err := chatSvc.SeedInbox(ctx); err != nil {
				apiLogger.Error("seeding admin inbox", err)
			}
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.Publish("scheduled", expvar.Func(func() interface{} { return sched.Pending() }))
		expvar.Publish("ws_clients", expvar.Func(func() interface{} { return hub.Clients() }))

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Reminder digest

		jobs := cron.New()
		if _, err := jobs.AddFunc(conf.Reminder.DigestSchedule, func() {
			sent, err := digest.Run(ctx)
			if err != nil {
				apiLogger.Error("sending reminder digest", err)
				return
			}
			apiLogger.Info(fmt.Sprintf("reminder digest sent to %d students", sent))
		}); err != nil {
			apiLogger.Fatal(fmt.Sprintf("invalid digest schedule %q: %v", conf.Reminder.DigestSchedule, err), err)
		}
		jobs.Start()

		// =========================================================================
		// Start API Service

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sched.Run(gctx) })
		g.Go(func() error { return hub.Run(gctx) })
		g.Go(server.Start)

		// =========================================================================
		// Shutdown

		g.Go(func() error {
			<-gctx.Done()
			apiLogger.Info("Start shutdown...")
			<-jobs.Stop().Done()

			// give outstanding requests a deadline for completion
			sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(sctx)
		})

		if err := g.Wait(); err != nil && err != context.Canceled {
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)
		}
	}))
}
