package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/metrics"
	"github.com/Guidantas28/blog-generator/internal/pipeline"
	"github.com/Guidantas28/blog-generator/internal/scheduler"
	"github.com/Guidantas28/blog-generator/internal/server"
)

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every due automation once",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runner, _, err := pipeline.Build(cfg, db, logger, nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := runner.RunDue(ctx)
		if err != nil {
			return err
		}
		printRunResult(res)
		return nil
	},
}

func printRunResult(res *automation.RunResult) {
	fmt.Println(styles.title.Render(res.Message))
	if res.Processed == 0 {
		return
	}
	fmt.Printf("Processed: %d  Succeeded: %s  Failed: %s\n\n",
		res.Processed,
		styles.success.Render(fmt.Sprint(res.Succeeded)),
		styles.failure.Render(fmt.Sprint(res.Failed)))

	for _, d := range res.Details {
		fmt.Printf("  [%s] automation %s (site %s)\n", renderDetailStatus(d.Status), d.AutomationID, d.SiteID)
		fmt.Printf("        %s\n", d.Message)
		if d.Diagnostics.Topic != "" {
			fmt.Printf("        topic: %s\n", d.Diagnostics.Topic)
		}
		for _, e := range d.Diagnostics.Events {
			fmt.Printf("        %s %s\n", styles.warning.Render(string(e.Kind)), e.Message)
		}
	}
}

// --- post command ---

var (
	postTopic    string
	postCategory string
	postDraft    bool
)

var postCmd = &cobra.Command{
	Use:   "post [site-id]",
	Short: "Write and publish one post now, on a given or researched topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if postTopic == "" && postCategory == "" {
			return errors.New("give --topic, or --category to research one")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runner, _, err := pipeline.Build(cfg, db, logger, nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := runner.Publish(ctx, automation.PublishRequest{
			UserID:   userID,
			SiteID:   args[0],
			Topic:    postTopic,
			Category: postCategory,
			Draft:    postDraft,
		})
		if err != nil {
			return err
		}

		fmt.Println(styles.title.Render(res.Title))
		fmt.Printf("  topic:  %s\n", res.Topic)
		fmt.Printf("  status: %s  (WordPress post %d)\n", styles.success.Render(res.Status), res.WordPressID)
		for _, e := range res.Diagnostics.Events {
			fmt.Printf("  %s %s\n", styles.warning.Render(string(e.Kind)), e.Message)
		}
		return nil
	},
}

// --- serve command ---

var (
	servePort int
	noCron    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trigger endpoint and run the optional cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		runner, _, err := pipeline.Build(cfg, db, logger, m)
		if err != nil {
			return err
		}

		secret := cfg.CronSecret()
		if secret == "" {
			logger.Warn("trigger endpoint is open, set the cron secret variable to protect it", "env", cfg.Server.CronSecretEnv)
		}

		srv := server.New(runner, db, server.Options{
			CronSecret: secret,
			Metrics:    m,
			Gatherer:   reg,
			Logger:     logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port > 0 {
			port = cfg.Server.Port
		}
		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		var sched *scheduler.Scheduler
		if cfg.Automation.Cron != "" && !noCron {
			sched, err = scheduler.New(cfg.Automation.Cron, runner, logger)
			if err != nil {
				return err
			}
			sched.Start(ctx)
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", httpServer.Addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if sched != nil {
				<-sched.Stop().Done()
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if sched != nil {
			select {
			case <-sched.Stop().Done():
			case <-shutdownCtx.Done():
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	postCmd.Flags().StringVar(&postTopic, "topic", "", "Topic to write about")
	postCmd.Flags().StringVar(&postCategory, "category", "", "Business category to research a topic for when --topic is empty")
	postCmd.Flags().BoolVar(&postDraft, "draft", false, "Save as a WordPress draft instead of publishing")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().BoolVar(&noCron, "no-cron", false, "Disable the in-process schedule")
}
