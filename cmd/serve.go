package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"app/config"
	"app/database"
	"app/handlers"
	"app/live"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveHTTP(ctx context.Context, server *http.Server) {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logrus.Error(err)
		}
		close(done)
	}()

	logrus.Infof("serving at http://127.0.0.1%v", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logrus.Error(err)
	}
	<-done
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serves the todo list application",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Init()
		if err != nil {
			return err
		}

		db, err := database.InitDB(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hub := live.NewHub(db, logrus.WithField("component", "hub"))
		go hub.Run(ctx)

		router, err := handlers.NewRouter(db, hub, cfg, logrus.StandardLogger())
		if err != nil {
			return err
		}

		cors := gorillahandlers.CORS(
			gorillahandlers.AllowedOrigins([]string{cfg.AllowedOrigin}),
			gorillahandlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"}),
			gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
		)

		server := &http.Server{
			Addr:        fmt.Sprintf(":%v", cfg.Port),
			Handler:     cors(router),
			ReadTimeout: 10 * time.Second,
		}

		go func() {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, os.Interrupt)
			<-ch
			logrus.Info("signal received, shutting down...")
			cancel()
		}()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			serveHTTP(ctx, server)
		}()

		wg.Wait()
		return nil
	},
}
