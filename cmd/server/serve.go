package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bobbystable/internal/api"
	"bobbystable/internal/auth"
	"bobbystable/internal/clock"
	"bobbystable/internal/config"
	"bobbystable/internal/conversation"
	"bobbystable/internal/repository"
	"bobbystable/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedule, err := cfg.LoadSchedule()
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	log.Printf("Slots: %s (max party size %d)", schedule, schedule.MaxPartySize())

	clk := clock.Real()
	notifier := service.NewNotifier()
	defer notifier.Close()

	repo := repository.NewReservationRepository(schedule, notifier, clk)
	svc := service.NewReservationService(repo)
	machine := conversation.NewMachine(svc, repo, clk, cfg.RestaurantName, cfg.Location)
	calls := conversation.NewManager(machine, clk)

	startNotifications(ctx, cfg, notifier, svc, clk)

	jobs := service.NewJobService(repo, calls, clk, cfg.CancelledRetention, cfg.SessionIdleTimeout)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, clk)
	sessions := auth.NewSessionManager(cfg.CookieHashKey, cfg.CookieBlockKey)
	if cfg.AdminPasswordHash == "" {
		log.Println("WARNING: ADMIN_PASSWORD_HASH not set, staff login is disabled")
	}
	admins := repository.NewAdminAuthRepository(repository.Admin{Username: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash})

	router := api.Router{
		System: &api.SystemHandler{
			RestaurantName: cfg.RestaurantName,
			PhoneNumber:    cfg.PhoneNumber,
			CallAddress:    cfg.CallAddress,
			Schedule:       schedule,
			Calls:          calls,
			Notifier:       notifier,
			Tokens:         tokens,
		},
		Calls:     api.NewCallHandler(calls),
		Admin:     api.NewAdminHandler(svc, repo, notifier, cfg.EventBuffer),
		AdminAuth: api.NewAdminAuthHandler(service.NewAdminAuthService(admins, tokens), sessions),
		Sessions:  sessions,
		Tokens:    tokens,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Wrap(router.Build(), cfg.CORSOrigins, os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	// Event streams only end once the notifier lets go of them.
	notifier.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startNotifications attaches the SMS and email observer when at least
// one channel is configured.
func startNotifications(ctx context.Context, cfg config.Config, notifier *service.Notifier, svc *service.ReservationService, clk clock.Clock) {
	if !cfg.NotificationsEnabled() {
		log.Println("Notifications disabled: no Twilio or SendGrid credentials")
		return
	}

	var sms service.SMSSender
	if sender := service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber); sender != nil {
		sms = sender
	}
	var email service.EmailSender
	if sender := service.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName); sender != nil {
		email = sender
	}

	senders := service.NewSenderService(cfg.RestaurantName, cfg.ManagerEmail, sms, email, svc.FindByID, clk)
	if !senders.Enabled() {
		log.Println("Notifications disabled: no usable channel")
		return
	}
	notifier.Observe(ctx, "notifications", cfg.EventBuffer, senders.HandleEvent)
	log.Println("Notifications enabled")
}
