package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/config"
	"github.com/goliatone/go-market-auth/logging"
	"github.com/goliatone/go-market-auth/metrics"
	"github.com/goliatone/go-market-auth/otp"
	"github.com/goliatone/go-market-auth/otp/twilio"
	"github.com/goliatone/go-market-auth/repository"
	"github.com/goliatone/go-market-auth/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load(config.WithFile(".env"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Name:   "authd",
	})
	slog.SetDefault(logger)

	if cfg.Env == "development" {
		fmt.Println(print.MaybePrettyJSON(cfg.Redacted()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("authd stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tokens, err := auth.NewTokenService(auth.TokenServiceOptions{
		SigningKey:   []byte(cfg.JWTSecret),
		PreviousKeys: cfg.PreviousKeys(),
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
		TTL:          cfg.JWTTTL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	repo, err := repository.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer repo.Close()

	m := metrics.New()

	bridge, err := otp.NewBridge(otp.Config{
		AccountSID:         cfg.TwilioAccountSID,
		AuthToken:          cfg.TwilioAuthToken,
		ServiceSID:         cfg.TwilioVerifyServiceSID,
		DefaultCountryCode: cfg.OTPDefaultCountryCode,
		Channel:            cfg.OTPChannel,
	},
		twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID, cfg.OTPTimeout),
		otp.WithLogger(logger),
		otp.WithObserver(m.ObserveOTP),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Logger:     logger,
		Tokens:     tokens,
		Bridge:     bridge,
		Repository: repo,
		Metrics:    m,
		OTPTimeout: cfg.OTPTimeout,
	})
	if err != nil {
		return err
	}

	return server.Run(ctx, srv, cfg.HTTPAddr, shutdownGrace, logger)
}
