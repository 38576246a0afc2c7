package main

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/infrastructure/config"
	"github.com/finovo/bankcore/internal/infrastructure/eventpublisher"
)

func TestValidateConfig(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{AuthEnabled: true, JWTSecret: "secret", OutboxSink: "redis"}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "auth disabled needs no secret", mutate: func(c *config.Config) { c.AuthEnabled, c.JWTSecret = false, "" }},
		{name: "auth without secret", mutate: func(c *config.Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "unknown sink", mutate: func(c *config.Config) { c.OutboxSink = "kafka" }, wantErr: "OUTBOX_SINK"},
		{
			name:    "gateway without webhook secret",
			mutate:  func(c *config.Config) { c.RazorpayKeyID, c.RazorpayKeySecret = "rzp_test", "s" },
			wantErr: "RAZORPAY_WEBHOOK_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewOutboxSink(t *testing.T) {
	sink, err := newOutboxSink("log", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(*eventpublisher.LogPublisher); !ok {
		t.Fatalf("expected a log publisher, got %T", sink)
	}

	sink, err = newOutboxSink("redis", nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(*eventpublisher.RedisPublisher); !ok {
		t.Fatalf("expected a redis publisher, got %T", sink)
	}
}
