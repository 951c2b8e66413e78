package app

import (
	"context"
	"testing"
	"time"
)

func TestNewDefaultsToMemoryStores(t *testing.T) {
	application, err := New(Stores{}, Options{JWTSecret: "test-secret"}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	if application.Players == nil || application.Projections == nil ||
		application.Trades == nil || application.Captain == nil ||
		application.Teams == nil || application.Scores == nil ||
		application.Users == nil {
		t.Fatal("expected all core services wired")
	}
	if application.Fixtures() == nil {
		t.Fatal("expected fixture store wired")
	}
	if application.Ingest != nil {
		t.Fatal("expected ingest disabled without a feed URL")
	}
	if application.Scores.Hub() != nil {
		t.Fatal("expected no hub without live scores")
	}
}

func TestStartStopWithIngest(t *testing.T) {
	application, err := New(Stores{}, Options{
		JWTSecret:       "test-secret",
		FeedURL:         "http://feed.invalid",
		RefreshInterval: time.Hour,
		LiveScores:      true,
	}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if application.Ingest == nil {
		t.Fatal("expected ingest service with a feed URL")
	}
	if application.Scores.Hub() == nil {
		t.Fatal("expected live hub")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := application.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := application.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
