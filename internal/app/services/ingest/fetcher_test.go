package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "feed-key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"players":[
			{"id":"CD_1001","first_name":"Marcus","last_name":"Bontempelli","team":"wb","position":"mid","price":1089000,"ownership":42.3},
			{"id":"CD_1002","first_name":"Max","last_name":"Gawn","team":"mel","position":"ruc","price":985000,"status":"injured"},
			{"id":"","last_name":"Ghost","team":"wb","position":"def","price":200000}
		]}`))
	})
	mux.HandleFunc("/fixtures", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fixtures":[
			{"round":5,"home":"gee","away":"syd","venue":"GMHBA Stadium","status":"live","start_time":"2026-04-18T09:20:00Z"},
			{"round":0,"home":"col","away":"car"}
		]}`))
	})
	mux.HandleFunc("/scores", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("round") != "5" {
			http.Error(w, "bad round", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"scores":[
			{"player_id":"CD_1001","opponent":"gee","venue":"Marvel Stadium","score":124,"time_on_ground":82.5},
			{"player_id":"","score":50}
		]}`))
	})
	return httptest.NewServer(mux)
}

func TestHTTPFetcherPlayers(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feed-key")
	records, err := f.FetchPlayers(context.Background())
	if err != nil {
		t.Fatalf("fetch players: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Team != "WB" || records[0].Position != player.Midfield {
		t.Fatalf("expected normalized team and position, got %+v", records[0])
	}
	if records[0].Status != player.StatusAvailable {
		t.Fatalf("expected default status, got %q", records[0].Status)
	}
	if records[1].Status != player.StatusInjured {
		t.Fatalf("expected injured status, got %q", records[1].Status)
	}
}

func TestHTTPFetcherFixtures(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feed-key")
	fixtures, err := f.FetchFixtures(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch fixtures: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected the zero-round row dropped, got %d fixtures", len(fixtures))
	}
	fx := fixtures[0]
	if fx.HomeTeam != "GEE" || fx.AwayTeam != "SYD" {
		t.Fatalf("unexpected teams %+v", fx)
	}
	if fx.Status != fixture.StatusLive {
		t.Fatalf("expected live status, got %q", fx.Status)
	}
	if fx.StartTime.IsZero() {
		t.Fatal("expected start time parsed")
	}
}

func TestHTTPFetcherScores(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feed-key")
	records, err := f.FetchScores(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch scores: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected anonymous row dropped, got %d", len(records))
	}
	rec := records[0]
	if rec.ExternalRef != "CD_1001" || rec.Round != 5 || rec.Score != 124 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Opponent != "GEE" {
		t.Fatalf("expected uppercased opponent, got %q", rec.Opponent)
	}
}

func TestHTTPFetcherRejectsNon200(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "wrong-key")
	if _, err := f.FetchPlayers(context.Background()); err == nil {
		t.Fatal("expected error on 403")
	}
}
