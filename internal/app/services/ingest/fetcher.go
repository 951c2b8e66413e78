package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
)

// PlayerRecord is one player row from the external stats feed.
type PlayerRecord struct {
	ExternalRef string
	FirstName   string
	LastName    string
	Team        string
	Position    player.Position
	Price       int
	Status      player.Status
	Ownership   float64
}

// ScoreRecord is one live scoring row from the external stats feed.
type ScoreRecord struct {
	ExternalRef  string
	Round        int
	Opponent     string
	Venue        string
	Score        int
	TimeOnGround float64
}

// Fetcher retrieves feed data from the upstream stats provider.
type Fetcher interface {
	FetchPlayers(ctx context.Context) ([]PlayerRecord, error)
	FetchFixtures(ctx context.Context, round int) ([]fixture.Fixture, error)
	FetchScores(ctx context.Context, round int) ([]ScoreRecord, error)
}

// HTTPFetcher reads the provider's JSON endpoints.
type HTTPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPFetcher constructs a fetcher for the given feed base URL.
func NewHTTPFetcher(baseURL, apiKey string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchPlayers downloads the full player list.
func (f *HTTPFetcher) FetchPlayers(ctx context.Context) ([]PlayerRecord, error) {
	body, err := f.get(ctx, "/players")
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "players")
	if !rows.Exists() {
		rows = gjson.ParseBytes(body)
	}
	if !rows.IsArray() {
		return nil, fmt.Errorf("players feed: expected array payload")
	}

	records := make([]PlayerRecord, 0, len(rows.Array()))
	for _, row := range rows.Array() {
		rec := PlayerRecord{
			ExternalRef: row.Get("id").String(),
			FirstName:   row.Get("first_name").String(),
			LastName:    row.Get("last_name").String(),
			Team:        strings.ToUpper(row.Get("team").String()),
			Position:    player.Position(strings.ToUpper(row.Get("position").String())),
			Price:       int(row.Get("price").Int()),
			Status:      player.Status(row.Get("status").String()),
			Ownership:   row.Get("ownership").Float(),
		}
		if rec.Status == "" {
			rec.Status = player.StatusAvailable
		}
		if rec.ExternalRef == "" || rec.LastName == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchFixtures downloads the fixture for a round; round 0 means the full season.
func (f *HTTPFetcher) FetchFixtures(ctx context.Context, round int) ([]fixture.Fixture, error) {
	path := "/fixtures"
	if round > 0 {
		path = fmt.Sprintf("/fixtures?round=%d", round)
	}
	body, err := f.get(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "fixtures")
	if !rows.IsArray() {
		return nil, fmt.Errorf("fixtures feed: expected array payload")
	}

	fixtures := make([]fixture.Fixture, 0, len(rows.Array()))
	for _, row := range rows.Array() {
		fx := fixture.Fixture{
			Round:    int(row.Get("round").Int()),
			HomeTeam: strings.ToUpper(row.Get("home").String()),
			AwayTeam: strings.ToUpper(row.Get("away").String()),
			Venue:    row.Get("venue").String(),
			Status:   fixture.Status(row.Get("status").String()),
		}
		if ts := row.Get("start_time").String(); ts != "" {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				fx.StartTime = parsed.UTC()
			}
		}
		if fx.Status == "" {
			fx.Status = fixture.StatusScheduled
		}
		if fx.HomeTeam == "" || fx.AwayTeam == "" || fx.Round <= 0 {
			continue
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

// FetchScores downloads the scoring rows for a round.
func (f *HTTPFetcher) FetchScores(ctx context.Context, round int) ([]ScoreRecord, error) {
	body, err := f.get(ctx, fmt.Sprintf("/scores?round=%d", round))
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "scores")
	if !rows.IsArray() {
		return nil, fmt.Errorf("scores feed: expected array payload")
	}

	records := make([]ScoreRecord, 0, len(rows.Array()))
	for _, row := range rows.Array() {
		rec := ScoreRecord{
			ExternalRef:  row.Get("player_id").String(),
			Round:        round,
			Opponent:     strings.ToUpper(row.Get("opponent").String()),
			Venue:        row.Get("venue").String(),
			Score:        int(row.Get("score").Int()),
			TimeOnGround: row.Get("time_on_ground").Float(),
		}
		if rec.ExternalRef == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	if f.apiKey != "" {
		req.Header.Set("X-Api-Key", f.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}
	return body, nil
}
