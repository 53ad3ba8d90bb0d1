package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"postrelay/internal/config"
	"postrelay/internal/dedup"
	"postrelay/internal/delivery"
	"postrelay/internal/logger"
	"postrelay/internal/management"
	"postrelay/internal/postback"
	"postrelay/internal/profile"
	"postrelay/internal/ratelimit"
	"postrelay/internal/routing"
)

// fakeTelegram records sendMessage calls the way the Bot API would accept
// them and always answers ok.
type fakeTelegram struct {
	mu    sync.Mutex
	calls []telegramCall
}

type telegramCall struct {
	ChatID  int64  `json:"chat_id"`
	TopicID *int64 `json:"message_thread_id,omitempty"`
	Text    string `json:"text"`
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}

		var call telegramCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"bad request"}`)
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()

		fmt.Fprint(w, `{"ok":true}`)
	}
}

func (f *fakeTelegram) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTelegram) lastCall(t *testing.T) telegramCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no telegram calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

type testStack struct {
	ingest     *httptest.Server
	mgmt       *httptest.Server
	telegram   *fakeTelegram
	db         *sql.DB
	limiter    *ratelimit.Limiter
	dedupSvc   *dedup.Service
	httpClient *http.Client
}

func setupStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	if os.Getenv("TESTCONTAINERS_RYUK_DISABLED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	}

	container, err := postgresmodule.Run(ctx, "postgres:15",
		postgresmodule.WithDatabase("test_db"),
		postgresmodule.WithUsername("test_user"),
		postgresmodule.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(10*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	conn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", conn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, runMigrations(db))
	t.Cleanup(func() {
		db.Close()
	})

	telegram := &fakeTelegram{}
	telegramServer := httptest.NewServer(telegram.handler())
	t.Cleanup(telegramServer.Close)

	log := logger.NopLogger()

	profileRepo := profile.NewRepository(db)
	routeRepo := routing.NewRepository(db)
	eventStore := postback.NewEventStore(db)

	dedupSvc := dedup.NewService(
		dedup.NewMemoryRepository(0),
		config.DeduplicationConfig{Backend: "memory"},
		log,
	)
	t.Cleanup(dedupSvc.StopCacheMetricsUpdater)

	limiter := ratelimit.NewLimiter(27)
	t.Cleanup(limiter.Stop)

	sink := delivery.NewTelegramSink(config.DeliveryConfig{
		BotToken:   "test-token",
		APIBaseURL: telegramServer.URL,
	})
	adapter := delivery.NewAdapter(sink, config.CircuitBreakerConfig{})

	pipeline := postback.NewPipeline(postback.PipelineOptions{
		Dedup:     dedupSvc,
		Limiter:   limiter,
		Routes:    routeRepo,
		Events:    eventStore,
		Deliverer: adapter,
		Logger:    log,
	})

	ingestRouter := gin.New()
	postback.NewHandler(profileRepo, pipeline, log).RegisterRoutes(ingestRouter)
	ingestServer := httptest.NewServer(ingestRouter)
	t.Cleanup(ingestServer.Close)

	mgmtRouter := gin.New()
	svc := management.NewService(profileRepo, routeRepo, eventStore, config.IngestConfig{
		DefaultRateLimitRPS: 27,
		DefaultDedupTTLSec:  3600,
	}, log)
	management.NewHandler(svc, log).RegisterRoutes(mgmtRouter)
	mgmtServer := httptest.NewServer(mgmtRouter)
	t.Cleanup(mgmtServer.Close)

	return &testStack{
		ingest:     ingestServer,
		mgmt:       mgmtServer,
		telegram:   telegram,
		db:         db,
		limiter:    limiter,
		dedupSvc:   dedupSvc,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get work dir: %w", err)
	}

	migrationsPath := filepath.Join(workDir, "..", "..", "migrations", "postgres")

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *testStack) createProfile(t *testing.T, req management.CreateProfileRequest) *profile.Profile {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := s.httpClient.Post(s.mgmt.URL+"/api/v1/profiles", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p profile.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.NotEmpty(t, p.Secret)
	return &p
}

func (s *testStack) createRoute(t *testing.T, profileID string, req management.CreateRouteRequest) *routing.Route {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := s.httpClient.Post(
		fmt.Sprintf("%s/api/v1/profiles/%s/routes", s.mgmt.URL, profileID),
		"application/json", strings.NewReader(string(body)),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var route routing.Route
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&route))
	return &route
}

type postbackResult struct {
	OK      bool   `json:"ok"`
	Result  string `json:"result"`
	EventID string `json:"event_id"`
	Error   string `json:"error"`
}

func (s *testStack) sendPostback(t *testing.T, secret string, fields map[string]string) (int, postbackResult) {
	t.Helper()

	form := url.Values{}
	for key, value := range fields {
		form.Set(key, value)
	}

	endpoint := s.ingest.URL + "/integrations/keitaro/postback"
	if secret != "" {
		endpoint += "?secret=" + url.QueryEscape(secret)
	}

	resp, err := s.httpClient.Post(endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result postbackResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

func TestPostbackFlow(t *testing.T) {
	stack := setupStack(t)

	p := stack.createProfile(t, management.CreateProfileRequest{
		OwnerUserID:   9001,
		DefaultChatID: -100500,
	})

	depositChat := int64(-100600)
	stack.createRoute(t, p.ID, management.CreateRouteRequest{
		MatchBy:    "campaign_id",
		MatchValue: "camp-42",
		Statuses:   []string{"deposit"},
		ChatID:     &depositChat,
		Priority:   1,
	})

	status, result := stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
		"campaign_id":    "camp-42",
		"revenue":        "50",
		"currency":       "USD",
		"country":        "DE",
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.OK)
	assert.Equal(t, "delivered", result.Result)
	assert.NotEmpty(t, result.EventID)

	require.Equal(t, 1, stack.telegram.callCount())
	call := stack.telegram.lastCall(t)
	assert.Equal(t, depositChat, call.ChatID, "deposit for camp-42 goes to the route chat")
	assert.Contains(t, call.Text, "50 USD")

	// Same transaction again: recorded but suppressed, no second message.
	status, result = stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
		"campaign_id":    "camp-42",
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.OK)
	assert.Equal(t, "duplicate_suppressed", result.Result)
	assert.Equal(t, 1, stack.telegram.callCount())

	// Registration does not match the deposit route and falls back to the
	// profile default chat.
	status, result = stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "registration",
		"transaction_id": "tx-2",
		"campaign_id":    "camp-42",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "delivered", result.Result)
	assert.Equal(t, int64(-100500), stack.telegram.lastCall(t).ChatID)
}

func TestPostbackFlowAuth(t *testing.T) {
	stack := setupStack(t)

	p := stack.createProfile(t, management.CreateProfileRequest{
		OwnerUserID:   9002,
		DefaultChatID: -100500,
	})

	status, result := stack.sendPostback(t, "wrong-secret", map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, result.OK)
	assert.Equal(t, "forbidden", result.Error)
	assert.Equal(t, 0, stack.telegram.callCount())

	status, _ = stack.sendPostback(t, "", map[string]string{"status": "sale"})
	assert.Equal(t, http.StatusForbidden, status)

	// Valid secret still works afterwards.
	status, result = stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, result.OK)
}

func TestPostbackFlowDisabledProfile(t *testing.T) {
	stack := setupStack(t)

	p := stack.createProfile(t, management.CreateProfileRequest{
		OwnerUserID:   9003,
		DefaultChatID: -100500,
	})

	resp, err := stack.httpClient.Post(
		fmt.Sprintf("%s/api/v1/profiles/%s/disable", stack.mgmt.URL, p.ID),
		"application/json", nil,
	)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, result := stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.OK)
	assert.Equal(t, "discarded", result.Result)
	assert.Empty(t, result.EventID)
	assert.Equal(t, 0, stack.telegram.callCount())

	// Nothing is recorded for a discarded postback.
	events := stack.listEvents(t, p.ID)
	assert.Empty(t, events)
}

func TestPostbackFlowEvents(t *testing.T) {
	stack := setupStack(t)

	p := stack.createProfile(t, management.CreateProfileRequest{
		OwnerUserID:   9004,
		DefaultChatID: -100500,
	})

	stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
		"revenue":        "12.5",
		"currency":       "EUR",
	})
	stack.sendPostback(t, p.Secret, map[string]string{
		"status":         "sale",
		"transaction_id": "tx-1",
	})

	events := stack.listEvents(t, p.ID)
	require.Len(t, events, 2)

	assert.Equal(t, postback.OutcomeDuplicate, events[0].Outcome)
	assert.Equal(t, postback.OutcomeDelivered, events[1].Outcome)
	assert.True(t, events[1].Processed)
	assert.False(t, events[0].Processed)
}

func (s *testStack) listEvents(t *testing.T, profileID string) []postback.Event {
	t.Helper()

	resp, err := s.httpClient.Get(fmt.Sprintf("%s/api/v1/profiles/%s/events", s.mgmt.URL, profileID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []postback.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	return events
}
