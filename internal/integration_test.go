package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"laundry-machine-tracker/config"
	"laundry-machine-tracker/internal/api"
	"laundry-machine-tracker/internal/db"
	"laundry-machine-tracker/internal/model"
	"laundry-machine-tracker/internal/scraper"
	"laundry-machine-tracker/internal/store"
)

// vendorState is the mutable backing data for the fake vendor API.
type vendorState struct {
	mu                sync.Mutex
	timeRemainingByID map[string]int
}

func (v *vendorState) set(opaqueID string, tr int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeRemainingByID[opaqueID] = tr
}

func (v *vendorState) get(opaqueID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timeRemainingByID[opaqueID]
}

// TestReconciliationLifecycle drives two full scrape cycles against a fake
// vendor API and an in-memory database: first sighting creates everything
// with lastUser "Unknown"; a later timeRemaining jump resets a claimed user
// while an unchanged machine keeps its row untouched.
func TestReconciliationLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))

	state := &vendorState{timeRemainingByID: map[string]int{"A": 0, "B": 1800}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/room/R1/machines"):
			json.NewEncoder(w).Encode([]map[string]any{{
				"opaqueId": "A", "licensePlate": "LP-A", "qrCodeId": "QR-A",
				"type": "washer", "stickerNumber": 1,
				"timeRemaining": state.get("A"), "available": state.get("A") == 0,
				"settings": map[string]any{"cycle": "normal", "soil": "light"},
			}})
		case strings.HasSuffix(r.URL.Path, "/room/R2/machines"):
			json.NewEncoder(w).Encode([]map[string]any{{
				"opaqueId": "B", "licensePlate": "LP-B", "qrCodeId": "QR-B",
				"type": "dryer", "stickerNumber": 1,
				"timeRemaining": state.get("B"), "available": false,
				"settings": map[string]any{"cycle": "delicate", "soil": "light"},
			}})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"locationId": "L1", "label": "Main Hall",
				"dryerCount": 1, "washerCount": 1, "machineCount": 2,
				"rooms": []map[string]any{
					{"roomId": "R2", "locationId": "L1", "connected": true, "label": "Room R2"},
					{"roomId": "R1", "locationId": "L1", "connected": true, "label": "Room R1"},
				},
			})
		}
	}))
	defer server.Close()

	cfg := &config.Config{
		Scraper: config.ScraperConfig{
			BaseURL:        server.URL,
			LocationID:     "L1",
			MaxRoomFetches: 4,
			RequestTimeout: 5 * time.Second,
		},
		Server: config.ServerConfig{
			RateLimitPerSec: 100,
			RateLimitBurst:  100,
			CacheTTLSeconds: 1,
		},
	}

	appStore := store.NewGormStore(testDB, zerolog.Nop())
	svc := scraper.NewService(cfg, appStore, zerolog.Nop())

	// --- Cycle 1: first sighting creates the full hierarchy. ---
	svc.ScrapeOnce(context.Background())

	var locCount, roomCount, machineCount int64
	require.NoError(t, testDB.Model(&model.Location{}).Count(&locCount).Error)
	require.NoError(t, testDB.Model(&model.Room{}).Count(&roomCount).Error)
	require.NoError(t, testDB.Model(&model.Machine{}).Count(&machineCount).Error)
	assert.Equal(t, int64(1), locCount)
	assert.Equal(t, int64(2), roomCount)
	assert.Equal(t, int64(2), machineCount)

	var a, b model.Machine
	require.NoError(t, testDB.First(&a, "opaque_id = ?", "A").Error)
	require.NoError(t, testDB.First(&b, "opaque_id = ?", "B").Error)
	require.NotNil(t, a.LastUser)
	require.NotNil(t, b.LastUser)
	assert.Equal(t, model.UnknownUser, *a.LastUser)
	assert.Equal(t, model.UnknownUser, *b.LastUser)
	bFirstStamp := b.LastUpdated

	// --- A user claims machine A through the serving API. ---
	gin.SetMode(gin.TestMode)
	router := api.NewRouter(appStore, &cfg.Server, io.Discard)

	body, _ := json.Marshal(gin.H{"user_id": "u1", "machine_id": "LP-A"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, testDB.First(&a, "opaque_id = ?", "A").Error)
	require.NotNil(t, a.LastUser)
	assert.Equal(t, "u1", *a.LastUser)

	// --- Cycle 2: A's timeRemaining jumps 0 -> 1200, B is unchanged. ---
	state.set("A", 1200)
	svc.ScrapeOnce(context.Background())

	require.NoError(t, testDB.First(&a, "opaque_id = ?", "A").Error)
	require.NotNil(t, a.LastUser)
	assert.Equal(t, model.UnknownUser, *a.LastUser, "cycle restart voids the claim")
	assert.Equal(t, 1200, a.TimeRemaining)

	require.NoError(t, testDB.First(&b, "opaque_id = ?", "B").Error)
	assert.True(t, b.LastUpdated.Equal(bFirstStamp), "unchanged machine must not be rewritten")

	// --- The snapshot is served with rooms keyed by roomId. ---
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp []struct {
		LocationID string `json:"locationId"`
		Rooms      map[string]struct {
			Machines []struct {
				OpaqueID string `json:"opaqueId"`
				LastUser string `json:"lastUser"`
			} `json:"machines"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "L1", resp[0].LocationID)
	require.Len(t, resp[0].Rooms, 2)
	require.Len(t, resp[0].Rooms["R1"].Machines, 1)
	assert.Equal(t, model.UnknownUser, resp[0].Rooms["R1"].Machines[0].LastUser)
}
