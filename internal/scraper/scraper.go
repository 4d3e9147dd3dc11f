package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"laundry-machine-tracker/config"
	"laundry-machine-tracker/internal/model"
	"laundry-machine-tracker/internal/store"
)

// RemoteError reports a vendor API request that failed in transport or came
// back with a non-success status. It is fatal to the current cycle only.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vendor request %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("vendor request %s returned status %d", e.Endpoint, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Service owns the fetch-and-reconcile cycle: it polls the vendor API for the
// configured location and hands consistent snapshots to the store.
type Service struct {
	cfg    *config.Config
	store  store.Store
	client *http.Client
	log    zerolog.Logger
}

// NewService creates and initializes a new scraper service.
func NewService(cfg *config.Config, st store.Store, log zerolog.Logger) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.Scraper.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.Scraper.HTTPProxy)
		if err != nil {
			log.Warn().Str("proxy", cfg.Scraper.HTTPProxy).Err(err).Msg("invalid proxy URL, scraper will not use a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:   cfg,
		store: st,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Scraper.RequestTimeout,
		},
		log: log,
	}
}

// Run executes one cycle immediately and then once per interval, measured
// from cycle start. A cycle that overruns the interval makes the next one
// fire immediately; cycles never overlap.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Scraper.Enabled {
		s.log.Info().Msg("scraper is disabled, not starting")
		return
	}
	s.log.Info().
		Str("locationId", s.cfg.Scraper.LocationID).
		Dur("interval", s.cfg.Scraper.Interval).
		Msg("starting scraper service")

	s.ScrapeOnce(ctx)

	ticker := time.NewTicker(s.cfg.Scraper.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scraper service shutting down")
			return
		case <-ticker.C:
			s.ScrapeOnce(ctx)
		}
	}
}

// ScrapeOnce performs one full fetch-and-reconcile cycle. Any failure is
// logged and absorbed; the next tick simply tries again.
func (s *Service) ScrapeOnce(ctx context.Context) {
	start := time.Now()

	loc, rooms, machines, err := s.ScrapeLocation(ctx, s.cfg.Scraper.LocationID)
	if err != nil {
		s.log.Error().Err(err).Msg("scrape cycle aborted, nothing persisted")
		return
	}

	locChanged, err := s.store.UpsertLocation(ctx, loc)
	if err != nil {
		s.log.Error().Err(err).Msg("location upsert failed, cycle aborted")
		return
	}
	roomsChanged, err := s.store.UpsertRooms(ctx, rooms)
	if err != nil {
		s.log.Error().Err(err).Msg("room upsert failed, cycle aborted")
		return
	}

	sum := s.store.UpsertMachines(ctx, machines)

	s.log.Info().
		Bool("locationChanged", locChanged).
		Int("rooms", len(rooms)).
		Int("roomsChanged", roomsChanged).
		Int("machines", len(machines)).
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("unchanged", sum.Unchanged).
		Int("failed", sum.Failed).
		Int("available", sum.Available).
		Int("inUse", sum.InUse).
		Dur("took", time.Since(start)).
		Msg("scrape cycle finished")
}

// ScrapeLocation assembles one consistent snapshot of the location: the
// location row, its rooms sorted by roomId, and all machines across rooms
// sorted by (type, stickerNumber). Per-room machine fetches run concurrently;
// any single failure aborts the whole scrape so no partial snapshot escapes.
func (s *Service) ScrapeLocation(ctx context.Context, locationID string) (model.Location, []model.Room, []model.Machine, error) {
	payload, err := s.fetchLocation(ctx, locationID)
	if err != nil {
		return model.Location{}, nil, nil, err
	}

	sort.Slice(payload.Rooms, func(i, j int) bool {
		return payload.Rooms[i].RoomID < payload.Rooms[j].RoomID
	})

	rooms := make([]model.Room, len(payload.Rooms))
	for i, rp := range payload.Rooms {
		rooms[i] = rp.toModel(payload.LocationID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scraper.MaxRoomFetches)

	perRoom := make([][]model.Machine, len(rooms))
	for i, room := range rooms {
		i, room := i, room
		g.Go(func() error {
			fetched, err := s.fetchRoomMachines(gctx, locationID, room.RoomID)
			if err != nil {
				return err
			}
			perRoom[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Location{}, nil, nil, err
	}

	var machines []model.Machine
	for _, ms := range perRoom {
		machines = append(machines, ms...)
	}
	// Completion order of the room fetches is nondeterministic; re-sort
	// globally so it cannot leak into stored or served order.
	sortMachines(machines)

	return payload.toModel(), rooms, machines, nil
}

// fetchLocation retrieves the location payload, rooms included.
func (s *Service) fetchLocation(ctx context.Context, locationID string) (locationPayload, error) {
	var payload locationPayload
	endpoint := fmt.Sprintf("%s/%s", s.cfg.Scraper.BaseURL, locationID)
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return locationPayload{}, err
	}
	return payload, nil
}

// fetchRoomMachines retrieves and flattens one room's machines, sorted by
// (type, stickerNumber).
func (s *Service) fetchRoomMachines(ctx context.Context, locationID, roomID string) ([]model.Machine, error) {
	var raw []map[string]any
	endpoint := fmt.Sprintf("%s/%s/room/%s/machines", s.cfg.Scraper.BaseURL, locationID, roomID)
	if err := s.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	machines := make([]model.Machine, len(raw))
	for i, rec := range raw {
		machines[i] = machineFromPayload(rec, locationID, roomID)
	}
	sortMachines(machines)
	return machines, nil
}

func sortMachines(machines []model.Machine) {
	sort.Slice(machines, func(i, j int) bool {
		if machines[i].Type != machines[j].Type {
			return machines[i].Type < machines[j].Type
		}
		return machines[i].StickerNumber < machines[j].StickerNumber
	})
}

// getJSON performs one blocking GET and decodes the JSON body. Transport
// failures, timeouts and non-2xx statuses all surface as *RemoteError.
func (s *Service) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteError{Endpoint: endpoint, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}
