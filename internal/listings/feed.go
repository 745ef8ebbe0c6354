package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Feed events
const (
	EventRequestMarketData = "request_market_data"
	EventJoinRoom          = "join_room"
	EventMarketDataUpdate  = "market_data_update"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Feed subscribes to the listings service's realtime market channel.
type Feed struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger
}

func NewFeed(url string, logger *zap.Logger) *Feed {
	return &Feed{url: url, dialer: websocket.DefaultDialer, logger: logger}
}

// Run connects for driver, asks for the current market and joins the
// driver's room, then hands every market_data_update batch to onUpdate.
// It returns when ctx is cancelled or the connection drops.
func (f *Feed) Run(ctx context.Context, driver models.Driver, onUpdate func([]models.MarketListing)) error {
	header := http.Header{}
	if driver.Token != "" {
		header.Set("Authorization", "Bearer "+driver.Token)
	}

	conn, _, err := f.dialer.DialContext(ctx, f.url, header)
	if err != nil {
		return fmt.Errorf("dial market feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(envelope{Event: EventRequestMarketData}); err != nil {
		return fmt.Errorf("request market data: %w", err)
	}
	room, _ := json.Marshal(driver.ID)
	if err := conn.WriteJSON(envelope{Event: EventJoinRoom, Data: room}); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	f.logger.Info("market feed connected", zap.String("driverId", driver.ID))

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read market feed: %w", err)
		}
		if msg.Event != EventMarketDataUpdate {
			continue
		}

		listings, rejected, err := decodeListings(msg.Data)
		if err != nil {
			f.logger.Warn("dropping malformed market update", zap.String("driverId", driver.ID), zap.Error(err))
			continue
		}
		for _, rerr := range rejected {
			f.logger.Warn("skipping market listing", zap.String("driverId", driver.ID), zap.Error(rerr))
		}
		if len(listings) > 0 {
			onUpdate(listings)
		}
	}
}

// decodeListings accepts either a batch or a single record. Records that
// cannot be decoded are returned in rejected and do not affect the others.
// err is set only when data is neither an array nor an object.
func decodeListings(data json.RawMessage) (listings []models.MarketListing, rejected []error, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, nil
	}

	records := []json.RawMessage{data}
	if data[0] == '[' {
		records = nil
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, nil, err
		}
	} else if data[0] != '{' {
		return nil, nil, fmt.Errorf("market update is neither a record nor a batch: %.20s", data)
	}

	for i, raw := range records {
		var listing models.MarketListing
		if err := json.Unmarshal(raw, &listing); err != nil {
			rejected = append(rejected, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		listings = append(listings, listing)
	}
	return listings, rejected, nil
}
