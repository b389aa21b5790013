package logstore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// streamMessage is the envelope pushed over /ws/logs.
type streamMessage struct {
	Type string     `json:"type"`
	Log  wireRecord `json:"log"`
}

// setFiltersMessage is sent once after connecting.
type setFiltersMessage struct {
	Type    string `json:"type"`
	Filters struct {
		Limit int `json:"limit"`
	} `json:"filters"`
}

// Stream is a live-tail subscription to the store's websocket endpoint.
// Records arrive on Records until the connection drops or Close is called,
// after which the channel is closed. A dropped stream is not re-dialed here;
// the console keeps polling, so the push path is an optimization only.
type Stream struct {
	conn    *websocket.Conn
	records chan model.LogRecord
	done    chan struct{}
}

// DialStream connects to the live tail. baseURL is the store's HTTP base URL;
// the scheme is rewritten to ws/wss.
func DialStream(baseURL string, limit int) (*Stream, error) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	var setFilters setFiltersMessage
	setFilters.Type = "setFilters"
	setFilters.Filters.Limit = limit
	if err := conn.WriteJSON(setFilters); err != nil {
		conn.Close()
		return nil, err
	}

	s := &Stream{
		conn:    conn,
		records: make(chan model.LogRecord, 64),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Records returns the channel of pushed records.
func (s *Stream) Records() <-chan model.LogRecord {
	return s.records
}

// Close tears down the connection. Safe to call more than once.
func (s *Stream) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
		s.conn.Close()
	}
}

func (s *Stream) readLoop() {
	defer close(s.records)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Warn().Err(err).Msg("log stream closed, falling back to polling")
				s.Close()
			}
			return
		}
		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("dropping malformed stream message")
			continue
		}
		if msg.Type != "log" {
			continue
		}
		rec := msg.Log.toRecord(time.Now())
		select {
		case s.records <- rec:
		case <-s.done:
			return
		default:
			// Reader is not keeping up; drop rather than block the pump.
		}
	}
}
