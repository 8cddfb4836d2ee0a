package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/logger"
)

const writeWait = 10 * time.Second

// Client message types.
const (
	msgText     = "text"
	msgOption   = "option"
	msgMode     = "mode"
	msgEvaluate = "evaluate"
	msgKey      = "key"
)

// clientMessage is one edit or request from the playground page.
type clientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Chord string `json:"chord,omitempty"`
}

// serverMessage is pushed to the page: type "result" after every
// evaluation, "notice" when a client message was rejected.
type serverMessage struct {
	Type string `json:"type"`
	parseResponse
	Message string `json:"message,omitempty"`
}

// handleWS runs one playground session: an input store and a controller
// whose Run loop debounces the edits the page sends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := logger.L(r.Context())
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	storage := s.storage(ctx)
	in := homepage.NewStore(homepage.InitialText(urlQuery(r.URL.Query()), storage))
	results := make(chan homepage.Result, 1)
	notices := make(chan string, 8)
	observe := s.metrics.observer("ws")
	ctrl := homepage.NewController(in, s.parser,
		homepage.WithStorage(storage),
		homepage.WithQuietPeriod(s.quiet),
		homepage.WithLogger(log),
		homepage.WithObserver(func(res homepage.Result, took time.Duration) {
			observe(res, took)
			offer(results, res)
		}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		// Closing unblocks the reader when the writer stops first.
		defer conn.Close()
		writeLoop(ctx, conn, results, notices)
	}()
	log.Debug("playground session opened")

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				log.Debug("playground read", zap.Error(err))
			}
			break
		}
		if err := apply(ctrl, msg); err != nil {
			select {
			case notices <- err.Error():
			default:
			}
		}
	}
	cancel()
	wg.Wait()
}

// apply performs one client message on the session.
func apply(ctrl *homepage.Controller, msg clientMessage) error {
	in := ctrl.Store()
	switch msg.Type {
	case msgText:
		in.SetText(msg.Text)
	case msgOption:
		if err := in.SetOption(msg.Name, msg.Value); err != nil {
			return err
		}
		if st := in.Snapshot(); !homepage.ModeSelectable(st.Options, st.Mode) {
			in.SetOutputMode(homepage.ModeJSON)
		}
	case msgMode:
		m, err := homepage.ParseOutputMode(msg.Mode)
		if err != nil {
			return err
		}
		if !homepage.ModeSelectable(in.Snapshot().Options, m) {
			return fmt.Errorf("%s mode needs %s", m, homepage.OptIncludeMetadata)
		}
		in.SetOutputMode(m)
	case msgEvaluate:
		ctrl.Evaluate()
	case msgKey:
		ctrl.HandleKey(msg.Chord)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// offer replaces whatever is waiting in ch with res.
func offer(ch chan homepage.Result, res homepage.Result) {
	for {
		select {
		case ch <- res:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// writeLoop is the connection's only writer.  Results older than one
// already sent are dropped.
func writeLoop(ctx context.Context, conn *websocket.Conn, results <-chan homepage.Result, notices <-chan string) {
	log := logger.L(ctx)
	var sent uint64
	for {
		var msg serverMessage
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case res := <-results:
			if res.Version < sent {
				continue
			}
			sent = res.Version
			msg = serverMessage{Type: "result", parseResponse: newParseResponse(res)}
		case n := <-notices:
			msg = serverMessage{Type: "notice", Message: n}
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug("playground write", zap.Error(err))
			return
		}
	}
}
