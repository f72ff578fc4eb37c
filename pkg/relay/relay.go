package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/knifearena/knifearena/pkg/game"
	"github.com/knifearena/knifearena/pkg/protocol"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"nhooyr.io/websocket"
)

// Relay binds websocket connections to player identities, applies their
// intents to the game, and fans game broadcasts out to every connection.
type Relay struct {
	game       *game.Game
	clients    map[*Client]struct{}
	mutex      deadlock.Mutex
	httpServer *http.Server
}

func New(g *game.Game) *Relay {
	return &Relay{
		game:    g,
		clients: make(map[*Client]struct{}),
	}
}

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageBinary, msg)
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	hostname := req.RemoteAddr
	if forwarded, ok := req.Header["X-Forwarded-For"]; ok {
		hostname = forwarded[0]
	}

	err = r.HandleClient(req.Context(), c, hostname)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("client session ended abnormally")
	}
}

func (r *Relay) HandleClient(ctx context.Context, c *websocket.Conn, host string) error {
	id, err := r.newClientID()
	if err != nil {
		return err
	}

	client := &Client{
		id:       id,
		playerID: fmt.Sprintf("c%04x", id),
		host:     host,
		send:     make(chan []byte, clientMessageLimit),
		closeSlow: func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		},
	}

	r.addClient(client)
	defer r.removeClient(client)

	// Transport faults and normal closes share one cleanup path.
	defer r.game.Disconnect(client.playerID)

	logger := log.With().
		Uint16("client", client.id).
		Str("host", host).
		Logger()

	logger.Info().Msg("client joined")

	// Sync the newcomer before anything else: slots, roster, knives, and
	// any countdown or frozen scores.
	for _, message := range r.game.JoinState() {
		data, err := protocol.Encode(message)
		if err != nil {
			return err
		}
		client.send <- data
	}

	receive := make(chan []byte)

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}

			typ, message, err := c.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageBinary {
				continue
			}
			receive <- message
		}
	}()

	for {
		select {
		case data := <-receive:
			r.dispatch(client, data, logger)
		case data := <-client.send:
			if err := WriteTimeout(ctx, time.Second*5, c, data); err != nil {
				logger.Info().Msg("client missed write timeout; disconnecting")
				return err
			}
		case <-ctx.Done():
			logger.Info().Msg("client left")
			return ctx.Err()
		}
	}
}

// reply queues a message for a single connection.
func (r *Relay) reply(client *Client, message protocol.Message) {
	data, err := protocol.Encode(message)
	if err != nil {
		log.Error().Err(err).Msg("could not encode reply")
		return
	}

	select {
	case client.send <- data:
	default:
		go client.closeSlow()
	}
}

// Broadcast sends one game event to every connection, skipping the excluded
// player if the event names one. A slow connection is closed rather than
// allowed to stall the rest.
func (r *Relay) Broadcast(broadcast game.Broadcast) {
	data, err := protocol.Encode(broadcast.Message)
	if err != nil {
		log.Error().Err(err).Msg("could not encode broadcast")
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for client := range r.clients {
		if broadcast.Exclude != "" && client.playerID == broadcast.Exclude {
			continue
		}

		select {
		case client.send <- data:
		default:
			go client.closeSlow()
		}
	}
}

// PollBroadcasts forwards everything the game publishes until the context
// ends.
func (r *Relay) PollBroadcasts(ctx context.Context) {
	broadcasts := r.game.Broadcasts().Subscribe(256)
	defer broadcasts.Done()

	for {
		select {
		case broadcast := <-broadcasts.Recv():
			r.Broadcast(broadcast)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) Serve(ctx context.Context, host string, port int) error {
	listen, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		log.Error().Err(err).Msg("failed to bind WebSocket port")
		return err
	}

	log.Info().Msgf("listening on http://%v", listen.Addr())

	r.httpServer = &http.Server{
		Handler: r,
	}

	go r.PollBroadcasts(ctx)

	return r.httpServer.Serve(listen)
}

func (r *Relay) Shutdown(ctx context.Context) {
	if r.httpServer != nil {
		r.httpServer.Shutdown(ctx)
	}
}
