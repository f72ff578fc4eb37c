package relay

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
)

// Sends queued per client before the connection is considered too slow.
const clientMessageLimit = 64

// Client is one live connection and the player identity derived from it.
// The player record itself exists only while the client occupies a slot.
type Client struct {
	id        uint16
	playerID  string
	host      string
	send      chan []byte
	closeSlow func()
}

func (c *Client) Reference() string {
	return fmt.Sprintf("ws:%d", c.id)
}

// PlayerID is the opaque identity used for all game intents from this
// connection.
func (c *Client) PlayerID() string {
	return c.playerID
}

func (r *Relay) newClientID() (uint16, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for attempts := 0; attempts < math.MaxUint16; attempts++ {
		number, _ := rand.Int(rand.Reader, big.NewInt(math.MaxUint16))
		truncated := uint16(number.Uint64())

		taken := false
		for client := range r.clients {
			if client.id == truncated {
				taken = true
			}
		}
		if taken {
			continue
		}

		return truncated, nil
	}

	return 0, errors.New("failed to assign client ID")
}

func (r *Relay) addClient(client *Client) {
	r.mutex.Lock()
	r.clients[client] = struct{}{}
	r.mutex.Unlock()
}

func (r *Relay) removeClient(client *Client) {
	r.mutex.Lock()
	delete(r.clients, client)
	r.mutex.Unlock()
}
