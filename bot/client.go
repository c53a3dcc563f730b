package bot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
)

const requestTimeout = 10 * time.Second

// Client talks to a running bot over NATS request/reply.
type Client struct {
	nc      *nats.Conn
	channel string
}

// NewClient connects to the NATS server named by the config. The server
// may still be coming up when an autoplay batch starts, so the connect is
// retried a few times before giving up.
func NewClient(cfg *config.Config, channel string) (*Client, error) {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(cfg.GetString("nats-url"))
			return err
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Uint("attempt", n).Err(err).Msg("nats-connect-retry")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc, channel: channel}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

func (c *Client) request(req *Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	res, err := c.nc.Request(c.channel, data, requestTimeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		return nil, err
	}
	resp := &Response{}
	if err = json.Unmarshal(res.Data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("bot returned: " + resp.Error)
	}
	return resp, nil
}

// RequestMove sends a position to the bot and gets the best move back. A
// nil move with a nil error means the bot found no legal placement.
func (c *Client) RequestMove(pos game.Position, preset string, timeMs int) (*move.Move, error) {
	req := RequestFromPosition(pos)
	req.Kind = "analyze"
	req.Preset = preset
	req.TimeMs = timeMs
	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	if resp.Move == nil {
		log.Debug().Str("reason", resp.Reason).Msg("no-move-from-bot")
		return nil, nil
	}
	return MoveFromWire(resp.Move)
}

// RequestPattern asks the bot whether the named setup is still reachable
// from the position.
func (c *Client) RequestPattern(pos game.Position, name string, timeMs int) (*Response, error) {
	req := RequestFromPosition(pos)
	req.Kind = "pattern"
	req.Pattern = name
	req.TimeMs = timeMs
	return c.request(req)
}
