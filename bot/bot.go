// Package bot runs the engine as a NATS responder. Positions arrive as
// JSON requests on a subject, best moves and pattern verdicts go back as
// JSON replies. A small response cache absorbs repeated queries for the
// same position.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	aibot "github.com/setpieces/tetryon/ai/bot"
	"github.com/setpieces/tetryon/board"
	"github.com/setpieces/tetryon/config"
	"github.com/setpieces/tetryon/game"
	"github.com/setpieces/tetryon/move"
	"github.com/setpieces/tetryon/piece"
)

// Request is the wire form of one query. Kind selects the operation:
// "analyze" (or empty) asks for the best move, "pattern" asks whether the
// named setup is still reachable. Pieces carries the current piece first,
// then the visible queue. Rows are the board's row masks, top row first.
type Request struct {
	Kind    string `json:"kind,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	Width   int      `json:"width"`
	Rows    []uint64 `json:"rows"`
	Pieces  string   `json:"pieces"`
	Hold    string   `json:"hold,omitempty"`
	CanHold bool     `json:"canHold"`

	Preset string `json:"preset,omitempty"`
	TimeMs int    `json:"timeMs,omitempty"`
}

// WireMove is a move in transit.
type WireMove struct {
	Piece    string   `json:"piece"`
	Rotation int      `json:"rotation"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Actions  []string `json:"actions,omitempty"`
	Equity   float64  `json:"equity"`
}

// Response is the wire form of one answer. Error is set instead of the
// result fields when the request could not be served. A topped-out
// position answers with a nil Move and a Reason.
type Response struct {
	Error string `json:"error,omitempty"`

	Move  *WireMove  `json:"move,omitempty"`
	Line  []WireMove `json:"line,omitempty"`
	Nodes uint64     `json:"nodes,omitempty"`
	Depth int        `json:"depth,omitempty"`

	Possible   bool       `json:"possible,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
	Sequence   []WireMove `json:"sequence,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

func wireMove(m *move.Move) *WireMove {
	return &WireMove{
		Piece:    m.Piece().String(),
		Rotation: int(m.Rotation()),
		X:        m.X(),
		Y:        m.Y(),
		Actions:  m.ActionStrings(),
		Equity:   m.Equity(),
	}
}

// MoveFromWire rebuilds an engine move from its wire form.
func MoveFromWire(w *WireMove) (*move.Move, error) {
	if len(w.Piece) != 1 {
		return nil, fmt.Errorf("bad piece %q", w.Piece)
	}
	p, err := piece.FromLetter(w.Piece[0])
	if err != nil {
		return nil, err
	}
	if p == piece.None {
		return nil, fmt.Errorf("bad piece %q", w.Piece)
	}
	if w.Rotation < 0 || w.Rotation >= piece.NumRotations {
		return nil, fmt.Errorf("bad rotation %d", w.Rotation)
	}
	actions := make([]move.Action, len(w.Actions))
	for i, s := range w.Actions {
		actions[i], err = move.ParseAction(s)
		if err != nil {
			return nil, err
		}
	}
	m := move.New(p, piece.Rotation(w.Rotation), w.X, w.Y, actions)
	m.SetEquity(w.Equity)
	return m, nil
}

// RequestFromPosition captures a position into wire form. Kind, Pattern,
// Preset and TimeMs are left for the caller to fill.
func RequestFromPosition(pos game.Position) *Request {
	b := pos.Board()
	rows := make([]uint64, b.Height())
	for y := range rows {
		rows[y] = b.Row(y)
	}
	hold := ""
	if pos.Hold() != piece.None {
		hold = pos.Hold().String()
	}
	return &Request{
		Width:   b.Width(),
		Rows:    rows,
		Pieces:  piece.QueueString(append([]piece.Piece{pos.Current()}, pos.Queue()...)),
		Hold:    hold,
		CanHold: pos.CanHold(),
	}
}

// cacheSize bounds the response cache. Entries evict oldest first.
const cacheSize = 512

// responseCache remembers recent answers keyed by a hash of the raw
// request bytes. Identical positions arrive in bursts when several
// watchers query the same game, and the search is the expensive part.
type responseCache struct {
	sync.Mutex
	entries map[uint64]*Response
	order   []uint64
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[uint64]*Response, cacheSize)}
}

func (c *responseCache) get(key uint64) (*Response, bool) {
	c.Lock()
	defer c.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *responseCache) put(key uint64, resp *Response) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= cacheSize {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[key] = resp
	c.order = append(c.order, key)
}

type Bot struct {
	config *config.Config
	player *aibot.BotTurnPlayer
	cache  *responseCache
}

func NewBot(cfg *config.Config) (*Bot, error) {
	p, err := aibot.NewBotTurnPlayer(cfg)
	if err != nil {
		return nil, err
	}
	return &Bot{config: cfg, player: p, cache: newResponseCache()}, nil
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

func (b *Bot) position(req *Request) (game.Position, error) {
	bd, err := board.FromRows(req.Width, req.Rows)
	if err != nil {
		return game.Position{}, err
	}
	pieces, err := piece.ParseQueue(req.Pieces)
	if err != nil {
		return game.Position{}, err
	}
	if len(pieces) == 0 {
		return game.Position{}, errors.New("request needs at least a current piece")
	}
	hold := piece.None
	if req.Hold != "" {
		if len(req.Hold) != 1 {
			return game.Position{}, fmt.Errorf("bad hold %q", req.Hold)
		}
		hold, err = piece.FromLetter(req.Hold[0])
		if err != nil {
			return game.Position{}, err
		}
	}
	return game.NewPosition(bd, pieces[0], pieces[1:], hold, req.CanHold)
}

func (b *Bot) handle(ctx context.Context, data []byte) *Response {
	key := xxhash.Sum64(data)
	if resp, ok := b.cache.get(key); ok {
		log.Debug().Uint64("key", key).Msg("cache-hit")
		return resp
	}
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return errorResponse("could not parse request", err)
	}
	resp := b.answer(ctx, req)
	if resp.Error == "" {
		b.cache.put(key, resp)
	}
	return resp
}

func (b *Bot) answer(ctx context.Context, req *Request) *Response {
	pos, err := b.position(req)
	if err != nil {
		return errorResponse("bad position", err)
	}
	if req.Preset != "" && req.Preset != b.player.Preset() {
		if err := b.player.SetPreset(req.Preset); err != nil {
			return errorResponse("bad preset", err)
		}
	}
	if req.TimeMs > 0 {
		tctx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeMs)*time.Millisecond)
		defer cancel()
		ctx = tctx
	}

	switch req.Kind {
	case "analyze", "":
		mv, res, err := b.player.BestMove(ctx, pos)
		if err != nil {
			return errorResponse("search failed", err)
		}
		if mv == nil {
			return &Response{Reason: "no legal moves"}
		}
		resp := &Response{
			Move:  wireMove(mv),
			Nodes: res.NodesExplored,
			Depth: res.ReachedDepth,
		}
		for _, pm := range res.BestPath {
			resp.Line = append(resp.Line, *wireMove(pm))
		}
		return resp
	case "pattern":
		if req.Pattern == "" {
			return errorResponse("pattern request needs a pattern name", nil)
		}
		check, err := b.player.CheckPattern(ctx, pos, req.Pattern)
		if err != nil {
			return errorResponse("pattern check failed", err)
		}
		resp := &Response{
			Possible:   check.IsPossible,
			Confidence: check.Confidence,
			Reason:     check.Reason,
		}
		for _, pm := range check.MoveSequence {
			resp.Sequence = append(resp.Sequence, *wireMove(pm))
		}
		return resp
	default:
		return errorResponse("unknown request kind "+req.Kind, nil)
	}
}

func Main(channel string, bot *Bot) {
	nc, err := nats.Connect(bot.config.GetString("nats-url"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to NATS")
	}
	// Simple Async Subscriber
	nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.handle(context.Background(), m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, ideally, but we need to do something sensible here.
			m.Respond([]byte(err.Error()))
		} else {
			m.Respond(data)
		}
	})
	nc.Flush()

	if err := nc.LastError(); err != nil {
		log.Fatal().Err(err).Msg("nats error")
	}

	log.Info().Msgf("Listening on [%s]", channel)

	runtime.Goexit()
	fmt.Println("exiting")
}
