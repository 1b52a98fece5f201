// Command botplay connects to a code duel server and plays one seat
// automatically. It joins the given room, waits for an opponent, and
// guesses by candidate elimination until someone wins.
//
// Two bots pointed at the same room play a full game against each other,
// which makes this a handy end-to-end smoke test for a running server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// message mirrors the server's JSON envelope.
type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	cmd := &cli.Command{
		Name:  "botplay",
		Usage: "play one code duel seat automatically",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "localhost:8080",
				Usage: "server host:port",
			},
			&cli.StringFlag{
				Name:     "room",
				Usage:    "room key to join",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "user",
				Value: "bot",
				Usage: "user ID to play as",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "botplay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := zerolog.InfoLevel
	if cmd.Bool("debug") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bot := &bot{
		addr:   cmd.String("addr"),
		room:   cmd.String("room"),
		user:   cmd.String("user"),
		solver: NewSolver(),
		log:    log,
	}
	return bot.play(ctx)
}

type bot struct {
	addr   string
	room   string
	user   string
	solver *Solver
	log    zerolog.Logger

	conn    *websocket.Conn
	myTurn  bool
	started bool
}

func (b *bot) play(ctx context.Context) error {
	url := fmt.Sprintf("ws://%s/ws", b.addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	b.conn = conn

	// Drop the connection when the context ends so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := b.send("join-room", map[string]string{"roomId": b.room, "userId": b.user}); err != nil {
		return err
	}
	b.log.Info().Str("room", b.room).Str("user", b.user).Msg("joining")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			b.log.Debug().Err(err).Msg("skipping undecodable frame")
			continue
		}

		done, err := b.handle(msg)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// handle reacts to one server event; it reports true when the game is over.
func (b *bot) handle(msg message) (bool, error) {
	switch msg.Event {
	case "joined":
		b.log.Info().Msg("seated, waiting for opponent")

	case "room-full":
		return false, fmt.Errorf("room %s is full", b.room)

	case "game-started":
		if !b.started {
			b.started = true
			b.log.Info().Msg("game started")
		}

	case "turn-assignment":
		var data struct {
			YourTurn bool `json:"yourTurn"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return false, fmt.Errorf("decode turn-assignment: %w", err)
		}
		b.myTurn = data.YourTurn
		if b.myTurn && b.started {
			return false, b.guess()
		}

	case "guess-result":
		var data struct {
			Guess            string `json:"guess"`
			CorrectPositions int    `json:"correctPositions"`
			CorrectDigits    int    `json:"correctDigits"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return false, fmt.Errorf("decode guess-result: %w", err)
		}
		if data.CorrectPositions == 4 {
			b.log.Info().Str("code", data.Guess).Msg("cracked the code, we win")
			return true, nil
		}
		b.solver.Observe(data.Guess, data.CorrectPositions, data.CorrectDigits)
		b.log.Info().
			Str("guess", data.Guess).
			Int("inPlace", data.CorrectPositions).
			Int("misplaced", data.CorrectDigits).
			Int("remaining", b.solver.Remaining()).
			Msg("scored")

	case "game-won":
		var data struct {
			Winner string `json:"winner"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return false, fmt.Errorf("decode game-won: %w", err)
		}
		b.log.Info().Str("winner", data.Winner).Msg("opponent cracked the code, we lose")
		return true, nil

	default:
		// Roster updates, histories and opponent results do not change the
		// bot's strategy.
		b.log.Debug().Str("event", msg.Event).Msg("ignoring event")
	}
	return false, nil
}

func (b *bot) guess() error {
	guess := b.solver.Guess()
	b.log.Info().Str("guess", guess).Int("candidates", b.solver.Remaining()).Msg("guessing")
	return b.send("submit-guess", map[string]string{
		"roomId": b.room,
		"userId": b.user,
		"guess":  guess,
	})
}

func (b *bot) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(message{Event: event, Data: raw})
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, frame)
}
