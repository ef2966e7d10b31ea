package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Request carries an Action to the control loop and its result back.
type Request struct {
	Action Action
	Reply  chan<- Reply
}

// Reply is the outcome of a Request.
type Reply struct {
	Output string
	Err    error
}

// Console reads commands from the terminal and hands them to the control
// loop.
type Console struct {
	rl       *readline.Instance
	requests chan<- Request
}

// New creates a Console sending its Requests on requests.
func New(requests chan<- Request) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "teleop> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, requests: requests}, nil
}

// Stdout returns a writer that coordinates with the prompt. Use it for
// log output.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Close restores the terminal. Run closes the Console itself; Close is for
// callers that fail before Run.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run reads commands until quit, EOF or ctx is done. It calls cancel when
// the operator quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) error {
	defer c.rl.Close()
	out := c.rl.Stdout()

	// Unblock Readline when the loop ends first.
	stop := context.AfterFunc(ctx, func() { _ = c.rl.Close() })
	defer stop()

	c.printHelp()
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := c.rl.Readline()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "help", "?":
			c.printHelp()
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return nil
		}

		action, err := Parse(fields)
		if err != nil {
			fmt.Fprintf(out, "Error: %v (type 'help' for commands)\n", err)
			continue
		}
		reply, err := c.submit(ctx, action)
		if err != nil {
			return nil
		}
		if reply.Err != nil {
			fmt.Fprintf(out, "Error: %v\n", reply.Err)
			continue
		}
		if reply.Output != "" {
			fmt.Fprintln(out, reply.Output)
		}
	}
}

func (c *Console) submit(ctx context.Context, action Action) (Reply, error) {
	replies := make(chan Reply, 1)
	select {
	case c.requests <- Request{Action: action, Reply: replies}:
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
	select {
	case r := <-replies:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
teleop-sim commands:
  Gamepads (pad: master|helper|1|2):
    press <pad> <button>         - Hold a button (a b x y up down left right lb rb ls rs)
    release <pad> <button>       - Release a button
    stick <pad> left|right <x> <y>
    trigger <pad> left|right <v>
    idle                         - Release everything on both pads

  Hardware:
    touch <path> on|off          - Set a simulated touch sensor
    battery <volts>              - Set the simulated battery

  Host mode commands (id: bundle identifier):
    power <id> <p>               - Motor power
    position <id> <pos>          - Servo position
    crpower <id> <p>             - Continuous servo power
    pwm <id> on|off              - Servo PWM output
    led <id> on|off              - Color sensor LED
    say <caption> <text>         - Add a display line
    clear                        - Clear the display

  Inspection:
    devices                      - Resolved and missing devices
    state                        - Subsystem states
    hw                           - Simulated hardware values
    status                       - Loop counters

  help, quit`)
}
