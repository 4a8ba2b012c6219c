package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"
	"github.com/vipnode/rpcstub/stub"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`
	Config  string `long:"config" description:"Path to an ini config file. (default: $XDG_CONFIG_HOME/vipnode/rpcstub/config.ini)" no-ini:"true"`

	Serve struct {
		Bind           string `long:"bind" description:"Address and port to listen on." default:"0.0.0.0:2000"`
		Prefix         string `long:"prefix" description:"URL path of the websocket endpoint." default:"/rpc"`
		Websocket      string `long:"websocket" description:"Websocket implementation. (gorilla|gobwas)" default:"gorilla"`
		Static         string `long:"static" description:"Directory of static files to serve next to the endpoint."`
		TLSHost        string `long:"tlshost" description:"Acquire an ACME TLS cert for this host and listen on :443."`
		AllowOrigin    string `long:"allow-origin" description:"Cross-origin value to accept for websocket handshakes, * for any."`
		PendingLimit   int    `long:"pending-limit" description:"Number of outbound calls per connection to hold before discarding the oldest." default:"50"`
		PendingDiscard int    `long:"pending-discard" description:"Number of oldest calls to discard when the pending limit is reached." default:"10"`
	} `command:"serve" description:"Serve the demo handlers over websockets."`

	Call struct {
		Args struct {
			URL    string   `positional-arg-name:"url" description:"Websocket URL of the peer, such as ws://localhost:2000/rpc" required:"yes"`
			Method string   `positional-arg-name:"method" description:"Event name to call." required:"yes"`
			Params []string `positional-arg-name:"args" description:"Arguments, each decoded as JSON or passed as a string."`
		} `positional-args:"yes"`
		Timeout string `long:"timeout" description:"How long to wait for the reply." default:"10s"`
	} `command:"call" description:"Call a method on a websocket peer and print the reply."`

	Nats struct {
		Args struct {
			Method string   `positional-arg-name:"method" description:"Event name to call on the peer once joined."`
			Params []string `positional-arg-name:"args" description:"Arguments, each decoded as JSON or passed as a string."`
		} `positional-args:"yes"`
		URL     string `long:"url" description:"NATS server URL." default:"nats://127.0.0.1:4222"`
		Name    string `long:"name" description:"Subject to listen on." default:"rpcstub.a"`
		Peer    string `long:"peer" description:"Subject of the peer." default:"rpcstub.b"`
		Timeout string `long:"timeout" description:"How long to wait for the reply." default:"10s"`
	} `command:"nats" description:"Join a NATS subject pair, serve the demo handlers and optionally call the peer."`
}

const callUsage = `Examples:
* Add two numbers on a local server:
  $ rpcstub call ws://localhost:2000/rpc add 2 3

* Have the server call back into this client's "bar" handler:
  $ rpcstub call ws://localhost:2000/rpc foo 21
`

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

// defaultConfigPath returns the config file location under the XDG config
// home.
func defaultConfigPath() string {
	return filepath.Join(xdg.New("vipnode", "rpcstub").ConfigHome(), "config.ini")
}

// loadConfig fills options from the ini file at path. A missing default
// config is not an error.
func loadConfig(parser *flags.Parser, path string, explicit bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return nil
	}
	if err := flags.NewIniParser(parser).ParseFile(path); err != nil {
		return ErrExplain{err, fmt.Sprintf("Failed to load config file %q.", path)}
	}
	return nil
}

func subcommand(cmd string, options Options) error {
	switch cmd {
	case "serve":
		return runServe(options)
	case "call":
		return runCall(options)
	case "nats":
		return runNats(options)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp && parser.Active != nil {
			// Print additional usage help when run with --help
			switch parser.Active.Name {
			case "call":
				exit(0, callUsage)
			}
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	// Config values go underneath the command line, so parse it again.
	configPath, explicit := options.Config, options.Config != ""
	if !explicit {
		configPath = defaultConfigPath()
	}
	if err := loadConfig(parser, configPath, explicit); err != nil {
		exit(1, "%s\n", err)
	}
	options.Verbose = nil
	if _, err := parser.Parse(); err != nil {
		return
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logWriter := os.Stderr

	SetLogger(golog.New(logWriter, logLevel))
	if logLevel == log.Debug {
		// Enable logging from subpackages
		stub.SetLogger(golog.New(logWriter, logLevel))
	}

	cmd := parser.Active.Name
	err = subcommand(cmd, options)
	if err == nil {
		return
	}

	if err == io.EOF {
		exit(3, "Connection closed.\n")
	}

	switch typedErr := err.(type) {
	case net.Error:
		err = ErrExplain{err, `Disconnected from the peer unexpectedly. Could be a connectivity issue or the peer is down. Try again?`}
	case interface{ ErrorCode() int }:
		switch typedErr.ErrorCode() {
		case stub.ErrCodeInvalidArgs:
			err = ErrExplain{err, `The peer rejected the arguments of the call. Check their number and types.`}
		case stub.ErrCodeHandler:
			err = ErrExplain{err, `The peer's handler failed.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`Unexpected RPC error occurred: %T (code %d).`, typedErr, typedErr.ErrorCode())}
		}
	case ErrExplain:
		// All good.
	default:
		switch err {
		case stub.ErrClosed:
			err = ErrExplain{err, `The connection ended before the reply arrived.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`Error type %T is missing an explanation.`, err)}
		}
	}

	exit(2, "%s failed: %s\n", cmd, err)
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}
