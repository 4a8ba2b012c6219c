package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	flags "github.com/jessevdk/go-flags"
	"github.com/vipnode/rpcstub/internal/natstest"
)

func TestParseParams(t *testing.T) {
	got := parseParams([]string{"2", "hello", `"quoted"`, `[1,2]`, `{"a":true}`, "null"})
	want := []interface{}{
		2.0,
		"hello",
		"quoted",
		[]interface{}{1.0, 2.0},
		map[string]interface{}{"a": true},
		nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "rpcstub")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.ini")
	config := "[serve]\nbind = 127.0.0.1:9000\nwebsocket = gobwas\npending-limit = 5\n"
	if err := ioutil.WriteFile(path, []byte(config), 0600); err != nil {
		t.Fatal(err)
	}

	options := Options{}
	parser := flags.NewParser(&options, flags.None)
	if _, err := parser.ParseArgs([]string{"serve", "--websocket", "gorilla"}); err != nil {
		t.Fatal(err)
	}
	if err := loadConfig(parser, path, true); err != nil {
		t.Fatal(err)
	}
	if _, err := parser.ParseArgs([]string{"serve", "--websocket", "gorilla"}); err != nil {
		t.Fatal(err)
	}

	if got, want := options.Serve.Bind, "127.0.0.1:9000"; got != want {
		t.Errorf("bind: got %q; want %q", got, want)
	}
	if got, want := options.Serve.PendingLimit, 5; got != want {
		t.Errorf("pending-limit: got %d; want %d", got, want)
	}
	// The command line wins over the config file.
	if got, want := options.Serve.Websocket, "gorilla"; got != want {
		t.Errorf("websocket: got %q; want %q", got, want)
	}
	if got, want := options.Serve.Prefix, "/rpc"; got != want {
		t.Errorf("prefix: got %q; want %q", got, want)
	}

	if err := loadConfig(parser, filepath.Join(dir, "missing.ini"), false); err != nil {
		t.Errorf("missing default config: %s", err)
	}
	if err := loadConfig(parser, filepath.Join(dir, "missing.ini"), true); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestNatsDemo(t *testing.T) {
	srv := natstest.NewServer(t)

	a, connA, err := joinNats(natstest.Connect(t, srv), "rpcstub.test.a", "rpcstub.test.b")
	if err != nil {
		t.Fatal(err)
	}
	defer connA.Close()
	_, connB, err := joinNats(natstest.Connect(t, srv), "rpcstub.test.b", "rpcstub.test.a")
	if err != nil {
		t.Fatal(err)
	}
	defer connB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := callAndPrint(ctx, &buf, a, "add", parseParams([]string{"2", "3"})); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "5\n"; got != want {
		t.Errorf("add: got %q; want %q", got, want)
	}

	// foo on b calls bar back on a: 4 + 8.
	buf.Reset()
	if err := callAndPrint(ctx, &buf, a, "foo", parseParams([]string{"4"})); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "12\n"; got != want {
		t.Errorf("foo: got %q; want %q", got, want)
	}
}
