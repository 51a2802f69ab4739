/*
Package main is the EchoSpace terminal client.

It keeps the session token in a local pebble store, talks to the auth server for sign-in and
profile actions, and runs rooms and messages locally through the client view-state controller.

Environment:

	ECHOSPACE_API_URL      auth server base URL (default http://localhost:4000)
	ECHOSPACE_DATA_DIR     directory of the local store and client.log (default <user config dir>/echospace)
	ECHOSPACE_REPLY_DELAY  delay of the simulated reply, as a Go duration (default 1s)
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"echospace/internal/client/api"
	"echospace/internal/client/localstore"
	"echospace/internal/client/state"
	"echospace/internal/pkg/logx"
)

type clientConfig struct {
	APIURL     string
	DataDir    string
	ReplyDelay time.Duration
}

func loadClientConfig() (*clientConfig, error) {
	cfg := &clientConfig{
		APIURL:     api.DefaultBaseURL,
		ReplyDelay: state.DefaultReplyDelay,
	}

	if v := os.Getenv("ECHOSPACE_API_URL"); v != "" {
		cfg.APIURL = v
	}

	cfg.DataDir = os.Getenv("ECHOSPACE_DATA_DIR")
	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine config directory, set ECHOSPACE_DATA_DIR: %w", err)
		}
		cfg.DataDir = filepath.Join(base, "echospace")
	}

	if v := os.Getenv("ECHOSPACE_REPLY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid ECHOSPACE_REPLY_DELAY %q", v)
		}
		cfg.ReplyDelay = d
	}

	return cfg, nil
}

func main() {
	cfg, err := loadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the user, so logs go to a file.
	var logOut io.Writer = io.Discard
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "client.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err == nil {
		defer logFile.Close()
		logOut = logFile
	}
	logx.InitWriterLogger(logOut, zerolog.InfoLevel)

	store, err := localstore.Open(filepath.Join(cfg.DataDir, "store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to open local store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	client := api.New(cfg.APIURL)
	sh := newShell(os.Stdin, os.Stdout, client, store).withTerminal(os.Stdin)
	sh.app = state.New(client, store,
		state.WithReplyDelay(cfg.ReplyDelay),
		state.WithObserver(sh.onSnapshot),
		state.WithNotifier(sh.onNotification),
	)

	logx.Info("Client started", "api_url", cfg.APIURL, "data_dir", cfg.DataDir)

	if err := sh.run(context.Background()); err != nil {
		logx.Error(err, "Client stopped with error")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	logx.Info("Client stopped")
}
