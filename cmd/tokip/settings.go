package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	transportSocket = "uds"
	transportHTTP   = "http"

	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/tokip.sock"
)

// settings is how the CLI reaches a server. It lives next to the user's
// other dotfiles and is written by `tokip connect`.
type settings struct {
	Transport string `json:"transport"`
	Server    string `json:"server"`
	Socket    string `json:"socket"`
}

func defaultSettings() settings {
	return settings{Transport: transportSocket, Server: defaultServer, Socket: defaultSocket}
}

// merged fills the fields s leaves empty from the defaults.
func (s settings) merged() settings {
	d := defaultSettings()
	if s.Transport == "" {
		s.Transport = d.Transport
	}
	if s.Server == "" {
		s.Server = d.Server
	}
	if s.Socket == "" {
		s.Socket = d.Socket
	}
	return s
}

func (s settings) validate() error {
	switch s.Transport {
	case transportSocket, transportHTTP:
		return nil
	}
	return fmt.Errorf("unknown transport %q (want %s or %s)", s.Transport, transportSocket, transportHTTP)
}

func settingsPath() (string, error) {
	if path := os.Getenv("TOKIP_CLI_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tokip", "cli.json"), nil
}

func readSettings() (settings, error) {
	path, err := settingsPath()
	if err != nil {
		return settings{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultSettings(), nil
	}
	if err != nil {
		return settings{}, err
	}
	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	s = s.merged()
	return s, s.validate()
}

func writeSettings(s settings) error {
	if err := s.validate(); err != nil {
		return err
	}
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := jsonMarshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
