package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/ncpass/autofill"
	"github.com/jmcleod/ncpass/client"
	"github.com/jmcleod/ncpass/session"
	"github.com/jmcleod/ncpass/storage"
	bboltstorage "github.com/jmcleod/ncpass/storage/bbolt"
)

const indexFile = "index.db"

type app struct {
	configFile string
	verbose    bool
	timeout    time.Duration

	v      *viper.Viper
	cfg    config
	logger *slog.Logger
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := newViper(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for key, flag := range map[string]string{
		keyServer:  "server",
		keyUser:    "user",
		keyDataDir: "data-dir",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	if f := flags.Lookup("port"); f != nil {
		if err := v.BindPFlag(keyPort, f); err != nil {
			return fmt.Errorf("bind flag port: %w", err)
		}
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	a.v = v
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) configPath() string {
	if a.configFile != "" {
		return a.configFile
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigDir(), configName+"."+configType)
}

// openIndex opens the encrypted entry index in the data directory. The
// returned func closes the underlying database.
func (a *app) openIndex() (*storage.Index, func() error, error) {
	if a.cfg.Password == "" {
		return nil, nil, fmt.Errorf("missing %s in configuration: the index is encrypted with it", keyPassword)
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(a.cfg.DataDir, indexFile)
	repo, err := bboltstorage.NewRepositoryFromFile(path, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	idx, err := storage.OpenIndex(repo, []byte(a.cfg.Password), storage.WithIndexLogger(a.logger))
	if err != nil {
		repo.Close()
		if errors.Is(err, storage.ErrWrongKey) {
			return nil, nil, fmt.Errorf("%w: the index at %s was created with another password; remove it and sync again", err, path)
		}
		return nil, nil, err
	}
	return idx, repo.Close, nil
}

func (a *app) newService(idx autofill.Index) *autofill.Service {
	opts := append(a.cfg.autofillOptions(), autofill.WithLogger(a.logger))
	return autofill.NewService(idx, opts...)
}

func (a *app) newSession() (*session.Session, error) {
	if err := a.cfg.requireAccount(); err != nil {
		return nil, err
	}
	return session.New(a.cfg.Server, a.cfg.User, a.cfg.Password, session.WithLogger(a.logger))
}

// newClient returns a client that opens an API session whenever the server
// asks for one. A session that cannot be opened is invalidated, which fails
// every call waiting on it.
func (a *app) newClient() *client.Client {
	var c *client.Client
	c = client.New(
		client.WithLogger(a.logger),
		client.WithChallengeHandler(func(ctx context.Context, s *session.Session) {
			if err := c.OpenSession(ctx, s); err != nil {
				a.logger.Warn("could not open api session", "error", err, "session", s.LocalID())
				s.Invalidate(session.Deauthorization)
			}
		}),
	)
	return c
}

// closeSession ends the API session if one was opened.
func (a *app) closeSession(ctx context.Context, c *client.Client, s *session.Session) {
	if _, ok := s.ID(); ok && s.IsValid() {
		if err := c.CloseSession(context.WithoutCancel(ctx), s); err != nil {
			a.logger.Warn("could not close api session", "error", err)
		}
	}
	s.Close()
}

func (a *app) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}
