/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pysketch/internal/backend"
	"pysketch/internal/config"
	"pysketch/internal/domain"
	"pysketch/internal/storage"
)

var startServer = backend.Start

// withClient runs fn against the archive. Without a stored token, or when
// the stored one is rejected, a fresh token is requested with
// PYSKETCH_AUTH_SECRET and kept in the keyring.
func (c *cli) withClient(ctx context.Context, fn func(*backend.Client) error) error {
	cl := backend.NewClient(c.cfg.Backend.BaseURL, c.token).WithTimeout(c.cfg.Backend.Timeout())
	secret := os.Getenv("PYSKETCH_AUTH_SECRET")
	issue := func() error {
		if secret == "" {
			return errors.New("no valid backend token; set PYSKETCH_AUTH_SECRET to obtain one")
		}
		tr, err := cl.IssueToken(ctx, secret, "pysketch-cli", 24*time.Hour)
		if err != nil {
			return fmt.Errorf("obtain token: %w", err)
		}
		c.token = tr.Token
		if err := config.StoreToken(tr.Token); err != nil {
			c.l.Warn("could not store backend token", slog.Any("err", err))
		}
		return nil
	}
	if cl.Token == "" {
		if err := issue(); err != nil {
			return err
		}
	}
	err := fn(cl)
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && secret != "" {
		c.l.Info("backend token rejected, requesting a new one")
		if err := issue(); err != nil {
			return err
		}
		err = fn(cl)
	}
	return err
}

func (c *cli) cmdPush(args []string) error {
	if len(args) != 1 {
		return usagef("push requires <dir>")
	}
	ph, err := c.open(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	var info backend.ProjectInfo
	err = c.withClient(ctx, func(cl *backend.Client) error {
		var err error
		info, err = cl.Push(ctx, ph.Project)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Pushed %q as version %d to %s\n", info.Name, info.Version, c.cfg.Backend.BaseURL)
	return nil
}

func (c *cli) cmdPull(args []string) error {
	fs := c.flags("pull")
	id := fs.String("id", "", "archived project id (default: the id of the project in <dir>)")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("pull requires <dir>")
	}
	abs, _ := filepath.Abs(pos[0])
	ph, openErr := storage.Open(abs)
	if openErr == nil {
		c.ph = ph
		if *id == "" {
			*id = ph.Project.ID
		}
	} else if *id == "" {
		return usagef("no project in %s; pass --id", abs)
	}

	ctx := context.Background()
	var pulled domain.Project
	err = c.withClient(ctx, func(cl *backend.Client) error {
		var err error
		pulled, err = cl.Pull(ctx, *id)
		return err
	})
	if err != nil {
		return err
	}
	if ph == nil {
		if ph, err = storage.InitProject(abs, pulled.Name); err != nil {
			return err
		}
		c.ph = ph
	}
	ph.Project = pulled
	if err := c.commit(ph, "pull"); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Pulled %q (%d layers, %d strokes) into %s\n", ph.Project.Name, len(ph.Project.Layers), len(ph.Project.Strokes), ph.Root)
	return nil
}

func (c *cli) cmdServe(args []string) error {
	cfg := backend.LoadConfig()
	fs := c.flags("serve")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.DBURL, "db", cfg.DBURL, "PostgreSQL connection string")
	fs.BoolVar(&cfg.Memory, "memory", false, "keep projects in memory instead of PostgreSQL")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 0 {
		return usagef("serve takes no positional arguments")
	}
	return startServer(cfg)
}

func (c *cli) cmdLogout(args []string) error {
	if len(args) != 0 {
		return usagef("logout takes no arguments")
	}
	if err := config.ClearToken(); err != nil {
		return fmt.Errorf("clear backend token: %w", err)
	}
	c.token = ""
	fmt.Fprintln(c.out, "Removed the stored backend token.")
	return nil
}
