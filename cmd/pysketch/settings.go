/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"pysketch/internal/config"
	"pysketch/internal/storage"
)

// cmdConfig prints the effective configuration and marks values that come
// from the environment.
func (c *cli) cmdConfig(args []string) error {
	if len(args) != 0 {
		return usagef("config takes no arguments")
	}
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	cfg := c.cfg
	rows := []struct{ key, value string }{
		{"canvas.width", strconv.FormatFloat(cfg.Canvas.Width, 'g', -1, 64)},
		{"canvas.height", strconv.FormatFloat(cfg.Canvas.Height, 'g', -1, 64)},
		{"compile.speed", strconv.Itoa(cfg.Compile.SpeedValue())},
		{"compile.background_color", cfg.Compile.BackgroundColor},
		{"compile.simplify_tolerance", strconv.FormatFloat(cfg.Compile.Tolerance(), 'g', -1, 64)},
		{"compile.output_name", cfg.Compile.OutputName},
		{"backend.base_url", cfg.Backend.BaseURL},
		{"backend.timeout_ms", strconv.Itoa(cfg.Backend.TimeoutMs)},
		{"logging.level", cfg.Logging.Level},
		{"logging.format", cfg.Logging.Format},
		{"logging.source", strconv.FormatBool(cfg.Logging.Source)},
		{"logging.file", cfg.Logging.File},
	}
	fmt.Fprintf(c.out, "Config file: %s\n", path)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		src := ""
		if env, ok := config.EnvOverrideFor(r.key); ok {
			src = "(from " + env + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.key, r.value, src)
	}
	return tw.Flush()
}

// cmdSchema prints the JSON schema project manifests are validated against.
func (c *cli) cmdSchema(args []string) error {
	if len(args) != 0 {
		return usagef("schema takes no arguments")
	}
	_, err := c.out.Write(storage.ManifestSchema())
	return err
}
