/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging provides the named leveled loggers shared by the nip2p packages.
//
// The level defaults to warn and can be changed with the NIP2P_LOG_LEVEL
// environment variable (debug, info, warn, error) or SetLevel.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel names the environment variable read at startup.
const EnvLogLevel = "NIP2P_LOG_LEVEL"

var (
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	mu   sync.RWMutex
	base *zap.Logger
)

func init() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(v))); err == nil {
			level.SetLevel(l)
		}
	}
	base = newLogger(os.Stderr)
}

func newLogger(out io.Writer) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999999")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(out), level)
	return zap.New(core, zap.AddCaller())
}

// SetLevel changes the level of every logger handed out by this package,
// including ones created before the call.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level returns the current level.
func Level() zapcore.Level {
	return level.Level()
}

// SetOutput redirects loggers obtained after the call to out.
func SetOutput(out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	l := newLogger(out)
	mu.Lock()
	base = l
	mu.Unlock()
}

// Named returns a logger for the given subsystem.
func Named(name string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(name)
}
