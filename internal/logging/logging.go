// Package logging monta o logger zerolog do processo.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// Console troca o JSON de stdout pelo formato legível do zerolog.
	Console bool

	// File, se definido, recebe uma cópia JSON dos logs com rotação por tamanho.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Out substitui stdout (testes).
	Out io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New devolve o logger raiz e um Closer para o arquivo rotacionado (no-op sem File).
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}

	var out io.Writer = os.Stdout
	if opts.Out != nil {
		out = opts.Out
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
		closer = rotator
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", "moderation-gateway").Logger()
	return logger, closer, nil
}

// Component devolve um logger filho com o campo component.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
