package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/ladder/errs"
)

// Environment variables read by ApplyEnv.
const (
	EnvSymbol        = "LADDER_SYMBOL"
	EnvTimeframe     = "LADDER_TIMEFRAME"
	EnvInitialEquity = "LADDER_INITIAL_EQUITY"
	EnvLogLevel      = "LADDER_LOG_LEVEL"
	EnvLogEncoding   = "LADDER_LOG_ENCODING"
	EnvDBPath        = "LADDER_DB_PATH"
	EnvWorkers       = "LADDER_WORKERS"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat  = "TELEGRAM_CHAT_ID"
)

// ApplyEnv returns a copy of c overridden by the given dotenv files and the
// process environment. The process environment wins over dotenv files and
// missing dotenv files are skipped.
func (c Config) ApplyEnv(dotenv ...string) (Config, error) {
	vars := map[string]string{}
	for _, path := range dotenv {
		m, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return c, fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	out := c.Clone()
	if v, ok := lookup(EnvSymbol); ok {
		out.Symbol = v
	}
	if v, ok := lookup(EnvTimeframe); ok {
		out.Timeframe = v
	}
	if v, ok := lookup(EnvInitialEquity); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %v", errs.ErrConfiguration, EnvInitialEquity, err)
		}
		out.InitialEquity = f
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %v", errs.ErrConfiguration, EnvWorkers, err)
		}
		out.Optimizer.Workers = n
	}
	if v, ok := lookup(EnvLogLevel); ok {
		out.Log.Level = v
	}
	if v, ok := lookup(EnvLogEncoding); ok {
		out.Log.Encoding = v
	}
	if v, ok := lookup(EnvDBPath); ok {
		out.Journal.DBPath = v
	}
	if v, ok := lookup(EnvTelegramToken); ok {
		out.Notify.TelegramToken = v
	}
	if v, ok := lookup(EnvTelegramChat); ok {
		out.Notify.ChatID = v
	}
	return out, nil
}
