package app

import (
	"os"

	"github.com/Hubmakerlabs/aggregatr/pkg/slog"
)

var log, chk = slog.New(os.Stderr)
