package app

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

type ImportCmd struct {
	FromFile []string `arg:"-f,--fromfile,separate" help:"read from files instead of stdin (can use flag repeatedly for multiple files)"`
}

type FeedCmd struct {
	Page int `arg:"positional" default:"0" help:"feed window page, 0 is the most recent"`
}

type ThreadCmd struct {
	ID string `arg:"positional,required" help:"event id of the thread root"`
}

type InitCfg struct{}

type Config struct {
	InitCfgCmd *InitCfg   `arg:"subcommand:initcfg" json:"-" help:"initialize configuration file from the given flags"`
	ImportCmd  *ImportCmd `arg:"subcommand:import" json:"-" help:"ingest line structured JSON events"`
	FeedCmd    *FeedCmd   `arg:"subcommand:feed" json:"-" help:"ingest from stdin and print a feed window"`
	ThreadCmd  *ThreadCmd `arg:"subcommand:thread" json:"-" help:"ingest from stdin and print a reply tree"`
	Profile    string     `arg:"-p,--profile" json:"-" default:"aggregatr" help:"profile name to use for configuration"`
	Pubkey     string     `arg:"-k,--pubkey" json:"pubkey" help:"public key of the local user, whose contact lists define the followed set"`
	Relays     []string   `arg:"-r,--relay,separate" json:"relays" help:"relay URL to register as a source (can use flag repeatedly)"`
	// aggregation policy, durations in seconds
	FeedChunk  int64  `arg:"--feedchunk" json:"feed_chunk" default:"43200" help:"span of one feed window page in seconds"`
	Overlap    int64  `arg:"--overlap" json:"overlap" default:"300" help:"window overlap in seconds to absorb late delivery and clock skew"`
	Autofollow int    `arg:"--autofollow" json:"autofollow" default:"0" help:"maximum number of authors to adopt from other people's contact lists"`
	PendingTTL int64  `arg:"--pendingttl" json:"pending_ttl" default:"3600" help:"seconds to hold references to unseen events before eviction"`
	DNSRecheck int64  `arg:"--dnsrecheck" json:"dns_recheck" default:"604800" help:"seconds before a DNS identity verification goes stale"`
	LogLevel   string `arg:"--loglevel" json:"-" default:"info" help:"set log level [off,fatal,error,warn,info,debug,trace] (can also use GODEBUG environment variable)"`
}

// Settings derives the aggregation settings snapshot from the configured
// values.
func (c *Config) Settings() (s Settings) {
	s = DefaultSettings()
	if c.FeedChunk > 0 {
		s.FeedChunk = time.Duration(c.FeedChunk) * time.Second
	}
	if c.Overlap > 0 {
		s.Overlap = time.Duration(c.Overlap) * time.Second
	}
	if c.Autofollow > 0 {
		s.Autofollow = c.Autofollow
	}
	if c.PendingTTL > 0 {
		s.PendingTTL = time.Duration(c.PendingTTL) * time.Second
	}
	if c.DNSRecheck > 0 {
		s.DNSRecheckAfter = time.Duration(c.DNSRecheck) * time.Second
	}
	return
}

func (c *Config) Save(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot save nil config")
		log.E.Ln(err)
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(c, "", "    "); chk.E(err) {
		return
	}
	if err = os.WriteFile(filename, b, 0600); chk.E(err) {
		return
	}
	return
}

func (c *Config) Load(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot load into nil config")
		chk.E(err)
		return
	}
	var b []byte
	if b, err = os.ReadFile(filename); err != nil {
		return
	}
	if err = json.Unmarshal(b, c); chk.E(err) {
		return
	}
	return
}
