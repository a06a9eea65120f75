package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hubmakerlabs/aggregatr/app"
	"github.com/Hubmakerlabs/aggregatr/pkg/interrupt"
	"github.com/Hubmakerlabs/aggregatr/pkg/slog"
	"github.com/alexflint/go-arg"
	"github.com/gookit/color"
)

var (
	AppName = "aggregatr"
	Version = "v0.0.1"
)

var args app.Config

func main() {
	var log, chk = slog.New(os.Stderr)
	arg.MustParse(&args)
	slog.SetLogLevelString(args.LogLevel)
	var dataDirBase string
	var err error
	if dataDirBase, err = os.UserHomeDir(); chk.E(err) {
		os.Exit(1)
	}
	dataDir := filepath.Join(dataDirBase, "."+args.Profile)
	configPath := filepath.Join(dataDir, "config.json")
	log.D.F("using profile directory: %s", dataDir)
	if args.InitCfgCmd != nil {
		if err = os.MkdirAll(dataDir, 0700); chk.E(err) {
			os.Exit(1)
		}
		if err = args.Save(configPath); chk.E(err) {
			log.E.F("failed to write configuration: '%s'", err)
			os.Exit(1)
		}
		log.I.Ln("wrote configuration to", configPath)
		return
	}
	conf := &app.Config{}
	if err = conf.Load(configPath); err == nil {
		// flags given on the command line override the stored values
		if args.Pubkey == "" {
			args.Pubkey = conf.Pubkey
		}
		if len(args.Relays) == 0 {
			args.Relays = conf.Relays
		}
	}
	a := app.New(&args)
	a.Start()
	interrupt.AddHandler(a.Shutdown)
	switch {
	case args.ImportCmd != nil:
		n := a.ImportFiles(args.ImportCmd.FromFile)
		a.Flush()
		log.I.F("imported %d events, %d stored", n, a.Store.Size())
	case args.ThreadCmd != nil:
		a.Import(os.Stdin)
		a.Flush()
		tv, ok := a.GetThread(args.ThreadCmd.ID)
		if !ok {
			log.E.F("no event %s in the stream", args.ThreadCmd.ID)
			os.Exit(1)
		}
		printThread(a, tv, 0)
	default:
		page := 0
		if args.FeedCmd != nil {
			page = args.FeedCmd.Page
		}
		a.Import(os.Stdin)
		a.Flush()
		for _, v := range a.GetFeedWindow(page) {
			printEvent(a, v, 0)
		}
	}
	a.Shutdown()
}

func printEvent(a *app.Aggregator, v app.EventView, indent int) {
	pad := strings.Repeat("  ", indent)
	name := v.Event.PubKey
	if p, ok := a.GetPerson(v.Event.PubKey); ok && p.Name != "" {
		name = p.Name
	}
	when := v.Event.CreatedAt.Time().Format("2006-01-02 15:04")
	head := fmt.Sprintf("%s%s %s", pad, color.Cyan.Sprint(name),
		color.Gray.Sprint(when))
	if v.Tombstoned {
		fmt.Println(head, color.Red.Sprint("[deleted]"))
		return
	}
	fmt.Println(head)
	fmt.Println(pad + v.Event.Content)
	if len(v.Reactions) > 0 {
		var parts []string
		for sym, n := range v.Reactions {
			parts = append(parts, fmt.Sprintf("%s %d", sym, n))
		}
		fmt.Println(pad + color.Yellow.Sprint(strings.Join(parts, "  ")))
	}
}

func printThread(a *app.Aggregator, tv app.ThreadView, indent int) {
	printEvent(a, tv.EventView, indent)
	for _, reply := range tv.Replies {
		printThread(a, reply, indent+1)
	}
}
