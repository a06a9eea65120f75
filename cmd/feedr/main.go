package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Hubmakerlabs/aggregatr/app"
	"github.com/Hubmakerlabs/aggregatr/pkg/slog"
	"github.com/gookit/color"
	"github.com/urfave/cli/v2"
)

const name = "feedr"

const version = "0.0.1"

var log, chk = slog.New(os.Stderr)

// load builds an aggregator from the event stream named by the file
// arguments, or stdin when there are none.
func load(cCtx *cli.Context) (a *app.Aggregator) {
	cfg := &app.Config{
		Pubkey:     cCtx.String("pubkey"),
		Autofollow: cCtx.Int("autofollow"),
	}
	a = app.New(cfg)
	a.Start()
	n := a.ImportFiles(cCtx.Args().Slice())
	a.Flush()
	log.D.F("loaded %d events", n)
	return
}

func doTimeline(cCtx *cli.Context) (e error) {
	a := load(cCtx)
	defer a.Shutdown()
	views := a.GetFeedWindow(cCtx.Int("page"))
	if cCtx.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		for _, v := range views {
			if e = enc.Encode(v.Event); chk.E(e) {
				return
			}
		}
		return nil
	}
	for _, v := range views {
		printEvent(a, v, 0)
	}
	return nil
}

func doThread(cCtx *cli.Context) (e error) {
	a := load(cCtx)
	defer a.Shutdown()
	id := cCtx.String("id")
	tv, ok := a.GetThread(id)
	if !ok {
		return fmt.Errorf("no event %s in the stream", id)
	}
	printThread(a, tv, 0)
	return nil
}

func doProfile(cCtx *cli.Context) (e error) {
	a := load(cCtx)
	defer a.Shutdown()
	pk := cCtx.String("pubkey")
	pv, ok := a.GetPerson(pk)
	if !ok {
		return fmt.Errorf("no profile for %s in the stream", pk)
	}
	fmt.Println(color.Cyan.Sprint(pv.Name), pv.PubKey)
	if pv.NIP05 != "" {
		mark := color.Red.Sprint("✗")
		if pv.NIP05OK && !pv.DNSStale {
			mark = color.Green.Sprint("✓")
		}
		fmt.Println(pv.NIP05, mark)
	}
	if pv.About != "" {
		fmt.Println(pv.About)
	}
	return nil
}

func doFollows(cCtx *cli.Context) (e error) {
	a := load(cCtx)
	defer a.Shutdown()
	follows := a.GetFollowedAuthors()
	sort.Strings(follows)
	for _, pk := range follows {
		name := pk
		if pv, ok := a.GetPerson(pk); ok && pv.Name != "" {
			name = fmt.Sprintf("%s (%s)", pv.Name, pk)
		}
		fmt.Println(name)
	}
	return nil
}

func printEvent(a *app.Aggregator, v app.EventView, indent int) {
	pad := strings.Repeat("  ", indent)
	author := v.Event.PubKey
	if p, ok := a.GetPerson(v.Event.PubKey); ok && p.Name != "" {
		author = p.Name
	}
	when := v.Event.CreatedAt.Time().Format("2006-01-02 15:04")
	fmt.Printf("%s%s %s", pad, color.Cyan.Sprint(author),
		color.Gray.Sprint(when))
	if v.Tombstoned {
		fmt.Println(" " + color.Red.Sprint("[deleted]"))
		return
	}
	fmt.Println()
	fmt.Println(pad + v.Event.Content)
	if len(v.Reactions) > 0 {
		var syms []string
		for sym := range v.Reactions {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		var parts []string
		for _, sym := range syms {
			parts = append(parts, fmt.Sprintf("%s %d", sym,
				v.Reactions[sym]))
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

func main() {
	cliApp := &cli.App{
		Name:        name,
		Version:     version,
		Usage:       "inspect aggregated nostr event streams",
		Description: "replays line structured JSON event dumps through the aggregation core and prints the derived views",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pubkey", Usage: "local user pubkey, whose contact lists define follows"},
			&cli.IntFlag{Name: "autofollow", Usage: "autofollow budget"},
		},
		Commands: []*cli.Command{
			{
				Name:    "timeline",
				Aliases: []string{"tl"},
				Usage:   "show the feed window",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "window page, 0 is most recent"},
					&cli.BoolFlag{Name: "json", Usage: "output JSON"},
				},
				Action: doTimeline,
			},
			{
				Name:  "thread",
				Usage: "show the reply tree under an event",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "thread root event id"},
				},
				Action: doThread,
			},
			{
				Name:   "profile",
				Usage:  "show a person's profile state",
				Action: doProfile,
			},
			{
				Name:   "follows",
				Usage:  "list followed authors",
				Action: doFollows,
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		log.E.Ln(err)
		os.Exit(1)
	}
}
