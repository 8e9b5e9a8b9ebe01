package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cast"

	"storypanel/internal"
	"storypanel/internal/di"
	"storypanel/internal/structures"
)

const usage = `usage: storypanel <command> [flags]

commands:
  kiosk   run the looping kiosk player with its HTTP surface
  play    play a city's stories in the terminal
  slide   build and save one slide
  login   sign in and store the token
  report  print a group's engagement report`

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flags := &structures.CliFlags{}
	fs.StringVar(&flags.ConfigPath, "config", "./config.yml", "Path to the config file")
	fs.BoolVar(&flags.DebugMode, "debug", false, "Mirror logs to stderr")

	switch cmd {
	case "kiosk":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		app, err := di.InitApp(flags)
		if err != nil {
			return err
		}
		return app.Run(ctx)

	case "play":
		city := fs.String("city", "", "City slug (defaults to kiosk.city)")
		group := fs.Int("group", 0, "Index of the group to start with")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		console, err := di.InitConsole(flags)
		if err != nil {
			return err
		}
		if *city == "" {
			*city = console.Conf.Kiosk.City
		}
		return console.Play(ctx, *city, *group, os.Stdin, color.Output)

	case "login":
		email := fs.String("email", "", "Admin email")
		password := fs.String("password", "", "Admin password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		console, err := di.InitConsole(flags)
		if err != nil {
			return err
		}
		if err := console.Login(ctx, *email, *password); err != nil {
			return err
		}
		color.Green("Token stored in %s", console.Conf.Api.TokenFile)
		return nil

	case "report":
		group := fs.String("group", "", "Group id or short code")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *group == "" {
			return errors.New("-group is required")
		}
		console, err := di.InitConsole(flags)
		if err != nil {
			return err
		}
		return console.Report(ctx, color.Output, *group)

	case "slide":
		return runSlide(ctx, fs, flags, rest)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func runSlide(ctx context.Context, fs *flag.FlagSet, flags *structures.CliFlags, args []string) error {
	var opts internal.SlideOptions
	var pan string
	var links, texts stringList
	fs.IntVar(&opts.GroupID, "group", 0, "Target group id")
	fs.IntVar(&opts.UpdateID, "update", 0, "Slide id to update instead of creating one")
	fs.StringVar(&opts.ImagePath, "image", "", "Background image (JPEG, PNG or GIF)")
	fs.Float64Var(&opts.Zoom, "zoom", 0, "Crop zoom, 1 to 3")
	fs.StringVar(&pan, "pan", "", "Crop offset as x,y in -1..1")
	fs.StringVar(&opts.Color, "color", "", "Background color as #rrggbb")
	fs.IntVar(&opts.Duration, "duration", 0, "Seconds on screen, 1 to 30")
	fs.StringVar(&opts.Caption, "caption", "", "Slide caption")
	fs.Var(&links, "link", "Link button as \"text|url\", repeatable")
	fs.BoolVar(&opts.Slider, "slider", false, "Add the emoji slider")
	fs.Var(&texts, "text", "Text label, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.GroupID <= 0 {
		return errors.New("-group is required")
	}
	if pan != "" {
		x, y, ok := strings.Cut(pan, ",")
		if !ok {
			return fmt.Errorf("bad -pan %q, want x,y", pan)
		}
		var err error
		if opts.PanX, err = cast.ToFloat64E(strings.TrimSpace(x)); err != nil {
			return fmt.Errorf("bad -pan x: %w", err)
		}
		if opts.PanY, err = cast.ToFloat64E(strings.TrimSpace(y)); err != nil {
			return fmt.Errorf("bad -pan y: %w", err)
		}
	}
	opts.Links, opts.Texts = links, texts

	console, err := di.InitConsole(flags)
	if err != nil {
		return err
	}
	slide, err := console.Slide(ctx, opts)
	if err != nil {
		return err
	}
	color.Green("Saved slide %d in group %d", slide.ID, slide.GroupID)
	return nil
}
