package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"
	"syscall"

	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/reliefplan/pkg/client"
	"github.com/vanderheijden86/reliefplan/pkg/config"
	"github.com/vanderheijden86/reliefplan/pkg/ui"
	"github.com/vanderheijden86/reliefplan/pkg/version"
)

// app carries what every subcommand needs.
type app struct {
	cfg     config.Config
	cfgPath string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *log.Logger
	styles  styles
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"serve":    {"Serve the web UI and JSON API", runServe},
	"route":    {"Shortest relief route (Bellman-Ford)", runRoute},
	"allocate": {"Allocate supplies to a vehicle (fractional knapsack)", runAllocate},
	"color":    {"Schedule zones into time slots (graph coloring)", runColor},
	"matrix":   {"Distance or threshold adjacency matrix for places", runMatrix},
	"health":   {"Check that a planner server is reachable", runHealth},
	"version":  {"Print the version", runVersion},
}

// errUsage means the message was already printed.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reliefplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Config file (default: "+config.ConfigPath()+")")
	cpuProfile := fs.String("cpu-profile", "", "Write CPU profile to file")
	versionFlag := fs.Bool("version", false, "Show version")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "reliefplan %s\n", version.Version)
		return 0
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if fs.NArg() == 0 {
		usage(stderr, fs)
		return 2
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", name)
		usage(stderr, fs)
		return 2
	}

	var (
		cfg  config.Config
		err  error
		path = *configPath
	)
	if path == "" {
		path = config.ConfigPath()
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config %s: %v\n", path, err)
		return 1
	}

	a := &app{
		cfg:     cfg,
		cfgPath: path,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  log.New(stderr, "reliefplan: ", log.LstdFlags),
		styles:  newStyles(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, fs.Args()[1:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			return 2
		case errors.Is(err, huh.ErrUserAborted):
			fmt.Fprintln(stderr, "Cancelled.")
			return 130
		}
		fmt.Fprintln(stderr, a.styles.err.Render("Error: "+describeError(err)))
		return 1
	}
	return 0
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: reliefplan [options] <command> [command options]")
	fmt.Fprintln(w, "\nPlan disaster relief routes, supply loads and zone schedules.")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nOptions:")
	fs.PrintDefaults()
}

func runVersion(_ context.Context, a *app, _ []string) error {
	fmt.Fprintf(a.stdout, "reliefplan %s\n", version.Version)
	return nil
}

func runHealth(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "health", "")
	apiURL := fs.String("api", a.cfg.Server.APIURL, "Planner API base URL")
	if err := parseArgs(fs, args, false); err != nil {
		return err
	}
	h, err := client.New(*apiURL, client.DefaultTimeout).Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s (server %s)\n", a.styles.ok.Render(h.Status), *apiURL, h.Version)
	return nil
}

// describeError prefers the server's message and hides transport detail
// behind a short hint.
func describeError(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	var te *client.TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("could not reach the planner service (%v); start it with 'reliefplan serve' or pass --local", te.Err)
	}
	return err.Error()
}

// plannerFlags are shared by the planning subcommands.
type plannerFlags struct {
	local    bool
	apiURL   string
	in       string
	graph    string
	copy     bool
	markdown bool
}

// register adds the shared flags. graphFlag names the drawing flag; empty
// means the command draws nothing.
func (p *plannerFlags) register(fs *flag.FlagSet, a *app, graphFlag, graphUsage string) {
	fs.BoolVar(&p.local, "local", false, "Compute in-process instead of calling a server")
	fs.StringVar(&p.apiURL, "api", a.cfg.Server.APIURL, "Planner API base URL")
	fs.StringVar(&p.in, "in", "", "Read the request from a JSON or YAML file ('-' for stdin)")
	if graphFlag != "" {
		fs.StringVar(&p.graph, graphFlag, "", graphUsage)
	}
	fs.BoolVar(&p.copy, "copy", false, "Copy the result text to the clipboard")
	fs.BoolVar(&p.markdown, "markdown", false, "Render the result as markdown")
}

// planner is a remote client or the in-process service. close releases
// whatever the local service opened.
type planner struct {
	ui.Planner
	remote *client.Client
	close  func() error
}

func (a *app) planner(p *plannerFlags) *planner {
	if p.local {
		b := newBackend(a.cfg, a.logger)
		return &planner{Planner: b.svc, close: b.Close}
	}
	c := client.New(p.apiURL, client.DefaultTimeout)
	return &planner{Planner: c, remote: c, close: func() error { return nil }}
}

func newFlagSet(a *app, name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: reliefplan %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}
