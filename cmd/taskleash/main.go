package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/taskleash/internal/config"
	"github.com/1broseidon/taskleash/internal/daemon"
	"github.com/1broseidon/taskleash/internal/ipc"
	"github.com/1broseidon/taskleash/internal/logging"
	"github.com/1broseidon/taskleash/internal/platform"
	"github.com/1broseidon/taskleash/internal/runtimepath"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: taskleash daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: taskleash daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "dump":
		os.Exit(runDump(os.Args[2:]))
	case "sync":
		os.Exit(runSync(os.Args[2:]))
	case "appear", "change", "vanish":
		os.Exit(runTaskEvent(os.Args[1], os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: taskleash <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the taskleash daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status and tracked tasks")
	fmt.Fprintln(w, "  dump                Print the daemon's diagnostic dump")
	fmt.Fprintln(w, "  sync                Apply pending surface updates now")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  appear              Report a task appearance (controller)")
	fmt.Fprintln(w, "  change              Report a task info change (controller)")
	fmt.Fprintln(w, "  vanish              Report a task vanish (controller)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "  config init         Write the default configuration file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'taskleash <command> --help' for command-specific options.")
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := logging.Open(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer closeLog()

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, logger.With("component", "x11"))
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}

	d, err := daemon.New(cfg, backend, socketPath, logger)
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskleash status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status and tracked tasks via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	list, err := client.ListTasks()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(renderStatus(status, list, stdoutIsTerminal()))
	return 0
}

func runDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	prefix := fs.String("prefix", "", "Prefix prepended to every dump line")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskleash dump [--prefix STR]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	text, err := ipc.NewClient().Dump(*prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(text)
	return 0
}

func runSync(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: taskleash sync")
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			return 0
		}
		return 2
	}
	if err := ipc.NewClient().Sync(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
