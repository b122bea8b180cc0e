// Command hymn runs hymn scripts, inline source, or an interactive REPL.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	hymn "github.com/xirelogy/go-hymn"
	"github.com/xirelogy/go-hymn/internal/config"
)

// Exit codes follow sysexits.h.
const (
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

func main() {
	disasm := flag.Bool("b", false, "Print the bytecode listing instead of running")
	inline := flag.String("c", "", "Run SOURCE instead of reading a file")
	configPath := flag.String("config", "", "Load settings from PATH (default: nearest "+config.FileName+")")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hymn [options] [FILE]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a hymn script. Without FILE or -c, starts a REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hymn                   # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  hymn main.hm           # Run a script\n")
		fmt.Fprintf(os.Stderr, "  hymn -c 'print 1 + 2'  # Run inline source\n")
		fmt.Fprintf(os.Stderr, "  hymn -b main.hm        # Show bytecode\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitIO)
	}

	verbosity := cfg.Verbosity()
	if *verbose {
		verbosity = 2
	}
	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(verbosity, logPath)
	if cfg.Dir != "" {
		commonlog.GetLogger("hymn").Debugf("using configuration from %s", cfg.Dir)
	}

	switch {
	case *inline != "":
		if flag.NArg() > 0 {
			flag.Usage()
			os.Exit(exitUsage)
		}
		os.Exit(runSource(cfg, *inline, *disasm))
	case flag.NArg() == 1:
		path := flag.Arg(0)
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIO)
		}
		if cfg.Session.Script == "" {
			cfg.Session.Script = path
		}
		os.Exit(runSource(cfg, string(data), *disasm))
	case flag.NArg() > 1:
		flag.Usage()
		os.Exit(exitUsage)
	default:
		if err := runREPL(cfg, *disasm, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitIO)
		}
	}
}

// loadConfig reads path, or the nearest hymn.toml when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// runSource compiles and runs one program and returns the exit code.
func runSource(cfg *config.Config, source string, disasm bool) int {
	session, err := hymn.NewSession(hymn.WithConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	if disasm {
		listing, err := session.CompileAndDisassemble(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitCode(err)
		}
		fmt.Print(listing)
		return 0
	}
	if err := session.CompileAndRun(source); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var diag *hymn.Diagnostic
	if errors.As(err, &diag) {
		return exitCompile
	}
	return exitRuntime
}

// runREPL feeds each input line to one session, so globals carry over
// between lines. Errors are reported and the loop continues.
func runREPL(cfg *config.Config, disasm bool, in io.Reader, out io.Writer) error {
	session, err := hymn.NewSession(hymn.WithConfig(cfg), hymn.WithOutput(out))
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "hymn REPL (type 'exit' to quit, ':help' for commands)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, ":"):
			handleREPLCommand(session, line, out)
			continue
		}

		if disasm {
			listing, err := session.CompileAndDisassemble(line)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprint(out, listing)
			continue
		}
		if err := session.CompileAndRun(line); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if res, ok := session.Result(); ok {
			fmt.Fprintln(out, res)
		}
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// handleREPLCommand handles REPL meta-commands
func handleREPLCommand(session *hymn.Session, cmd string, out io.Writer) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?     Show this help")
		fmt.Fprintln(out, "  :globals          List bound globals")
		fmt.Fprintln(out, "  :builtins         List builtin functions")
		fmt.Fprintln(out, "  :strings          Show the number of interned strings")
		fmt.Fprintln(out, "  exit, quit        Exit REPL")
	case ":globals":
		for _, name := range session.Globals() {
			v, _ := session.Global(name)
			fmt.Fprintf(out, "%s = %s (%s)\n", name, v, v.TypeName())
		}
	case ":builtins":
		for _, b := range hymn.Builtins() {
			fmt.Fprintf(out, "%s/%d\n", b.Name, b.Arity)
		}
	case ":strings":
		fmt.Fprintf(out, "%d interned strings\n", session.Strings())
	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}
