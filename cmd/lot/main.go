// Command lot is the terminal client of the thing library. Each command
// opens a session scope, loads what its view needs and prints it.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fkhayef/thinglibrary/internal/state"
)

func main() {
	godotenv.Load()

	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", state.Message(err))
		os.Exit(1)
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lot", "session.json")
}

func newApp(out, errOut io.Writer) *cli.App {
	a := &app{out: out}

	cliApp := cli.NewApp()
	cliApp.Name = "lot"
	cliApp.Usage = "lend things, post requests and share them with your groups"
	cliApp.Version = "1.0.0"
	cliApp.EnableBashCompletion = true
	cliApp.Writer = out
	cliApp.ErrWriter = errOut
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api",
			Value:  "http://localhost:8080/api/v1",
			Usage:  "base URL of the API",
			EnvVar: "LOT_API_URL",
		},
		cli.StringFlag{
			Name:   "token-file",
			Value:  defaultTokenFile(),
			Usage:  "where the session is kept between runs",
			EnvVar: "LOT_TOKEN_FILE",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "warn",
			Usage:  "debug, info, warn or error",
			EnvVar: "LOG_LEVEL",
		},
	}
	cliApp.Before = a.setup
	cliApp.CommandNotFound = func(c *cli.Context, command string) {
		fmt.Fprintf(c.App.Writer, "unknown command %q\n", command)
		cli.ShowAppHelp(c)
	}
	cliApp.Commands = a.commands()
	return cliApp
}
