// Command postboard is the postboard CLI client.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/GoCodeAlone/postboard/internal/version"
)

const defaultServer = "http://localhost:8080"

func main() {
	var (
		serverURL = flag.String("server", envOr("POSTBOARD_SERVER", defaultServer), "postboard server URL")
		token     = flag.String("token", os.Getenv("POSTBOARD_TOKEN"), "JWT auth token")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		Token:      *token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Out:        os.Stdout,
	}

	if err := run(cli, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cli *Client, cmd string, rest []string) error {
	switch cmd {
	case "version":
		return cli.cmdVersion(rest)
	case "status":
		return cli.cmdStatus(rest)
	case "login":
		return cli.cmdLogin(rest)
	case "logout":
		return cli.cmdLogout(rest)
	case "board":
		return cli.cmdBoard(rest)
	case "brand":
		return cli.cmdBrand(rest)
	case "tasks":
		return cli.cmdTasks(rest)
	case "task":
		return cli.cmdTask(rest)
	case "new":
		return cli.cmdNew(rest)
	case "link":
		return cli.cmdLink(rest)
	case "links":
		return cli.cmdLinks(rest)
	case "done":
		return cli.cmdDone(rest)
	case "posted":
		return cli.cmdPosted(rest)
	case "status-set":
		return cli.cmdSetStatus(rest)
	case "set":
		return cli.cmdSet(rest)
	case "visual":
		return cli.cmdVisual(rest)
	case "rm":
		return cli.cmdRemove(rest)
	case "calendar":
		return cli.cmdCalendar(rest)
	case "ics":
		return cli.cmdICS(rest)
	case "activity":
		return cli.cmdActivity(rest)
	case "serve":
		return fmt.Errorf("use postboardd to run the server")
	}
	usage()
	return fmt.Errorf("unknown command: %s", cmd)
}

func usage() {
	fmt.Fprint(os.Stderr, `postboard: content board CLI

Usage:
  postboard [flags] <command> [args]

Flags:
  --server  <url>    server URL (default: http://localhost:8080, or $POSTBOARD_SERVER)
  --token   <token>  JWT auth token (or $POSTBOARD_TOKEN)

Commands:
  version                          print version
  status                           show server status
  login <user> <password>          log in and print the token
  logout                           end the session
  board                            show the active brand, stats and tasks
  brand <id>                       switch the active brand
  tasks [status]                   list tasks of the active brand
  task <id>                        show one task
  new <Feed|Reels> <date> <title>  create a content task (date may be "-")
  link <url> <title>               register an asset link
  links                            list asset links
  done <id>                        mark a wording-approved task done (agency)
  posted <id>                      mark a finished task posted
  status-set <id> <status>         override a task status (client)
  set <id> <field> <value>         update one field
  visual <id> <file|url>           attach a visual (agency)
  rm <id>                          delete a task
  calendar [+n|-n|YYYY-MM]         show the month view, shifting the cursor by n
  ics                              print the brand calendar as iCalendar
  activity [task-id]               show recent activity
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Client) cmdVersion(_ []string) error {
	fmt.Fprintf(c.Out, "postboard %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.BuildDate)
	return nil
}
