// Package console is the minimal interactive front-end standing in for
// the graphical client. It is the single presentation consumer: poller
// deliveries and mutation results both funnel into Render.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"deskchat/internal/session"
	"deskchat/internal/transcript"
)

// UI runs the command loop over a session controller.
type UI struct {
	ctrl *session.Controller
	in   *bufio.Scanner
	out  io.Writer
}

// New constructs a UI reading commands from in and writing to out.
func New(ctrl *session.Controller, in io.Reader, out io.Writer) *UI {
	return &UI{
		ctrl: ctrl,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

// Render prints one transcript. Safe to call from the refresh poller's
// delivery callback.
func (u *UI) Render(entries []transcript.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(u.out, "(no messages)")
		return
	}
	for _, e := range entries {
		name := e.SenderName
		if e.Own {
			name = "You"
		}
		line := fmt.Sprintf("#%d [%s] %s: %s", e.MessageID, e.TimeLabel, name, e.Body)
		if e.AttachmentName != "" {
			line += fmt.Sprintf(" [%s: %s]", e.AttachmentType, e.AttachmentName)
		}
		if e.Edited {
			line += " (edited)"
		}
		fmt.Fprintln(u.out, line)
	}
}

// Run processes commands until quit or EOF.
func (u *UI) Run(ctx context.Context) {
	fmt.Fprintln(u.out, "deskchat (type 'help' for commands)")
	for {
		fmt.Fprint(u.out, "> ")
		if !u.in.Scan() {
			u.ctrl.Logout(ctx)
			return
		}
		fields := strings.Fields(u.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			u.ctrl.Logout(ctx)
			return
		}
		if err := u.dispatch(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(u.out, "error: %v\n", err)
		}
	}
}

func (u *UI) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		u.printHelp()
		return nil

	case "register":
		if len(args) < 3 {
			return fmt.Errorf("usage: register <username> <password> <confirm> [email]")
		}
		email := ""
		if len(args) > 3 {
			email = args[3]
		}
		user, err := u.ctrl.Register(ctx, args[0], args[1], args[2], email)
		if err != nil {
			return err
		}
		fmt.Fprintf(u.out, "account created: %s (#%d)\n", user.Username, user.ID)
		return nil

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		user, err := u.ctrl.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(u.out, "welcome, %s\n", user.Username)
		return nil

	case "logout":
		u.ctrl.Logout(ctx)
		fmt.Fprintln(u.out, "logged out")
		return nil

	case "users":
		users, err := u.ctrl.Users(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, usr := range users {
			fmt.Fprintf(u.out, "#%d %s\n", usr.ID, usr.Username)
		}
		return nil

	case "groups":
		groups, err := u.ctrl.Groups(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Fprintf(u.out, "#%d %s (%d members) %s\n", g.ID, g.Name, g.MemberCount, g.Description)
		}
		return nil

	case "newgroup":
		if len(args) < 1 {
			return fmt.Errorf("usage: newgroup <name> [description]")
		}
		group, err := u.ctrl.CreateGroup(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(u.out, "group created: %s (#%d)\n", group.Name, group.ID)
		return nil

	case "join":
		id, err := parseID(args, "join <group-id>")
		if err != nil {
			return err
		}
		return u.ctrl.JoinGroup(ctx, id)

	case "open":
		if len(args) != 2 {
			return fmt.Errorf("usage: open user|group <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		var entries []transcript.Entry
		switch args[0] {
		case "user":
			entries, err = u.ctrl.SelectUser(ctx, id)
		case "group":
			entries, err = u.ctrl.SelectGroup(ctx, id)
		default:
			return fmt.Errorf("usage: open user|group <id>")
		}
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	case "send":
		if len(args) == 0 {
			return fmt.Errorf("usage: send <text>")
		}
		entries, err := u.ctrl.Send(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	case "edit":
		if len(args) < 2 {
			return fmt.Errorf("usage: edit <message-id> <text>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid message id %q", args[0])
		}
		entries, err := u.ctrl.Edit(ctx, id, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	case "rm":
		id, err := parseID(args, "rm <message-id>")
		if err != nil {
			return err
		}
		entries, err := u.ctrl.Delete(ctx, id)
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	case "attach":
		if len(args) < 1 {
			return fmt.Errorf("usage: attach <path> [caption]")
		}
		entries, err := u.ctrl.Attach(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	case "show":
		entries, err := u.ctrl.Transcript(ctx)
		if err != nil {
			return err
		}
		u.Render(entries)
		return nil

	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

func (u *UI) printHelp() {
	fmt.Fprint(u.out, `commands:
  register <username> <password> <confirm> [email]
  login <username> <password>
  logout
  users [search]            list other accounts
  groups [search]           list your groups
  newgroup <name> [desc]    create a group (you become admin)
  join <group-id>
  open user|group <id>      open a conversation
  send <text>
  edit <message-id> <text>
  rm <message-id>           delete one of your messages
  attach <path> [caption]
  show                      redraw the open conversation
  quit
`)
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
