// Package repl is the line-based terminal client. Slash commands drive the
// same view-models and forms as the HTTP API, under a session persisted
// between runs.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/notify"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/session"
	"mbs-manager/internal/views"
)

var errExit = errors.New("exit")

// Shell is one interactive terminal session.
type Shell struct {
	sess    *session.Provider
	repos   *repository.Set
	changes notify.Changes
	log     *zap.Logger
	in      *bufio.Reader
	out     io.Writer

	feed *notify.Feed
}

func New(sess *session.Provider, repos *repository.Set, changes notify.Changes, log *zap.Logger, in io.Reader, out io.Writer) *Shell {
	return &Shell{sess: sess, repos: repos, changes: changes, log: log, in: bufio.NewReader(in), out: out}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

// readLine returns the next trimmed input line and false at end of input.
func (s *Shell) readLine() (string, bool) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// Run resumes any persisted session and reads commands until /exit or end
// of input.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.sess.Init(ctx); err != nil {
		s.log.Warn("session init failed", zap.Error(err))
	}
	defer s.closeFeed()

	s.println(titleStyle.Render("MBS Manager"))
	if st := s.sess.State(); st.SignedIn() {
		s.greet(ctx)
	} else {
		s.println("Not signed in. Use /login <email> <password> or /signup.")
	}
	s.println(strings.Repeat("-", 70))

	for {
		s.printf("\n> ")
		input, ok := s.readLine()
		if !ok {
			return nil
		}
		if input == "" {
			continue
		}
		if !strings.HasPrefix(input, "/") {
			s.println("Commands start with / (type /help for all commands)")
			continue
		}
		err := s.dispatch(ctx, input)
		if errors.Is(err, errExit) {
			s.println("Au revoir !")
			return nil
		}
		if err != nil {
			s.printError(err)
		}
	}
}

func (s *Shell) printError(err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		s.println(errorStyle.Render(verr.Message))
		return
	}
	s.println(errorStyle.Render("Error: " + err.Error()))
}

// signedOutCommands work without a session.
var signedOutCommands = map[string]bool{
	"login": true, "signup": true, "help": true, "h": true,
	"exit": true, "quit": true, "q": true,
}

func (s *Shell) dispatch(ctx context.Context, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	if !signedOutCommands[cmd] && !s.sess.State().SignedIn() {
		s.println("Please /login first.")
		return nil
	}

	switch cmd {
	case "login":
		if len(args) < 2 {
			s.println("Usage: /login <email> <password>")
			return nil
		}
		if err := s.sess.SignIn(ctx, args[0], args[1]); err != nil {
			return err
		}
		s.greet(ctx)

	case "signup":
		if len(args) < 4 {
			s.println("Usage: /signup <email> <password> <role> <full name>")
			s.println("  Roles: admin, manager, sales, warehouse")
			return nil
		}
		if err := s.sess.SignUp(ctx, args[0], args[1], strings.Join(args[3:], " "), core.Role(args[2])); err != nil {
			return err
		}
		s.greet(ctx)

	case "logout":
		s.closeFeed()
		if err := s.sess.SignOut(ctx); err != nil {
			return err
		}
		s.println("Signed out.")

	case "whoami", "profile":
		printProfile(s.out, s.sess.State())

	case "dashboard":
		v := views.NewDashboard(s.repos, s.log)
		v.Load(ctx)
		printDashboard(s.out, v.Stats(), v.RecentOrders())

	case "inventory", "stock":
		v := views.NewInventory(s.repos, s.log)
		v.Load(ctx)
		v.SetSearch(strings.Join(args, " "))
		printInventory(s.out, v.Visible(), v.Stats())

	case "customers":
		v := views.NewCustomers(s.repos, s.log)
		v.Load(ctx)
		v.SetSearch(strings.Join(args, " "))
		printCustomers(s.out, v.Visible(), v.CountsByType())

	case "suppliers":
		v := views.NewSuppliers(s.repos, s.log)
		v.Load(ctx)
		v.SetSearch(strings.Join(args, " "))
		printSuppliers(s.out, v.Visible())

	case "orders":
		v := views.NewOrders(s.repos, s.log)
		if len(args) > 0 {
			if err := v.SetStatus(args[0]); err != nil {
				return err
			}
			args = args[1:]
		}
		v.Load(ctx)
		v.SetSearch(strings.Join(args, " "))
		printOrders(s.out, v.Visible(), v.Stats())

	case "order":
		if len(args) < 1 {
			s.println("Usage: /order <order-id>")
			return nil
		}
		o, err := s.repos.Orders.Get(ctx, args[0])
		if err != nil {
			return err
		}
		items, err := s.repos.Orders.Items(ctx, o.ID)
		if err != nil {
			return err
		}
		printOrder(s.out, *o, items)

	case "analytics":
		v := views.NewAnalytics(s.repos, s.log)
		v.Load(ctx)
		printAnalytics(s.out, v.Stats())

	case "new-product":
		return s.newProduct(ctx)
	case "new-customer":
		return s.newCustomer(ctx)
	case "new-supplier":
		return s.newSupplier(ctx)
	case "new-order":
		return s.orderWizard(ctx, "")
	case "edit-order":
		if len(args) < 1 {
			s.println("Usage: /edit-order <order-id>")
			return nil
		}
		return s.orderWizard(ctx, args[0])
	case "delete-order":
		if len(args) < 1 {
			s.println("Usage: /delete-order <order-id>")
			return nil
		}
		if !s.confirm(fmt.Sprintf("Delete order %s and its lines?", args[0])) {
			return nil
		}
		if err := views.NewOrders(s.repos, s.log).Delete(ctx, args[0]); err != nil {
			return err
		}
		s.println("Order deleted.")

	case "notifications", "n":
		s.openFeed(ctx)
		printNotifications(s.out, s.feed.Items(), s.feed.UnreadCount())
	case "read":
		s.openFeed(ctx)
		if len(args) < 1 {
			s.println("Usage: /read <notification-id>")
			return nil
		}
		return s.feed.MarkAsRead(ctx, args[0])
	case "read-all":
		s.openFeed(ctx)
		if err := s.feed.MarkAllAsRead(ctx); err != nil {
			return err
		}
		s.println("All notifications marked as read.")
	case "dismiss":
		s.openFeed(ctx)
		if len(args) < 1 {
			s.println("Usage: /dismiss <notification-id>")
			return nil
		}
		return s.feed.Delete(ctx, args[0])

	case "edit-profile":
		return s.editProfile(ctx)
	case "password":
		return s.changePassword(ctx)

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "q":
		return errExit

	default:
		s.printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

func (s *Shell) greet(ctx context.Context) {
	st := s.sess.State()
	name := st.CurrentUser.Email
	if st.Profile != nil {
		name = st.Profile.FullName
	}
	s.printf("Signed in as %s.\n", name)
	s.openFeed(ctx)
	if n := s.feed.UnreadCount(); n > 0 {
		s.println(warnStyle.Render(fmt.Sprintf("%d unread notification(s). Type /notifications.", n)))
	}
}

// openFeed subscribes once per signed-in user; new notifications are
// announced as they arrive.
func (s *Shell) openFeed(ctx context.Context) {
	if s.feed != nil {
		return
	}
	s.feed = notify.NewFeed(s.repos.Notifications, s.changes, s.log)
	s.feed.Open(ctx, s.sess.UserID())
	seen := len(s.feed.Items())
	s.feed.OnChange(func(items []core.Notification) {
		if len(items) > seen && len(items) > 0 {
			s.println()
			s.println(warnStyle.Render("🔔 " + items[0].Title))
		}
		seen = len(items)
	})
}

func (s *Shell) closeFeed() {
	if s.feed != nil {
		s.feed.Close()
		s.feed = nil
	}
}

// confirm asks a yes/no question; anything but y/yes/o/oui is no.
func (s *Shell) confirm(question string) bool {
	s.printf("%s [y/N] ", question)
	ans, _ := s.readLine()
	switch strings.ToLower(ans) {
	case "y", "yes", "o", "oui":
		return true
	}
	return false
}
