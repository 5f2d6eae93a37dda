package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mbs-manager/internal/adapters/repl"
	"mbs-manager/internal/auth"
	"mbs-manager/internal/core"
	"mbs-manager/internal/notify"
	"mbs-manager/internal/realtime"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/session"
	"mbs-manager/internal/store"
	"mbs-manager/internal/views"
	"mbs-manager/migrations"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func newReplCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive terminal client (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), e)
		},
	}
}

// runREPL resumes the session saved in SESSION_FILE and streams live
// notifications while the shell runs.
func runREPL(ctx context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client, err := e.connect(ctx)
	if err != nil {
		return err
	}
	feed := store.NewFeed(client, e.cfg.Realtime.Channel, e.log)
	go func() {
		if err := feed.Run(ctx); err != nil {
			e.log.Warn("change feed stopped", zap.Error(err))
		}
	}()

	repos := repository.New(client)
	authSvc := auth.NewService(client, auth.NewTokens(e.cfg.Auth.JWTSecret, e.cfg.Auth.SessionTTL))
	sess := session.NewProvider(authSvc, repos.Profiles, session.FileTokenStore{Path: e.cfg.Auth.SessionFile}, e.log)
	defer sess.Dispose()

	shell := repl.New(sess, repos, realtime.NewHub(feed, e.log), e.log, os.Stdin, os.Stdout)
	return shell.Run(ctx)
}

func newMigrateCmd(e *env) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Apply the embedded schema. Every statement is idempotent, so the
command is safe to run against an existing database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Fprint(cmd.OutOrStdout(), migrations.ForChannel(e.cfg.Realtime.Channel))
				return nil
			}
			if _, err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := migrations.Apply(cmd.Context(), e.pool, e.cfg.Realtime.Channel); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ schema applied"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the schema instead of applying it")
	return cmd
}

func newStockCmd(e *env) *cobra.Command {
	var lowOnly bool
	cmd := &cobra.Command{
		Use:   "stock [search]",
		Short: "Print stock levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			v := views.NewInventory(repository.New(client), e.log)
			v.Load(cmd.Context())
			if err := v.LastError(); err != nil {
				return err
			}
			v.SetSearch(strings.Join(args, " "))

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("SKU", "PRODUIT", "DISPO", "MIN", "STATUT")
			for _, r := range v.Visible() {
				status := r.Status()
				if lowOnly && status == core.StockNormal {
					continue
				}
				style := okStyle
				switch status {
				case core.StockOut:
					style = badStyle
				case core.StockLow:
					style = warnStyle
				}
				t.Row(r.ProductSKU, r.ProductName, strconv.Itoa(r.Available()), strconv.Itoa(r.MinStockLevel), style.Render(status.Label()))
			}
			st := v.Stats()
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			fmt.Fprintf(cmd.OutOrStdout(), "%d produits, %d en stock faible, valeur %s €\n", st.Products, st.LowStock, st.StockValue.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lowOnly, "low", false, "Only rows at or below their minimum")
	return cmd
}

func newNotifyCmd(e *env) *cobra.Command {
	var (
		to, title, message, kind, link string
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a notification to a user",
		Long: `Insert a notification for one user, addressed by id or email. Connected
clients receive it through the change feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			repos := repository.New(client)
			userID, err := resolveUser(cmd.Context(), repos.Profiles, to)
			if err != nil {
				return err
			}
			n, err := notify.NewService(repos.Notifications, nil, e.log).Publish(cmd.Context(), repository.NotificationInput{
				UserID:  userID,
				Title:   title,
				Message: message,
				Type:    core.NotificationType(kind),
				Link:    link,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ notification "+n.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient user id or email")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&message, "message", "", "Message body")
	cmd.Flags().StringVar(&kind, "type", string(core.NotificationInfo), "info, success, warning or error")
	cmd.Flags().StringVar(&link, "link", "", "Optional in-app link")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// resolveUser accepts a profile id or an email address.
func resolveUser(ctx context.Context, profiles repository.ProfileRepository, to string) (string, error) {
	if !strings.Contains(to, "@") {
		return to, nil
	}
	all, err := profiles.List(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range all {
		if strings.EqualFold(p.Email, to) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no user with email %s: %w", to, core.ErrNotFound)
}
