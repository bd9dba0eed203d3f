// Command spendwise is a terminal client for the SpendWise API: sign in,
// record transactions, and pull reports from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"golang.org/x/time/rate"

	"github.com/hien-duc/spendwise-go/internal/config"
	"github.com/hien-duc/spendwise-go/pkg/logger"
	"github.com/hien-duc/spendwise-go/services/categories"
	"github.com/hien-duc/spendwise-go/services/reports"
	"github.com/hien-duc/spendwise-go/services/transactions"
	"github.com/hien-duc/spendwise-go/session"
	"github.com/hien-duc/spendwise-go/supabase"
	"github.com/hien-duc/spendwise-go/tokenstore"
	"github.com/hien-duc/spendwise-go/transport"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: spendwise [-config file] <command> [options]

Commands:
  signup        create an account (-email, -password)
  login         sign in (-email, -password)
  logout        sign out and clear the stored token
  status        show the current session state
  categories    list categories (-type income|expense|investment)
  transactions  list transactions (-month, -year)
  add           record a transaction (-category, -type, -amount, -date, -note)
  report        show the monthly report (-month, -year) or annual (-annual -year)
`)
	os.Exit(2)
}

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := wire(cfg)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer app.sessions.Close()

	ctx := context.Background()
	args := flag.Args()[1:]

	switch flag.Arg(0) {
	case "signup":
		app.runSignup(ctx, args)
	case "login":
		app.runLogin(ctx, args)
	case "logout":
		app.runLogout(ctx)
	case "status":
		app.runStatus(ctx)
	case "categories":
		app.runCategories(ctx, args)
	case "transactions":
		app.runTransactions(ctx, args)
	case "add":
		app.runAdd(ctx, args)
	case "report":
		app.runReport(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		usage()
	}
}

// app bundles the wired client.
type app struct {
	sessions     *session.Manager
	categories   *categories.Service
	transactions *transactions.Service
	reports      *reports.Service
}

func wire(cfg *config.Config) (*app, error) {
	logg := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		var err error
		tokenPath, err = tokenstore.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve token path: %w", err)
		}
	}
	tokens, err := tokenstore.NewFileStore(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		sessionPath = filepath.Join(filepath.Dir(tokenPath), "session.json")
	}
	auth, err := supabase.New(supabase.Config{
		URL:         cfg.SupabaseURL,
		AnonKey:     cfg.SupabaseAnonKey,
		SessionPath: sessionPath,
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}

	sessions := session.NewManager(auth, tokens, session.WithLogger(logg))

	client, err := transport.New(transport.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		RequestStages: []transport.RequestStage{
			transport.BearerToken(tokens),
			transport.RequestID(),
			transport.Throttle(rate.NewLimiter(rate.Limit(10), 5)),
		},
		ResponseStages: []transport.ResponseStage{
			transport.Logging(logg),
			transport.AuthInvalidation(sessions, tokens),
		},
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	return &app{
		sessions:     sessions,
		categories:   categories.New(client),
		transactions: transactions.New(client),
		reports:      reports.New(client),
	}, nil
}

// restore settles the session state from persisted storage before a command
// that talks to the resource API runs.
func (a *app) restore(ctx context.Context) {
	if a.sessions.CheckStatus(ctx) != session.StateAuthenticated {
		log.Fatalf("not signed in; run: spendwise login -email you@example.com -password ...")
	}
}

func (a *app) runSignup(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	fs.Parse(args)

	sess, err := a.sessions.SignUp(ctx, *email, *password)
	if err != nil {
		log.Fatalf("sign up: %v", err)
	}
	fmt.Printf("account created: %s (%s)\n", sess.Email, sess.UserID)
}

func (a *app) runLogin(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	fs.Parse(args)

	sess, err := a.sessions.Login(ctx, *email, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("signed in as %s\n", sess.Email)
}

func (a *app) runLogout(ctx context.Context) {
	// Restore first so the remote sign-out has a session to revoke.
	a.sessions.CheckStatus(ctx)
	if err := a.sessions.Logout(ctx); err != nil {
		// Local state is already cleared; the remote call is best-effort.
		log.Printf("remote sign-out failed: %v", err)
	}
	fmt.Println("signed out")
}

func (a *app) runStatus(ctx context.Context) {
	state := a.sessions.CheckStatus(ctx)
	if state != session.StateAuthenticated {
		fmt.Println("not signed in")
		return
	}
	sess := a.sessions.Current()
	fmt.Printf("signed in as %s", sess.Email)
	if !sess.ExpiresAt.IsZero() {
		fmt.Printf(" (token expires %s)", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
}

func (a *app) runCategories(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	categoryType := fs.String("type", "", "Filter by type: income, expense, or investment")
	fs.Parse(args)
	a.restore(ctx)

	list, err := a.categories.GetAll(ctx, *categoryType)
	if err != nil {
		log.Fatalf("list categories: %v", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Type)
	}
	w.Flush()
}

func (a *app) runTransactions(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	month := fs.Int("month", 0, "Calendar month (1-12)")
	year := fs.Int("year", 0, "Calendar year")
	fs.Parse(args)
	a.restore(ctx)

	var (
		list []transactions.Transaction
		err  error
	)
	if *month != 0 || *year != 0 {
		list, err = a.transactions.ListByMonth(ctx, *month, *year)
	} else {
		list, err = a.transactions.GetAll(ctx)
	}
	if err != nil {
		log.Fatalf("list transactions: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tNOTE")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", t.Date, t.Type, t.Amount, t.Note)
	}
	w.Flush()
}

func (a *app) runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	category := fs.String("category", "", "Category id")
	txType := fs.String("type", categories.TypeExpense, "Transaction type")
	amount := fs.Float64("amount", 0, "Amount")
	date := fs.String("date", "", "Transaction date (YYYY-MM-DD)")
	note := fs.String("note", "", "Optional note")
	fs.Parse(args)
	a.restore(ctx)

	created, err := a.transactions.Create(ctx, transactions.Input{
		CategoryID: *category,
		Type:       *txType,
		Amount:     *amount,
		Date:       *date,
		Note:       *note,
	})
	if err != nil {
		log.Fatalf("create transaction: %v", err)
	}
	fmt.Printf("recorded %s of %.2f on %s (%s)\n", created.Type, created.Amount, created.Date, created.ID)
}

func (a *app) runReport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	month := fs.Int("month", 0, "Calendar month (1-12)")
	year := fs.Int("year", 0, "Calendar year")
	annual := fs.Bool("annual", false, "Show the annual report instead of a monthly one")
	fs.Parse(args)
	a.restore(ctx)

	if *annual {
		report, err := a.reports.Annual(ctx, *year)
		if err != nil {
			log.Fatalf("annual report: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE\tINVESTMENT")
		for _, m := range report.Months {
			fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\n", m.Month, m.Income, m.Expense, m.Investment)
		}
		w.Flush()
		return
	}

	report, err := a.reports.Monthly(ctx, *month, *year)
	if err != nil {
		log.Fatalf("monthly report: %v", err)
	}
	fmt.Printf("%d-%02d  income %.2f  expense %.2f  investment %.2f  balance %.2f\n",
		report.Year, report.Month, report.TotalIncome, report.TotalExpense, report.TotalInvestment, report.Balance)
	if len(report.Categories) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tAMOUNT\tSHARE")
		for _, c := range report.Categories {
			fmt.Fprintf(w, "%s\t%.2f\t%.1f%%\n", c.CategoryName, c.Amount, c.Percentage)
		}
		w.Flush()
	}
}
