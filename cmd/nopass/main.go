package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/nopass/internal/auth/app"
	"github.com/aussiebroadwan/nopass/internal/auth/service"
)

const usage = `usage: nopass [command] [flags]

commands:
  serve        run the login code service (default)
  useradd      create an account: -username NAME -email ADDR [-inactive]
  activate     enable an account: -username NAME
  deactivate   disable an account: -username NAME
`

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		serve(cfg)
	case "useradd":
		err = useradd(cfg, args)
	case "activate":
		err = setActive(cfg, "activate", args, true)
	case "deactivate":
		err = setActive(cfg, "deactivate", args, false)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func serve(cfg app.Config) {
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func accounts(ctx context.Context, cfg app.Config) (*service.AccountService, func(), error) {
	db, err := app.OpenStore(ctx, cfg, app.NewLogger(cfg))
	if err != nil {
		return nil, nil, err
	}
	return &service.AccountService{Store: db}, func() { _ = db.Close() }, nil
}

func useradd(cfg app.Config, args []string) error {
	fs := flag.NewFlagSet("useradd", flag.ExitOnError)
	username := fs.String("username", "", "case-sensitive username")
	email := fs.String("email", "", "address login codes are sent to")
	inactive := fs.Bool("inactive", false, "create the account disabled")
	_ = fs.Parse(args)

	ctx := context.Background()
	svc, closeStore, err := accounts(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	u, err := svc.CreateUser(ctx, *username, *email, !*inactive)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (%s) active=%t\n", u.Username, u.ID, u.Active)
	return nil
}

func setActive(cfg app.Config, name string, args []string, active bool) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	username := fs.String("username", "", "case-sensitive username")
	_ = fs.Parse(args)

	ctx := context.Background()
	svc, closeStore, err := accounts(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	u, err := svc.SetActive(ctx, *username, active)
	if err != nil {
		return err
	}
	fmt.Printf("user %s (%s) active=%t\n", u.Username, u.ID, u.Active)
	return nil
}
