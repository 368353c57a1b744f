// make-admin — служебная утилита для выдачи/снятия прав администратора.
// Админ-флаг меняется только отсюда: у публичного API такой операции нет.
//
// Примеры:
//
//	make-admin -config local.yaml -grant user@example.com
//	make-admin -config local.yaml -revoke user@example.com
//	make-admin -config local.yaml -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/savemate/auth-service/internal/config"
	"github.com/savemate/auth-service/internal/storage"
	"github.com/savemate/auth-service/internal/storage/postgres"
)

func main() {
	var (
		configPath string
		grant      string
		revoke     string
		list       bool
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&grant, "grant", "", "email or username to grant admin")
	flag.StringVar(&revoke, "revoke", "", "email or username to revoke admin")
	flag.BoolVar(&list, "list", false, "list all admins")
	flag.Parse()

	if err := run(configPath, grant, revoke, list); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, grant, revoke string, list bool) error {
	actions := 0
	if grant != "" {
		actions++
	}
	if revoke != "" {
		actions++
	}
	if list {
		actions++
	}
	if actions != 1 {
		return errors.New("specify exactly one of -grant, -revoke, -list")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	str, err := postgres.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		return err
	}
	defer str.Close()

	if list {
		return listAdmins(ctx, str)
	}

	identifier, admin := grant, true
	if revoke != "" {
		identifier, admin = revoke, false
	}

	return setAdmin(ctx, str, identifier, admin)
}

func setAdmin(ctx context.Context, str storage.Storage, identifier string, admin bool) error {
	user, err := str.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user %q not found", identifier)
		}

		return err
	}

	if user.IsAdmin == admin {
		fmt.Printf("user %s (%s): admin=%v, nothing to do\n", user.Email, user.Username, user.IsAdmin)
		return nil
	}

	if err := str.SetAdmin(ctx, user.ID, admin); err != nil {
		return err
	}

	fmt.Printf("user %s (%s): admin=%v\n", user.Email, user.Username, admin)
	return nil
}

func listAdmins(ctx context.Context, str storage.Storage) error {
	admins, err := str.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if len(admins) == 0 {
		fmt.Println("no admins")
		return nil
	}

	for _, u := range admins {
		fmt.Printf("%s\t%s\t%s\tactive=%v\n", u.ID, u.Email, u.Username, u.IsActive)
	}
	return nil
}
