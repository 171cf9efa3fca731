package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	auditService "github.com/jwalitptl/clinic-api/internal/service/audit"
	userService "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Operator tooling for the clinic API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "directory containing config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openDB(cmd *cobra.Command) (*sqlx.DB, error) {
	var paths []string
	if dir, _ := cmd.Flags().GetString("config"); dir != "" {
		paths = append(paths, dir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("clinicctl needs database.driver postgres, got %q", cfg.Database.Driver)
	}
	return postgres.NewDB(cfg.Database)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("Schema is up to date.")
				return nil
			}
			for _, v := range applied {
				fmt.Printf("Applied %s\n", v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			states, err := postgres.Status(cmd.Context(), db)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tAPPLIED AT")
			for _, s := range states {
				at := "pending"
				if s.Applied() {
					at = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\n", s.Version, at)
			}
			return w.Flush()
		},
	})
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage clinic users",
	}

	var req model.CreateUserRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user with a role (doctors also get a doctor record)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			store := postgres.NewStore(db)
			svc := userService.NewService(store.Users, store.Doctors,
				security.NewBcryptHasher(bcrypt.DefaultCost), auditService.NewService(store.AuditLogs))

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			operator := model.Principal{Role: model.RoleAdmin, DisplayName: "clinicctl"}
			u, err := svc.CreateUser(ctx, operator, req)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("User created")
			fmt.Printf("Created %s %s <%s> as %s (%s)\n", u.FirstName, u.LastName, u.Email, u.Role, u.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&req.Email, "email", "", "login email")
	f.StringVar(&req.Password, "password", "", "initial password (min 8 characters)")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Role, "role", "patient", "patient, doctor, staff or admin")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	f.StringVar(&req.SpecializationID, "specialization", "", "specialization id for doctors")
	f.StringVar(&req.Description, "description", "", "doctor profile text")
	for _, name := range []string{"email", "password", "first-name", "last-name"} {
		_ = create.MarkFlagRequired(name)
	}

	cmd.AddCommand(create)
	return cmd
}
