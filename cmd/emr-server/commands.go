package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/clinicemr/api/internal/config"
	"github.com/clinicemr/api/internal/domain/user"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/auth"
	"github.com/clinicemr/api/internal/platform/db"
)

// withPool loads config, connects, and hands the pool to fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.MigrationsDir
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				migrator := db.NewMigrator(pool, migrationsDir(cmd, cfg))
				count, err := migrator.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				migrator := db.NewMigrator(pool, migrationsDir(cmd, cfg))
				statuses, err := migrator.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Println("---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func actorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Manage actors",
	}

	createCmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a platform operator that bypasses clinic scoping",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || name == "" {
				return fmt.Errorf("--email and --name are required")
			}
			if len(password) < 8 {
				return fmt.Errorf("--password must be at least 8 characters")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				actor, err := user.NewStore(pool).CreateActor(ctx, user.NewActor{
					Email:        strings.ToLower(strings.TrimSpace(email)),
					Name:         name,
					PasswordHash: hash,
					SystemRole:   access.RoleSuperAdmin,
				})
				if err != nil {
					return fmt.Errorf("create actor: %w", err)
				}
				fmt.Printf("Created superadmin %s (%s)\n", actor.Email, actor.ID)
				return nil
			})
		},
	}
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("password", "", "Initial password (min 8 characters)")
	cmd.AddCommand(createCmd)

	return cmd
}

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect and seed the role catalogue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check every stored role against the permission registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				roles, err := access.VerifyRoles(ctx, user.NewStore(pool))
				if err != nil {
					return err
				}
				fmt.Printf("%-15s %-8s %s\n", "ROLE", "SCOPE", "PERMISSIONS")
				for _, r := range roles {
					fmt.Printf("%-15s %-8s %d\n", r.Name, r.Scope, len(r.Permissions))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Upsert the built-in roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
				roles := access.DefaultRoles()
				if err := user.NewStore(pool).UpsertRoles(ctx, roles); err != nil {
					return fmt.Errorf("sync roles: %w", err)
				}
				fmt.Printf("Synced %d role(s).\n", len(roles))
				return nil
			})
		},
	})

	return cmd
}
