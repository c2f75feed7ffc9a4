package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/newillusions/e-fees-sub005/backend/jsonfile"
	"github.com/newillusions/e-fees-sub005/entities"
	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
)

// app holds the per-entity backends and stores the commands operate on.
type app struct {
	dataDir string
	log     *slog.Logger

	projects  *entitystore.Store[entities.Project]
	rfps      *entitystore.Store[entities.Rfp]
	companies *entitystore.Store[entities.Company]
	contacts  *entitystore.Store[entities.Contact]

	projectBackend *jsonfile.Store[entities.Project]
	rfpBackend     *jsonfile.Store[entities.Rfp]
	companyBackend *jsonfile.Store[entities.Company]
	contactBackend *jsonfile.Store[entities.Contact]
}

func newViper() *viper.Viper {
	v := viper.New()
	if configFile := os.Getenv("EFEES_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("e-fees")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/e-fees")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("EFEES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("data-dir", defaultDataDir())
	v.SetDefault("log-level", "warn")

	_ = v.ReadInConfig()
	return v
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "e-fees")
	}
	return filepath.Join(homeDir, ".local", "share", "e-fees")
}

func newRootCommand() *cobra.Command {
	v := newViper()
	application := &app{}

	rootCmd := &cobra.Command{
		Use:   "e-fees",
		Short: "e-fees - project and fee proposal management",
		Long: `e-fees manages projects, fee proposals (RFPs), companies, and contacts.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (EFEES_*)
3. Configuration file (EFEES_CONFIG, ./e-fees.yaml, ~/.config/e-fees/e-fees.yaml)

Examples:
  # List active projects
  e-fees projects list --filter status=Active

  # Create a company
  e-fees companies create --name "Chelsea Engineering" --abbreviation CHE --city Oslo --country Norway

  # Search contacts
  e-fees contacts list --search john`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logger, err := initLogging(v.GetString("log-level"), v.GetBool("verbose"))
			if err != nil {
				return err
			}
			return application.init(v.GetString("data-dir"), logger)
		},
	}

	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default ~/.local/share/e-fees)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo logs to stderr")

	rootCmd.AddCommand(
		newProjectsCommand(application),
		newRfpsCommand(application),
		newCompaniesCommand(application),
		newContactsCommand(application),
		newExportCommand(application),
	)
	return rootCmd
}

// init wires the JSON-file backends and their synchronization stores. The
// CLI runs non-optimistically: every command waits for its backend call, so
// interim optimistic state would never be observable anyway.
func (a *app) init(dataDir string, logger *slog.Logger) error {
	if dataDir == "" {
		dataDir = defaultDataDir()
	}
	a.dataDir = dataDir
	a.log = logger
	opts := entitystore.Options{Optimistic: false, Logger: logger}

	a.projectBackend = jsonfile.New(filepath.Join(dataDir, "projects.json"), "projects", jsonfile.Config[entities.Project]{
		Ref:    func(p entities.Project) identity.Ref { return p.ID },
		SetRef: func(p entities.Project, r identity.Ref) entities.Project { p.ID = r; return p },
		Touch: func(p entities.Project, created bool, at time.Time) entities.Project {
			if created {
				p.Time.CreatedAt = at
			}
			p.Time.UpdatedAt = at
			return p
		},
	})
	a.rfpBackend = jsonfile.New(filepath.Join(dataDir, "rfps.json"), "rfp", jsonfile.Config[entities.Rfp]{
		Ref:    func(r entities.Rfp) identity.Ref { return r.ID },
		SetRef: func(r entities.Rfp, ref identity.Ref) entities.Rfp { r.ID = ref; return r },
		Touch: func(r entities.Rfp, created bool, at time.Time) entities.Rfp {
			if created {
				r.Time.CreatedAt = at
			}
			r.Time.UpdatedAt = at
			return r
		},
	})
	a.companyBackend = jsonfile.New(filepath.Join(dataDir, "companies.json"), "company", jsonfile.Config[entities.Company]{
		Ref:    func(c entities.Company) identity.Ref { return c.ID },
		SetRef: func(c entities.Company, r identity.Ref) entities.Company { c.ID = r; return c },
		Touch: func(c entities.Company, created bool, at time.Time) entities.Company {
			if created {
				c.Time.CreatedAt = at
			}
			c.Time.UpdatedAt = at
			return c
		},
	})
	a.contactBackend = jsonfile.New(filepath.Join(dataDir, "contacts.json"), "contacts", jsonfile.Config[entities.Contact]{
		Ref:    func(c entities.Contact) identity.Ref { return c.ID },
		SetRef: func(c entities.Contact, r identity.Ref) entities.Contact { c.ID = r; return c },
		Touch: func(c entities.Contact, created bool, at time.Time) entities.Contact {
			if created {
				c.Time.CreatedAt = at
			}
			c.Time.UpdatedAt = at
			return c
		},
	})

	a.projects = entities.NewProjectStore(a.projectBackend, opts)
	a.rfps = entities.NewRfpStore(a.rfpBackend, opts)
	a.companies = entities.NewCompanyStore(a.companyBackend, opts)
	a.contacts = entities.NewContactStore(a.contactBackend, opts)
	return nil
}

// parseFilters turns repeated key=value flags into a filter map.
func parseFilters(pairs []string) (map[string]string, error) {
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}
