package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newillusions/e-fees-sub005/entities"
	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/query"
)

// listFlags are the shared view controls of every list command.
type listFlags struct {
	search  string
	filters []string
	sortBy  string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Free-text search")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "Filter key=value (repeatable)")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "Sort field[:asc|desc]")
}

// runList drives a store through the requested view state and renders the
// derived view.
func runList[T any](cmd *cobra.Command, store *entitystore.Store[T], flags *listFlags, render func(T) string) error {
	ctx := cmd.Context()
	if err := store.Load(ctx); err != nil {
		return err
	}

	filters, err := parseFilters(flags.filters)
	if err != nil {
		return err
	}
	for key, value := range filters {
		store.SetFilter(ctx, key, value)
	}
	if flags.search != "" {
		store.Search(ctx, flags.search)
	}
	if flags.sortBy != "" {
		field, dirName, _ := strings.Cut(flags.sortBy, ":")
		direction := query.Ascending
		if dirName == "desc" {
			direction = query.Descending
		}
		store.SetSort(field, direction)
	}

	state := store.State()
	for _, item := range state.View {
		fmt.Fprintln(cmd.OutOrStdout(), render(item))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(state.View), len(state.Items))
	return nil
}

// runUpdate applies --set key=value pairs as a patch to one entity.
func runUpdate[T any](cmd *cobra.Command, store *entitystore.Store[T], id string, sets []string) error {
	ctx := cmd.Context()
	if err := store.Load(ctx); err != nil {
		return err
	}
	pairs, err := parseFilters(sets)
	if err != nil {
		return err
	}
	patch := make(entitystore.Patch, len(pairs))
	for key, value := range pairs {
		patch[key] = value
	}
	_, err = store.Update(ctx, identity.PlainRef(id), patch)
	return err
}

func runDelete[T any](cmd *cobra.Command, store *entitystore.Store[T], id string) error {
	ctx := cmd.Context()
	if err := store.Load(ctx); err != nil {
		return err
	}
	return store.Delete(ctx, identity.PlainRef(id))
}

func newUpdateCommand[T any](store func() *entitystore.Store[T]) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, store(), args[0], sets)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field to set, key=value (repeatable)")
	return cmd
}

func newDeleteCommand[T any](store func() *entitystore.Store[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, store(), args[0])
		},
	}
}

func newProjectsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Manage projects"}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a.projects, &list, func(p entities.Project) string {
				return fmt.Sprintf("%-10s %-12s %-30s %s, %s", p.Number.ID, p.Status, p.Name, p.City, p.Country)
			})
		},
	}
	list.register(listCmd)

	var create entities.Project
	var number string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := entities.ParseProjectNumber(number)
			if err != nil {
				return err
			}
			create.Number = parsed
			if create.Status == "" {
				create.Status = entities.ProjectStatusDraft
			}
			if create.Stage == "" {
				create.Stage = entities.ProjectStageConcept
			}
			if err := create.Validate(); err != nil {
				return err
			}
			created, err := a.projects.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Project name")
	createCmd.Flags().StringVar(&create.NameShort, "name-short", "", "Short name")
	createCmd.Flags().StringVar(&create.Activity, "activity", entities.ActivityDesignAndConsultancy, "Activity")
	createCmd.Flags().StringVar(&create.Package, "package", "", "Package")
	createCmd.Flags().StringVar(&create.Status, "status", "", "Status")
	createCmd.Flags().StringVar(&create.Stage, "stage", "", "Stage")
	createCmd.Flags().StringVar(&create.Area, "area", "", "Area")
	createCmd.Flags().StringVar(&create.City, "city", "", "City")
	createCmd.Flags().StringVar(&create.Country, "country", "", "Country")
	createCmd.Flags().StringVar(&create.Folder, "folder", "", "Project folder")
	createCmd.Flags().StringVar(&number, "number", "", "Project number, YY-CCCNN")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("number")

	cmd.AddCommand(listCmd, createCmd,
		newUpdateCommand(func() *entitystore.Store[entities.Project] { return a.projects }),
		newDeleteCommand(func() *entitystore.Store[entities.Project] { return a.projects }))
	return cmd
}

func newRfpsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "rfps", Short: "Manage fee proposals"}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List fee proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a.rfps, &list, func(r entities.Rfp) string {
				return fmt.Sprintf("%-12s %-10s %-8s %s", r.Number, r.Status, r.IssueDate, r.Name)
			})
		},
	}
	list.register(listCmd)

	var create entities.Rfp
	var projectID, companyID, contactID string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a fee proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			create.ProjectID = identity.PlainRef(projectID)
			create.CompanyID = identity.PlainRef(companyID)
			create.ContactID = identity.PlainRef(contactID)
			if create.Status == "" {
				create.Status = entities.RfpStatusDraft
			}
			if create.Stage == "" {
				create.Stage = entities.RfpStageDraft
			}
			if err := create.Validate(); err != nil {
				return err
			}
			created, err := a.rfps.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Proposal name")
	createCmd.Flags().StringVar(&create.Number, "number", "", "Proposal number")
	createCmd.Flags().StringVar(&create.IssueDate, "issue-date", "", "Issue date, YYMMDD")
	createCmd.Flags().StringVar(&projectID, "project", "", "Project record id")
	createCmd.Flags().StringVar(&companyID, "company", "", "Company record id")
	createCmd.Flags().StringVar(&contactID, "contact", "", "Contact record id")
	createCmd.Flags().StringVar(&create.Status, "status", "", "Status")
	createCmd.Flags().StringVar(&create.Stage, "stage", "", "Stage")
	createCmd.Flags().StringVar(&create.StrapLine, "strap-line", "", "Strap line")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("issue-date")

	cmd.AddCommand(listCmd, createCmd,
		newUpdateCommand(func() *entitystore.Store[entities.Rfp] { return a.rfps }),
		newDeleteCommand(func() *entitystore.Store[entities.Rfp] { return a.rfps }))
	return cmd
}

func newCompaniesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "companies", Short: "Manage companies"}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a.companies, &list, func(c entities.Company) string {
				return fmt.Sprintf("%-6s %-30s %s, %s", c.Abbreviation, c.Name, c.City, c.Country)
			})
		},
	}
	list.register(listCmd)

	var create entities.Company
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := create.Validate(); err != nil {
				return err
			}
			created, err := a.companies.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Company name")
	createCmd.Flags().StringVar(&create.NameShort, "name-short", "", "Short name")
	createCmd.Flags().StringVar(&create.Abbreviation, "abbreviation", "", "Abbreviation")
	createCmd.Flags().StringVar(&create.City, "city", "", "City")
	createCmd.Flags().StringVar(&create.Country, "country", "", "Country")
	createCmd.Flags().StringVar(&create.RegNo, "reg-no", "", "Registration number")
	createCmd.Flags().StringVar(&create.TaxNo, "tax-no", "", "Tax number")
	_ = createCmd.MarkFlagRequired("name")

	cmd.AddCommand(listCmd, createCmd,
		newUpdateCommand(func() *entitystore.Store[entities.Company] { return a.companies }),
		newDeleteCommand(func() *entitystore.Store[entities.Company] { return a.companies }))
	return cmd
}

func newContactsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "contacts", Short: "Manage contacts"}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve company references to display names for the listing.
			if err := a.companies.Load(cmd.Context()); err != nil {
				return err
			}
			directory := entities.NewCompanyDirectory(a.companies.State().Items)
			return runList(cmd, a.contacts, &list, func(c entities.Contact) string {
				return fmt.Sprintf("%-20s %-30s %s", c.FirstName+" "+c.LastName, c.Email, directory.Name(c.Company))
			})
		},
	}
	list.register(listCmd)

	var create entities.Contact
	var companyID string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			create.Company = identity.PlainRef(companyID)
			if err := create.Validate(); err != nil {
				return err
			}
			created, err := a.contacts.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", created.FirstName, created.LastName, created.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.FirstName, "first-name", "", "First name")
	createCmd.Flags().StringVar(&create.LastName, "last-name", "", "Last name")
	createCmd.Flags().StringVar(&create.Email, "email", "", "Email")
	createCmd.Flags().StringVar(&create.Phone, "phone", "", "Phone, international format")
	createCmd.Flags().StringVar(&create.Position, "position", "", "Position")
	createCmd.Flags().StringVar(&companyID, "company", "", "Company record id")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("phone")

	cmd.AddCommand(listCmd, createCmd,
		newUpdateCommand(func() *entitystore.Store[entities.Contact] { return a.contacts }),
		newDeleteCommand(func() *entitystore.Store[entities.Contact] { return a.contacts }))
	return cmd
}
