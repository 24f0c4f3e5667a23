package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"hunteros-backend/internal/api/v1/templates"
	"hunteros-backend/internal/templatestore"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(client *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Template store commands",
	}

	cmd.AddCommand(
		newTemplatesListCmd(client),
		newTemplatesGetCmd(client),
		newTemplatesVersionsCmd(client),
		newTemplatesPushCmd(client),
		newTemplatesDeleteCmd(client),
	)
	return cmd
}

func (o *clientOptions) store() *templatestore.Client {
	return templatestore.NewClient(o.server, o.token, nil)
}

func newTemplatesListCmd(client *clientOptions) *cobra.Command {
	var opts templatestore.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := client.store().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No templates found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tVERSION\tPUBLIC\tUPDATED")
			for _, t := range page.Items {
				name := t.Name
				if len(name) > 40 {
					name = name[:37] + "..."
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%t\t%s\n", t.ID, name, t.Version, t.IsPublic, t.UpdatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()

			fmt.Fprintf(out, "\nShowing %d of %d templates\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "mine, public or all")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Match name or description")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Page size")
	return cmd
}

func newTemplatesGetCmd(client *clientOptions) *cobra.Command {
	var codeOnly bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := client.store().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get template: %w", err)
			}

			out := cmd.OutOrStdout()
			if codeOnly {
				fmt.Fprint(out, t.Code)
				return nil
			}
			fmt.Fprintf(out, "ID:          %d\n", t.ID)
			fmt.Fprintf(out, "Name:        %s\n", t.Name)
			fmt.Fprintf(out, "Description: %s\n", t.Description)
			fmt.Fprintf(out, "Owner:       %d\n", t.UserID)
			fmt.Fprintf(out, "Public:      %t\n", t.IsPublic)
			fmt.Fprintf(out, "Version:     %d\n", t.Version)
			fmt.Fprintf(out, "Updated:     %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "\n%s\n", t.Code)
			return nil
		},
	}

	cmd.Flags().BoolVar(&codeOnly, "code", false, "Print only the template code")
	return cmd
}

func newTemplatesVersionsCmd(client *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <id>",
		Short: "List a template's version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			versions, err := client.store().Versions(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to list versions: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tSIZE\tCREATED")
			for _, v := range versions {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", v.Version, v.Name, len(v.Code), v.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

type pushOptions struct {
	id          uint
	name        string
	description string
	public      bool
}

func newTemplatesPushCmd(client *clientOptions) *cobra.Command {
	opts := &pushOptions{}

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Create a template from a file, or update one with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read code: %w", err)
			}
			code := string(raw)
			store := client.store()

			if opts.id == 0 {
				if opts.name == "" {
					return fmt.Errorf("--name is required when creating a template")
				}
				t, err := store.Create(cmd.Context(), templates.CreateTemplateRequest{
					Name:        opts.name,
					Description: opts.description,
					Code:        code,
					IsPublic:    opts.public,
				})
				if err != nil {
					return fmt.Errorf("failed to create template: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created template %d (%s) version %d\n", t.ID, t.Name, t.Version)
				return nil
			}

			req := templates.UpdateTemplateRequest{Code: &code}
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.Name = &opts.name
			}
			if flags.Changed("description") {
				req.Description = &opts.description
			}
			if flags.Changed("public") {
				req.IsPublic = &opts.public
			}
			t, err := store.Update(cmd.Context(), opts.id, req)
			if err != nil {
				return fmt.Errorf("failed to update template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated template %d (%s) version %d\n", t.ID, t.Name, t.Version)
			return nil
		},
	}

	cmd.Flags().UintVar(&opts.id, "id", 0, "Existing template to update")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Template name")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Template description")
	cmd.Flags().BoolVar(&opts.public, "public", false, "Publish the template (administrators only)")
	return cmd
}

func newTemplatesDeleteCmd(client *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template; bound widgets fall back to their own code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.store().Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template %d deleted\n", id)
			return nil
		},
	}
}
