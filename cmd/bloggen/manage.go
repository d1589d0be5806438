package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/pipeline"
	"github.com/Guidantas28/blog-generator/internal/secrets"
	"github.com/Guidantas28/blog-generator/internal/wordpress"
)

const timeLayout = "2006-01-02 15:04"

// --- sites command ---

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage WordPress sites",
}

var (
	sitePassword string
	siteCTAText  string
	siteCTALink  string
)

var sitesAddCmd = &cobra.Command{
	Use:   "add [name] [url] [username]",
	Short: "Register a WordPress site using an application password",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url, username := args[0], strings.TrimRight(args[1], "/"), args[2]
		if !wordpress.ValidateSiteURL(url) {
			return fmt.Errorf("invalid site URL %q: must be an http(s) URL", url)
		}

		password := sitePassword
		if password == "" {
			password = os.Getenv("BLOGGEN_SITE_PASSWORD")
		}
		if password == "" {
			return errors.New("an application password is required (--password or $BLOGGEN_SITE_PASSWORD)")
		}
		if (siteCTAText == "") != (siteCTALink == "") {
			return errors.New("--cta-text and --cta-link must be given together")
		}

		cipher, err := pipeline.OpenCipher(cfg)
		if errors.Is(err, secrets.ErrNoKey) {
			return fmt.Errorf("set $%s before storing site passwords", cfg.Security.SecretKeyEnv)
		}
		if err != nil {
			return err
		}
		sealed, err := cipher.Encrypt(password)
		if err != nil {
			return fmt.Errorf("encrypting password: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		site := database.Site{
			UserID:            userID,
			Name:              name,
			URL:               url,
			Username:          username,
			PasswordEncrypted: sealed,
		}
		if siteCTAText != "" {
			site.CTAText = &siteCTAText
			site.CTALink = &siteCTALink
		}
		created, err := db.InsertSite(cmd.Context(), site)
		if err != nil {
			return err
		}
		fmt.Printf("Added site %s: %s (%s)\n", created.ID, created.Name, created.URL)
		return nil
	},
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sites, err := db.ListSites(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if len(sites) == 0 {
			fmt.Println("No sites registered. Add one with: bloggen sites add")
			return nil
		}

		for _, s := range sites {
			fmt.Printf("  %s  %s  %s\n", s.ID, styles.title.Render(s.Name), s.URL)
			if s.CTAText != nil && s.CTALink != nil {
				fmt.Printf("        CTA: %s -> %s\n", *s.CTAText, *s.CTALink)
			}
		}
		return nil
	},
}

var sitesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a site and its automations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteSite(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed site %s\n", args[0])
		return nil
	},
}

var sitesDeletePostCmd = &cobra.Command{
	Use:   "delete-post [site-id] [wordpress-post-id]",
	Short: "Permanently delete a post from a site",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid post ID: %s", args[1])
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		site, err := db.GetSite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		client, err := siteClient(site)
		if err != nil {
			return err
		}
		if err := client.DeletePost(cmd.Context(), postID); err != nil {
			return err
		}
		fmt.Printf("Deleted post %d from %s\n", postID, site.Name)
		return nil
	},
}

// siteClient opens a WordPress session with the site's stored password.
func siteClient(site *database.Site) (*wordpress.Client, error) {
	var (
		password string
		err      error
	)
	cipher, cerr := pipeline.OpenCipher(cfg)
	switch {
	case cerr == nil:
		password, err = cipher.Decrypt(site.PasswordEncrypted)
	case errors.Is(cerr, secrets.ErrNoKey):
		password, err = secrets.DecodeLegacy(site.PasswordEncrypted)
	default:
		return nil, cerr
	}
	if err != nil {
		return nil, fmt.Errorf("decrypting site credentials: %w", err)
	}
	return wordpress.NewClient(site.URL, site.Username, password)
}

func init() {
	sitesAddCmd.Flags().StringVar(&sitePassword, "password", "", "WordPress application password")
	sitesAddCmd.Flags().StringVar(&siteCTAText, "cta-text", "", "Call-to-action text for this site")
	sitesAddCmd.Flags().StringVar(&siteCTALink, "cta-link", "", "Call-to-action link for this site")

	sitesCmd.AddCommand(sitesAddCmd)
	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesRemoveCmd)
	sitesCmd.AddCommand(sitesDeletePostCmd)
}

// --- automations command ---

var automationsCmd = &cobra.Command{
	Use:   "automations",
	Short: "Manage scheduled automations",
}

var (
	autoFrequency   string
	autoDaysPerWeek int
	autoDays        []string
)

var automationsAddCmd = &cobra.Command{
	Use:   "add [site-id] [business category]",
	Short: "Schedule draft posts for a site",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := database.AutomationSetting{
			UserID:           userID,
			SiteID:           args[0],
			BusinessCategory: strings.TrimSpace(args[1]),
			DaysPerWeek:      autoDaysPerWeek,
			Frequency:        strings.ToLower(strings.TrimSpace(autoFrequency)),
			SelectedDays:     autoDays,
		}
		if len(autoDays) > 0 && !cmd.Flags().Changed("days-per-week") {
			setting.DaysPerWeek = len(autoDays)
		}
		if err := automation.ValidateSetting(setting); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.GetSite(cmd.Context(), setting.SiteID); err != nil {
			return err
		}
		created, err := db.InsertAutomation(cmd.Context(), setting)
		if err != nil {
			return err
		}
		fmt.Printf("Added automation %s: %s, %s\n", created.ID, created.BusinessCategory, created.Frequency)
		return nil
	},
}

var automationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List automations and their last completed run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.ListAutomations(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No automations configured. Add one with: bloggen automations add")
			return nil
		}

		for _, a := range items {
			last := styles.hint.Render("never")
			due := styles.success.Render("due")
			exec, err := db.LastCompletedExecution(cmd.Context(), a.ID)
			switch {
			case err == nil:
				last = exec.StartedAt.Local().Format(timeLayout)
				if !automation.ShouldRun(automation.Frequency(a.Frequency), &exec.StartedAt, time.Now()) {
					due = styles.hint.Render("waiting")
				}
			case !errors.Is(err, database.ErrNotFound):
				return err
			}

			fmt.Printf("  %s  %s\n", a.ID, styles.title.Render(a.BusinessCategory))
			fmt.Printf("        site %s, %s, %d day(s)/week", a.SiteID, a.Frequency, a.DaysPerWeek)
			if len(a.SelectedDays) > 0 {
				fmt.Printf(" (%s)", strings.Join(a.SelectedDays, ", "))
			}
			fmt.Printf("\n        last run: %s  [%s]\n", last, due)
		}
		return nil
	},
}

var automationsRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove an automation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteAutomation(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed automation %s\n", args[0])
		return nil
	},
}

func init() {
	automationsAddCmd.Flags().StringVar(&autoFrequency, "frequency", string(automation.Weekly), "weekly, biweekly or monthly")
	automationsAddCmd.Flags().IntVar(&autoDaysPerWeek, "days-per-week", 1, "Posting days per week")
	automationsAddCmd.Flags().StringSliceVar(&autoDays, "days", nil, "Preferred weekdays, e.g. monday,thursday")

	automationsCmd.AddCommand(automationsAddCmd)
	automationsCmd.AddCommand(automationsListCmd)
	automationsCmd.AddCommand(automationsRemoveCmd)
}

// --- settings command ---

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage user settings",
}

var clearCTA bool

var settingsCTACmd = &cobra.Command{
	Use:   "cta [text] [link]",
	Short: "Show or set the default call to action",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := cmd.Context()

		switch {
		case clearCTA:
			if err := db.UpsertUserSettings(ctx, userID, nil, nil); err != nil {
				return err
			}
			fmt.Println("Default CTA cleared")
			return nil
		case len(args) == 2:
			if !wordpress.ValidateSiteURL(args[1]) {
				return fmt.Errorf("invalid CTA link %q", args[1])
			}
			if err := db.UpsertUserSettings(ctx, userID, &args[0], &args[1]); err != nil {
				return err
			}
			fmt.Printf("Default CTA set: %s -> %s\n", args[0], args[1])
			return nil
		case len(args) == 1:
			return errors.New("both text and link are required")
		}

		settings, err := db.GetUserSettings(ctx, userID)
		if errors.Is(err, database.ErrNotFound) || (err == nil && settings.DefaultCTAText == nil) {
			fmt.Println("No default CTA set.")
			return nil
		}
		if err != nil {
			return err
		}
		link := ""
		if settings.DefaultCTALink != nil {
			link = *settings.DefaultCTALink
		}
		fmt.Printf("Default CTA: %s -> %s\n", *settings.DefaultCTAText, link)
		return nil
	},
}

func init() {
	settingsCTACmd.Flags().BoolVar(&clearCTA, "clear", false, "Remove the default CTA")
	settingsCmd.AddCommand(settingsCTACmd)
}

// --- history command ---

var (
	historyAutomation string
	historySite       string
	historyStatus     string
	historyLimit      int
	historyPosts      bool
	historyPublished  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent executions, or posts with --posts or --published",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := cmd.Context()

		if historyPosts || historyPublished {
			if historySite == "" {
				return errors.New("--posts and --published require --site")
			}
			store := database.AutomatedPosts
			if historyPublished {
				store = database.PublishedPosts
			}
			posts, err := db.ListPosts(ctx, store, historySite, historyLimit)
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				fmt.Println("No posts for this site yet.")
			}
			for _, p := range posts {
				fmt.Printf("  %s  %s\n", p.CreatedAt.Local().Format(timeLayout), styles.title.Render(p.Title))
				fmt.Printf("        %s  [%s] %s\n", p.Topic, p.Status, p.WordPressPostURL)
			}
			return nil
		}

		status := database.ExecutionStatus(historyStatus)
		if status != "" && !status.Valid() {
			return fmt.Errorf("invalid status %q: use pending, running, completed or failed", historyStatus)
		}

		execs, err := db.ListExecutions(ctx, database.ExecutionFilter{
			UserID:       userID,
			AutomationID: historyAutomation,
			SiteID:       historySite,
			Status:       status,
			Limit:        historyLimit,
		})
		if err != nil {
			return err
		}
		if len(execs) == 0 {
			fmt.Println("No executions yet. Trigger one with: bloggen run")
			return nil
		}

		for _, e := range execs {
			fmt.Printf("  %s  %-9s  automation %s\n",
				e.StartedAt.Local().Format(timeLayout), renderExecutionStatus(e.Status), e.AutomationID)
			if e.ErrorMessage != nil {
				fmt.Printf("        %s\n", styles.failure.Render(*e.ErrorMessage))
			}
			if e.PostID != nil {
				fmt.Printf("        post %s\n", *e.PostID)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyAutomation, "automation", "", "Filter by automation ID")
	historyCmd.Flags().StringVar(&historySite, "site", "", "Filter by site ID")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Filter by status (running, completed, failed)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum rows to show")
	historyCmd.Flags().BoolVar(&historyPosts, "posts", false, "List automated posts instead of executions")
	historyCmd.Flags().BoolVar(&historyPublished, "published", false, "List manually written posts instead of executions")
}
