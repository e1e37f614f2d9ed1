package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pythonkids/pad/internal/store"
	"github.com/pythonkids/pad/internal/utils"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer application user accounts",
	Long:  "Administer the PythonKids application's user accounts in its SQLite database.",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		password, _ := cmd.Flags().GetString("password")
		admin, _ := cmd.Flags().GetBool("admin")

		if password == "" {
			var err error
			password, err = utils.PromptPassword(fmt.Sprintf("Password for %s", username))
			if err != nil {
				return err
			}
		}
		hash, err := store.HashPassword(password)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		id, err := st.AddUser(username, hash, profileFromFlags(cmd), admin)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", username, id)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		users, err := st.ListUsers()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "no users")
			return nil
		}
		for _, u := range users {
			role := ""
			if u.IsAdmin {
				role = "\t[admin]"
			}
			fmt.Fprintf(out, "%d\t%s\tcreated %s%s\n", u.ID, u.Username, storedAge(u.CreatedAt), role)
		}
		return nil
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show one account with its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		u, err := st.GetUser(args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user not found: %s", args[0])
		}
		p, err := st.Progress(u.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		row(out, "username", fmt.Sprintf("%s (id %d)", u.Username, u.ID))
		if u.IsAdmin {
			row(out, "role", "admin")
		}
		rowIfSet(out, "full name", u.Profile.FullName)
		rowIfSet(out, "parent", u.Profile.ParentName)
		rowIfSet(out, "dob", u.Profile.DOB)
		rowIfSet(out, "class", u.Profile.Class)
		rowIfSet(out, "section", u.Profile.Section)
		rowIfSet(out, "school", u.Profile.School)
		row(out, "created", storedAge(u.CreatedAt))
		if u.LastLogin.Valid {
			row(out, "last login", storedAge(u.LastLogin.String))
		}
		row(out, "points", fmt.Sprintf("%d", p.Points))
		row(out, "progress", fmt.Sprintf("%d tutorial(s), %d challenge(s), %d emoji(s)",
			len(p.CompletedTutorials), len(p.CompletedChallenges), len(p.EmojiCollection)))
		return nil
	},
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], true)
	},
}

var usersDemoteCmd = &cobra.Command{
	Use:   "demote <username>",
	Short: "Revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAdmin(cmd, args[0], false)
	},
}

var usersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			var err error
			password, err = utils.PromptPassword(fmt.Sprintf("New password for %s", args[0]))
			if err != nil {
				return err
			}
		}
		hash, err := store.HashPassword(password)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		u, err := st.GetUser(args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user not found: %s", args[0])
		}
		if err := st.ResetPassword(u.ID, hash); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password reset for %s\n", args[0])
		return nil
	},
}

var usersImportLegacyCmd = &cobra.Command{
	Use:   "import-legacy [dir]",
	Short: "Import accounts from the app's old JSON files",
	Long: "Import accounts from users.json and progress_<username>.json files, the\n" +
		"storage the application used before it had a database. Runs only against\n" +
		"an empty database.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		n, err := st.ImportLegacyJSON(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d user(s)\n", n)
		return nil
	},
}

func setAdmin(cmd *cobra.Command, username string, admin bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	u, err := st.GetUser(username)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user not found: %s", username)
	}
	if err := st.SetAdmin(u.ID, admin); err != nil {
		return err
	}
	verb := "promoted"
	if !admin {
		verb = "demoted"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, username)
	return nil
}

// profileFromFlags collects the optional enrollment flags; nil when none
// were given.
func profileFromFlags(cmd *cobra.Command) *store.Profile {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	p := store.Profile{
		FullName:   get("full-name"),
		ParentName: get("parent"),
		DOB:        get("dob"),
		Class:      get("class"),
		Section:    get("section"),
		School:     get("school"),
	}
	if p == (store.Profile{}) {
		return nil
	}
	return &p
}

// storedAge renders a timestamp the database wrote as a humanized age,
// falling back to the raw text when it does not parse.
func storedAge(ts string) string {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}

func row(out io.Writer, label, value string) {
	fmt.Fprintf(out, "%-12s%s\n", label+":", value)
}

func rowIfSet(out io.Writer, label, value string) {
	if value != "" {
		row(out, label, value)
	}
}

func init() {
	usersAddCmd.Flags().String("password", "", "Password (prompted without echo when omitted)")
	usersAddCmd.Flags().Bool("admin", false, "Create the account with admin rights")
	usersAddCmd.Flags().String("full-name", "", "Child's full name")
	usersAddCmd.Flags().String("parent", "", "Parent or guardian name")
	usersAddCmd.Flags().String("dob", "", "Date of birth")
	usersAddCmd.Flags().String("class", "", "Class")
	usersAddCmd.Flags().String("section", "", "Section")
	usersAddCmd.Flags().String("school", "", "School")
	usersResetPasswordCmd.Flags().String("password", "", "New password (prompted without echo when omitted)")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersShowCmd)
	usersCmd.AddCommand(usersPromoteCmd)
	usersCmd.AddCommand(usersDemoteCmd)
	usersCmd.AddCommand(usersResetPasswordCmd)
	usersCmd.AddCommand(usersImportLegacyCmd)
	rootCmd.AddCommand(usersCmd)
}
