package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Issue and verify achievement certificates",
}

var certsIssueCmd = &cobra.Command{
	Use:   "issue <username> <type>",
	Short: "Issue a certificate to a user",
	Args:  cobra.ExactArgs(2),
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
		code, err := st.IssueCertificate(u.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "issued '%s' certificate to %s\ncode: %s\n", args[1], u.Username, code)
		return nil
	},
}

var certsCompleteCmd = &cobra.Command{
	Use:   "complete <code>",
	Short: "Mark a certificate as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.CompleteCertificate(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "completed certificate %s\n", args[0])
		return nil
	},
}

var certsVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Look up a certificate code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		v, err := st.VerifyCertificate(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !v.Valid {
			fmt.Fprintln(out, "invalid: no certificate with that code")
			return nil
		}
		row(out, "valid", "yes")
		row(out, "type", v.Type)
		row(out, "issued", storedAge(v.IssueDate))
		if v.Completed() {
			row(out, "completed", storedAge(v.CompletedDate.String))
		} else {
			row(out, "completed", "no")
		}
		row(out, "user", v.Username)
		rowIfSet(out, "full name", v.Profile.FullName)
		rowIfSet(out, "school", v.Profile.School)
		return nil
	},
}

var certsListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a user's certificates",
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
		certs, err := st.Certificates(u.ID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(certs) == 0 {
			fmt.Fprintln(out, "no certificates")
			return nil
		}
		for _, c := range certs {
			state := "issued " + storedAge(c.IssueDate)
			if c.Completed() {
				state = "completed " + storedAge(c.CompletedDate.String)
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", c.Code, c.Type, state)
		}
		return nil
	},
}

func init() {
	certsCmd.AddCommand(certsIssueCmd)
	certsCmd.AddCommand(certsCompleteCmd)
	certsCmd.AddCommand(certsVerifyCmd)
	certsCmd.AddCommand(certsListCmd)
	rootCmd.AddCommand(certsCmd)
}
