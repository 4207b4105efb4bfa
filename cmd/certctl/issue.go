package main

import (
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue (or return) the certificate of a completed enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := map[string]string{}
		for _, name := range []string{"enrollment", "course", "user"} {
			raw[name], _ = cmd.Flags().GetString(name)
		}
		enrollmentID, err := parseID("enrollment", raw["enrollment"])
		if err != nil {
			return err
		}
		courseID, err := parseID("course", raw["course"])
		if err != nil {
			return err
		}
		userID, err := parseID("user", raw["user"])
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Services.Certificates.GenerateCertificate(cmd.Context(), enrollmentID, courseID, userID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	issueCmd.Flags().String("enrollment", "", "Enrollment id")
	issueCmd.Flags().String("course", "", "Course id")
	issueCmd.Flags().String("user", "", "Student user id")
	_ = issueCmd.MarkFlagRequired("enrollment")
	_ = issueCmd.MarkFlagRequired("course")
	_ = issueCmd.MarkFlagRequired("user")
}
