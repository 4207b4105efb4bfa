package main

import (
	"github.com/spf13/cobra"
)

var reissueCmd = &cobra.Command{
	Use:   "reissue-qr <enrollment-id>",
	Short: "Re-render a certificate whose QR code points at an outdated hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enrollmentID, err := parseID("enrollment", args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Services.Certificates.ReissueQR(cmd.Context(), enrollmentID, force)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	reissueCmd.Flags().Bool("force", false, "Re-render even when the QR code is already current")
}
