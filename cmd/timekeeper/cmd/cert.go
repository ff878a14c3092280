package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	tlsutil "github.com/psantana5/timekeeper/pkg/tls"
)

var (
	certFile     string
	keyFile      string
	certName     string
	certHosts    []string
	certValidFor time.Duration
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage TLS certificates",
}

var certGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed certificate for serve",
	Long: `Writes a self-signed certificate and key. Point server.tls_cert_file and
server.tls_key_file at them, and client.ca_file at the certificate.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tlsutil.GenerateSelfSignedCert(certFile, keyFile, certName, certValidFor, certHosts...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Certificate written to %s\nKey written to %s\n", certFile, keyFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(certCmd)
	certCmd.AddCommand(certGenerateCmd)
	certGenerateCmd.Flags().StringVar(&certFile, "cert", "cert.pem", "certificate output file")
	certGenerateCmd.Flags().StringVar(&keyFile, "key", "key.pem", "private key output file")
	certGenerateCmd.Flags().StringVar(&certName, "name", "timekeeper", "certificate common name")
	certGenerateCmd.Flags().StringSliceVar(&certHosts, "host", nil, "additional DNS names or IP addresses")
	certGenerateCmd.Flags().DurationVar(&certValidFor, "valid-for", 365*24*time.Hour, "certificate lifetime")
}
