// Package cli implements the dhcptool commandline.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/metal-stack/dhcptool/dhcp4"
)

var rootCmd = &cobra.Command{
	Use:   "dhcptool",
	Short: "Craft and inspect DHCPv4 packets",
	Long: `dhcptool builds DHCPv4 packets for the common exchanges (discover,
offer, request, acknowledge) and decodes packets from raw dumps, hex
strings or pcap captures.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

var (
	cfgFile string
	log     *zap.SugaredLogger
)

// CLI runs the dhcptool commandline.
func CLI() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	must(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))
}

func initConfig() {
	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Printf("Error reading configuration file %q: %s\n", viper.ConfigFileUsed(), err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("dhcptool")
	viper.AutomaticEnv() // read in environment variables that match
}

func initLogger() {
	cfg := zap.NewProductionConfig()
	if viper.GetBool("debug") {
		cfg = zap.NewDevelopmentConfig()
	}
	// All human-facing output goes to stdout, diagnostics to stderr.
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		fatalf("creating logger: %s", err)
	}
	log = l.Sugar()
	dhcp4.SetLogger(log)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func fatalf(msg string, args ...interface{}) {
	fmt.Printf(msg+"\n", args...)
	os.Exit(1)
}
