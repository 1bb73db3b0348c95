// Command hwenc encodes raw I420/NV12 video into an H.264 or HEVC
// elementary stream on an AMD GPU through libavcodec's AMF encoders.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "hwenc",
	Short: "Hardware video encoder",
	Long:  `hwenc - encode raw video with AMD AMF through libavcodec`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hwenc v%s\n", version)
		if v := libavcodecVersion(); v != "" {
			fmt.Printf("libavcodec %s\n", v)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is hwenc.yaml in /etc/hwenc or the working directory)")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
