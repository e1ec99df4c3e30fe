package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metal-stack/dhcptool/dhcp4"
	"github.com/metal-stack/dhcptool/pcap"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode DHCPv4 packets from a file or stdin",
	Long: `Decode reads a single raw packet, a hex dump of one packet, or a pcap
capture containing any number of them, and prints the decoded contents.
The exit status is nonzero if any packet fails validation.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			fatalf("Error reading flag: %s", err)
		}

		in := os.Stdin
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				fatalf("couldn't open %q: %s", args[0], err)
			}
			defer f.Close()
			in = f
		}
		data, err := ioutil.ReadAll(in)
		if err != nil {
			fatalf("reading input: %s", err)
		}

		var payloads [][]byte
		switch format {
		case "raw":
			payloads = [][]byte{data}
		case "hex":
			clean := strings.Join(strings.Fields(string(data)), "")
			bs, err := hex.DecodeString(clean)
			if err != nil {
				fatalf("invalid hex input: %s", err)
			}
			payloads = [][]byte{bs}
		case "pcap":
			payloads, err = pcap.DHCPPayloads(bytes.NewReader(data))
			if err != nil {
				fatalf("reading pcap: %s", err)
			}
			if len(payloads) == 0 {
				fatalf("capture contains no DHCP traffic")
			}
		default:
			fatalf("unknown format %q (want raw, hex or pcap)", format)
		}

		invalid := 0
		for i, bs := range payloads {
			pkt := dhcp4.Unmarshal(bs)
			if len(payloads) > 1 {
				fmt.Printf("packet #%d (%d bytes)\n", i+1, len(bs))
			}
			fmt.Print(pkt.DebugString())
			if !pkt.IsValid() {
				invalid++
			}
		}
		if invalid > 0 {
			fatalf("%d of %d packets failed validation", invalid, len(payloads))
		}
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("format", "f", "raw", "input format: raw, hex or pcap")
}
