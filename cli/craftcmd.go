package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/metal-stack/dhcptool/dhcp4"
	"github.com/metal-stack/dhcptool/pcap"
)

var craftCmd = &cobra.Command{
	Use:   "craft",
	Short: "Craft DHCPv4 packets",
	Long: `Craft builds a fully populated packet for one of the four common
exchanges and writes its wire encoding as raw bytes, hex or a pcap file.`,
}

var craftDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Craft a DHCPDISCOVER packet",
	Run: func(cmd *cobra.Command, args []string) {
		p := dhcp4.NewDiscovery(flagMAC(cmd))
		if cmd.Flags().Changed("xid") {
			p.SetField(dhcp4.FieldXID, flagXID(cmd))
		}
		p.SetOption(dhcp4.OptParameterRequestList, flagRequestParams(cmd))
		applyOptionFlags(cmd, p)
		emit(cmd, p)
	},
}

var craftOfferCmd = &cobra.Command{
	Use:   "offer",
	Short: "Craft a DHCPOFFER packet",
	Run: func(cmd *cobra.Command, args []string) {
		p := dhcp4.NewOffer(flagXID(cmd), flagMAC(cmd), flagIP(cmd, "yiaddr"), flagIP(cmd, "siaddr"))
		applyOptionFlags(cmd, p)
		emit(cmd, p)
	},
}

var craftRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Craft a DHCPREQUEST packet",
	Run: func(cmd *cobra.Command, args []string) {
		p := dhcp4.NewRequest(flagXID(cmd), flagMAC(cmd))
		p.SetOption(dhcp4.OptParameterRequestList, flagRequestParams(cmd))
		applyOptionFlags(cmd, p)
		emit(cmd, p)
	},
}

var craftAckCmd = &cobra.Command{
	Use:   "ack",
	Short: "Craft a DHCPACK packet",
	Run: func(cmd *cobra.Command, args []string) {
		p := dhcp4.NewAcknowledgement(flagXID(cmd), flagMAC(cmd), flagIP(cmd, "yiaddr"), flagIP(cmd, "siaddr"))
		applyOptionFlags(cmd, p)
		emit(cmd, p)
	},
}

func init() {
	rootCmd.AddCommand(craftCmd)
	craftCmd.AddCommand(craftDiscoverCmd, craftOfferCmd, craftRequestCmd, craftAckCmd)

	craftCmd.PersistentFlags().StringP("mac", "m", "", "client hardware address")
	craftCmd.PersistentFlags().Uint32P("xid", "x", 0, "transaction id (random for discover if unset)")
	craftCmd.PersistentFlags().StringP("out", "o", "", "output file (default stdout)")
	craftCmd.PersistentFlags().StringP("format", "f", "hex", "output format: raw, hex or pcap")
	craftCmd.PersistentFlags().String("subnet-mask", "", "subnet mask option (1)")
	craftCmd.PersistentFlags().StringSlice("routers", nil, "routers option (3)")
	craftCmd.PersistentFlags().StringSlice("dns", nil, "dns servers option (6)")
	craftCmd.PersistentFlags().String("hostname", "", "host name option (12)")
	craftCmd.PersistentFlags().Uint32("lease-time", 0, "ip lease time option (51) in seconds")
	craftCmd.PersistentFlags().IntSlice("request-params", nil, "parameter request list option (55) tags")
	must(craftCmd.MarkPersistentFlagRequired("mac"))

	for _, c := range []*cobra.Command{craftOfferCmd, craftAckCmd} {
		c.Flags().String("yiaddr", "", "the IP being offered/granted to the client")
		c.Flags().String("siaddr", "", "the responding server's IP")
		must(c.MarkFlagRequired("yiaddr"))
		must(c.MarkFlagRequired("siaddr"))
	}
}

func flagMAC(cmd *cobra.Command) net.HardwareAddr {
	s, err := cmd.Flags().GetString("mac")
	if err != nil {
		fatalf("Error reading flag: %s", err)
	}
	hw, err := net.ParseMAC(s)
	if err != nil {
		fatalf("invalid mac %q: %s", s, err)
	}
	return hw
}

func flagXID(cmd *cobra.Command) uint32 {
	xid, err := cmd.Flags().GetUint32("xid")
	if err != nil {
		fatalf("Error reading flag: %s", err)
	}
	return xid
}

func flagIP(cmd *cobra.Command, name string) net.IP {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		fatalf("Error reading flag: %s", err)
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		fatalf("invalid IPv4 address %q for --%s", s, name)
	}
	return ip
}

func flagRequestParams(cmd *cobra.Command) []byte {
	if !cmd.Flags().Changed("request-params") {
		return dhcp4.DefaultParameterRequestList
	}
	tags, err := cmd.Flags().GetIntSlice("request-params")
	if err != nil {
		fatalf("Error reading flag: %s", err)
	}
	bs := make([]byte, 0, len(tags))
	for _, tag := range tags {
		if tag < 1 || tag > 254 {
			fatalf("option tag %d out of range", tag)
		}
		bs = append(bs, byte(tag))
	}
	return bs
}

// applyOptionFlags sets the options shared by all four craft subcommands.
func applyOptionFlags(cmd *cobra.Command, p *dhcp4.Packet) {
	if s, _ := cmd.Flags().GetString("subnet-mask"); s != "" {
		mask := net.ParseIP(s)
		if mask == nil || mask.To4() == nil {
			fatalf("invalid subnet mask %q", s)
		}
		p.SetOption(dhcp4.OptSubnetMask, mask)
	}
	if ss, _ := cmd.Flags().GetStringSlice("routers"); len(ss) > 0 {
		p.SetOption(dhcp4.OptRouters, parseIPList(ss, "routers"))
	}
	if ss, _ := cmd.Flags().GetStringSlice("dns"); len(ss) > 0 {
		p.SetOption(dhcp4.OptDNSServers, parseIPList(ss, "dns"))
	}
	if s, _ := cmd.Flags().GetString("hostname"); s != "" {
		p.SetOption(dhcp4.OptHostName, []byte(s))
	}
	if secs, _ := cmd.Flags().GetUint32("lease-time"); secs > 0 {
		p.SetOption(dhcp4.OptLeaseTime, secs)
	}
}

func parseIPList(ss []string, name string) []net.IP {
	ips := make([]net.IP, 0, len(ss))
	for _, s := range ss {
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			fatalf("invalid IPv4 address %q for --%s", s, name)
		}
		ips = append(ips, ip)
	}
	return ips
}

func emit(cmd *cobra.Command, p *dhcp4.Packet) {
	bs, err := p.Marshal()
	if err != nil {
		fatalf("encoding packet: %s", err)
	}
	log.Debugw("encoded packet", "bytes", len(bs), "message_type", p.MessageType())

	var w io.Writer = os.Stdout
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			fatalf("couldn't create %q: %s", out, err)
		}
		defer f.Close()
		w = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "raw":
		if _, err := w.Write(bs); err != nil {
			fatalf("writing packet: %s", err)
		}
	case "hex":
		fmt.Fprintln(w, hex.EncodeToString(bs))
	case "pcap":
		pw := pcap.NewWriter(w)
		if err := pw.Put(craftFrame(cmd, p), bs); err != nil {
			fatalf("writing pcap: %s", err)
		}
	default:
		fatalf("unknown format %q (want raw, hex or pcap)", format)
	}
}

// craftFrame picks UDP/IP addressing for the pcap encapsulation based on
// the packet's direction: client messages are broadcast from port 68,
// server messages answer from port 67.
func craftFrame(cmd *cobra.Command, p *dhcp4.Packet) pcap.Frame {
	mt := p.MessageType()
	if mt == dhcp4.MsgDiscover || mt == dhcp4.MsgRequest {
		return pcap.Frame{
			SrcMAC:  flagMAC(cmd),
			SrcPort: 68,
			DstPort: 67,
		}
	}
	frame := pcap.Frame{
		DstMAC:  flagMAC(cmd),
		SrcPort: 67,
		DstPort: 68,
	}
	if v, ok := p.Field(dhcp4.FieldServerIP); ok {
		frame.SrcIP = v.(net.IP)
	}
	if v, ok := p.Field(dhcp4.FieldYourIP); ok {
		frame.DstIP = v.(net.IP)
	}
	return frame
}
